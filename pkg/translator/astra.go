package translator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

// astraHeaders are the element namelists, in the order they are written, with
// the switch that enables each of them.
var astraHeaders = []struct {
	name   string
	enable string
}{
	{"&APERTURE", "LApert"},
	{"&CAVITY", "LEField"},
	{"&SOLENOID", "LBField"},
	{"&QUADRUPOLE", "LQuad"},
	{"&DIPOLE", "LDipole"},
	{"&WAKE", "LWAKE"},
}

const astraWidth = 70

// defaultDipoleWidth is the pole width, as a fraction of the length, used for
// the corners of dipoles that do not define one.
const defaultDipoleWidth = 0.2

type astraTranslator struct{}

func (astraTranslator) Code() Code { return Astra }

// Translate writes the run namelists followed by the element namelists of
// every beamline. Indices restart with each beamline.
func (t astraTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		if len(lines) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "! %s\n", line.Name)
		}
		out, err := t.beamline(line, env)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (t astraTranslator) beamline(line Beamline, env *Env) (string, error) {
	elements := line.Elements()
	env.Counter().Reset()

	bodies := make(map[string]*strings.Builder, len(astraHeaders))
	for _, h := range astraHeaders {
		bodies[h.name] = &strings.Builder{}
	}
	enabled := make(map[string]bool)
	enable := func(header string) {
		if enabled[header] {
			return
		}
		enabled[header] = true
		for _, h := range astraHeaders {
			if h.name == header {
				fmt.Fprintf(bodies[header], "%s = True\n", h.enable)
			}
		}
	}

	for _, e := range elements {
		header := astraHeader(e.HardwareType)
		body, ok := bodies[header]
		if !ok {
			if !e.IsDiagnostic() {
				env.warnUnsupported(Astra, e)
			}
			continue
		}
		text, used, err := t.element(e, env, env.Counter().Next(header))
		if err != nil {
			return "", err
		}
		if used == 0 {
			continue
		}
		enable(header)
		body.WriteString(text)
		env.Counter().Add(header, used)

		if cav, sim := e.Cavity, e.Simulation; cav != nil && sim != nil && !sim.WakefieldDefinition.IsZero() {
			wake, n := astraWake(e, env, env.Counter().Next("&WAKE"), cav.CellLength, cav.NCells, cav.CouplingCellLength)
			if n > 0 {
				enable("&WAKE")
				bodies["&WAKE"].WriteString(wake)
				env.Counter().Add("&WAKE", n)
			}
		}
	}

	var b strings.Builder
	b.WriteString(astraNewrun(env))
	b.WriteString(astraOutput(elements))
	b.WriteString(astraCharge(env))
	b.WriteString(astraErrors())
	for _, h := range astraHeaders {
		b.WriteString(h.name + "\n")
		b.WriteString(bodies[h.name].String() + "\n")
		b.WriteString("/ \n")
	}
	return b.String(), nil
}

// astraHeader derives the namelist an element belongs to from its type, so
// RFCavity lands in &CAVITY and Wakefield in &WAKE.
func astraHeader(hardwareType string) string {
	name := strings.ToUpper(domain.CanonicalType(hardwareType))
	name = strings.ReplaceAll(name, "RF", "")
	name = strings.ReplaceAll(name, "FIELD", "")
	return "&" + name
}

// element writes the entries of one element starting at index n and reports
// how many indices it used.
func (t astraTranslator) element(e *domain.Element, env *Env, n int) (string, int, error) {
	switch domain.CanonicalType(e.HardwareType) {
	case "Quadrupole":
		return astraQuadrupole(e, env, n)
	case "Dipole":
		return astraDipole(e, env, n)
	case "Solenoid":
		return astraSolenoid(e, env, n)
	case "RFCavity":
		return astraCavity(e, env, n)
	case "Aperture":
		return astraAperture(e, n)
	case "Wakefield":
		if e.Wakefield == nil {
			return "", 0, nil
		}
		text, used := astraWake(e, env, n, e.Wakefield.CellLength, e.Wakefield.NCells, 0)
		return text, used, nil
	}
	return "", 0, nil
}

type astraKind int

const (
	astraPlain astraKind = iota
	astraNotZero
	astraList
	astraArray
)

type astraParam struct {
	key   string
	value any
	kind  astraKind
}

// astraEntries writes indexed namelist entries "K(n) = v, ", starting a new
// line before one would pass the column limit. Lists expand to K(i,n) and
// arrays to K(n) = (a, b).
func astraEntries(params []astraParam, n int) string {
	var out strings.Builder
	lineLen := 0
	write := func(s string) {
		if lineLen+len(s) > astraWidth {
			out.WriteString("\n")
			lineLen = 0
		}
		out.WriteString(s)
		if i := strings.LastIndexByte(s, '\n'); i >= 0 {
			lineLen = len(s) - i - 1
		} else {
			lineLen += len(s)
		}
	}
	for _, p := range params {
		switch p.kind {
		case astraNotZero:
			if f, ok := p.value.(float64); ok && f == 0 {
				continue
			}
			write(fmt.Sprintf("%s(%d) = %s, ", p.key, n, astraValue(p.value)))
		case astraList:
			for i, v := range p.value.([]float64) {
				write(fmt.Sprintf("%s(%d,%d) = %s, ", p.key, i+1, n, formatFloat(v)))
			}
		case astraArray:
			vals := p.value.([]float64)
			parts := make([]string, len(vals))
			for i, v := range vals {
				parts[i] = formatFloat(v)
			}
			write(fmt.Sprintf("%s(%d) = (%s),\n", p.key, n, strings.Join(parts, ", ")))
		default:
			write(fmt.Sprintf("%s(%d) = %s, ", p.key, n, astraValue(p.value)))
		}
	}
	s := strings.TrimSuffix(out.String(), "\n")
	return strings.TrimSuffix(strings.TrimSuffix(s, " "), ",") + "\n"
}

func astraValue(v any) string {
	return formatValue(v, boolPython)
}

func astraQuote(s string) string {
	return "'" + s + "'"
}

func placementErrors(e *domain.Element) (domain.Position, domain.Rotation) {
	return e.Physical.Error.Position, e.Physical.Error.Rotation
}

func astraQuadrupole(e *domain.Element, env *Env, n int) (string, int, error) {
	m := e.Magnetic
	if m == nil {
		return "", 0, nil
	}
	ref := e.FieldReference()
	d, dr := placementErrors(e)
	rot := e.Physical.Rotation
	params := []astraParam{
		{key: "Q_pos", value: ref.Z + d.Z},
		{key: "Q_xoff", value: ref.X, kind: astraNotZero},
		{key: "Q_yoff", value: ref.Y + d.Y, kind: astraNotZero},
		{key: "Q_xrot", value: -rot.Theta + dr.Theta, kind: astraNotZero},
		{key: "Q_yrot", value: -rot.Phi + dr.Phi, kind: astraNotZero},
		{key: "Q_zrot", value: -rot.Psi + dr.Psi, kind: astraNotZero},
	}
	if sim := e.Simulation; sim != nil {
		params = append(params, astraParam{key: "Q_smooth", value: sim.Smooth})
	}
	params = append(params, astraParam{key: "Q_bore", value: m.Bore, kind: astraNotZero})

	sim := e.Simulation
	switch {
	case sim != nil && !sim.FieldDefinition.IsZero() && env.Momentum != 0:
		params = append(params,
			astraParam{key: "Q_type", value: astraQuote(env.FieldFile(sim.FieldDefinition))},
			astraParam{key: "q_grad", value: m.Gradient(env.Momentum)},
		)
	case math.Abs(m.Kn(1)) > 0:
		params = append(params,
			astraParam{key: "Q_k", value: m.Kn(1)},
			astraParam{key: "Q_length", value: m.Length},
		)
	default:
		return "", 0, nil
	}
	return astraEntries(params, n), 1, nil
}

// dipoleCorners returns the four pole corners in the x-z plane, in the order
// D1, D3, D4, D2.
func dipoleCorners(e *domain.Element) [4]domain.Position {
	m := e.Magnetic
	width := m.Width
	if width == 0 {
		width = defaultDipoleWidth
	}
	half := domain.Position{X: width * m.Length}
	global := e.Physical.GlobalRotation.Theta
	start, end := e.Start(), e.End()

	in := domain.RotationY(m.E1() + global)
	out := domain.RotationY(m.Angle - m.E2() + global)
	return [4]domain.Position{
		start.Add(in.Apply(half)),
		end.Add(out.Apply(half)),
		end.Sub(out.Apply(half)),
		start.Sub(in.Apply(half)),
	}
}

func astraDipole(e *domain.Element, env *Env, n int) (string, int, error) {
	m := e.Magnetic
	if m == nil {
		return "", 0, nil
	}
	field := 0.0
	if env.Momentum != 0 {
		field = m.FieldStrength(env.Momentum)
	}
	if field <= 0 && math.Abs(m.Rho()) == 0 {
		return "", 0, nil
	}
	plane := m.Plane
	if plane == "" {
		plane = "horizontal"
	}
	gap := m.Gap
	if gap == 0 {
		gap = 0.0001
	}
	c := dipoleCorners(e)
	_, dr := placementErrors(e)
	params := []astraParam{
		{key: "D_Type", value: astraQuote(plane)},
		{key: "D_Gap", value: []float64{gap, gap}, kind: astraList},
		{key: "D1", value: []float64{c[0].X, c[0].Z}, kind: astraArray},
		{key: "D3", value: []float64{c[1].X, c[1].Z}, kind: astraArray},
		{key: "D4", value: []float64{c[2].X, c[2].Z}, kind: astraArray},
		{key: "D2", value: []float64{c[3].X, c[3].Z}, kind: astraArray},
		{key: "D_zrot", value: e.Physical.Rotation.Psi + dr.Psi},
	}
	if field > 0 {
		params = append(params, astraParam{key: "D_strength", value: field})
	} else {
		params = append(params, astraParam{key: "D_radius", value: m.Rho()})
	}
	return astraEntries(params, n), 1, nil
}

// solenoidAmplitude is the peak field of a solenoid: the S0L harmonic scaled
// by the simulation field scale when set, else the magnetic field amplitude.
func solenoidAmplitude(e *domain.Element, env *Env) float64 {
	m := e.Magnetic
	if m == nil {
		return 0
	}
	if m.Fields.S0L != "" {
		v, err := strconv.ParseFloat(env.ExpandSubstitution(m.Fields.S0L), 64)
		if err == nil {
			if sim := e.Simulation; sim != nil && sim.ScaleField != 0 {
				v *= sim.ScaleField
			}
			return v
		}
	}
	return m.FieldAmplitude
}

func astraSolenoid(e *domain.Element, env *Env, n int) (string, int, error) {
	sim := e.Simulation
	if sim == nil || sim.FieldDefinition.IsZero() {
		return "", 0, &UnsupportedError{Code: Astra, Type: e.HardwareType, Element: e.Name, Reason: "solenoids require a field map"}
	}
	ref := e.FieldReference()
	d, dr := placementErrors(e)
	rot := e.Physical.Rotation
	maxB := 0.0
	if l := e.Length(); l != 0 {
		maxB = solenoidAmplitude(e, env) / l
	}
	params := []astraParam{
		{key: "S_pos", value: ref.Z + d.Z},
		{key: "FILE_BFieLD", value: astraQuote(env.FieldFile(sim.FieldDefinition))},
		{key: "MaxB", value: maxB},
		{key: "S_smooth", value: sim.Smooth},
		{key: "S_xoff", value: ref.X + d.X},
		{key: "S_yoff", value: ref.Y + d.Y},
		{key: "S_xrot", value: rot.Theta + dr.Theta},
		{key: "S_yrot", value: rot.Phi + dr.Phi},
	}
	return astraEntries(params, n), 1, nil
}

func astraCavity(e *domain.Element, env *Env, n int) (string, int, error) {
	cav := e.Cavity
	if cav == nil {
		cav = &domain.Cavity{}
	}
	sim := e.Simulation
	if sim == nil {
		sim = &domain.Simulation{}
	}
	crest := cav.Crest
	if env.AutoPhase {
		crest = 0
	}
	amplitude := sim.FieldAmplitude
	if amplitude == 0 {
		amplitude = cav.FieldAmplitude
	}
	ref := e.FieldReference()
	d, dr := placementErrors(e)
	rot := e.Physical.Rotation
	params := []astraParam{
		{key: "C_pos", value: ref.Z + d.Z},
		{key: "FILE_EFieLD", value: astraQuote(env.FieldFile(sim.FieldDefinition))},
		{key: "C_numb", value: cav.Cells(e.Length())},
		{key: "Nue", value: cav.Frequency / 1e9},
		{key: "MaxE", value: amplitude / 1e6},
		{key: "Phi", value: crest - cav.Phase},
		{key: "C_smooth", value: sim.Smooth},
		{key: "C_xoff", value: ref.X + d.X, kind: astraNotZero},
		{key: "C_yoff", value: ref.Y + d.Y, kind: astraNotZero},
		{key: "C_xrot", value: rot.Theta + dr.Theta, kind: astraNotZero},
		{key: "C_yrot", value: rot.Phi + dr.Phi, kind: astraNotZero},
		{key: "C_zrot", value: rot.Psi + dr.Psi, kind: astraNotZero},
	}
	return astraEntries(params, n), 1, nil
}

// astraWake writes one &WAKE entry per cell, each centred on its cell, and
// returns the number of entries.
func astraWake(e *domain.Element, env *Env, n int, cellLength float64, cells int, offset float64) (string, int) {
	sim := e.Simulation
	if sim == nil || sim.WakefieldDefinition.IsZero() || sim.ScaleKick <= 0 || cells <= 0 {
		return "", 0
	}
	waketype := "Taylor_Method_F"
	switch sim.WakefieldDefinition.FieldType {
	case domain.LongitudinalWake:
		waketype = "Monopole_Method_F"
	case domain.TransverseWake:
		waketype = "Dipole_Method_F"
	}
	file := astraQuote(env.FieldFile(sim.WakefieldDefinition))
	d, _ := placementErrors(e)
	start := e.Start().Z + offset

	var b strings.Builder
	for i := range cells {
		b.WriteString(astraEntries([]astraParam{
			{key: "Wk_Type", value: quote(waketype)},
			{key: "Wk_filename", value: file},
			{key: "Wk_x", value: d.X},
			{key: "Wk_y", value: d.Y},
			{key: "Wk_z", value: start + (0.5+float64(i))*cellLength},
			{key: "Wk_ex", value: sim.ScaleFieldEx},
			{key: "Wk_ey", value: sim.ScaleFieldEy},
			{key: "Wk_ez", value: sim.ScaleFieldEz},
			{key: "Wk_hx", value: sim.ScaleFieldHx},
			{key: "Wk_hy", value: sim.ScaleFieldHy},
			{key: "Wk_hz", value: sim.ScaleFieldHz},
			{key: "Wk_equi_grid", value: sim.EqualGrid},
			{key: "Wk_N_bin", value: 10},
			{key: "Wk_ip_method", value: sim.InterpolationMethod},
			{key: "Wk_smooth", value: sim.Smooth},
			{key: "Wk_sub", value: sim.Subbins},
			{key: "Wk_scaling", value: sim.ScaleKick},
		}, n+i))
		b.WriteString("\n")
	}
	return b.String(), cells
}

func astraAperture(e *domain.Element, n int) (string, int, error) {
	a := e.Aperture
	if a == nil {
		return "", 0, nil
	}
	switch a.Shape {
	case domain.ShapeElliptical, domain.ShapeCircular:
		params := append([]astraParam{
			{key: "File_Aperture", value: "RAD"},
			{key: "Ap_R", value: 1e3 * a.EffectiveRadius()},
		}, apertureCommon(e)...)
		return astraEntries(params, n), 1, nil
	case domain.ShapePlanar, domain.ShapeRectangular, domain.ShapeScraper:
		prefix := "Col_"
		if a.Shape == domain.ShapeScraper {
			prefix = "Scr_"
		}
		var b strings.Builder
		used := 0
		for _, plane := range []struct {
			name string
			size float64
		}{{"X", a.HorizontalSize}, {"Y", a.VerticalSize}} {
			if plane.size <= 0 {
				continue
			}
			if used > 0 {
				b.WriteString("\n")
			}
			params := append([]astraParam{
				{key: "File_Aperture", value: prefix + plane.name},
				{key: "Ap_R", value: 1e3 * plane.size},
			}, apertureCommon(e)...)
			b.WriteString(astraEntries(params, n+used))
			used++
		}
		return b.String(), used, nil
	}
	return "", 0, &UnsupportedError{Code: Astra, Type: e.HardwareType, Element: e.Name,
		Reason: fmt.Sprintf("aperture shape %q", a.Shape)}
}

func apertureCommon(e *domain.Element) []astraParam {
	a := e.Aperture
	d, dr := placementErrors(e)
	rot := e.Physical.Rotation
	startZ, endZ := e.Start().Z, e.End().Z

	var params []astraParam
	if a.NegativeExtent != 0 {
		params = append(params,
			astraParam{key: "Ap_Z1", value: a.NegativeExtent},
			astraParam{key: "a_pos", value: startZ},
		)
	} else {
		params = append(params, astraParam{key: "Ap_Z1", value: startZ + d.Z})
	}
	if a.PositiveExtent != 0 {
		params = append(params, astraParam{key: "Ap_Z2", value: a.PositiveExtent})
		if a.NegativeExtent == 0 {
			params = append(params, astraParam{key: "a_pos", value: startZ})
		}
	} else {
		end := startZ + d.Z + 1e-3
		if endZ >= startZ+1e-3 {
			end = endZ + d.Z
		}
		params = append(params, astraParam{key: "Ap_Z2", value: end})
	}
	return append(params,
		astraParam{key: "A_xrot", value: rot.Theta + dr.Theta, kind: astraNotZero},
		astraParam{key: "A_yrot", value: rot.Phi + dr.Phi, kind: astraNotZero},
		astraParam{key: "A_zrot", value: rot.Psi + dr.Psi, kind: astraNotZero},
	)
}

// astraNamelist writes a run namelist with one "key = value," per line.
func astraNamelist(header string, params []Param) string {
	var b strings.Builder
	b.WriteString("&" + header + "\n")
	for i, p := range params {
		sep := ",\n"
		if i == len(params)-1 {
			sep = "\n"
		}
		b.WriteString(p.Key + " = " + astraValue(p.Value) + sep)
	}
	b.WriteString("/\n")
	return b.String()
}

func astraNewrun(env *Env) string {
	params := []Param{
		{"n_red", env.SampleInterval},
		{"Run", 1},
		{"Head", astraQuote("trial")},
		{"lprompt", false},
		{"Distribution", astraQuote(env.ParticleFile)},
		{"high_res", true},
		{"auto_phase", env.AutoPhase},
	}
	if env.Charge != 0 {
		params = append(params, Param{"Qbunch", math.Abs(env.Charge) * 1e9})
	}
	params = append(params,
		Param{"Toff", 0.0},
		Param{"track_all", true},
		Param{"phase_scan", false},
		Param{"check_ref_part", false},
		Param{"h_max", 0.07},
		Param{"h_min", 0.07},
	)
	return astraNamelist("NEWRUN", params)
}

func astraOutput(elements []*domain.Element) string {
	params := []Param{
		{"lmagnetized", false},
		{"refs", true},
		{"emits", true},
		{"phases", true},
		{"high_res", true},
		{"tracks", true},
		{"Lsub_cor", true},
	}
	if len(elements) > 0 {
		zstart := elements[0].Start().Z
		zstop := elements[len(elements)-1].End().Z
		params = append(params,
			Param{"zstart", zstart},
			Param{"zstop", zstop},
			Param{"zemit", int((zstop - zstart) / 0.01)},
		)
	}
	i := 0
	for _, e := range elements {
		if !e.IsDiagnostic() {
			continue
		}
		i++
		params = append(params, Param{fmt.Sprintf("Screen(%d)", i), e.Middle().Z})
	}
	return astraNamelist("OUTPUT", params)
}

func astraCharge(env *Env) string {
	mode := strings.ToUpper(env.SpaceCharge)
	sc2D := mode == "2D"
	sc3D := mode != "" && mode != "FALSE" && mode != "NONE" && !sc2D
	params := []Param{
		{"Lmirror", env.Cathode},
		{"LSPCH", sc2D || sc3D},
		{"LSPCH3D", sc3D},
		{"min_grid", 3.424657e-13},
		{"max_scale", 0.1},
		{"cell_var", 2.0},
		{"smooth_x", 2},
		{"smooth_y", 2},
		{"smooth_z", 2},
	}
	interval := max(env.SampleInterval, 1)
	grid := gridSize(float64(env.NumParticles) / float64(interval))
	switch {
	case sc2D:
		params = append(params, Param{"nrad", grid}, Param{"nlong_in", grid})
	case sc3D:
		params = append(params, Param{"nxf", grid}, Param{"nyf", grid}, Param{"nzf", grid})
	}
	return astraNamelist("CHARGE", params)
}

func astraErrors() string {
	return astraNamelist("ERROR", []Param{
		{"errors", true},
		{"log_error", true},
		{"lerror", true},
		{"suppress_output", false},
	})
}

// gridSize picks the power of two nearest to the cube root of the particle
// count, with a floor of four cells.
func gridSize(particles float64) int {
	root := math.Round(math.Cbrt(math.Abs(particles)))
	best := 2
	for p := 2; p <= 1<<19; p <<= 1 {
		if math.Abs(float64(p)-root) < math.Abs(float64(best)-root) {
			best = p
		}
	}
	return max(best, 4)
}
