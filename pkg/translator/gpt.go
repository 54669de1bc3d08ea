package translator

import (
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

type gptTranslator struct{}

func (gptTranslator) Code() Code { return GPT }

// gptCCS is a GPT coordinate system. Elements are placed relative to the
// current one, and every bend opens a new one at its middle.
type gptCCS struct {
	name      string
	position  domain.Position
	rotation  domain.Rotation
	intersect float64
}

func (c gptCCS) quoted() string { return quote(c.name) }

// relative returns the position along the ccs axis and the rotation of a
// point relative to the ccs.
func (c gptCCS) relative(p domain.Position, r domain.Rotation) (domain.Position, domain.Rotation) {
	return domain.Position{Z: math.Abs(c.intersect) + p.Sub(c.position).Length()}, r.Sub(c.rotation)
}

// text returns the GPT axis label ("z", "zY", ...) and the matching offsets
// for a point relative to the ccs.
func (c gptCCS) text(p domain.Position, r domain.Rotation) (string, string) {
	pos, rot := c.relative(p, r)
	var label strings.Builder
	var values []string
	for _, v := range []struct {
		axis  string
		value float64
	}{
		{"x", pos.X}, {"y", pos.Y}, {"z", pos.Z},
		{"X", rot.Phi}, {"Y", rot.Theta}, {"Z", rot.Psi},
	} {
		if math.Abs(v.value) > 0 {
			label.WriteString(v.axis)
			values = append(values, formatFloat(v.value))
		}
	}
	if label.Len() == 0 {
		return quote("z"), "0"
	}
	return quote(label.String()), strings.Join(values, ",")
}

// coordinates writes an origin and the x and y axes of a frame rotated by
// theta about the vertical.
func gptCoordinates(pos domain.Position, rot domain.Rotation) string {
	x, y, z := domain.Chop(pos.X, 1e-6), domain.Chop(pos.Y, 1e-6), domain.Chop(pos.Z, 1e-6)
	theta := formatFloat(rot.Theta)
	return fmt.Sprintf("%s, %s, %s, cos(%s), 0, -sin(%s), 0, 1 ,0",
		formatFloat(-x), formatFloat(y), formatFloat(z), theta, theta)
}

// Translate writes the GPT headers, the elements placed in their coordinate
// systems, the screens that carry output across each change of system and
// the particle bounds.
func (t gptTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		if len(lines) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "# %s\n", line.Name)
		}
		out, err := t.beamline(line, env)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (t gptTranslator) beamline(line Beamline, env *Env) (string, error) {
	elements := line.Elements()
	if len(elements) == 0 {
		return "", nil
	}
	env.Counter().Reset()
	startZ := elements[0].Start().Z
	endZ := elements[len(elements)-1].End().Z

	var b strings.Builder
	b.WriteString(gptHeaders(env, endZ-startZ))

	screen0 := startZ
	ccs := gptCCS{
		name:     "wcs",
		position: elements[0].Start(),
		rotation: elements[0].Physical.GlobalRotation,
	}
	for _, e := range elements {
		text, next, err := t.element(e, env, ccs)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		if next.name != ccs.name {
			pos, _ := ccs.relative(e.Middle(), e.Physical.GlobalRotation)
			b.WriteString(gptScreen(ccs, env, screen0, pos.Z))
			screen0 = 0
			ccs = next
		}
	}
	last := elements[len(elements)-1]
	pos, _ := ccs.relative(last.End(), last.Physical.GlobalRotation)
	b.WriteString(gptScreen(ccs, env, screen0, pos.Z))
	fmt.Fprintf(&b, "Zminmax(\"wcs\", \"I\", %s, %s);\n", formatFloat(startZ-0.1), formatFloat(endZ+1))
	return b.String(), nil
}

func gptScreen(ccs gptCCS, env *Env, from, to float64) string {
	if env.Cathode {
		from += env.ScreenStep
	}
	return fmt.Sprintf("screen( %s, \"I\", %s, %s, %s, \"OutputCCS\",%s);\n",
		ccs.quoted(), formatFloat(from), formatFloat(to), formatFloat(env.ScreenStep), ccs.quoted())
}

func gptHeaders(env *Env, length float64) string {
	var b strings.Builder
	file := strings.TrimSuffix(env.ParticleFile, path.Ext(env.ParticleFile)) + ".gdf"
	fmt.Fprintf(&b, "setfile(\"beam\", %s);\n", quote(file))
	if env.Charge != 0 {
		fmt.Fprintf(&b, "settotalcharge(\"beam\",%s);\n", formatFloat(-math.Abs(env.Charge)))
	}
	if env.SampleInterval > 1 {
		fmt.Fprintf(&b, "setreduce(\"beam\",%d);\n", env.SampleInterval)
	}
	b.WriteString("accuracy(6);\n")
	switch mode := strings.ToLower(env.SpaceCharge); {
	case mode != "" && env.Cathode:
		b.WriteString("spacecharge3Dmesh(\"Cathode\",\"RestMaxGamma\",1000);\n")
	case mode == "2d", mode == "3d":
		b.WriteString("Spacecharge3Dmesh();\n")
	}
	fmt.Fprintf(&b, "tout(0.0,%s/c,%s/c);\n", formatFloat(length), formatFloat(env.ScreenStep))
	return b.String()
}

// element writes one element in ccs and returns the coordinate system the
// next element is placed in.
func (t gptTranslator) element(e *domain.Element, env *Env, ccs gptCCS) (string, gptCCS, error) {
	switch domain.CanonicalType(e.HardwareType) {
	case "Quadrupole", "Sextupole":
		return gptMultipole(e, env, ccs), ccs, nil
	case "Dipole":
		return gptDipole(e, env, ccs)
	case "Solenoid":
		text, err := gptSolenoid(e, env, ccs)
		return text, ccs, err
	case "RFCavity":
		return gptCavity(e, env, ccs), ccs, nil
	case "Wakefield":
		if e.Wakefield == nil {
			return "", ccs, nil
		}
		return gptWake(e, env, ccs, e.Wakefield.CellLength, e.Wakefield.NCells, 0), ccs, nil
	}
	if !e.IsDiagnostic() && !e.IsDrift() {
		env.warnUnsupported(GPT, e)
	}
	return "", ccs, nil
}

func gptMultipole(e *domain.Element, env *Env, ccs gptCCS) string {
	m := e.Magnetic
	if m == nil {
		return ""
	}
	order := m.Order
	if order == 0 {
		order = 1
		if e.Is("Sextupole") {
			order = 2
		}
	}
	knl := m.KnL(order)
	if e.Is("Sextupole") {
		knl /= 2
	}
	label, values := ccs.text(e.Middle(), e.Physical.Rotation)
	return fmt.Sprintf("%s( %s, %s, %s, %s, %s);\n",
		strings.ToLower(domain.CanonicalType(e.HardwareType)), ccs.quoted(), label, values,
		formatFloat(m.Length), formatFloat(-env.Brho()*knl))
}

func gptDipole(e *domain.Element, env *Env, ccs gptCCS) (string, gptCCS, error) {
	m := e.Magnetic
	if m == nil || m.Length == 0 {
		return "", ccs, nil
	}
	field := m.Angle * env.Brho() / m.Length
	rho := m.Rho()
	if math.Abs(field) == 0 || math.Abs(rho) >= 100 {
		return "", ccs, nil
	}
	pos, rot := ccs.relative(e.Middle(), e.Physical.GlobalRotation)
	next := gptCCS{
		name:     fmt.Sprintf("ccs_%d", env.Counter().Add("ccs", 1)),
		position: e.Middle(),
		rotation: e.Physical.GlobalRotation.Add(domain.Rotation{Theta: -m.Angle}),
	}
	b1 := 10000.0
	if m.HalfGap > 0 && m.EdgeFieldIntegral > 0 {
		b1 = math.Round(100/(2*m.HalfGap*m.EdgeFieldIntegral)) / 100
	}
	dl := 0.0
	if e.Simulation != nil {
		dl = e.Simulation.DeltaL
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ccs( %s, %s, %s);\n", ccs.quoted(), gptCoordinates(pos, rot), next.quoted())
	fmt.Fprintf(&b, "sectormagnet( %s, %s, %s, %s, %s, %s, %s, %s, 0);\n",
		ccs.quoted(), next.quoted(), formatFloat(math.Abs(rho)), formatFloat(math.Abs(field)),
		formatFloat(m.E1()), formatFloat(m.E2()), formatFloat(dl), formatFloat(b1))
	return b.String(), next, nil
}

func gptSolenoid(e *domain.Element, env *Env, ccs gptCCS) (string, error) {
	sim := e.Simulation
	if sim == nil || sim.FieldDefinition.IsZero() {
		return "", &UnsupportedError{Code: GPT, Type: e.HardwareType, Element: e.Name, Reason: "solenoids require a field map"}
	}
	file := quote(env.FieldFile(sim.FieldDefinition))
	label, values := ccs.text(e.FieldReference(), e.Physical.Rotation)
	amplitude := formatFloat(solenoidAmplitude(e, env))
	switch strings.ToLower(sim.FieldDefinition.FieldType) {
	case "1dmagnetostatic":
		return fmt.Sprintf("map1D_B( %s, %s, %s, %s, \"z\", \"Bz\", %s);\n",
			ccs.quoted(), label, values, file, amplitude), nil
	case "3dmagnetostatic":
		return fmt.Sprintf("map3D_B( %s, %s, %s, %s, \"x\", \"y\", \"z\", \"Bx\", \"By\", \"Bz\", %s);\n",
			ccs.quoted(), label, values, file, amplitude), nil
	}
	return "", &UnsupportedError{Code: GPT, Type: e.HardwareType, Element: e.Name,
		Reason: fmt.Sprintf("field type %q", sim.FieldDefinition.FieldType)}
}

// gptCavity defines the frequency, phase and field factor variables of a
// cavity, suffixed by its position, and places its field map.
func gptCavity(e *domain.Element, env *Env, ccs gptCCS) string {
	sim, cav := e.Simulation, e.Cavity
	if sim == nil || cav == nil || sim.FieldDefinition.IsZero() {
		return ""
	}
	ref := e.FieldReference()
	label, values := ccs.text(ref, e.Physical.Rotation)
	pos, _ := ccs.relative(ref, e.Physical.GlobalRotation)
	sub := strings.ReplaceAll(formatFloat(pos.Z), ".", "")
	sub = strings.ReplaceAll(sub, "-", "m")

	amplitude := sim.FieldAmplitude
	if amplitude == 0 {
		amplitude = cav.FieldAmplitude
	}
	var b strings.Builder
	fmt.Fprintf(&b, "f%s = %s;\n", sub, formatFloat(cav.Frequency))
	fmt.Fprintf(&b, "w%s = 2*pi*f%s;\n", sub, sub)
	fmt.Fprintf(&b, "phi%s = %s/deg;\n", sub, formatFloat(math.Mod(cav.Crest+90-cav.Phase, 360)))
	if cav.IsTravellingWave() {
		fmt.Fprintf(&b, "ffac%s = 1.007 * %s;\n", sub, formatFloat(9/(2*math.Pi)*amplitude))
	} else {
		fmt.Fprintf(&b, "ffac%s = %s;\n", sub, formatFloat(amplitude))
	}
	fmt.Fprintf(&b, "map1D_TM(%s, %s, %s, %s, \"z\", \"Ez\", ffac%s, phi%s, w%s);\n",
		ccs.quoted(), label, values, quote(env.FieldFile(sim.FieldDefinition)), sub, sub, sub)
	if !sim.WakefieldDefinition.IsZero() {
		b.WriteString(gptWake(e, env, ccs, cav.CellLength, cav.NCells, cav.CouplingCellLength))
	}
	return b.String()
}

// gptWake places one wakefield per cell.
func gptWake(e *domain.Element, env *Env, ccs gptCCS, cellLength float64, cells int, offset float64) string {
	sim := e.Simulation
	if sim == nil || sim.WakefieldDefinition.IsZero() || sim.ScaleKick <= 0 || cellLength == 0 {
		return ""
	}
	file := quote(env.FieldFile(sim.WakefieldDefinition))
	wx, wy := "", ""
	if sim.WxColumn != "" {
		wx = "Wx"
	}
	if sim.WyColumn != "" {
		wy = "Wy"
	}
	ref := e.FieldReference()
	var b strings.Builder
	for i := range cells {
		p := domain.Position{X: ref.X, Y: ref.Y, Z: ref.Z + offset + float64(i)*cellLength}
		label, values := ccs.text(p, e.Physical.Rotation)
		fmt.Fprintf(&b, "wakefield(%s, %s, %s, %s, %s, %s, \"z\", %s, %s, \"Wz\");\n",
			ccs.quoted(), label, values, formatFloat(cellLength), formatFloat(3/cellLength),
			file, quote(wx), quote(wy))
	}
	return b.String()
}
