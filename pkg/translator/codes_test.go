package translator_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func export(t *testing.T, code translator.Code, s *lattice.Section, opts ...translator.Option) string {
	t.Helper()
	out, err := translator.ExportSection(code, s, translator.NewEnv(opts...))
	require.NoError(t, err)
	return out
}

func TestElegant(t *testing.T) {
	out := export(t, translator.Elegant, twoQuads())

	assert.Contains(t, out, "Q1: KQUAD, l = 0.2, k1 = 0.5,")
	assert.Contains(t, out, "Q2: KQUAD, l = 0.2, k1 = -0.5,")
	assert.Contains(t, out, "S01_drift_1: CSRDRIFT, l = 0.4,")
	assert.Contains(t, out, "BPM1: MONI")
	assert.Contains(t, out, "S01: LINE = (Q1, S01_drift_1, BPM1, S01_drift_2, Q2)\n")
	assert.NotContains(t, out, "CHARGE")

	for _, line := range splitLines(out) {
		assert.LessOrEqual(t, len(line), 78, line)
	}
}

func TestElegant_Watch(t *testing.T) {
	scr := diagnostic("SCR1", "Screen", "S02", 3.0)
	s := lattice.NewSection("S02", []string{"SCR1"}, []*domain.Element{scr})

	out := export(t, translator.Elegant, s, translator.WithOutputDir("out"))
	assert.Contains(t, out, `SCR1: WATCH, filename = "out/SCR1.SDDS", mode = coordinates, interval = 1;`)
}

func TestElegant_Cavity(t *testing.T) {
	cav := domain.NewElement("CAV1", "RFCavity")
	cav.MachineArea = "L01"
	cav.Physical.Middle = domain.Position{Z: 2}
	cav.Physical.Length = 1
	cav.Cavity.Phase = 20
	cav.Cavity.FieldAmplitude = 1e6
	cav.Cavity.Frequency = 3e9
	s := lattice.NewSection("L01", []string{"CAV1"}, []*domain.Element{cav})

	out := export(t, translator.Elegant, s)
	assert.Contains(t, out, "CAV1: RFCA, l = 1.0, volt = 1000000.0, phase = 70.0, freq = 3000000000.0")
}

func TestGenesis(t *testing.T) {
	out := export(t, translator.Genesis, twoQuads())

	assert.Contains(t, out, "Q1: QUADRUPOLE = {l = 0.2, k1 = 0.5, dx = 0.0, dy = 0.0};\n")
	assert.Contains(t, out, "BPM1: MARKER = {};\n")
	assert.Contains(t, out, "S01_drift_1: DRIFT = {l = 0.4};\n")
	assert.Contains(t, out, "S01: LINE = {Q1, S01_drift_1, BPM1, S01_drift_2, Q2};\n")
}

func TestAstra(t *testing.T) {
	out := export(t, translator.Astra, twoQuads(), translator.WithCharge(100e-12))

	assert.Contains(t, out, "&NEWRUN\n")
	assert.Contains(t, out, "Distribution = 'laser.astra',\n")
	assert.Contains(t, out, "Qbunch = ")
	assert.Contains(t, out, "Screen(1) = 1.5\n")
	assert.Contains(t, out, "LSPCH3D = True,\n")
	assert.Contains(t, out, "&QUADRUPOLE\nLQuad = True\n")
	assert.Contains(t, out, "Q_pos(1) = 1.0, ")
	assert.Contains(t, out, "Q_k(1) = 2.5, ")
	assert.Contains(t, out, "Q_pos(2) = 2.0, ")
	assert.Contains(t, out, "Q_k(2) = -2.5, ")
	assert.NotContains(t, out, "Q_pos(3)")
	assert.NotContains(t, out, "LEField")
}

func TestAstra_SolenoidNeedsFieldMap(t *testing.T) {
	sol := domain.NewElement("SOL1", "Solenoid")
	sol.Physical.Length = 0.3
	s := lattice.NewSection("S01", []string{"SOL1"}, []*domain.Element{sol})

	_, err := translator.ExportSection(translator.Astra, s, nil)
	var unsupported *translator.UnsupportedError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "SOL1", unsupported.Element)
}

// namelist returns the body of an ASTRA element namelist.
func namelist(t *testing.T, out, header string) []string {
	t.Helper()
	start := strings.Index(out, header+"\n")
	require.GreaterOrEqual(t, start, 0, header)
	body := out[start+len(header)+1:]
	end := strings.Index(body, "/ \n")
	require.GreaterOrEqual(t, end, 0, header)
	var lines []string
	for _, line := range splitLines(body[:end]) {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestAstra_Wrapping(t *testing.T) {
	cav := domain.NewElement("CAV1", "RFCavity")
	cav.MachineArea = "L01"
	cav.Physical.Middle = domain.Position{X: 0.001, Y: 0.002, Z: 2}
	cav.Physical.Rotation = domain.Rotation{Theta: 0.01, Phi: 0.02, Psi: 0.03}
	cav.Physical.Length = 1
	cav.Cavity.Frequency = 2.99855e9
	cav.Cavity.FieldAmplitude = 25e6
	cav.Cavity.Phase = 12.5
	cav.Simulation.FieldDefinition = &domain.FieldDefinition{Filename: "$master_lattice_location$Data/cav.hdf5"}
	s := lattice.NewSection("L01", []string{"CAV1"}, []*domain.Element{cav})

	lines := namelist(t, export(t, translator.Astra, s), "&CAVITY")
	require.GreaterOrEqual(t, len(lines), 3, "entries should wrap over several lines")
	assert.Equal(t, "LEField = True", lines[0])
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 70, line)
	}
	joined := strings.Join(lines, " ")
	for _, key := range []string{"C_pos(1)", "FILE_EFieLD(1) = 'cav.hdf5'", "C_xoff(1)", "C_yrot(1)", "C_zrot(1)"} {
		assert.Contains(t, joined, key)
	}
}

func TestAstra_SpaceChargeGrid(t *testing.T) {
	tests := []struct {
		name string
		opts []translator.Option
		want []string
	}{
		{"default 3D", nil, []string{"nxf = 32,\n", "nyf = 32,\n", "nzf = 32\n"}},
		{"rounds to nearest power", []translator.Option{translator.WithParticles(1000, 1)}, []string{"nxf = 8,\n"}},
		{"floor of four", []translator.Option{translator.WithParticles(8, 1)}, []string{"nxf = 4,\n"}},
		{"sampling thins particles", []translator.Option{translator.WithParticles(1<<15, 8)}, []string{"nxf = 16,\n"}},
		{"2D", []translator.Option{translator.WithSpaceCharge("2D"), translator.WithParticles(1<<15, 8)},
			[]string{"LSPCH = True,\n", "LSPCH3D = False,\n", "nrad = 16,\n", "nlong_in = 16\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := export(t, translator.Astra, twoQuads(), tt.opts...)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	out := export(t, translator.Astra, twoQuads(), translator.WithSpaceCharge(""))
	assert.Contains(t, out, "LSPCH = False,\n")
	assert.NotContains(t, out, "nxf")
	assert.NotContains(t, out, "nrad")
}

func TestAstra_WakeIndices(t *testing.T) {
	cav := domain.NewElement("CAV1", "RFCavity")
	cav.MachineArea = "L01"
	cav.Physical.Middle = domain.Position{Z: 1}
	cav.Physical.Length = 0.3
	cav.Cavity.CellLength = 0.1
	cav.Cavity.NCells = 3
	cav.Simulation.ScaleKick = 1
	cav.Simulation.WakefieldDefinition = &domain.FieldDefinition{Filename: "cav_wake.sdds", FieldType: domain.LongitudinalWake}

	wake := domain.NewElement("WAKE1", "Wakefield")
	wake.MachineArea = "L01"
	wake.Physical.Middle = domain.Position{Z: 2}
	wake.Physical.Length = 0.2
	wake.Wakefield.CellLength = 0.1
	wake.Wakefield.NCells = 2
	wake.Simulation.WakefieldDefinition = &domain.FieldDefinition{Filename: "wake.sdds"}

	s := lattice.NewSection("L01", []string{"CAV1", "WAKE1"}, []*domain.Element{cav, wake})
	out := export(t, translator.Astra, s)

	lines := namelist(t, out, "&WAKE")
	assert.Equal(t, "LWAKE = True", lines[0])
	joined := strings.Join(lines, " ")
	for i := 1; i <= 5; i++ {
		assert.Contains(t, joined, fmt.Sprintf("Wk_z(%d) = ", i))
	}
	assert.NotContains(t, joined, "Wk_z(6)")
	assert.Contains(t, joined, `Wk_Type(1) = "Monopole_Method_F"`)
	assert.Contains(t, joined, "Wk_filename(4) = 'wake.sdds'")
	assert.Contains(t, joined, "Wk_filename(3) = 'cav_wake.sdds'")
}

func TestGPT(t *testing.T) {
	out := export(t, translator.GPT, twoQuads(), translator.WithMomentum(100e6))

	assert.Contains(t, out, `setfile("beam", "laser.gdf");`)
	assert.Contains(t, out, "accuracy(6);\n")
	assert.Contains(t, out, `quadrupole( "wcs", "z", `)
	assert.Contains(t, out, `screen( "wcs", "I", `)
	assert.Contains(t, out, `Zminmax("wcs", "I", `)
	assert.NotContains(t, out, "sectormagnet")
}

func TestCSRTrack(t *testing.T) {
	out := export(t, translator.CSRTrack, twoQuads())

	assert.Contains(t, out, "io_path{logfile = log.txt}\nlattice{\n")
	assert.Contains(t, out, "marker=quad1a}")
	assert.Contains(t, out, "marker=quad2b}")
	assert.Contains(t, out, "properties{strength=0.5,")
	assert.Contains(t, out, "marker=screen1a}")
	assert.Contains(t, out, "end_time_marker=screen2b\n")
	assert.Contains(t, out, "name=S01.fmt2\n")
	assert.Contains(t, out, "precondition=yes\n")
}

func TestOpal(t *testing.T) {
	out := export(t, translator.Opal, twoQuads(), translator.WithMomentum(100e6))

	assert.Contains(t, out, "OPTION, VERSION = 202210;\n")
	assert.Contains(t, out, "OPTION, AUTOPHASE = 6;\n")
	assert.Contains(t, out, "DIST: DISTRIBUTION, \n\tTYPE = FROMFILE,\n\tFNAME = \"laser.astra\";\n")
	assert.Contains(t, out, "\tPARFFTX = TRUE,\n")
	assert.Contains(t, out, "Q1: quadrupole, l = 0.2, k1 = 0.5, dx = 0.0, dy = 0.0, ELEMEDGE = 0.0;\n")
	assert.Contains(t, out, `BPM1: monitor, l = 0.0, OUTFN = "BPM1_opal", ELEMEDGE = `)
	assert.Contains(t, out, "S01: LINE = (Q1, BPM1, Q2);\n")
	assert.Contains(t, out, "\tMETHOD = \"PARALLEL-T\",\n")
	assert.Contains(t, out, "ENDTRACK;\n")
	assert.NotContains(t, out, "S01_drift_1")
}

func TestOcelot(t *testing.T) {
	out := export(t, translator.Ocelot, twoQuads())

	assert.Contains(t, out, `method = {"global": SecondTM, Octupole: KickTM, Undulator: RungeKuttaTM}`)
	assert.Contains(t, out, `Q1 = Quadrupole(eid="Q1", l=0.2, k1=0.5, `)
	assert.Contains(t, out, `S01_drift_1 = Drift(eid="S01_drift_1", l=0.4)`)
	assert.Contains(t, out, `BPM1 = Monitor(eid="BPM1"`)
	assert.Contains(t, out, "S01_cell = (Q1, S01_drift_1, BPM1, S01_drift_2, Q2,)\n")
	assert.Contains(t, out, `lattices["S01"] = MagneticLattice(S01_cell, method=method)`)
}

func TestOcelot_Layout(t *testing.T) {
	m := testModel()
	l, err := m.Layout("line")
	require.NoError(t, err)

	out, err := translator.ExportLayout(translator.Ocelot, l, nil)
	require.NoError(t, err)
	assert.Contains(t, out, `lattices["line"] = MagneticLattice(S01_cell + S02_cell, method=method)`)
}

func TestXsuite(t *testing.T) {
	bend := domain.NewElement("DIP1", "Dipole")
	bend.MachineArea = "S01"
	bend.Physical.Middle = domain.Position{Z: 3}
	bend.Physical.Length = 0.5
	bend.Magnetic.Length = 0.5
	bend.Magnetic.Angle = 0.1
	elements := []*domain.Element{
		quad("Q1", "S01", 1.0, 0.5),
		diagnostic("BPM1", "BPM", "S01", 1.5),
		bend,
	}
	s := lattice.NewSection("S01", []string{"Q1", "BPM1", "DIP1"}, elements)

	out := export(t, translator.Xsuite, s, translator.WithMomentum(100e6), translator.WithParticles(1000, 1))

	var doc struct {
		ElementNames []string                  `json:"element_names"`
		Elements     map[string]map[string]any `json:"elements"`
		ParticleRef  map[string]any            `json:"particle_ref"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	require.Len(t, doc.ElementNames, 5)
	assert.Equal(t, "Q1", doc.ElementNames[0])
	assert.Equal(t, "DIP1", doc.ElementNames[4])

	q := doc.Elements["Q1"]
	assert.Equal(t, "Quadrupole", q["__class__"])
	assert.InDelta(t, 2.5, q["k1"], 1e-12)
	assert.InDelta(t, 0.2, q["length"], 1e-12)

	bpm := doc.Elements["BPM1"]
	assert.Equal(t, "ParticlesMonitor", bpm["__class__"])
	assert.EqualValues(t, 1000, bpm["num_particles"])

	dip := doc.Elements["DIP1"]
	assert.Equal(t, "Bend", dip["__class__"])
	assert.InDelta(t, 0.2, dip["k0"], 1e-12)
	assert.EqualValues(t, 10, dip["num_multipole_kicks"])

	assert.Equal(t, "Particles", doc.ParticleRef["__class__"])
}

func plasmaCell(model string) *lattice.Section {
	pl := domain.NewElement("PL1", "Plasma")
	pl.MachineArea = "PWA"
	pl.Physical.Middle = domain.Position{Z: 0.005}
	pl.Physical.Length = 0.01
	pl.Plasma.Density = 1e23
	pl.Plasma.DensityProfile = true
	pl.Simulation.WakefieldModel = model
	pl.Laser = &domain.Laser{
		Wavelength:        800e-9,
		Waist:             40e-6,
		PulseEnergy:       1,
		PulseDurationFWHM: 25e-15,
		ProfileType:       domain.ProfileGaussian,
	}
	return lattice.NewSection("PWA", []string{"PL1"}, []*domain.Element{pl})
}

func TestWakeT(t *testing.T) {
	out := export(t, translator.WakeT, plasmaCell("simple_blowout"))

	assert.Contains(t, out, "def ramp_density(z, density, ramp_up, plateau, ramp_down, decay):")
	assert.Contains(t, out, "def PL1_density(z):\n    return ramp_density(z, 1e+23, 0.001, 0.001, 0.001, 0.001)\n")
	assert.Contains(t, out, "PL1_laser = GaussianPulse(0.0, ")
	assert.Contains(t, out, `PL1 = PlasmaStage(length=0.01, density=PL1_density, wakefield_model="simple_blowout", `)
	assert.Contains(t, out, "laser=PL1_laser")
	assert.Contains(t, out, "PWA_elements = [PL1]\n")
	assert.Contains(t, out, `beamlines["PWA"] = Beamline(PWA_elements)`)
}

func TestWakeT_Errors(t *testing.T) {
	_, err := translator.ExportSection(translator.WakeT, plasmaCell("pic"), nil)
	var unsupported *translator.UnsupportedError
	require.True(t, errors.As(err, &unsupported))
	assert.Contains(t, unsupported.Reason, "pic")

	s := plasmaCell("simple_blowout")
	pl, _ := s.Get("PL1")
	pl.Plasma.Plateau = 0
	_, err = translator.ExportSection(translator.WakeT, s, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidProfile)
}

func TestWakeT_UnsupportedBecomesDrift(t *testing.T) {
	out := export(t, translator.WakeT, twoQuads(), translator.WithMomentum(100e6))

	assert.Contains(t, out, "Q1 = Quadrupole(length=0.2, foc_strength=")
	assert.Contains(t, out, "S01_drift_1 = Drift(length=0.4)\n")
	assert.NotContains(t, out, "BPM1")
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := range len(s) {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
