package translator

import (
	"fmt"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

type csrtrackTranslator struct{}

func (csrtrackTranslator) Code() Code { return CSRTrack }

// Translate writes the lattice block of dipoles, quadrupoles and screens,
// closed by an end screen that the tracker stops at, followed by the run
// blocks.
func (t csrtrackTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	for i, line := range lines {
		if len(lines) > 1 {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "! %s\n", line.Name)
		}
		b.WriteString(t.beamline(line, env))
	}
	return b.String(), nil
}

func (t csrtrackTranslator) beamline(line Beamline, env *Env) string {
	elements := line.Elements()
	env.Counter().Reset()

	var b strings.Builder
	b.WriteString("io_path{logfile = log.txt}\nlattice{\n")
	for _, e := range elements {
		switch {
		case e.Is("Dipole"):
			b.WriteString(csrtrackDipole(e, env.Counter().Next("dipole")))
			env.Counter().Add("dipole", 1)
		case e.Is("Quadrupole"):
			b.WriteString(csrtrackQuadrupole(e, env.Counter().Next("quadrupole")))
			env.Counter().Add("quadrupole", 1)
		case e.IsDiagnostic():
			b.WriteString(csrtrackScreen(e.Middle().Z, env.Counter().Next("screen")))
			env.Counter().Add("screen", 1)
		case e.IsDrift():
		default:
			env.warnUnsupported(CSRTrack, e)
		}
	}
	end := env.Counter().Next("screen")
	if len(elements) > 0 {
		b.WriteString(csrtrackScreen(elements[len(elements)-1].End().Z, end))
	}
	b.WriteString("}\n")

	b.WriteString(csrtrackBlock("forces", []Param{
		{"type", "csr_g_to_p"},
		{"shape", "ellipsoid"},
		{"sigma_long", "relative"},
		{"relative_long", 0.1},
	}))
	b.WriteString(csrtrackBlock("track_step", []Param{
		{"precondition", true},
		{"iterative", 2},
		{"error_per_ct", 0.001},
		{"error_weight_momentum", 0.1},
		{"ct_step_min", 0.002},
		{"ct_step_max", 0.2},
		{"ct_step_first", 0.01},
		{"increase_factor", 2},
		{"arc_factor", 0.3},
		{"duty_steps", true},
	}))
	b.WriteString(csrtrackBlock("tracker", []Param{
		{"end_time_marker", fmt.Sprintf("screen%db", end)},
		{"end_time_shift_c0", 0.0},
	}))
	b.WriteString(csrtrackBlock("monitor", []Param{
		{"format", "fmt2"},
		{"name", line.Name + ".fmt2"},
	}))
	b.WriteString(csrtrackBlock("particles", []Param{
		{"reference_momentum", "reference_particle"},
		{"reference_point_x", 0.0},
		{"reference_point_y", 0.0},
		{"reference_point_phi", 0.0},
		{"format", "astra"},
		{"array", "#file{name=" + env.ParticleFile + "}"},
	}))
	return b.String()
}

func csrtrackBlock(header string, params []Param) string {
	var b strings.Builder
	b.WriteString(header + "{\n")
	for _, p := range params {
		b.WriteString(p.Key + "=" + formatValue(p.Value, boolWord) + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func csrtrackDipole(e *domain.Element, n int) string {
	m := e.Magnetic
	if m == nil {
		m = &domain.Magnetic{}
	}
	theta := e.Physical.Rotation.Theta
	return fmt.Sprintf("dipole{\nposition{rho=%s, psi=%s, marker=d%da}\nproperties{r=%s}\nposition{rho=%s, psi=%s, marker=d%db}\n}\n",
		formatFloat(e.Start().Z), formatFloat(domain.Chop(theta+m.E1(), 1e-8)), n,
		formatFloat(m.Rho()),
		formatFloat(e.End().Z), formatFloat(domain.Chop(theta+m.E2(), 1e-8)), n)
}

func csrtrackQuadrupole(e *domain.Element, n int) string {
	z := e.Middle().Z
	return fmt.Sprintf("quadrupole{\nposition{rho=%s, psi=0.0, marker=quad%da}\nproperties{strength=%s, alpha=0, horizontal_offset=0,vertical_offset=0}\nposition{rho=%s, psi=0.0, marker=quad%db}\n}\n",
		formatFloat(z), n, formatFloat(e.Magnetic.KnL(1)), formatFloat(z+e.Length()), n)
}

// csrtrackScreen is a zero strength quadrupole used as an output marker.
func csrtrackScreen(z float64, n int) string {
	return fmt.Sprintf("quadrupole{\nposition{rho=%s, psi=0.0, marker=screen%da}\nproperties{strength=0.0, alpha=0, horizontal_offset=0,vertical_offset=0}\nposition{rho=%s, psi=0.0, marker=screen%db}\n}\n",
		formatFloat(z), n, formatFloat(z+1e-6), n)
}
