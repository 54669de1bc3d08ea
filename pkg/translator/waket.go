package translator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

const waketPreamble = `import numpy as np
from wake_t import Beamline, Drift, Dipole, Quadrupole, Sextupole, PlasmaStage, ActivePlasmaLens
from wake_t.physics_models.laser.laser_pulse import GaussianPulse, LaguerreGaussPulse, FlattenedGaussianPulse


def ramp_density(z, density, ramp_up, plateau, ramp_down, decay):
    n = np.ones_like(z)
    n = np.where(z < ramp_up, 1 / (1 + (ramp_up - z) / decay) ** 2, n)
    end = ramp_up + plateau
    n = np.where((z > end) & (z <= end + ramp_down), 1 / (1 + (z - end) / decay) ** 2, n)
    n = np.where(z > end + ramp_down, 1e-6, n)
    return n * density


beamlines = {}

`

// WakefieldModels are the plasma wakefield models Wake-T implements.
var WakefieldModels = []string{"simple_blowout", "custom_blowout", "focusing_blowout", "cold_fluid_1d", "quasistatic_2d"}

type waketTranslator struct {
	rules *RuleSet
}

func newWakeT() waketTranslator {
	return waketTranslator{rules: mustRules(WakeT)}
}

func (waketTranslator) Code() Code { return WakeT }

// Translate writes a Python script that builds one Wake-T Beamline per
// section, stored in the beamlines dict. Elements without length are
// skipped; types Wake-T lacks become drifts.
func (t waketTranslator) Translate(lines []Beamline, env *Env) (string, error) {
	var b strings.Builder
	b.WriteString(waketPreamble)
	written := make(map[string]bool)
	for _, line := range lines {
		for _, s := range line.Sections {
			if written[s.Name] {
				continue
			}
			written[s.Name] = true
			text, err := t.section(s, env)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
		if !line.isSection() {
			parts := make([]string, len(line.Sections))
			for i, s := range line.Sections {
				parts[i] = pythonIdent(s.Name) + "_elements"
			}
			fmt.Fprintf(&b, "beamlines[%q] = Beamline(%s)\n\n", line.Name, strings.Join(parts, " + "))
		}
	}
	return b.String(), nil
}

func (t waketTranslator) section(s *lattice.Section, env *Env) (string, error) {
	var b strings.Builder
	var names []string
	for _, e := range s.CreateDrifts(driftOptions()) {
		if e.Subelement || e.Length() <= 0 {
			continue
		}
		text, err := t.element(e, env)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		names = append(names, pythonIdent(e.Name))
	}
	list := pythonIdent(s.Name) + "_elements"
	fmt.Fprintf(&b, "%s = [%s]\n", list, strings.Join(names, ", "))
	fmt.Fprintf(&b, "beamlines[%q] = Beamline(%s)\n\n", s.Name, list)
	return b.String(), nil
}

func (t waketTranslator) element(e *domain.Element, env *Env) (string, error) {
	ident := pythonIdent(e.Name)
	etype, ok := t.rules.Types[domain.CanonicalType(e.HardwareType)]
	if !ok {
		if !e.IsDrift() {
			env.warnUnsupported(WakeT, e)
		}
		return fmt.Sprintf("%s = Drift(length=%s)\n", ident, formatFloat(e.Length())), nil
	}

	var pre strings.Builder
	var extra domain.FieldList
	switch etype {
	case "Quadrupole", "Sextupole":
		if m := e.Magnetic; m != nil && e.Length() > 0 {
			extra = append(extra, domain.Field{Key: "foc_strength", Value: m.Gradient(env.Momentum)})
		}
	case "PlasmaStage", "ActivePlasmaLens":
		density, err := t.density(e, ident, &pre)
		if err != nil {
			return "", err
		}
		extra = append(extra, domain.Field{Key: "density", Value: density})
		if err := t.checkModel(e, env); err != nil {
			return "", err
		}
		if etype == "ActivePlasmaLens" {
			if m := e.Magnetic; m != nil {
				extra = append(extra, domain.Field{Key: "foc_strength", Value: m.Gradient(env.Momentum)})
			}
			extra = append(extra, domain.Field{Key: "wakefields", Value: false})
		}
		if e.Laser != nil {
			pulse, err := waketLaser(e)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&pre, "%s_laser = %s\n", ident, pulse)
			extra = append(extra, domain.Field{Key: "laser", Value: pythonExpr(ident + "_laser")})
		}
	case "GaussianPulse":
		// A laser on its own is not a beamline element.
		return fmt.Sprintf("%s = Drift(length=%s)\n", ident, formatFloat(e.Length())), nil
	}

	args := make([]string, 0, 8)
	for _, p := range t.rules.Params(e, etype, extra) {
		args = append(args, p.Key+"="+pythonValue(p.Value))
	}
	return pre.String() + fmt.Sprintf("%s = %s(%s)\n", ident, etype, strings.Join(args, ", ")), nil
}

// pythonExpr is written verbatim in Python output.
type pythonExpr string

func (p pythonExpr) String() string { return string(p) }

// density returns the plasma density, or the name of a profile function
// written to pre when the element has ramps.
func (waketTranslator) density(e *domain.Element, ident string, pre *strings.Builder) (any, error) {
	p := e.Plasma
	if p == nil {
		return 0.0, nil
	}
	if !p.DensityProfile {
		return p.Density, nil
	}
	if err := p.CheckProfile(); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	fn := ident + "_density"
	fmt.Fprintf(pre, "def %s(z):\n    return ramp_density(z, %s, %s, %s, %s, %s)\n\n\n",
		fn, formatFloat(p.Density), formatFloat(p.RampUp), formatFloat(p.Plateau),
		formatFloat(p.RampDown), formatFloat(p.RampDecayLength))
	return pythonExpr(fn), nil
}

func (waketTranslator) checkModel(e *domain.Element, env *Env) error {
	model := ""
	if e.Simulation != nil {
		model = e.Simulation.WakefieldModel
	}
	switch {
	case model == "":
		env.Logger.Warn("no wakefield model, plasma wakefields are not computed",
			"element", e.Name, "models", WakefieldModels)
	case !slices.Contains(WakefieldModels, model):
		return &UnsupportedError{
			Code:    WakeT,
			Type:    e.HardwareType,
			Element: e.Name,
			Reason:  fmt.Sprintf("unknown wakefield model %q", model),
		}
	}
	return nil
}

// waketLaser renders the pulse constructor of the element's laser.
func waketLaser(e *domain.Element) (string, error) {
	l := e.Laser
	kwargs := fmt.Sprintf("z_foc=%s, l_0=%s, cep_phase=%s",
		formatFloat(l.FocalPosition), formatFloat(l.Wavelength), formatFloat(l.CEPPhase))
	if l.Polarization != "" {
		kwargs += ", polarization=" + pythonValue(l.Polarization)
	}
	common := fmt.Sprintf("%s, %s, %s", formatFloat(l.Amplitude()), formatFloat(l.Waist), formatFloat(l.PulseDurationFWHM))
	xi := formatFloat(l.InitialPosition)
	switch l.ProfileType {
	case domain.ProfileGaussian, "":
		return fmt.Sprintf("GaussianPulse(%s, %s, %s)", xi, common, kwargs), nil
	case domain.ProfileLaguerreGaussian:
		return fmt.Sprintf("LaguerreGaussPulse(%s, %d, %s, %s)", xi, l.LaguerreOrderP, common, kwargs), nil
	case domain.ProfileFlattenedGaussian:
		return fmt.Sprintf("FlattenedGaussianPulse(%s, %s, N=%d, %s)", xi, common, l.Flatness, kwargs), nil
	}
	return "", &UnsupportedError{
		Code:    WakeT,
		Type:    e.HardwareType,
		Element: e.Name,
		Reason:  fmt.Sprintf("unknown laser profile %q", l.ProfileType),
	}
}
