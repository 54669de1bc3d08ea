package domain

import (
	"errors"
	"math"
)

// Plasma describes a plasma cell.
type Plasma struct {
	Density              float64 `json:"density" yaml:"density" mapstructure:"density"`
	Species              string  `json:"species,omitempty" yaml:"species,omitempty" mapstructure:"species"`
	RampUp               float64 `json:"ramp_up" yaml:"ramp_up" mapstructure:"ramp_up"`
	Plateau              float64 `json:"plateau" yaml:"plateau" mapstructure:"plateau"`
	RampDown             float64 `json:"ramp_down" yaml:"ramp_down" mapstructure:"ramp_down"`
	RampDecayLength      float64 `json:"ramp_decay_length" yaml:"ramp_decay_length" mapstructure:"ramp_decay_length"`
	DensityProfile       bool    `json:"density_profile" yaml:"density_profile" mapstructure:"density_profile"`
	ParabolicCoefficient float64 `json:"parabolic_coefficient,omitempty" yaml:"parabolic_coefficient,omitempty" mapstructure:"parabolic_coefficient"`
}

// ErrInvalidProfile is returned when the ramp parameters cannot describe a
// density profile.
var ErrInvalidProfile = errors.New("invalid plasma density profile")

// CheckProfile validates the ramp parameters.
func (p *Plasma) CheckProfile() error {
	if p.Plateau <= 0 {
		return errors.Join(ErrInvalidProfile, errors.New("plateau length must be positive"))
	}
	if p.RampUp < 0 || p.RampDown < 0 || p.RampDecayLength <= 0 {
		return errors.Join(ErrInvalidProfile, errors.New("ramps must be non-negative and the decay length positive"))
	}
	return nil
}

// DensityAt returns the absolute density in m^-3 at z metres into the cell.
// Ramps follow 1/(1+d/λ)² and the density drops to a residual level after the
// down ramp.
func (p *Plasma) DensityAt(z float64) float64 {
	if !p.DensityProfile {
		return p.Density
	}
	n := 1.0
	plateauEnd := p.RampUp + p.Plateau
	switch {
	case z < p.RampUp:
		n = 1 / math.Pow(1+(p.RampUp-z)/p.RampDecayLength, 2)
	case z > plateauEnd+p.RampDown:
		n = 1e-6
	case z > plateauEnd:
		n = 1 / math.Pow(1+(z-plateauEnd)/p.RampDecayLength, 2)
	}
	return n * p.Density
}

// Laser profile types.
const (
	ProfileGaussian          = "gaussian"
	ProfileLaguerreGaussian  = "laguerre-gaussian"
	ProfileFlattenedGaussian = "flattened-gaussian"
)

// Laser describes a drive or ionisation laser pulse.
type Laser struct {
	Wavelength        float64 `json:"wavelength" yaml:"wavelength" mapstructure:"wavelength"`
	Waist             float64 `json:"waist" yaml:"waist" mapstructure:"waist"`
	PulseEnergy       float64 `json:"pulse_energy" yaml:"pulse_energy" mapstructure:"pulse_energy"`
	PulseDurationFWHM float64 `json:"pulse_duration_fwhm" yaml:"pulse_duration_fwhm" mapstructure:"pulse_duration_fwhm"`
	InitialPosition   float64 `json:"initial_position" yaml:"initial_position" mapstructure:"initial_position"`
	FocalPosition     float64 `json:"focal_position" yaml:"focal_position" mapstructure:"focal_position"`
	CEPPhase          float64 `json:"cep_phase" yaml:"cep_phase" mapstructure:"cep_phase"`
	Polarization      string  `json:"polarization,omitempty" yaml:"polarization,omitempty" mapstructure:"polarization"`
	ProfileType       string  `json:"profile_type" yaml:"profile_type" mapstructure:"profile_type"`
	LaguerreOrderP    int     `json:"laguerre_polynomial_order_p" yaml:"laguerre_polynomial_order_p" mapstructure:"laguerre_polynomial_order_p"`
	Flatness          int     `json:"flatness" yaml:"flatness" mapstructure:"flatness"`
}

// Amplitude is the normalised vector potential a0 derived from the pulse
// energy, waist, duration and wavelength. It is zero if any of them is unset.
func (l *Laser) Amplitude() float64 {
	const (
		electronCharge = 1.602176634e-19
		electronMass   = 9.1093837015e-31
		epsilon0       = 8.8541878128e-12
	)
	if l.Wavelength <= 0 || l.Waist <= 0 || l.PulseEnergy <= 0 || l.PulseDurationFWHM <= 0 {
		return 0
	}
	c := SpeedOfLight
	return (electronCharge * l.Wavelength) / (math.Pi * electronMass * c * c * l.Waist) *
		math.Sqrt(l.PulseEnergy/(math.Pi*epsilon0*c*l.PulseDurationFWHM))
}

// AngularFrequency is 2πc/λ in rad/s.
func (l *Laser) AngularFrequency() float64 {
	if l.Wavelength <= 0 {
		return 0
	}
	return 2 * math.Pi * SpeedOfLight / l.Wavelength
}
