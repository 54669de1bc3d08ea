package domain

import (
	"path"
	"strings"
)

// FieldDefinition references a field map or wake table on disk. The filename
// may contain substitution variables such as $master_lattice_location$.
type FieldDefinition struct {
	Filename  string `json:"filename" yaml:"filename" mapstructure:"filename"`
	FieldType string `json:"field_type,omitempty" yaml:"field_type,omitempty" mapstructure:"field_type"`
}

// IsZero reports whether no file is referenced.
func (f *FieldDefinition) IsZero() bool {
	return f == nil || f.Filename == ""
}

// Basename is the file name without directories or quotes.
func (f *FieldDefinition) Basename() string {
	if f.IsZero() {
		return ""
	}
	name := strings.NewReplacer(`"`, "", "'", "", `\`, "/").Replace(f.Filename)
	return path.Base(name)
}

// Simulation carries code specific tracking parameters. The fields are a union
// of what magnets, drifts, diagnostics, cavities, wakes and plasma cells use;
// zero values mean "not set".
type Simulation struct {
	FieldDefinition        *FieldDefinition `json:"field_definition,omitempty" yaml:"field_definition,omitempty" mapstructure:"field_definition"`
	WakefieldDefinition    *FieldDefinition `json:"wakefield_definition,omitempty" yaml:"wakefield_definition,omitempty" mapstructure:"wakefield_definition"`
	FieldReferencePosition string           `json:"field_reference_position" yaml:"field_reference_position" mapstructure:"field_reference_position"`
	ScaleField             float64          `json:"scale_field,omitempty" yaml:"scale_field,omitempty" mapstructure:"scale_field"`
	ScaleKick              float64          `json:"scale_kick" yaml:"scale_kick" mapstructure:"scale_kick"`
	FieldAmplitude         float64          `json:"field_amplitude,omitempty" yaml:"field_amplitude,omitempty" mapstructure:"field_amplitude"`
	Smooth                 float64          `json:"smooth" yaml:"smooth" mapstructure:"smooth"`

	NKicks            int     `json:"n_kicks" yaml:"n_kicks" mapstructure:"n_kicks"`
	EdgeFieldIntegral float64 `json:"edge_field_integral" yaml:"edge_field_integral" mapstructure:"edge_field_integral"`
	IntegrationOrder  int     `json:"integration_order" yaml:"integration_order" mapstructure:"integration_order"`
	DeltaL            float64 `json:"deltaL,omitempty" yaml:"deltaL,omitempty" mapstructure:"deltaL"`
	CSRBins           int     `json:"csr_bins" yaml:"csr_bins" mapstructure:"csr_bins"`
	CSREnable         bool    `json:"csr_enable" yaml:"csr_enable" mapstructure:"csr_enable"`
	LSCEnable         bool    `json:"lsc_enable" yaml:"lsc_enable" mapstructure:"lsc_enable"`
	LSCBins           int     `json:"lsc_bins" yaml:"lsc_bins" mapstructure:"lsc_bins"`
	ISREnable         bool    `json:"isr_enable" yaml:"isr_enable" mapstructure:"isr_enable"`
	SREnable          bool    `json:"sr_enable" yaml:"sr_enable" mapstructure:"sr_enable"`

	OutputFilename string `json:"output_filename,omitempty" yaml:"output_filename,omitempty" mapstructure:"output_filename"`

	TColumn  string `json:"t_column,omitempty" yaml:"t_column,omitempty" mapstructure:"t_column"`
	ZColumn  string `json:"z_column,omitempty" yaml:"z_column,omitempty" mapstructure:"z_column"`
	WxColumn string `json:"wx_column,omitempty" yaml:"wx_column,omitempty" mapstructure:"wx_column"`
	WyColumn string `json:"wy_column,omitempty" yaml:"wy_column,omitempty" mapstructure:"wy_column"`
	WzColumn string `json:"wz_column,omitempty" yaml:"wz_column,omitempty" mapstructure:"wz_column"`

	ScaleFieldEx        float64 `json:"scale_field_ex,omitempty" yaml:"scale_field_ex,omitempty" mapstructure:"scale_field_ex"`
	ScaleFieldEy        float64 `json:"scale_field_ey,omitempty" yaml:"scale_field_ey,omitempty" mapstructure:"scale_field_ey"`
	ScaleFieldEz        float64 `json:"scale_field_ez" yaml:"scale_field_ez" mapstructure:"scale_field_ez"`
	ScaleFieldHx        float64 `json:"scale_field_hx" yaml:"scale_field_hx" mapstructure:"scale_field_hx"`
	ScaleFieldHy        float64 `json:"scale_field_hy,omitempty" yaml:"scale_field_hy,omitempty" mapstructure:"scale_field_hy"`
	ScaleFieldHz        float64 `json:"scale_field_hz,omitempty" yaml:"scale_field_hz,omitempty" mapstructure:"scale_field_hz"`
	EqualGrid           float64 `json:"equal_grid" yaml:"equal_grid" mapstructure:"equal_grid"`
	InterpolationMethod int     `json:"interpolation_method" yaml:"interpolation_method" mapstructure:"interpolation_method"`
	Subbins             int     `json:"subbins" yaml:"subbins" mapstructure:"subbins"`

	WakefieldModel          string  `json:"wakefield_model,omitempty" yaml:"wakefield_model,omitempty" mapstructure:"wakefield_model"`
	RMax                    float64 `json:"r_max,omitempty" yaml:"r_max,omitempty" mapstructure:"r_max"`
	NLongitudinal           int     `json:"n_longitudinal,omitempty" yaml:"n_longitudinal,omitempty" mapstructure:"n_longitudinal"`
	NRadial                 int     `json:"n_radial,omitempty" yaml:"n_radial,omitempty" mapstructure:"n_radial"`
	MinLongitudinalPosition float64 `json:"min_longitudinal_position,omitempty" yaml:"min_longitudinal_position,omitempty" mapstructure:"min_longitudinal_position"`
	MaxLongitudinalPosition float64 `json:"max_longitudinal_position,omitempty" yaml:"max_longitudinal_position,omitempty" mapstructure:"max_longitudinal_position"`
	BunchPusher             string  `json:"bunch_pusher" yaml:"bunch_pusher" mapstructure:"bunch_pusher"`
	NOut                    int     `json:"n_out" yaml:"n_out" mapstructure:"n_out"`

	Twiss *Twiss `json:"twiss,omitempty" yaml:"twiss,omitempty" mapstructure:"twiss"`
}

// Twiss holds the target optics of a matching element.
type Twiss struct {
	BetaX  float64 `json:"beta_x" yaml:"beta_x" mapstructure:"beta_x"`
	BetaY  float64 `json:"beta_y" yaml:"beta_y" mapstructure:"beta_y"`
	AlphaX float64 `json:"alpha_x" yaml:"alpha_x" mapstructure:"alpha_x"`
	AlphaY float64 `json:"alpha_y" yaml:"alpha_y" mapstructure:"alpha_y"`
	EtaX   float64 `json:"eta_x" yaml:"eta_x" mapstructure:"eta_x"`
	EtaY   float64 `json:"eta_y" yaml:"eta_y" mapstructure:"eta_y"`
	EtaXP  float64 `json:"eta_xp" yaml:"eta_xp" mapstructure:"eta_xp"`
	EtaYP  float64 `json:"eta_yp" yaml:"eta_yp" mapstructure:"eta_yp"`
}

// Aperture shapes.
const (
	ShapeElliptical  = "elliptical"
	ShapeCircular    = "circular"
	ShapePlanar      = "planar"
	ShapeRectangular = "rectangular"
	ShapeScraper     = "scraper"
)

// Aperture describes a beam-limiting boundary.
type Aperture struct {
	Shape            string  `json:"shape,omitempty" yaml:"shape,omitempty" mapstructure:"shape"`
	HorizontalSize   float64 `json:"horizontal_size" yaml:"horizontal_size" mapstructure:"horizontal_size"`
	VerticalSize     float64 `json:"vertical_size" yaml:"vertical_size" mapstructure:"vertical_size"`
	Radius           float64 `json:"radius,omitempty" yaml:"radius,omitempty" mapstructure:"radius"`
	NegativeExtent   float64 `json:"negative_extent,omitempty" yaml:"negative_extent,omitempty" mapstructure:"negative_extent"`
	PositiveExtent   float64 `json:"positive_extent,omitempty" yaml:"positive_extent,omitempty" mapstructure:"positive_extent"`
	NumberOfElements int     `json:"number_of_elements,omitempty" yaml:"number_of_elements,omitempty" mapstructure:"number_of_elements"`
}

// EffectiveRadius picks the radius of a round aperture, falling back to the
// smaller of the two sizes.
func (a *Aperture) EffectiveRadius() float64 {
	switch {
	case a.Radius > 0:
		return a.Radius
	case a.HorizontalSize > 0 && a.VerticalSize > 0:
		return min(a.HorizontalSize, a.VerticalSize)
	case a.HorizontalSize > 0:
		return a.HorizontalSize
	case a.VerticalSize > 0:
		return a.VerticalSize
	default:
		return 1
	}
}
