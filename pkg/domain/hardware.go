package domain

// Diagnostic holds the settings of beam instrumentation.
type Diagnostic struct {
	Type       string   `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	HasCamera  bool     `json:"has_camera,omitempty" yaml:"has_camera,omitempty" mapstructure:"has_camera"`
	CameraName string   `json:"camera_name,omitempty" yaml:"camera_name,omitempty" mapstructure:"camera_name"`
	Devices    []string `json:"devices,omitempty" yaml:"devices,omitempty" mapstructure:"devices"`
}

// Electrical holds the power supply limits.
type Electrical struct {
	MinI          float64 `json:"min_i" yaml:"min_i" mapstructure:"min_i"`
	MaxI          float64 `json:"max_i" yaml:"max_i" mapstructure:"max_i"`
	ReadTolerance float64 `json:"read_tolerance" yaml:"read_tolerance" mapstructure:"read_tolerance"`
}

// Manufacturer identifies the physical device.
type Manufacturer struct {
	Manufacturer string `json:"manufacturer" yaml:"manufacturer" mapstructure:"manufacturer"`
	SerialNumber string `json:"serial_number" yaml:"serial_number" mapstructure:"serial_number"`
	HardwareType string `json:"hardware_type,omitempty" yaml:"hardware_type,omitempty" mapstructure:"hardware_type"`
}

// Degauss holds the degaussing cycle of a magnet.
type Degauss struct {
	Tolerance float64   `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
	Values    []float64 `json:"values" yaml:"values" mapstructure:"values"`
	Steps     int       `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Reference lists engineering documents for an element.
type Reference struct {
	Drawings    []string `json:"drawings,omitempty" yaml:"drawings,omitempty" mapstructure:"drawings"`
	DesignFiles []string `json:"design_files,omitempty" yaml:"design_files,omitempty" mapstructure:"design_files"`
}
