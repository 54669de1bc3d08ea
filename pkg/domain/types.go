package domain

import "strings"

// Kind groups hardware types that share a translation strategy.
type Kind string

const (
	KindMagnet     Kind = "magnet"
	KindDiagnostic Kind = "diagnostic"
	KindCavity     Kind = "cavity"
	KindWakefield  Kind = "wakefield"
	KindDrift      Kind = "drift"
	KindMarker     Kind = "marker"
	KindAperture   Kind = "aperture"
	KindPlasma     Kind = "plasma"
	KindLaser      Kind = "laser"
	KindVacuum     Kind = "vacuum"
	KindOther      Kind = "other"
)

// TypeInfo describes a known hardware type.
type TypeInfo struct {
	Class string
	Kind  Kind
	Model string
	// Charge marks diagnostics that measure bunch charge.
	Charge bool
	// Position marks diagnostics that measure transverse position.
	Position bool
}

var typeTable = map[string]TypeInfo{
	"Dipole":               {Class: "Magnet", Kind: KindMagnet},
	"Quadrupole":           {Class: "Magnet", Kind: KindMagnet},
	"Sextupole":            {Class: "Magnet", Kind: KindMagnet},
	"Octupole":             {Class: "Magnet", Kind: KindMagnet},
	"Kicker":               {Class: "Magnet", Kind: KindMagnet},
	"Horizontal_Corrector": {Class: "Magnet", Kind: KindMagnet},
	"Vertical_Corrector":   {Class: "Magnet", Kind: KindMagnet},
	"Combined_Corrector":   {Class: "Magnet", Kind: KindMagnet},
	"Solenoid":             {Class: "Magnet", Kind: KindMagnet},
	"NonLinearLens":        {Class: "Magnet", Kind: KindMagnet},
	"Wiggler":              {Class: "Undulator", Kind: KindMagnet},
	"Undulator":            {Class: "Magnet", Kind: KindMagnet},
	"TwissMatch":           {Class: "TwissMatch", Kind: KindMarker},

	"Beam_Position_Monitor":          {Class: "Diagnostic", Kind: KindDiagnostic, Position: true},
	"Beam_Arrival_Monitor":           {Class: "Diagnostic", Kind: KindDiagnostic},
	"Bunch_Length_Monitor":           {Class: "Diagnostic", Kind: KindDiagnostic},
	"Camera":                         {Class: "Diagnostic", Kind: KindDiagnostic, Position: true},
	"Screen":                         {Class: "Diagnostic", Kind: KindDiagnostic, Position: true},
	"ChargeDiagnostic":               {Class: "Diagnostic", Kind: KindDiagnostic, Charge: true},
	"Wall_Current_Monitor":           {Class: "Diagnostic", Kind: KindDiagnostic, Charge: true},
	"Faraday_Cup_Monitor":            {Class: "Diagnostic", Kind: KindDiagnostic, Charge: true},
	"Integrated_Current_Transformer": {Class: "Diagnostic", Kind: KindDiagnostic, Charge: true},
	"Watch_Point":                    {Class: "Diagnostic", Kind: KindDiagnostic, Model: "Simulation"},

	"RFCavity":           {Class: "RF", Kind: KindCavity},
	"RFDeflectingCavity": {Class: "RF", Kind: KindCavity},
	"Wakefield":          {Class: "RF", Kind: KindWakefield},

	"VacuumGauge": {Class: "Vacuum", Kind: KindVacuum},
	"Shutter":     {Class: "Vacuum", Kind: KindVacuum},
	"Valve":       {Class: "Vacuum", Kind: KindVacuum},

	"Laser":              {Class: "Laser", Kind: KindLaser},
	"LaserEnergyMeter":   {Class: "Laser", Kind: KindOther},
	"LaserHalfWavePlate": {Class: "Laser", Kind: KindOther},
	"LaserMirror":        {Class: "Laser", Kind: KindOther},
	"Plasma":             {Class: "Plasma", Kind: KindPlasma},
	"Plasma_Lens":        {Class: "Plasma", Kind: KindPlasma},

	"Marker":     {Class: "Marker", Kind: KindMarker, Model: "Simulation"},
	"Aperture":   {Class: "Aperture", Kind: KindAperture, Model: "Simulation"},
	"Collimator": {Class: "Aperture", Kind: KindAperture, Model: "Simulation"},
	"Drift":      {Class: "Drift", Kind: KindDrift, Model: "Simulation"},
}

// LookupType returns the table entry for a hardware type, matched
// case-insensitively.
func LookupType(hardwareType string) (TypeInfo, bool) {
	if info, ok := typeTable[hardwareType]; ok {
		return info, true
	}
	for name, info := range typeTable {
		if strings.EqualFold(name, hardwareType) {
			return info, true
		}
	}
	return TypeInfo{}, false
}

// CanonicalType returns the registered spelling of a hardware type.
func CanonicalType(hardwareType string) string {
	if _, ok := typeTable[hardwareType]; ok {
		return hardwareType
	}
	for name := range typeTable {
		if strings.EqualFold(name, hardwareType) {
			return name
		}
	}
	return hardwareType
}

// KnownTypes lists every registered hardware type.
func KnownTypes() []string {
	names := make([]string, 0, len(typeTable))
	for name := range typeTable {
		names = append(names, name)
	}
	return names
}

// correctorTypes are the dipole-like steering magnets.
var correctorTypes = map[string]bool{
	"Horizontal_Corrector": true,
	"Vertical_Corrector":   true,
	"Combined_Corrector":   true,
}

// IsCorrector reports whether the type is a steering corrector.
func IsCorrector(hardwareType string) bool {
	return correctorTypes[CanonicalType(hardwareType)]
}
