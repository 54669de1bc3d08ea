package translator

import (
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

// MasterLatticeVariable is replaced by the master lattice directory in field
// and wake file names.
const MasterLatticeVariable = "$master_lattice_location$"

// Env carries everything a translation needs besides the lattice itself. It
// is not safe for concurrent use; build one per export.
type Env struct {
	OutputDir             string
	MasterLatticeLocation string
	// Momentum of the reference particle in eV/c.
	Momentum float64
	// Charge of the bunch in C.
	Charge    float64
	AutoPhase bool
	// NumParticles and SampleInterval size the space charge grid.
	NumParticles   int
	SampleInterval int
	// SpaceCharge is "2D", "3D" or "" to disable it.
	SpaceCharge string
	Cathode     bool
	// ScreenStep is the GPT screen spacing in metres.
	ScreenStep float64
	// ParticleFile is the input distribution referenced by the headers.
	ParticleFile string
	Logger       *slog.Logger

	fieldFiles []string
	counter    *Counter
}

// Option configures an Env.
type Option func(*Env)

// WithOutputDir sets the directory decks and field files are written to.
func WithOutputDir(dir string) Option {
	return func(e *Env) {
		e.OutputDir = dir
	}
}

// WithMasterLatticeLocation sets the directory substituted for
// $master_lattice_location$.
func WithMasterLatticeLocation(dir string) Option {
	return func(e *Env) {
		e.MasterLatticeLocation = dir
	}
}

// WithMomentum sets the reference momentum in eV/c.
func WithMomentum(p float64) Option {
	return func(e *Env) {
		e.Momentum = p
	}
}

// WithCharge sets the bunch charge in C.
func WithCharge(q float64) Option {
	return func(e *Env) {
		e.Charge = q
	}
}

// WithAutoPhase makes cavities phase themselves relative to crest.
func WithAutoPhase(on bool) Option {
	return func(e *Env) {
		e.AutoPhase = on
	}
}

// WithParticles sets the macro particle count and the sampling interval.
func WithParticles(n, sampleInterval int) Option {
	return func(e *Env) {
		e.NumParticles = n
		e.SampleInterval = sampleInterval
	}
}

// WithSpaceCharge selects the space charge model: "2D", "3D" or "" for none.
func WithSpaceCharge(mode string) Option {
	return func(e *Env) {
		e.SpaceCharge = mode
	}
}

// WithParticleFile sets the input distribution file.
func WithParticleFile(name string) Option {
	return func(e *Env) {
		e.ParticleFile = name
	}
}

// WithLogger sets the logger warnings are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) {
		e.Logger = l
	}
}

// NewEnv returns an Env with the defaults applied.
func NewEnv(opts ...Option) *Env {
	e := &Env{
		OutputDir:      ".",
		AutoPhase:      true,
		NumParticles:   1 << 15,
		SampleInterval: 1,
		SpaceCharge:    "3D",
		ScreenStep:     0.1,
		ParticleFile:   "laser.astra",
		Logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		counter:        NewCounter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings are the values of an Env that shape the decks it renders.
type Settings struct {
	OutputDir             string  `json:"output_dir"`
	MasterLatticeLocation string  `json:"master_lattice_location"`
	Momentum              float64 `json:"momentum"`
	Charge                float64 `json:"charge"`
	AutoPhase             bool    `json:"auto_phase"`
	NumParticles          int     `json:"num_particles"`
	SampleInterval        int     `json:"sample_interval"`
	SpaceCharge           string  `json:"space_charge"`
	Cathode               bool    `json:"cathode"`
	ScreenStep            float64 `json:"screen_step"`
	ParticleFile          string  `json:"particle_file"`
}

// Settings returns the resolved rendering settings.
func (e *Env) Settings() Settings {
	return Settings{
		OutputDir:             e.OutputDir,
		MasterLatticeLocation: e.MasterLatticeLocation,
		Momentum:              e.Momentum,
		Charge:                e.Charge,
		AutoPhase:             e.AutoPhase,
		NumParticles:          e.NumParticles,
		SampleInterval:        e.SampleInterval,
		SpaceCharge:           e.SpaceCharge,
		Cathode:               e.Cathode,
		ScreenStep:            e.ScreenStep,
		ParticleFile:          e.ParticleFile,
	}
}

// Brho is the magnetic rigidity of the reference particle in T·m.
func (e *Env) Brho() float64 {
	return domain.Rigidity(e.Momentum)
}

// FieldFiles returns every field map and wake table referenced so far, with
// substitution variables expanded.
func (e *Env) FieldFiles() []string {
	return slices.Clone(e.fieldFiles)
}

// Counter returns the shared index allocator.
func (e *Env) Counter() *Counter {
	return e.counter
}

// ExpandSubstitution replaces $master_lattice_location$ with the master
// lattice directory.
func (e *Env) ExpandSubstitution(s string) string {
	if !strings.Contains(s, MasterLatticeVariable) {
		return s
	}
	loc := filepath.ToSlash(e.MasterLatticeLocation)
	if loc == "" {
		loc = "."
	}
	return strings.ReplaceAll(s, MasterLatticeVariable, strings.TrimSuffix(loc, "/")+"/")
}

// FieldFile records the file behind a field definition and returns the name
// the deck should reference: its base name, since the file is copied next to
// the deck.
func (e *Env) FieldFile(def *domain.FieldDefinition) string {
	if def.IsZero() {
		return ""
	}
	full := e.ExpandSubstitution(strings.NewReplacer(`"`, "", "'", "").Replace(def.Filename))
	full = path.Clean(filepath.ToSlash(full))
	if !slices.Contains(e.fieldFiles, full) {
		e.fieldFiles = append(e.fieldFiles, full)
	}
	return def.Basename()
}

func (e *Env) warnUnsupported(code Code, el *domain.Element) {
	e.Logger.Warn("element not supported", "code", string(code), "element", el.Name, "type", el.HardwareType)
}

// Counter allocates sequential indices per key.
type Counter struct {
	counts map[string]int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: map[string]int{}}
}

// Next returns the index the next entry of k would get, without taking it.
func (c *Counter) Next(k string) int {
	return c.counts[k] + 1
}

// Value returns the last index taken for k, or 1 when none was.
func (c *Counter) Value(k string) int {
	if v, ok := c.counts[k]; ok {
		return v
	}
	return 1
}

// Add advances k by n and returns the new value.
func (c *Counter) Add(k string, n int) int {
	c.counts[k] += n
	return c.counts[k]
}

// Reset clears every sequence.
func (c *Counter) Reset() {
	clear(c.counts)
}
