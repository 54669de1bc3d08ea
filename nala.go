package nala

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/nala/pkg/adapters/file"
	loamAdapter "github.com/aretw0/nala/pkg/adapters/loam"
	"github.com/aretw0/nala/pkg/adapters/memory"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/observability"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/cespare/xxhash/v2"
)

// Target selects what an export covers.
type Target = ports.Target

// ExportLockTTL bounds how long one replica may hold an export lock.
var ExportLockTTL = 30 * time.Second

// Machine is the high-level entry point of the library. It owns the current
// machine model, reloads it from its loader and exports it to simulation
// codes, caching the decks it builds.
type Machine struct {
	Name string

	loader        ports.ElementLoader
	store         ports.DeckStore
	locker        ports.DistributedLocker
	metrics       *observability.Metrics
	registry      *translator.Registry
	envOpts       []translator.Option
	masterLattice string
	outputDir     string
	useLoam       bool
	logger        *slog.Logger

	mu          sync.RWMutex
	model       *lattice.Model
	revision    uint64
	fingerprint uint64
}

var _ ports.Machine = (*Machine)(nil)

// Option defines a functional option for configuring the Machine.
type Option func(*Machine)

// WithLoader injects a custom ElementLoader, bypassing the default file loader.
func WithLoader(l ports.ElementLoader) Option {
	return func(m *Machine) {
		m.loader = l
	}
}

// WithLoam reads the lattice through a read-only Loam repository instead
// of the plain file loader.
func WithLoam() Option {
	return func(m *Machine) {
		m.useLoam = true
	}
}

// WithStore sets where exported decks are cached (default: in memory).
func WithStore(s ports.DeckStore) Option {
	return func(m *Machine) {
		m.store = s
	}
}

// WithLocker serializes exports of the same deck across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(m *Machine) {
		m.locker = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithMetrics records exports and reloads.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Machine) {
		m.metrics = metrics
	}
}

// WithRegistry replaces the package translator registry.
func WithRegistry(r *translator.Registry) Option {
	return func(m *Machine) {
		m.registry = r
	}
}

// WithMasterLatticeLocation sets the directory substituted for
// $master_lattice_location$ in field and wake file names.
func WithMasterLatticeLocation(dir string) Option {
	return func(m *Machine) {
		m.masterLattice = dir
	}
}

// WithOutputDir sets the directory decks refer to for their output files.
func WithOutputDir(dir string) Option {
	return func(m *Machine) {
		m.outputDir = dir
	}
}

// WithEnv appends translator options applied to every export, such as the
// beam momentum or the space charge model.
func WithEnv(opts ...translator.Option) Option {
	return func(m *Machine) {
		m.envOpts = append(m.envOpts, opts...)
	}
}

// New loads the lattice at path. By default path is read with the file
// loader, either as a directory tree of element documents or as one
// combined file. If WithLoader is provided, path may be empty.
func New(path string, opts ...Option) (*Machine, error) {
	m := &Machine{}
	for _, opt := range opts {
		opt(m)
	}

	var files *file.Loader
	if m.loader == nil {
		if path == "" {
			return nil, errors.New("path is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		m.Name = filepath.Base(absPath)

		if m.useLoam {
			// Strict mode keeps numbers as json.Number across formats, and
			// read-only mode stops Loam from writing into the lattice.
			repo, err := loam.Init(absPath,
				loam.WithStrict(true),
				loam.WithReadOnly(true),
			)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize loam: %w", err)
			}
			m.loader = loamAdapter.New(loam.NewTypedRepository[loamAdapter.ElementMetadata](repo))
		} else {
			files = file.NewLoader(absPath)
			m.loader = files
		}
	} else if path != "" {
		m.Name = filepath.Base(path)
	}

	if m.logger == nil {
		m.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if m.Name != "" {
		m.logger = m.logger.With("lattice", m.Name)
	}
	if files != nil {
		files.Logger = m.logger
	}
	if m.store == nil {
		m.store = memory.NewStore()
	}
	if m.registry == nil {
		m.registry = translator.Default()
	}

	if err := m.Reload(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// Model returns the current machine model. It is replaced, never mutated,
// by Reload.
func (m *Machine) Model() *lattice.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

// Revision counts the model changes seen since New, starting at 1.
func (m *Machine) Revision() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.revision
}

// Loader returns the underlying ElementLoader.
func (m *Machine) Loader() ports.ElementLoader {
	return m.loader
}

// Reload reads the lattice again. On failure the previous model stays in
// place.
func (m *Machine) Reload(ctx context.Context) error {
	_, err := m.reload(ctx)
	return err
}

// reload reports whether the lattice content changed.
func (m *Machine) reload(ctx context.Context) (bool, error) {
	elements, err := m.loader.LoadElements(ctx)
	if err != nil {
		m.metrics.ObserveReload(m.Revision(), 0, err)
		return false, fmt.Errorf("failed to load elements: %w", err)
	}
	layouts, sections, err := m.loader.LoadConfig(ctx)
	if err != nil {
		m.metrics.ObserveReload(m.Revision(), 0, err)
		return false, fmt.Errorf("failed to load layouts: %w", err)
	}
	sum, err := fingerprint(elements, layouts, sections)
	if err != nil {
		return false, err
	}

	model := lattice.NewModel(elements,
		lattice.WithLayouts(layouts),
		lattice.WithSections(sections),
		lattice.WithMasterLatticeLocation(m.masterLattice),
		lattice.WithLogger(m.logger),
	)

	m.mu.Lock()
	changed := m.model == nil || sum != m.fingerprint
	if changed {
		m.revision++
	}
	m.model = model
	m.fingerprint = sum
	revision := m.revision
	m.mu.Unlock()

	m.metrics.ObserveReload(revision, len(elements), nil)
	m.logger.Debug("lattice loaded", "elements", len(elements), "revision", revision, "changed", changed)
	return changed, nil
}

// fingerprint hashes the lattice content. Deck IDs carry it so that stores
// shared between processes never serve a deck built from other content.
func fingerprint(elements []*domain.Element, layouts lattice.LayoutConfig, sections lattice.SectionConfig) (uint64, error) {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	for _, v := range []any{elements, layouts, sections} {
		if err := enc.Encode(v); err != nil {
			return 0, fmt.Errorf("failed to hash lattice: %w", err)
		}
	}
	return h.Sum64(), nil
}

// Watch reloads the model whenever the loader reports a change and sends
// the new revision. Reloads that leave the content unchanged are not
// reported. Returns an error if the loader does not support watching.
func (m *Machine) Watch(ctx context.Context) (<-chan uint64, error) {
	w, ok := m.loader.(ports.Watchable)
	if !ok {
		return nil, errors.New("current loader does not support watching")
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan uint64, 1)
	go func() {
		defer close(out)
		for range events {
			changed, err := m.reload(ctx)
			if err != nil {
				m.logger.Error("reload failed, keeping previous model", "err", err)
				continue
			}
			if !changed {
				continue
			}
			select {
			case out <- m.Revision():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *Machine) snapshot() (*lattice.Model, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model, m.fingerprint
}

// Export renders target for the named code. A deck already built from the
// same lattice content is served from the store.
func (m *Machine) Export(ctx context.Context, name string, target Target) (*domain.Deck, error) {
	start := time.Now()
	code, err := m.registry.Parse(name)
	if err != nil {
		m.metrics.ObserveExport("unknown", start, err)
		return nil, err
	}
	model, content := m.snapshot()
	env := m.newEnv()
	sum, err := deckFingerprint(content, env.Settings())
	if err != nil {
		m.metrics.ObserveExport(string(code), start, err)
		return nil, err
	}
	id := domain.DeckID(string(code), target.Key(), sum)

	if deck, ok := m.cached(ctx, id); ok {
		m.metrics.CacheHit(string(code))
		return deck, nil
	}

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "export:"+id, ExportLockTTL)
		if err != nil {
			m.metrics.ObserveExport(string(code), start, err)
			return nil, fmt.Errorf("failed to lock export %s: %w", id, err)
		}
		defer func() {
			if err := unlock(context.Background()); err != nil {
				m.logger.Warn("failed to release export lock", "deck", id, "err", err)
			}
		}()
		// Another replica may have built it while we waited.
		if deck, ok := m.cached(ctx, id); ok {
			m.metrics.CacheHit(string(code))
			return deck, nil
		}
	}

	deck, err := m.render(code, model, target, env, id)
	m.metrics.ObserveExport(string(code), start, err)
	if err != nil {
		m.logger.Warn("export failed", "code", code, "target", target.String(), "err", err)
		return nil, err
	}
	if err := m.store.Save(ctx, deck); err != nil {
		m.logger.Warn("failed to cache deck", "deck", id, "err", err)
	}
	m.logger.Info("deck exported", "deck", id, "code", code, "files", len(deck.Files))
	return deck, nil
}

func (m *Machine) cached(ctx context.Context, id string) (*domain.Deck, bool) {
	deck, err := m.store.Load(ctx, id)
	if err == nil {
		return deck, true
	}
	if !errors.Is(err, domain.ErrDeckNotFound) {
		m.logger.Warn("deck store lookup failed", "deck", id, "err", err)
	}
	return nil, false
}

// newEnv resolves the translator settings of one export.
func (m *Machine) newEnv() *translator.Env {
	opts := []translator.Option{
		translator.WithMasterLatticeLocation(m.masterLattice),
		translator.WithLogger(m.logger),
	}
	if m.outputDir != "" {
		opts = append(opts, translator.WithOutputDir(m.outputDir))
	}
	return translator.NewEnv(append(opts, m.envOpts...)...)
}

// deckFingerprint folds the rendering settings into the lattice fingerprint.
// Machines sharing a store only share decks rendered the same way.
func deckFingerprint(content uint64, settings translator.Settings) (uint64, error) {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], content)
	_, _ = h.Write(buf[:])
	if err := json.NewEncoder(h).Encode(settings); err != nil {
		return 0, fmt.Errorf("failed to hash export settings: %w", err)
	}
	return h.Sum64(), nil
}

func (m *Machine) render(code translator.Code, model *lattice.Model, target Target, env *translator.Env, id string) (*domain.Deck, error) {
	var content string
	switch {
	case target.Section != "":
		s, err := model.Section(target.Section)
		if err != nil {
			return nil, err
		}
		if content, err = m.registry.ExportSection(code, s, env); err != nil {
			return nil, err
		}
	case target.Layout != "":
		l, err := model.Layout(target.Layout)
		if err != nil {
			return nil, err
		}
		if content, err = m.registry.ExportLayout(code, l, env); err != nil {
			return nil, err
		}
	default:
		var err error
		if content, err = m.registry.ExportModel(code, model, env); err != nil {
			return nil, err
		}
	}

	return &domain.Deck{
		ID:        id,
		Code:      string(code),
		Target:    target.String(),
		Content:   content,
		Files:     env.FieldFiles(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Codes lists the simulation codes of the machine's registry.
func (m *Machine) Codes() []string {
	codes := m.registry.Codes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// Deck returns a previously exported deck.
func (m *Machine) Deck(ctx context.Context, id string) (*domain.Deck, error) {
	return m.store.Load(ctx, id)
}
