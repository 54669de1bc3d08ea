package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts the Loam library to the nala ElementLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[ElementMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ElementMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// LoadElements decodes every element document in the repository. An element
// without a name takes the base name of its document.
func (l *Loader) LoadElements(ctx context.Context) ([]*domain.Element, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	elements := make([]*domain.Element, 0, len(docs))
	for _, doc := range docs {
		if isConfig(doc.ID) {
			continue
		}
		raw := map[string]any(doc.Data)
		if len(raw) == 0 {
			continue
		}

		name := doc.Data.Name()
		if name == "" {
			name = path.Base(trimExtension(doc.ID))
			raw["name"] = name
		}

		// Collision Detection
		if existing, ok := seen[name]; ok {
			return nil, fmt.Errorf("collision detected: element '%s' is defined in both '%s' and '%s'", name, existing, doc.ID)
		}
		seen[name] = doc.ID

		e, err := domain.DecodeElement(raw)
		if err != nil {
			return nil, schema.Prefix(doc.ID, err)
		}
		elements = append(elements, e)
	}
	return elements, nil
}

// LoadConfig decodes the layouts and sections documents. Missing documents
// yield empty configs.
func (l *Loader) LoadConfig(ctx context.Context) (lattice.LayoutConfig, lattice.SectionConfig, error) {
	var layouts lattice.LayoutConfig
	var sections lattice.SectionConfig

	docs, err := l.Repo.List(ctx)
	if err != nil {
		return layouts, sections, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		var target any
		switch strings.ToLower(trimExtension(doc.ID)) {
		case LayoutsID:
			target = &layouts
		case SectionsID:
			target = &sections
		default:
			continue
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: "yaml",
			Result:  target,
		})
		if err != nil {
			return layouts, sections, err
		}
		if err := dec.Decode(map[string]any(doc.Data)); err != nil {
			return layouts, sections, fmt.Errorf("failed to decode %s: %w", doc.ID, err)
		}
	}
	return layouts, sections, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	// Recursive doublestar pattern, filtered by Loam itself
	events, err := l.Repo.Watch(ctx, "**/*.{md,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce: a pending signal already means "reload".
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
