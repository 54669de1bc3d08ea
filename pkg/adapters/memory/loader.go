package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ElementLoader using in-memory element documents.
type Loader struct {
	docs     map[string]map[string]any
	layouts  lattice.LayoutConfig
	sections lattice.SectionConfig
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLayouts sets the beam paths returned by LoadConfig.
func WithLayouts(cfg lattice.LayoutConfig) LoaderOption {
	return func(l *Loader) {
		l.layouts = cfg
	}
}

// WithSections sets the section definitions returned by LoadConfig.
func WithSections(cfg lattice.SectionConfig) LoaderOption {
	return func(l *Loader) {
		l.sections = cfg
	}
}

// NewLoader creates a new Loader from raw element documents keyed by name.
// A document without a name takes its key.
func NewLoader(docs map[string]map[string]any, opts ...LoaderOption) *Loader {
	l := &Loader{docs: make(map[string]map[string]any, len(docs))}
	for name, doc := range docs {
		copied := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			copied[k] = v
		}
		if _, ok := copied["name"]; !ok {
			copied["name"] = name
		}
		l.docs[name] = copied
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewFromElements creates a new Loader from domain objects.
// This handles serialization automatically, improving DX for tests.
func NewFromElements(elements []*domain.Element, opts ...LoaderOption) (*Loader, error) {
	docs := make(map[string]map[string]any, len(elements))
	for _, e := range elements {
		if e.Name == "" {
			return nil, fmt.Errorf("element missing name")
		}
		data, err := yaml.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal element %s: %w", e.Name, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal element %s: %w", e.Name, err)
		}
		docs[e.Name] = doc
	}
	return NewLoader(docs, opts...), nil
}

// LoadElements decodes every document, in name order.
func (l *Loader) LoadElements(_ context.Context) ([]*domain.Element, error) {
	names := make([]string, 0, len(l.docs))
	for name := range l.docs {
		names = append(names, name)
	}
	sort.Strings(names) // Deterministic order

	elements := make([]*domain.Element, 0, len(names))
	for _, name := range names {
		e, err := domain.DecodeElement(l.docs[name])
		if err != nil {
			return nil, schema.Prefix(name, err)
		}
		elements = append(elements, e)
	}
	return elements, nil
}

// LoadConfig returns the configured layouts and sections.
func (l *Loader) LoadConfig(_ context.Context) (lattice.LayoutConfig, lattice.SectionConfig, error) {
	return l.layouts, l.sections, nil
}
