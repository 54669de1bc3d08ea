package ports

import (
	"context"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

// ElementLoader defines how the machine model retrieves its elements.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type ElementLoader interface {
	// LoadElements decodes every element document the backend holds.
	LoadElements(ctx context.Context) ([]*domain.Element, error)

	// LoadConfig returns the beam path and section definitions. Backends
	// without them return empty configs, in which case sections are derived
	// from each element's machine area.
	LoadConfig(ctx context.Context) (lattice.LayoutConfig, lattice.SectionConfig, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload of the machine model.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying documents change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
