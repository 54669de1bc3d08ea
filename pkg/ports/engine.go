package ports

import (
	"context"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

// Target selects what an export covers. With neither field set the whole
// machine is exported; Section wins over Layout.
type Target struct {
	Layout  string `json:"layout,omitempty"`
	Section string `json:"section,omitempty"`
}

// String names the target for logs and deck metadata.
func (t Target) String() string {
	switch {
	case t.Section != "":
		return t.Section
	case t.Layout != "":
		return t.Layout
	}
	return ""
}

// Key names the target together with its kind, so that a section and a
// layout sharing a name never share a deck: "section-X", "layout-X" or
// "model".
func (t Target) Key() string {
	switch {
	case t.Section != "":
		return "section-" + t.Section
	case t.Layout != "":
		return "layout-" + t.Layout
	}
	return "model"
}

// Machine is the service the driving adapters (HTTP, MCP) talk to.
type Machine interface {
	// Model returns the current machine model.
	Model() *lattice.Model

	// Export renders the target for a simulation code, reusing a stored deck
	// when the model has not changed since it was built.
	Export(ctx context.Context, code string, target Target) (*domain.Deck, error)

	// Deck returns a previously exported deck.
	Deck(ctx context.Context, id string) (*domain.Deck, error)

	// Codes lists the simulation codes Export accepts.
	Codes() []string
}
