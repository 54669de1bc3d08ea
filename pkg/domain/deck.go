package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDeckNotFound is returned by deck stores for an unknown ID.
var ErrDeckNotFound = errors.New("deck not found")

// Deck is one exported input file for a simulation code.
type Deck struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Target  string `json:"target"`
	Content string `json:"content"`
	// Files lists the field maps and wake tables the deck references.
	Files     []string  `json:"files,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DeckID derives a stable identifier from the code, the target key and a
// fingerprint of everything the deck was rendered from.
func DeckID(code, target string, fingerprint uint64) string {
	t := strings.NewReplacer("/", "-", " ", "-").Replace(target)
	if t == "" {
		t = "model"
	}
	return fmt.Sprintf("%s-%s-%016x", strings.ToLower(code), t, fingerprint)
}
