package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
)

// Store implements ports.DeckStore using the local filesystem.
// It stores decks as JSON files in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".nala/decks".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".nala", "decks")
	}
	return &Store{BasePath: basePath}
}

// Save persists the deck to a JSON file atomically.
// It writes to a temporary file first, syncs it, and then renames it to the destination.
func (s *Store) Save(_ context.Context, deck *domain.Deck) error {
	if deck.ID == "" {
		return fmt.Errorf("deck ID cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure deck directory: %w", err)
	}

	data, err := json.MarshalIndent(deck, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}

	// Same directory as the destination, rename must not cross filesystems
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+deck.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(deck.ID)
	// os.Rename does not replace an existing file on Windows
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing deck file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to deck: %w", err)
	}
	return nil
}

// Load retrieves a deck from its JSON file.
func (s *Store) Load(_ context.Context, id string) (*domain.Deck, error) {
	if id == "" {
		return nil, fmt.Errorf("deck ID cannot be empty")
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to read deck file: %w", err)
	}

	var deck domain.Deck
	if err := json.Unmarshal(data, &deck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck: %w", err)
	}
	return &deck, nil
}

// Delete removes the deck file.
func (s *Store) Delete(_ context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("deck ID cannot be empty")
	}

	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete deck file: %w", err)
	}
	return nil
}

// List returns all stored deck IDs.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}
