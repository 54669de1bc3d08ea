package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"gopkg.in/yaml.v3"
)

// Exporter writes a model back to YAML documents the Loader reads.
type Exporter struct{}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportMachine writes one document per element to
// <dir>/<class>/<type>/<name>.yaml. Existing files are kept unless
// overwrite is set. It returns the paths written.
func (x *Exporter) ExportMachine(model *lattice.Model, dir string, overwrite bool) ([]string, error) {
	var written []string
	for _, e := range model.Elements() {
		path := filepath.Join(dir, filepath.FromSlash(e.YAMLPath()))
		if !overwrite {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := x.ExportElement(e, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// ExportElement writes a single element document to path.
func (x *Exporter) ExportElement(e *domain.Element, path string) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal element %s: %w", e.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", e.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write element %s: %w", e.Name, err)
	}
	return nil
}

// ExportCombined writes every element to <dir>/summary.yaml, keyed by name.
// It returns the path of the file.
func (x *Exporter) ExportCombined(model *lattice.Model, dir string) (string, error) {
	combined := make(map[string]*domain.Element, model.Len())
	for _, e := range model.Elements() {
		combined[e.Name] = e
	}
	data, err := yaml.Marshal(combined)
	if err != nil {
		return "", fmt.Errorf("failed to marshal combined file: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write combined file: %w", err)
	}
	return path, nil
}

// ExportConfig writes the layout and section definitions next to the
// element documents.
func (x *Exporter) ExportConfig(dir string, layouts lattice.LayoutConfig, sections lattice.SectionConfig) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for name, doc := range map[string]any{LayoutsFile: layouts, SectionsFile: sections} {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// ExportDeck writes a deck's content to dir under the given file name.
func (x *Exporter) ExportDeck(deck *domain.Deck, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(deck.Content), 0644); err != nil {
		return "", fmt.Errorf("failed to write deck %s: %w", deck.ID, err)
	}
	return path, nil
}
