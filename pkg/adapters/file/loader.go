package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Names of the configuration documents next to the element tree.
const (
	LayoutsFile  = "layouts.yaml"
	SectionsFile = "sections.yaml"
	SummaryFile  = "summary.yaml"
)

// Loader implements ports.ElementLoader over YAML files.
//
// Path is either a directory tree of element documents (one element per
// file, as written by Exporter.ExportMachine) or a single combined file
// keyed by element name (as written by Exporter.ExportCombined). A document
// without a hardware_type inside the tree is read as a combined file too.
// Documents read later replace earlier ones of the same name.
type Loader struct {
	Path string
	// Logger receives watcher warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.Logger = logger
	}
}

// NewLoader creates a Loader rooted at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{Path: path}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// LoadElements decodes every element document under Path.
func (l *Loader) LoadElements(ctx context.Context) ([]*domain.Element, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lattice %s: %w", l.Path, err)
	}

	var files []string
	if info.IsDir() {
		files, err = l.elementFiles()
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{l.Path}
	}

	byName := make(map[string]*domain.Element)
	var order []string
	var errs []error
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		elements, err := readElements(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, e := range elements {
			if _, seen := byName[e.Name]; !seen {
				order = append(order, e.Name)
			}
			byName[e.Name] = e
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	elements := make([]*domain.Element, len(order))
	for i, name := range order {
		elements[i] = byName[name]
	}
	return elements, nil
}

// elementFiles lists the YAML documents of the tree in lexical order,
// skipping hidden directories and the configuration documents.
func (l *Loader) elementFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(l.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != l.Path && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(name) {
		case ".yaml", ".yml":
		default:
			return nil
		}
		if path == filepath.Join(l.Path, LayoutsFile) || path == filepath.Join(l.Path, SectionsFile) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk lattice %s: %w", l.Path, err)
	}
	sort.Strings(files)
	return files, nil
}

// readElements decodes one file, either a single element or a combined file.
// Elements of a combined file keep their document order.
func readElements(path string) ([]*domain.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse %s: expected a mapping", path)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	if hasKey(node, "hardware_type") {
		var doc map[string]any
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if _, ok := doc["name"]; !ok {
			doc["name"] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		e, err := domain.DecodeElement(doc)
		if err != nil {
			return nil, schema.Prefix(path, err)
		}
		return []*domain.Element{e}, nil
	}

	elements := make([]*domain.Element, 0, len(node.Content)/2)
	var errs []error
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var raw map[string]any
		if err := node.Content[i+1].Decode(&raw); err != nil || raw == nil {
			errs = append(errs, fmt.Errorf("%s: element %s is not a mapping", path, name))
			continue
		}
		if _, ok := raw["name"]; !ok {
			raw["name"] = name
		}
		e, err := domain.DecodeElement(raw)
		if err != nil {
			errs = append(errs, schema.Prefix(path+": "+name, err))
			continue
		}
		elements = append(elements, e)
	}
	return elements, errors.Join(errs...)
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// LoadConfig reads layouts.yaml and sections.yaml from the lattice
// directory, or from the directory of a combined file. Missing files yield
// empty configs.
func (l *Loader) LoadConfig(_ context.Context) (lattice.LayoutConfig, lattice.SectionConfig, error) {
	var layouts lattice.LayoutConfig
	var sections lattice.SectionConfig

	dir := l.Path
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	if err := readConfig(filepath.Join(dir, LayoutsFile), &layouts); err != nil {
		return layouts, sections, err
	}
	if err := readConfig(filepath.Join(dir, SectionsFile), &sections); err != nil {
		return layouts, sections, err
	}
	return layouts, sections, nil
}

func readConfig(path string, out any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
