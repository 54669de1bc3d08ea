package loam

import "strings"

// ElementMetadata is the frontmatter (or whole document, for YAML and JSON
// files) of an element document. It is kept loosely typed so that element
// decoding and validation stay in the domain package.
type ElementMetadata map[string]any

// Name returns the declared element name, if any.
func (m ElementMetadata) Name() string {
	name, _ := m["name"].(string)
	return name
}

// Document IDs holding the beam path and section definitions instead of an
// element.
const (
	LayoutsID  = "layouts"
	SectionsID = "sections"
)

func isConfig(id string) bool {
	id = trimExtension(id)
	return strings.EqualFold(id, LayoutsID) || strings.EqualFold(id, SectionsID)
}
