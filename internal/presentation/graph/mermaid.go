package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
)

// Overlay marks elements to highlight on the diagram.
type Overlay struct {
	Highlight []string
	Current   string
}

// GenerateMermaid draws a beam path as a left to right Mermaid flowchart,
// one subgraph per section. Element shapes follow the hardware kind:
// - Magnet: [[Subroutine]]
// - Cavity: ((Circle))
// - Diagnostic: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(layout *lattice.Layout, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	prev := ""
	for _, sec := range layout.Sections() {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("sec_"+sec.Name), sec.Name)
		for _, e := range sec.Elements() {
			if e.Subelement {
				continue
			}
			opener, closer := shape(e)
			fmt.Fprintf(&sb, "        %s%s\"%s\"%s\n", sanitizeMermaidID(e.Name), opener, label(e), closer)
		}
		sb.WriteString("    end\n")

		for _, e := range sec.Elements() {
			if e.Subelement {
				continue
			}
			id := sanitizeMermaidID(e.Name)
			if prev != "" {
				fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
			}
			prev = id
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on both themes
		sb.WriteString("    classDef highlight fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Highlight {
			id := sanitizeMermaidID(name)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s highlight;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func shape(e *domain.Element) (string, string) {
	switch e.Kind() {
	case domain.KindMagnet:
		return "[[", "]]"
	case domain.KindCavity, domain.KindWakefield:
		return "((", "))"
	case domain.KindDiagnostic:
		return "[/", "/]"
	}
	return "[", "]"
}

func label(e *domain.Element) string {
	return fmt.Sprintf("%s <br/> %s", e.Name, strings.ReplaceAll(e.HardwareType, "\"", "'"))
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", ":", "_").Replace(id)
}
