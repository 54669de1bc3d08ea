package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ElementMarkdown describes an element as markdown: a summary table
// followed by its full YAML definition.
func ElementMarkdown(e *domain.Element) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", e.Name)
	sb.WriteString("| Property | Value |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "| %s | %s |\n", k, v)
		}
	}
	row("Type", e.HardwareType)
	row("Class", e.HardwareClass)
	row("Model", e.HardwareModel)
	row("Section", e.MachineArea)
	row("Length", fmt.Sprintf("%g m", e.Length()))
	m := e.Middle()
	row("Middle", fmt.Sprintf("(%g, %g, %g)", m.X, m.Y, m.Z))

	data, err := yaml.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", e.Name, err)
	}
	sb.WriteString("\n```yaml\n")
	sb.Write(data)
	sb.WriteString("```\n")
	return sb.String(), nil
}
