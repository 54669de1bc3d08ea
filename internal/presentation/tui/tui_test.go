package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/nala/internal/presentation/tui"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementMarkdown(t *testing.T) {
	e := domain.NewElement("Q1", "Quadrupole")
	e.MachineArea = "S01"
	e.Physical.Middle = domain.Position{Z: 1.5}
	e.Physical.Length = 0.2

	md, err := tui.ElementMarkdown(e)
	require.NoError(t, err)
	assert.Contains(t, md, "# Q1\n")
	assert.Contains(t, md, "| Type | Quadrupole |")
	assert.Contains(t, md, "| Section | S01 |")
	assert.Contains(t, md, "| Middle | (0, 0, 1.5) |")
	assert.Contains(t, md, "```yaml\n")
	assert.Contains(t, md, "hardware_type: Quadrupole")
}

func TestRenderer_Plain(t *testing.T) {
	render, err := tui.NewRenderer(true)
	require.NoError(t, err)

	out, err := render("# Title\n\nSome *text*.")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "text")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "v1.0.0")
	assert.Contains(t, buf.String(), "lattice translator v1.0.0")
}
