package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMachine struct {
	model *lattice.Model
	decks map[string]*domain.Deck
	codes []string
}

func newStubMachine() *stubMachine {
	q1 := domain.NewElement("Q1", "Quadrupole")
	q1.MachineArea = "S01"
	q1.Physical.Middle = domain.Position{Z: 1}
	q1.Physical.Length = 0.2
	q1.Magnetic.Length = 0.2
	q1.Magnetic.SetKnL(1, 0.3)
	bpm := domain.NewElement("BPM1", "BPM")
	bpm.MachineArea = "S01"
	bpm.Physical.Middle = domain.Position{Z: 1.5}
	scr := domain.NewElement("SCR1", "Screen")
	scr.MachineArea = "S02"
	scr.Physical.Middle = domain.Position{Z: 3}

	model := lattice.NewModel([]*domain.Element{q1, bpm, scr}, lattice.WithLayouts(lattice.LayoutConfig{
		Layouts:       map[string][]string{"line": {"S01", "S02"}},
		DefaultLayout: "line",
	}))
	return &stubMachine{model: model, decks: make(map[string]*domain.Deck)}
}

func (m *stubMachine) Model() *lattice.Model { return m.model }

func (m *stubMachine) Codes() []string {
	if m.codes != nil {
		return m.codes
	}
	var out []string
	for _, c := range translator.Default().Codes() {
		out = append(out, string(c))
	}
	return out
}

func (m *stubMachine) Export(_ context.Context, name string, target ports.Target) (*domain.Deck, error) {
	code, err := translator.ParseCode(name)
	if err != nil {
		return nil, err
	}
	s, err := m.model.Section(target.Section)
	if err != nil {
		return nil, err
	}
	content, err := translator.ExportSection(code, s, translator.NewEnv())
	if err != nil {
		return nil, err
	}
	deck := &domain.Deck{
		ID:      domain.DeckID(string(code), target.Key(), 0),
		Code:    string(code),
		Target:  target.String(),
		Content: content,
	}
	m.decks[deck.ID] = deck
	return deck, nil
}

func (m *stubMachine) Deck(_ context.Context, id string) (*domain.Deck, error) {
	if d, ok := m.decks[id]; ok {
		return d, nil
	}
	return nil, domain.ErrDeckNotFound
}

func TestServer_ListElements(t *testing.T) {
	s := NewServer(newStubMachine(), "test\n")
	ctx := context.Background()

	res, err := s.handleListElements(ctx, mcp.CallToolRequest{}, FilterArgs{})
	require.NoError(t, err)
	assert.Len(t, res.Elements, 3)

	res, err = s.handleListElements(ctx, mcp.CallToolRequest{}, FilterArgs{Type: "Quadrupole, Screen"})
	require.NoError(t, err)
	require.Len(t, res.Elements, 2)
	assert.Equal(t, "Q1", res.Elements[0].Name)
	assert.Equal(t, "SCR1", res.Elements[1].Name)

	res, err = s.handleListElements(ctx, mcp.CallToolRequest{}, FilterArgs{Class: "Diagnostic", Layout: "line"})
	require.NoError(t, err)
	require.Len(t, res.Elements, 2)
	assert.Equal(t, "BPM1", res.Elements[0].Name)

	_, err = s.handleListElements(ctx, mcp.CallToolRequest{}, FilterArgs{Layout: "ring"})
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
}

func TestServer_GetElement(t *testing.T) {
	s := NewServer(newStubMachine(), "test")

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_element"
	req.Params.Arguments = map[string]any{"name": "Q1"}

	res, err := s.handleGetElement(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &got))
	assert.Equal(t, "Q1", got["name"])
	assert.Equal(t, "Quadrupole", got["hardware_type"])

	req.Params.Arguments = map[string]any{"name": "Q9"}
	res, err = s.handleGetElement(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	req.Params.Arguments = map[string]any{}
	res, err = s.handleGetElement(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestServer_Between(t *testing.T) {
	s := NewServer(newStubMachine(), "test")

	res, err := s.handleBetween(context.Background(), mcp.CallToolRequest{}, BetweenArgs{Start: "BPM1", End: "SCR1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"BPM1", "SCR1"}, res.Names)

	res, err = s.handleBetween(context.Background(), mcp.CallToolRequest{}, BetweenArgs{
		FilterArgs: FilterArgs{Type: "Dipole"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Names)
	assert.NotNil(t, res.Names)

	_, err = s.handleBetween(context.Background(), mcp.CallToolRequest{}, BetweenArgs{Start: "NOPE"})
	assert.ErrorIs(t, err, domain.ErrElementNotFound)
}

func TestServer_Export(t *testing.T) {
	machine := newStubMachine()
	s := NewServer(machine, "test")
	ctx := context.Background()

	deck, err := s.handleExport(ctx, mcp.CallToolRequest{}, ExportArgs{Code: "elegant", Section: "S01"})
	require.NoError(t, err)
	assert.Equal(t, "elegant", deck.Code)
	assert.Equal(t, "S01", deck.Target)
	assert.Contains(t, deck.Content, "Q1: KQUAD")

	_, err = s.handleExport(ctx, mcp.CallToolRequest{}, ExportArgs{Code: "madx", Section: "S01"})
	assert.ErrorIs(t, err, translator.ErrUnknownCode)

	_, err = s.handleExport(ctx, mcp.CallToolRequest{}, ExportArgs{})
	assert.Error(t, err)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "nala://decks/" + deck.ID
	contents, err := s.readDeck(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, deck.Content, contents[0].(mcp.TextResourceContents).Text)

	req.Params.URI = "nala://decks/unknown"
	_, err = s.readDeck(ctx, req)
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestServer_ModelResource(t *testing.T) {
	s := NewServer(newStubMachine(), "test")

	req := mcp.ReadResourceRequest{}
	req.Params.URI = ModelURI
	contents, err := s.readModel(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "application/json", text.MIMEType)

	var view ModelView
	require.NoError(t, json.Unmarshal([]byte(text.Text), &view))
	assert.Equal(t, "line", view.DefaultLayout)
	assert.Equal(t, []string{"S01", "S02"}, view.Layouts["line"])
	assert.Equal(t, []string{"Q1", "BPM1"}, view.Sections["S01"])
	assert.Len(t, view.Codes, 9)
}

func TestServer_ViewCodesFromMachine(t *testing.T) {
	machine := newStubMachine()
	machine.codes = []string{"gpt"}
	s := NewServer(machine, "test")

	view, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt"}, view.Codes)
}
