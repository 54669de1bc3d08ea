package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ModelURI is the resource holding the layout and section structure.
const ModelURI = "nala://model"

// ElementSummary is the list view of an element.
type ElementSummary struct {
	Name         string  `json:"name" jsonschema_description:"Element name"`
	HardwareType string  `json:"hardware_type" jsonschema_description:"Hardware type, e.g. Quadrupole"`
	MachineArea  string  `json:"machine_area" jsonschema_description:"Section the element belongs to"`
	Length       float64 `json:"length" jsonschema_description:"Physical length in metres"`
	Z            float64 `json:"z" jsonschema_description:"Longitudinal position of the element middle"`
}

// ElementsResponse lists elements matching a query.
type ElementsResponse struct {
	Elements []ElementSummary `json:"elements" jsonschema_description:"Matching elements in beam order"`
}

// BetweenResponse lists the names found between two elements.
type BetweenResponse struct {
	Names []string `json:"names" jsonschema_description:"Element names in beam order"`
}

// DeckResponse is an exported input deck.
type DeckResponse struct {
	ID      string   `json:"id" jsonschema_description:"Deck identifier, usable with the deck resource"`
	Code    string   `json:"code" jsonschema_description:"Simulation code the deck was written for"`
	Target  string   `json:"target" jsonschema_description:"Exported layout or section"`
	Content string   `json:"content" jsonschema_description:"Deck text"`
	Files   []string `json:"files,omitempty" jsonschema_description:"Field maps referenced by the deck"`
}

// ModelView is the content of the model resource.
type ModelView struct {
	DefaultLayout string              `json:"default_layout"`
	Layouts       map[string][]string `json:"layouts"`
	Sections      map[string][]string `json:"sections"`
	Codes         []string            `json:"codes"`
}

// FilterArgs are the shared element filters.
type FilterArgs struct {
	Type   string `json:"type,omitempty"`
	Class  string `json:"class,omitempty"`
	Model  string `json:"model,omitempty"`
	Layout string `json:"layout,omitempty"`
}

// BetweenArgs are the elements_between arguments.
type BetweenArgs struct {
	FilterArgs
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ExportArgs are the export_lattice arguments.
type ExportArgs struct {
	Code    string `json:"code"`
	Layout  string `json:"layout,omitempty"`
	Section string `json:"section,omitempty"`
}

// Server exposes a machine model as an MCP server.
type Server struct {
	machine   ports.Machine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(machine ports.Machine, version string) *Server {
	s := &Server{
		machine: machine,
		mcpServer: server.NewMCPServer("nala-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	filters := []mcp.ToolOption{
		mcp.WithString("type", mcp.Description("Comma separated hardware types, e.g. Quadrupole,BPM")),
		mcp.WithString("class", mcp.Description("Comma separated hardware classes, e.g. Magnet")),
		mcp.WithString("model", mcp.Description("Comma separated hardware models")),
		mcp.WithString("layout", mcp.Description("Beam path to search (default layout if omitted)")),
	}

	listTool := mcp.NewTool("list_elements", append([]mcp.ToolOption{
		mcp.WithDescription("List the elements of the machine, optionally filtered."),
		mcp.WithOutputSchema[ElementsResponse](),
	}, filters...)...)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListElements))

	s.mcpServer.AddTool(mcp.NewTool("get_element",
		mcp.WithDescription("Get the full definition of one element."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Element name")),
	), s.handleGetElement)

	betweenTool := mcp.NewTool("elements_between", append([]mcp.ToolOption{
		mcp.WithDescription("List the element names between two elements along a beam path, both included."),
		mcp.WithString("start", mcp.Description("First element (beginning of the path if omitted)")),
		mcp.WithString("end", mcp.Description("Last element (end of the path if omitted)")),
		mcp.WithOutputSchema[BetweenResponse](),
	}, filters...)...)
	s.mcpServer.AddTool(betweenTool, mcp.NewStructuredToolHandler(s.handleBetween))

	exportTool := mcp.NewTool("export_lattice",
		mcp.WithDescription("Export a layout or a section as the input deck of a simulation code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Simulation code"),
			mcp.Enum(s.machine.Codes()...)),
		mcp.WithString("layout", mcp.Description("Layout to export (default layout if omitted)")),
		mcp.WithString("section", mcp.Description("Single section to export; takes precedence over layout")),
		mcp.WithOutputSchema[DeckResponse](),
	)
	s.mcpServer.AddTool(exportTool, mcp.NewStructuredToolHandler(s.handleExport))
}

func (args FilterArgs) filter() lattice.Filter {
	return lattice.Filter{
		Types:   splitList(args.Type),
		Classes: splitList(args.Class),
		Models:  splitList(args.Model),
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func summarize(e *domain.Element) ElementSummary {
	return ElementSummary{
		Name:         e.Name,
		HardwareType: e.HardwareType,
		MachineArea:  e.MachineArea,
		Length:       e.Length(),
		Z:            e.Middle().Z,
	}
}

func (s *Server) handleListElements(ctx context.Context, request mcp.CallToolRequest, args FilterArgs) (ElementsResponse, error) {
	model := s.machine.Model()
	filter := args.filter()

	var elements []*domain.Element
	if args.Layout != "" {
		names, err := model.ElementsBetween(lattice.Span{Path: args.Layout}, filter)
		if err != nil {
			return ElementsResponse{}, err
		}
		if elements, err = model.Resolve(names); err != nil {
			return ElementsResponse{}, err
		}
	} else {
		for _, e := range model.Elements() {
			if filter.Match(e) {
				elements = append(elements, e)
			}
		}
	}

	out := ElementsResponse{Elements: make([]ElementSummary, len(elements))}
	for i, e := range elements {
		out.Elements[i] = summarize(e)
	}
	return out, nil
}

func (s *Server) handleGetElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.machine.Model().GetElement(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode element %s: %w", name, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleBetween(ctx context.Context, request mcp.CallToolRequest, args BetweenArgs) (BetweenResponse, error) {
	span := lattice.Span{Start: args.Start, End: args.End, Path: args.Layout}
	names, err := s.machine.Model().ElementsBetween(span, args.filter())
	if err != nil {
		return BetweenResponse{}, err
	}
	if names == nil {
		names = []string{}
	}
	return BetweenResponse{Names: names}, nil
}

func (s *Server) handleExport(ctx context.Context, request mcp.CallToolRequest, args ExportArgs) (DeckResponse, error) {
	if args.Code == "" {
		return DeckResponse{}, errors.New("code is required")
	}
	deck, err := s.machine.Export(ctx, args.Code, ports.Target{Layout: args.Layout, Section: args.Section})
	if err != nil {
		slog.Warn("MCP export failed", "code", args.Code, "err", err)
		return DeckResponse{}, fmt.Errorf("export failed: %w", err)
	}
	return DeckResponse{
		ID:      deck.ID,
		Code:    deck.Code,
		Target:  deck.Target,
		Content: deck.Content,
		Files:   deck.Files,
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ModelURI, "Machine layouts and sections",
		mcp.WithMIMEType("application/json"),
	), s.readModel)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("nala://decks/{id}", "Exported deck",
		mcp.WithTemplateMIMEType("text/plain"),
	), s.readDeck)
}

// View builds the model resource content.
func (s *Server) View() (ModelView, error) {
	model := s.machine.Model()
	view := ModelView{
		DefaultLayout: model.DefaultLayout(),
		Layouts:       make(map[string][]string),
		Sections:      make(map[string][]string),
		Codes:         s.machine.Codes(),
	}
	for _, name := range model.LayoutNames() {
		l, err := model.Layout(name)
		if err != nil {
			return ModelView{}, err
		}
		view.Layouts[name] = l.SectionNames()
		for _, sec := range l.Sections() {
			view.Sections[sec.Name] = sec.Names()
		}
	}
	return view, nil
}

func (s *Server) readModel(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := s.View()
	if err != nil {
		return nil, fmt.Errorf("failed to describe model: %w", err)
	}
	data, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ModelURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readDeck(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id := strings.TrimPrefix(uri, "nala://decks/")
	deck, err := s.machine.Deck(ctx, id)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     deck.Content,
		},
	}, nil
}
