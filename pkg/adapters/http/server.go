package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a machine model over a read-only REST API.
type Server struct {
	Machine ports.Machine
	Streams *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server for the machine.
func NewServer(machine ports.Machine, opts ...Option) *Server {
	s := &Server{
		Machine: machine,
		version: "dev",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the machine.
func NewHandler(machine ports.Machine, opts ...Option) http.Handler {
	return NewServer(machine, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/codes", s.ListCodes)
	r.Get("/elements", s.ListElements)
	r.Get("/elements/{name}", s.GetElement)
	r.Get("/layouts", s.ListLayouts)
	r.Get("/layouts/{name}", s.GetLayout)
	r.Get("/sections/{name}", s.GetSection)
	r.Get("/between", s.Between)
	r.Get("/export/{code}", s.Export)
	r.Get("/decks/{id}", s.GetDeck)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ElementSummary is the list view of an element.
type ElementSummary struct {
	Name          string  `json:"name"`
	HardwareType  string  `json:"hardware_type"`
	HardwareClass string  `json:"hardware_class"`
	MachineArea   string  `json:"machine_area"`
	Length        float64 `json:"length"`
	Z             float64 `json:"z"`
}

func summarize(e *domain.Element) ElementSummary {
	return ElementSummary{
		Name:          e.Name,
		HardwareType:  e.HardwareType,
		HardwareClass: e.HardwareClass,
		MachineArea:   e.MachineArea,
		Length:        e.Length(),
		Z:             e.Middle().Z,
	}
}

// LayoutView describes a beam path.
type LayoutView struct {
	Name     string        `json:"name"`
	Default  bool          `json:"default,omitempty"`
	Sections []SectionView `json:"sections,omitempty"`
}

// SectionView describes a section.
type SectionView struct {
	Name     string             `json:"name"`
	Elements []string           `json:"elements"`
	S        map[string]float64 `json:"s,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	model := s.Machine.Model()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "nala-http",
		"version":  strings.TrimSpace(s.version),
		"elements": model.Len(),
		"layouts":  len(model.LayoutNames()),
	})
}

// ListCodes handles the GET /codes request.
func (s *Server) ListCodes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Machine.Codes())
}

// ListElements handles the GET /elements request. The type, class and model
// query parameters filter the result; layout restricts it to one beam path.
func (s *Server) ListElements(w http.ResponseWriter, r *http.Request) {
	model := s.Machine.Model()
	filter := filterFromQuery(r)

	var elements []*domain.Element
	if path := r.URL.Query().Get("layout"); path != "" {
		names, err := model.ElementsBetween(lattice.Span{Path: path}, filter)
		if err != nil {
			s.writeError(w, err)
			return
		}
		elements, err = model.Resolve(names)
		if err != nil {
			s.writeError(w, err)
			return
		}
	} else {
		for _, e := range model.Elements() {
			if filter.Match(e) {
				elements = append(elements, e)
			}
		}
	}

	out := make([]ElementSummary, len(elements))
	for i, e := range elements {
		out[i] = summarize(e)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetElement handles the GET /elements/{name} request.
func (s *Server) GetElement(w http.ResponseWriter, r *http.Request) {
	e, err := s.Machine.Model().GetElement(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// ListLayouts handles the GET /layouts request.
func (s *Server) ListLayouts(w http.ResponseWriter, r *http.Request) {
	model := s.Machine.Model()
	out := make([]LayoutView, 0, len(model.LayoutNames()))
	for _, name := range model.LayoutNames() {
		l, err := model.Layout(name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		view := LayoutView{Name: name, Default: name == model.DefaultLayout()}
		for _, sec := range l.SectionNames() {
			view.Sections = append(view.Sections, SectionView{Name: sec})
		}
		out = append(out, view)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetLayout handles the GET /layouts/{name} request.
func (s *Server) GetLayout(w http.ResponseWriter, r *http.Request) {
	model := s.Machine.Model()
	name := chi.URLParam(r, "name")
	l, err := model.Layout(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view := LayoutView{Name: name, Default: name == model.DefaultLayout()}
	for _, sec := range l.Sections() {
		view.Sections = append(view.Sections, SectionView{Name: sec.Name, Elements: sec.Names()})
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetSection handles the GET /sections/{name} request.
func (s *Server) GetSection(w http.ResponseWriter, r *http.Request) {
	sec, err := s.Machine.Model().Section(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SectionView{Name: sec.Name, Elements: sec.Names(), S: sec.SPositions()})
}

// Between handles the GET /between?start=&end=&layout= request.
func (s *Server) Between(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	span := lattice.Span{Start: q.Get("start"), End: q.Get("end"), Path: q.Get("layout")}
	names, err := s.Machine.Model().ElementsBetween(span, filterFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// Export handles the GET /export/{code}?layout=&section= request. With
// format=raw the deck content is returned as plain text.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := ports.Target{Layout: q.Get("layout"), Section: q.Get("section")}
	deck, err := s.Machine.Export(r.Context(), chi.URLParam(r, "code"), target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeDeck(w, r, deck)
}

// GetDeck handles the GET /decks/{id} request.
func (s *Server) GetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.Machine.Deck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeDeck(w, r, deck)
}

// SubscribeEvents handles the GET /events request (SSE). Every model reload
// is sent as an event carrying the new revision.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// NotifyReload broadcasts a reload event to the SSE clients.
func (s *Server) NotifyReload(revision uint64) {
	s.Streams.Broadcast(fmt.Sprintf(`{"revision":%d}`, revision))
}

func filterFromQuery(r *http.Request) lattice.Filter {
	q := r.URL.Query()
	return lattice.Filter{
		Types:   splitList(q["type"]),
		Classes: splitList(q["class"]),
		Models:  splitList(q["model"]),
	}
}

// splitList accepts both repeated and comma separated parameters.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) writeDeck(w http.ResponseWriter, r *http.Request, deck *domain.Deck) {
	if r.URL.Query().Get("format") == "raw" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Deck-Id", deck.ID)
		if _, err := w.Write([]byte(deck.Content)); err != nil {
			s.logger.Error("deck write failed", "err", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, deck)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var unsupported *translator.UnsupportedError
	switch {
	case errors.Is(err, domain.ErrElementNotFound),
		errors.Is(err, domain.ErrSectionNotFound),
		errors.Is(err, domain.ErrLayoutNotFound),
		errors.Is(err, domain.ErrDeckNotFound):
		return http.StatusNotFound
	case errors.Is(err, translator.ErrUnknownCode):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
