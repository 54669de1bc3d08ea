package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	nalahttp "github.com/aretw0/nala/pkg/adapters/http"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMachine exports straight through the translator registry.
type fakeMachine struct {
	model *lattice.Model
	decks map[string]*domain.Deck
	codes []string
}

func newFakeMachine() *fakeMachine {
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
	return &fakeMachine{model: model, decks: make(map[string]*domain.Deck)}
}

func (m *fakeMachine) Model() *lattice.Model { return m.model }

func (m *fakeMachine) Codes() []string {
	if m.codes != nil {
		return m.codes
	}
	var out []string
	for _, c := range translator.Default().Codes() {
		out = append(out, string(c))
	}
	return out
}

func (m *fakeMachine) Export(_ context.Context, name string, target ports.Target) (*domain.Deck, error) {
	code, err := translator.ParseCode(name)
	if err != nil {
		return nil, err
	}
	env := translator.NewEnv()
	var content string
	switch {
	case target.Section != "":
		s, err := m.model.Section(target.Section)
		if err != nil {
			return nil, err
		}
		content, err = translator.ExportSection(code, s, env)
		if err != nil {
			return nil, err
		}
	default:
		l, err := m.model.Layout(target.Layout)
		if err != nil {
			return nil, err
		}
		content, err = translator.ExportLayout(code, l, env)
		if err != nil {
			return nil, err
		}
	}
	deck := &domain.Deck{
		ID:      domain.DeckID(string(code), target.Key(), 1),
		Code:    string(code),
		Target:  target.String(),
		Content: content,
	}
	m.decks[deck.ID] = deck
	return deck, nil
}

func (m *fakeMachine) Deck(_ context.Context, id string) (*domain.Deck, error) {
	d, ok := m.decks[id]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}
	return d, nil
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", url, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine(), nalahttp.WithVersion("1.2.3\n"))

	w := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	info := decode[map[string]any](t, get(t, h, "/info"))
	assert.Equal(t, "1.2.3", info["version"])
	assert.EqualValues(t, 3, info["elements"])
}

func TestServer_Elements(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine())

	all := decode[[]nalahttp.ElementSummary](t, get(t, h, "/elements"))
	assert.Len(t, all, 3)

	bpms := decode[[]nalahttp.ElementSummary](t, get(t, h, "/elements?type=BPM"))
	require.Len(t, bpms, 1)
	assert.Equal(t, "BPM1", bpms[0].Name)
	assert.Equal(t, "Beam_Position_Monitor", bpms[0].HardwareType)

	magnets := decode[[]nalahttp.ElementSummary](t, get(t, h, "/elements?class=Magnet&layout=line"))
	require.Len(t, magnets, 1)
	assert.Equal(t, "Q1", magnets[0].Name)

	w := get(t, h, "/elements/Q1")
	require.Equal(t, http.StatusOK, w.Code)
	q := decode[map[string]any](t, w)
	assert.Equal(t, "Quadrupole", q["hardware_type"])

	w = get(t, h, "/elements/NOPE")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOPE")

	w = get(t, h, "/elements?layout=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Layouts(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine())

	layouts := decode[[]nalahttp.LayoutView](t, get(t, h, "/layouts"))
	require.Len(t, layouts, 1)
	assert.Equal(t, "line", layouts[0].Name)
	assert.True(t, layouts[0].Default)

	layout := decode[nalahttp.LayoutView](t, get(t, h, "/layouts/line"))
	require.Len(t, layout.Sections, 2)
	assert.Equal(t, []string{"Q1", "BPM1"}, layout.Sections[0].Elements)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/layouts/ring").Code)

	section := decode[nalahttp.SectionView](t, get(t, h, "/sections/S01"))
	assert.Equal(t, []string{"Q1", "BPM1"}, section.Elements)
	assert.Contains(t, section.S, "Q1")
	assert.Equal(t, http.StatusNotFound, get(t, h, "/sections/S99").Code)
}

func TestServer_Between(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine())

	names := decode[[]string](t, get(t, h, "/between?start=BPM1&end=SCR1"))
	assert.Equal(t, []string{"BPM1", "SCR1"}, names)

	names = decode[[]string](t, get(t, h, "/between?type=Screen"))
	assert.Equal(t, []string{"SCR1"}, names)
}

func TestServer_Export(t *testing.T) {
	machine := newFakeMachine()
	h := nalahttp.NewHandler(machine)

	w := get(t, h, "/export/elegant?section=S01")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	deck := decode[domain.Deck](t, w)
	assert.Equal(t, "elegant", deck.Code)
	assert.Contains(t, deck.Content, "Q1: KQUAD")

	w = get(t, h, "/decks/"+deck.ID+"?format=raw")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, deck.ID, w.Header().Get("X-Deck-Id"))
	assert.Equal(t, deck.Content, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/export/madx").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/export/elegant?section=S99").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/decks/missing").Code)

	codes := decode[[]string](t, get(t, h, "/codes"))
	assert.Contains(t, codes, "wake_t")
}

func TestServer_ListCodesFromMachine(t *testing.T) {
	m := newFakeMachine()
	m.codes = []string{"astra", "elegant"}
	h := nalahttp.NewHandler(m)

	codes := decode[[]string](t, get(t, h, "/codes"))
	assert.Equal(t, []string{"astra", "elegant"}, codes)
}

func TestServer_Metrics(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine())
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nala_exports_total 0\n"))
	})
	h = nalahttp.NewHandler(newFakeMachine(), nalahttp.WithMetrics(metrics))
	w := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nala_exports_total")
}

func TestServer_CORS(t *testing.T) {
	h := nalahttp.NewHandler(newFakeMachine())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/elements", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_Reload(t *testing.T) {
	srv := nalahttp.NewServer(newFakeMachine())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SSE line")
			return ""
		}
	}
	assert.Equal(t, "event: ping", next())
	assert.Equal(t, "data: connected", next())
	next()

	require.Eventually(t, func() bool { return srv.Streams.Len() == 1 }, time.Second, 10*time.Millisecond)
	srv.NotifyReload(7)

	assert.Equal(t, "event: reload", next())
	assert.True(t, strings.HasPrefix(next(), `data: {"revision":7}`))
}
