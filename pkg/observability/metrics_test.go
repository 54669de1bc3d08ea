package observability_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/nala/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Export(t *testing.T) {
	m := observability.NewMetrics()

	m.ObserveExport("elegant", time.Now(), nil)
	m.ObserveExport("elegant", time.Now(), nil)
	m.ObserveExport("astra", time.Now(), errors.New("boom"))
	m.CacheHit("elegant")

	expected := `
# HELP nala_exports_total Decks exported, by simulation code and result.
# TYPE nala_exports_total counter
nala_exports_total{code="astra",result="error"} 1
nala_exports_total{code="elegant",result="ok"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "nala_exports_total"))

	count, err := testutil.GatherAndCount(m.Registry, "nala_export_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only successful exports are timed")

	expected = `
# HELP nala_deck_cache_hits_total Exports served from the deck store.
# TYPE nala_deck_cache_hits_total counter
nala_deck_cache_hits_total{code="elegant"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "nala_deck_cache_hits_total"))
}

func TestMetrics_Reload(t *testing.T) {
	m := observability.NewMetrics()

	m.ObserveReload(3, 42, nil)
	m.ObserveReload(4, 0, errors.New("bad document"))

	expected := `
# HELP nala_model_elements Elements in the loaded machine model.
# TYPE nala_model_elements gauge
nala_model_elements 42
# HELP nala_model_revision Revision of the loaded machine model.
# TYPE nala_model_revision gauge
nala_model_revision 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "nala_model_elements", "nala_model_revision"))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.ObserveExport("elegant", time.Now(), nil)
		m.CacheHit("elegant")
		m.ObserveReload(1, 1, nil)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveExport("opal", time.Now(), nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `nala_exports_total{code="opal",result="ok"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
