package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/config"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/logging"
	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/metrics"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBench(t *testing.T) {
	out, err := execute(t, "bench", "--ticks", "5", "--molecules", "3", "--seed", "2", "--temperature", "400")
	require.NoError(t, err)

	var report benchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, uint64(5), report.Ticks)
	assert.Equal(t, uint64(5), report.Stats.Tick)
	assert.Equal(t, 400.0, report.Temperature)
	assert.Equal(t, "sn2", report.Reaction)
	assert.NotEmpty(t, report.Molecules)
}

func TestBenchRejectsBadConfig(t *testing.T) {
	_, err := execute(t, "bench", "--ticks", "1", "--reaction", "sn3")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSizeTracker(t *testing.T) {
	s := newSizeTracker(80, 24)
	w, h, err := s.getSize()
	require.NoError(t, err)
	assert.Equal(t, []int{80, 24}, []int{w, h})

	s.update(120, 40)
	w, h, _ = s.getSize()
	assert.Equal(t, []int{120, 40}, []int{w, h})
}

type fixed struct{ snap *loop.Snapshot }

func (f fixed) Snapshot() *loop.Snapshot { return f.snap }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestWebHandler(t *testing.T) {
	src := fixed{&loop.Snapshot{
		Tick:        3,
		Temperature: 298,
		Reaction:    "sn2",
		Molecules:   []loop.MoleculeView{{Name: "water"}},
		Events:      []event.Event{event.ReactionCompleted{Reaction: "sn2", Formula: "CH4O"}},
		Stats:       loop.Stats{Molecules: 1},
	}}
	h := newWebHandler(src, metrics.New(src),
		config.HTTP{DisplayHost: "example.org"}, config.SSH{Port: "2222"}, logging.Discard())

	page := get(t, h, "/")
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "ssh -t -p 2222 example.org")
	assert.Contains(t, body, "298 K")
	assert.Contains(t, body, "SN2")
	assert.Contains(t, body, "1 molecules")
	assert.Contains(t, body, "CH4O")
	assert.NotContains(t, body, "Nothing has happened yet")

	scrape := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "reactyl_molecules 1")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
}

func TestWebHandlerWithoutSnapshot(t *testing.T) {
	src := fixed{}
	h := newWebHandler(src, metrics.New(src), config.HTTP{}, config.SSH{}, logging.Discard())
	page := get(t, h, "/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Nothing has happened yet")
}
