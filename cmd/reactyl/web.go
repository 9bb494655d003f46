package main

import (
	_ "embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tomz197/reactyl/internal/config"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/metrics"
)

//go:embed landing.html
var landingPage string

var landingTemplate = template.Must(template.New("landing").Parse(landingPage))

type landingData struct {
	SSHHost     string
	SSHPort     string
	Temperature float64
	Reaction    string
	Molecules   int
	Tick        uint64
	Paused      bool
	Events      []string
}

// newWebHandler serves the landing page and the metrics endpoint.
func newWebHandler(src metrics.Source, m *metrics.Metrics, httpCfg config.HTTP, sshCfg config.SSH, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data := landingData{SSHHost: httpCfg.DisplayHost, SSHPort: sshCfg.Port}
		if snap := src.Snapshot(); snap != nil {
			fill(&data, snap)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := landingTemplate.Execute(w, data); err != nil {
			logger.Error("landing page", "err", err)
		}
	})
	return mux
}

func fill(d *landingData, s *loop.Snapshot) {
	d.Temperature = s.Temperature
	d.Reaction = strings.ToUpper(s.Reaction)
	d.Molecules = len(s.Molecules)
	d.Tick = s.Tick
	d.Paused = s.Paused
	for i := len(s.Events) - 1; i >= 0; i-- {
		d.Events = append(d.Events, event.Summary(s.Events[i]))
	}
}
