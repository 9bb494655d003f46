package draw

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
)

// HUD formats the text overlays. Styles are bound to the client's output
// so colors follow that terminal's profile rather than the server's.
type HUD struct {
	title   lipgloss.Style
	text    lipgloss.Style
	dim     lipgloss.Style
	warn    lipgloss.Style
	product lipgloss.Style
}

func NewHUD(w io.Writer) HUD {
	r := lipgloss.NewRenderer(w)
	return HUD{
		title:   r.NewStyle().Bold(true),
		text:    r.NewStyle(),
		dim:     r.NewStyle().Faint(true),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		product: r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
	}
}

// Status is the top line: environment and simulation state.
func (h HUD) Status(s *loop.Snapshot) string {
	parts := []string{
		h.title.Render(fmt.Sprintf("%.0f K", s.Temperature)),
		h.text.Render(strings.ToUpper(s.Reaction)),
		h.dim.Render(fmt.Sprintf("tick %d", s.Tick)),
		h.text.Render(fmt.Sprintf("%d molecules", len(s.Molecules))),
	}
	if s.Paused {
		parts = append(parts, h.warn.Render("PAUSED"))
	}
	return strings.Join(parts, h.dim.Render(" │ "))
}

// Counters is the statistics line.
func (h HUD) Counters(st loop.Stats) string {
	return h.dim.Render(fmt.Sprintf(
		"collisions %d  reactions %d/%d  failed %d  cells %d (%.1f/cell)  hulls %d hit %d built",
		st.Collisions, st.ReactionsSucceeded, st.ReactionsAttempted, st.ReactionsFailed,
		st.GridCells, st.MeanOccupancy, st.HullHits, st.HullRebuilds))
}

// Events lists recent events, newest first, at most n.
func (h HUD) Events(s *loop.Snapshot, n int) []string {
	var out []string
	for i := len(s.Events) - 1; i >= 0 && len(out) < n; i-- {
		e := s.Events[i]
		line := event.Summary(e)
		switch e.Kind() {
		case event.KindReactionCompleted:
			line = h.product.Render(line)
		case event.KindErrorOccurred:
			line = h.warn.Render(line)
		default:
			line = h.dim.Render(line)
		}
		out = append(out, line)
	}
	return out
}

// Label styles a molecule label.
func (h HUD) Label(l Label) string {
	if l.Product {
		return h.product.Render(l.Text)
	}
	return h.dim.Render(l.Text)
}

func (h HUD) Title(s string) string { return h.title.Render(s) }

func (h HUD) Warn(s string) string { return h.warn.Render(s) }

func (h HUD) Dim(s string) string { return h.dim.Render(s) }

// Width is the printable width of a possibly styled string.
func Width(s string) int { return lipgloss.Width(s) }
