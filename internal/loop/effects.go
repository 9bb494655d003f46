package loop

import (
	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type highlight struct {
	tween *gween.Tween
	value float64
}

// Effects tracks per-molecule highlight intensity, fading from 1 to 0.
// There is no global animation manager; the orchestrator calls Update once
// per tick.
type Effects struct {
	duration float32
	active   map[uuid.UUID]*highlight
}

// NewEffects creates highlights lasting the given number of seconds.
func NewEffects(seconds float64) *Effects {
	if seconds <= 0 {
		seconds = 1
	}
	return &Effects{duration: float32(seconds), active: make(map[uuid.UUID]*highlight)}
}

// Highlight starts, or restarts, the fade for a molecule at full intensity.
func (e *Effects) Highlight(id uuid.UUID) {
	e.active[id] = &highlight{tween: gween.New(1, 0, e.duration, ease.OutQuad), value: 1}
}

// Update advances every fade by dt seconds and drops finished ones.
func (e *Effects) Update(dt float64) {
	for id, h := range e.active {
		v, done := h.tween.Update(float32(dt))
		h.value = float64(v)
		if done {
			delete(e.active, id)
		}
	}
}

// Intensity returns the current highlight of a molecule in [0,1].
func (e *Effects) Intensity(id uuid.UUID) float64 {
	if h, ok := e.active[id]; ok {
		return h.value
	}
	return 0
}

// Drop removes a molecule's highlight.
func (e *Effects) Drop(id uuid.UUID) { delete(e.active, id) }

func (e *Effects) Clear() { clear(e.active) }

func (e *Effects) Active() int { return len(e.active) }
