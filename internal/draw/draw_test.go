package draw

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
)

func TestCanvasLineAndRender(t *testing.T) {
	c := NewScaledCanvas(10, 5, 10, 10)
	c.DrawLine(Point{0, 0}, Point{9, 0})
	assert.Equal(t, 10, c.Count())
	assert.True(t, c.IsSet(Point{4, 0}))
	assert.False(t, c.IsSet(Point{4, 1}))

	var buf bytes.Buffer
	c.Render(&buf)
	assert.Equal(t, 10, strings.Count(buf.String(), string(BlockUpperHalf)))
	assert.Contains(t, buf.String(), "\033[1;1H")

	c.Clear()
	assert.Zero(t, c.Count())
}

func TestCanvasRenderMergesHalves(t *testing.T) {
	c := NewScaledCanvas(4, 2, 4, 4)
	c.Plot(Point{1, 0})
	c.Plot(Point{1, 1})
	c.Plot(Point{2, 3})
	c.SetOffset(2, 1)

	var buf bytes.Buffer
	c.Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "\033[2;4H"+string(BlockFull))
	assert.Contains(t, out, "\033[3;5H"+string(BlockLowerHalf))
}

func TestCanvasClipsAndScales(t *testing.T) {
	c := NewScaledCanvas(20, 10, 10, 10)
	c.Plot(Point{-5, -5})
	c.Plot(Point{50, 50})
	assert.Zero(t, c.Count())

	c.Plot(Point{5, 5})
	col, row := c.LogicalToTerminal(Point{5, 5})
	assert.Equal(t, 11, col)
	assert.Equal(t, 6, row)

	c.Resize(40, 20)
	assert.Zero(t, c.Count(), "resizing reallocates")
	assert.Equal(t, 40, c.TerminalWidth())
	assert.Equal(t, 10.0, c.LogicalWidth())
}

func TestCanvasCircles(t *testing.T) {
	c := NewScaledCanvas(40, 20, 40, 40)
	c.DrawCircle(Point{20, 20}, 8, false)
	outline := c.Count()
	assert.Greater(t, outline, 30)
	assert.False(t, c.IsSet(Point{20, 20}))

	c.Clear()
	c.DrawCircle(Point{20, 20}, 8, true)
	assert.True(t, c.IsSet(Point{20, 20}))
	assert.InDelta(t, math.Pi*64, float64(c.Count()), 60)

	c.Clear()
	c.DrawCircle(Point{3, 3}, 0.1, false)
	assert.Equal(t, 1, c.Count())
}

func TestRenderBorder(t *testing.T) {
	c := NewScaledCanvas(3, 2, 3, 4)
	var buf bytes.Buffer
	c.RenderBorder(&buf)
	assert.Empty(t, buf.String(), "no room for a border")

	c.SetOffset(1, 1)
	c.RenderBorder(&buf)
	out := buf.String()
	assert.Contains(t, out, "┌───┐")
	assert.Contains(t, out, "└───┘")
	assert.Equal(t, 4, strings.Count(out, "│"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestChunkWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChunkWriter(&buf, 2, 3)
	cw.WriteAt(1, 1, "hi")
	cw.WriteAt(-1, 2, "abc")
	cw.WriteAt(-5, 2, "abc")
	cw.WriteAt(1, 0, "hidden")
	assert.Equal(t, "\033[4;3Hhi\033[5;3Hc", cw.Pending())

	big := strings.Repeat("x", 3*maxChunkSize)
	cw.WriteString(big)
	require.NoError(t, cw.Flush())
	assert.True(t, strings.HasSuffix(buf.String(), big))
	assert.Empty(t, cw.Pending())

	bad := NewChunkWriter(failingWriter{}, 0, 0)
	bad.WriteString(strings.Repeat("y", 10000))
	assert.Error(t, bad.Flush())
}

func TestProjection(t *testing.T) {
	cam := Camera{Yaw: 0, Pitch: 0, Distance: 50, FOV: mgl64.DegToRad(60)}
	assert.InDelta(t, 50.0, cam.Eye().Z(), 1e-9)
	pr := cam.Projector(120, 80)

	center, depth, ok := pr.Project(mgl64.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, 60, center.X, 1e-6)
	assert.InDelta(t, 40, center.Y, 1e-6)
	assert.InDelta(t, 50, depth, 1e-9)

	right, _, ok := pr.Project(mgl64.Vec3{5, 0, 0})
	require.True(t, ok)
	assert.Greater(t, right.X, center.X)
	up, _, ok := pr.Project(mgl64.Vec3{0, 5, 0})
	require.True(t, ok)
	assert.Less(t, up.Y, center.Y, "screen y points down")

	near, _, _ := pr.Project(mgl64.Vec3{0, 5, 20})
	assert.Less(t, near.Y, up.Y, "perspective enlarges near offsets")

	_, _, ok = pr.Project(mgl64.Vec3{0, 0, 60})
	assert.False(t, ok, "behind the camera")

	// A length at depth d spans Size(length, d) units.
	top, _, _ := pr.Project(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, center.Y-top.Y, pr.Size(1, 50), 1e-6)
}

func TestCameraOrbit(t *testing.T) {
	cam := DefaultCamera(20).Orbit(0.1, 5)
	assert.Equal(t, maxPitch, cam.Pitch)
	assert.InDelta(t, 0.7, cam.Yaw, 1e-9)
	assert.InDelta(t, 72, cam.Eye().Len(), 1e-9)
}

func testSnapshot() *loop.Snapshot {
	atoms := []loop.AtomView{
		{Element: chem.Carbon, Position: mgl64.Vec3{0, 0, 0}, Radius: 1.7},
		{Element: chem.Chlorine, Position: mgl64.Vec3{1.78, 0, 0}, Radius: 1.75},
	}
	return &loop.Snapshot{
		Tick:        42,
		Temperature: 298,
		Reaction:    "sn2",
		Paused:      true,
		Molecules: []loop.MoleculeView{
			{Name: "a", Formula: "CH3Cl", Radius: 3.5, Atoms: atoms, Bonds: []chem.Bond{{I: 0, J: 1, Order: 1}}},
			{Name: "b", Formula: "CH4O", Position: mgl64.Vec3{0, 0, 200}, Radius: 2, Product: true},
		},
		Stats: loop.Stats{Collisions: 3, ReactionsAttempted: 5, ReactionsSucceeded: 2},
		Events: []event.Event{
			event.Collision{NameA: "a", NameB: "c", Energy: 12},
			event.ReactionCompleted{Reaction: "sn2", Formula: "CH4O"},
		},
	}
}

func TestSceneRender(t *testing.T) {
	c := NewScaledCanvas(120, 40, 120, 80)
	scene := Scene{Camera: DefaultCamera(20), HalfSize: 20}
	labels := scene.Render(c, testSnapshot())

	require.Len(t, labels, 1, "molecule behind the camera has no label")
	assert.Equal(t, "CH3Cl", labels[0].Text)
	assert.False(t, labels[0].Product)
	assert.Greater(t, c.Count(), 100)

	bare := NewScaledCanvas(120, 40, 120, 80)
	Scene{Camera: DefaultCamera(20)}.Render(bare, &loop.Snapshot{})
	assert.Zero(t, bare.Count())
}

func TestHUD(t *testing.T) {
	var out bytes.Buffer
	h := NewHUD(&out)
	s := testSnapshot()

	status := h.Status(s)
	assert.Contains(t, status, "298 K")
	assert.Contains(t, status, "SN2")
	assert.Contains(t, status, "tick 42")
	assert.Contains(t, status, "PAUSED")

	assert.Contains(t, h.Counters(s.Stats), "reactions 2/5")

	events := h.Events(s, 5)
	require.Len(t, events, 2)
	assert.Contains(t, events[0], "sn2 -> CH4O")
	assert.Contains(t, events[1], "collision a + c")
	assert.Len(t, h.Events(s, 1), 1)

	assert.Equal(t, 5, Width(h.Label(Label{Text: "CH3Cl", Product: true})))
}
