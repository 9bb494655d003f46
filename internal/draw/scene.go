package draw

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/loop"
)

// atomScale shrinks van der Waals radii so bonds stay visible.
const atomScale = 0.3

// Label is a text overlay anchored at a 1-based canvas cell.
type Label struct {
	Col, Row int
	Text     string
	Product  bool
}

// Scene draws snapshots in 3D.
type Scene struct {
	Camera   Camera
	HalfSize float64 // world cube, drawn as a wireframe when positive
}

type projectedAtom struct {
	at    Point
	depth float64
	r     float64
	fill  bool
}

// Render draws the world box, bonds and atoms of snap onto c and returns
// one label per visible molecule. Atoms of molecules that just reacted are
// drawn filled.
func (s Scene) Render(c *Canvas, snap *loop.Snapshot) []Label {
	pr := s.Camera.Projector(c.LogicalWidth(), c.LogicalHeight())
	if s.HalfSize > 0 {
		s.box(c, pr)
	}

	var atoms []projectedAtom
	var labels []Label
	for _, m := range snap.Molecules {
		fill := m.Highlight > 0 || m.Product
		pts := make([]Point, len(m.Atoms))
		seen := make([]bool, len(m.Atoms))
		for i, a := range m.Atoms {
			p, depth, ok := pr.Project(a.Position)
			if !ok {
				continue
			}
			pts[i], seen[i] = p, true
			atoms = append(atoms, projectedAtom{at: p, depth: depth, r: pr.Size(a.Radius*atomScale, depth), fill: fill})
		}
		for _, b := range m.Bonds {
			if b.I < len(pts) && b.J < len(pts) && seen[b.I] && seen[b.J] {
				c.DrawLine(pts[b.I], pts[b.J])
			}
		}

		center, depth, ok := pr.Project(m.Position)
		if !ok {
			continue
		}
		top := Point{X: center.X, Y: center.Y - pr.Size(m.Radius*atomScale*2, depth) - 2}
		col, row := c.LogicalToTerminal(top)
		col -= len(m.Formula) / 2
		labels = append(labels, Label{Col: col, Row: row, Text: m.Formula, Product: m.Product})
	}

	// Far atoms first so near outlines end on top.
	sort.SliceStable(atoms, func(i, j int) bool { return atoms[i].depth > atoms[j].depth })
	for _, a := range atoms {
		c.DrawCircle(a.at, a.r, a.fill)
	}
	return labels
}

func (s Scene) box(c *Canvas, pr Projector) {
	h := s.HalfSize
	corner := func(i int) mgl64.Vec3 {
		v := mgl64.Vec3{-h, -h, -h}
		for k := 0; k < 3; k++ {
			if i&(1<<k) != 0 {
				v[k] = h
			}
		}
		return v
	}
	for i := 0; i < 8; i++ {
		for k := 0; k < 3; k++ {
			j := i | 1<<k
			if j == i {
				continue
			}
			a, _, okA := pr.Project(corner(i))
			b, _, okB := pr.Project(corner(j))
			if okA && okB {
				c.DrawLine(a, b)
			}
		}
	}
}
