package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
)

// Engine integrates rigid molecules inside a cube centered on the origin.
type Engine struct {
	// HalfSize is half the edge length of the world cube, Å.
	HalfSize float64
}

// Step advances every molecule by dt seconds: position by velocity,
// orientation by spin, then reflection off the walls.
func (e Engine) Step(molecules []*chem.Molecule, dt float64) {
	for _, m := range molecules {
		m.Translate(m.Velocity.Mul(dt))
		if w := m.Spin.Len(); w > 1e-12 {
			m.Rotate(mgl64.QuatRotate(w*dt, m.Spin.Mul(1/w)))
		}
		e.reflect(m)
	}
}

// reflect bounces a molecule's bounding sphere off the cube walls.
func (e Engine) reflect(m *chem.Molecule) {
	if e.HalfSize <= 0 {
		return
	}
	p, r := m.Position(), m.Radius()
	limit := e.HalfSize - r
	if limit < 0 {
		limit = 0
	}
	moved := false
	for k := 0; k < 3; k++ {
		switch {
		case p[k] > limit:
			p[k] = limit
			if m.Velocity[k] > 0 {
				m.Velocity[k] = -m.Velocity[k]
			}
			moved = true
		case p[k] < -limit:
			p[k] = -limit
			if m.Velocity[k] < 0 {
				m.Velocity[k] = -m.Velocity[k]
			}
			moved = true
		}
	}
	if moved {
		m.SetPosition(p)
	}
}

// Approaching reports whether a and b are moving towards each other.
func Approaching(a, b *chem.Molecule) bool {
	n := b.Position().Sub(a.Position())
	return a.Velocity.Sub(b.Velocity).Dot(n) > 0
}

// Bounce applies an elastic collision along the line between the molecule
// origins, weighted by molecular mass. Pairs already separating are left
// alone; the return value reports whether velocities changed.
func (Engine) Bounce(a, b *chem.Molecule) bool {
	d := b.Position().Sub(a.Position())
	dist := d.Len()
	if dist < 1e-12 {
		return false
	}
	n := d.Mul(1 / dist)

	// Relative velocity along the collision normal
	dvn := a.Velocity.Sub(b.Velocity).Dot(n)
	if dvn <= 0 {
		return false
	}

	m1, m2 := a.Mass(), b.Mass()
	total := m1 + m2
	if total <= 0 {
		return false
	}
	impulse := 2 * dvn / total

	a.Velocity = a.Velocity.Sub(n.Mul(impulse * m2))
	b.Velocity = b.Velocity.Add(n.Mul(impulse * m1))
	return true
}

// KineticEnergy returns ½mv² summed over the molecules, amu·Å²/s².
func KineticEnergy(molecules []*chem.Molecule) float64 {
	e := 0.0
	for _, m := range molecules {
		e += 0.5 * m.Mass() * m.Velocity.Dot(m.Velocity)
	}
	return e
}

// Momentum returns Σmv, amu·Å/s.
func Momentum(molecules []*chem.Molecule) mgl64.Vec3 {
	var p mgl64.Vec3
	for _, m := range molecules {
		p = p.Add(m.Velocity.Mul(m.Mass()))
	}
	return p
}
