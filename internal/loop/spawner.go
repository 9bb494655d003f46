package loop

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/physics"
	"github.com/tomz197/reactyl/internal/structure"
)

var ErrNoRoom = errors.New("no free space for molecule")

// placementAttempts bounds the search for a free spot.
const placementAttempts = 64

// Spawner places new molecules at random free positions inside the world
// cube with Maxwell–Boltzmann velocities for the current temperature.
type Spawner struct {
	HalfSize       float64
	ReferenceSpeed float64 // Å/s at room temperature for ReferenceMass
	ReferenceMass  float64
	MaxSpin        float64 // rad/s per axis

	rng *rand.Rand
}

func NewSpawner(rng *rand.Rand, halfSize, refSpeed, refMass, maxSpin float64) *Spawner {
	return &Spawner{HalfSize: halfSize, ReferenceSpeed: refSpeed, ReferenceMass: refMass, MaxSpin: maxSpin, rng: rng}
}

// Spawn builds a molecule from s under a unique name derived from s.Name,
// places it where its bounding sphere touches no other molecule, and
// registers it.
func (sp *Spawner) Spawn(reg *chem.Registry, s structure.Structure, temperature float64) (*chem.Molecule, error) {
	m, err := s.Molecule(reg.UniqueName(s.Name))
	if err != nil {
		return nil, err
	}
	m.Recenter()
	pos, ok := sp.place(reg, m.Radius())
	if !ok {
		return nil, fmt.Errorf("spawn %s: %w", m.Name, ErrNoRoom)
	}
	m.SetPosition(pos)
	m.SetOrientation(sp.orientation())
	m.Velocity = sp.Velocity(temperature, m.Mass())
	m.Spin = mgl64.Vec3{sp.spin(), sp.spin(), sp.spin()}
	if err := reg.Add(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Velocity draws a thermal velocity. Heavier molecules are slower: the
// reference speed applies to ReferenceMass and scales with 1/sqrt(mass).
func (sp *Spawner) Velocity(temperature, mass float64) mgl64.Vec3 {
	ref := sp.ReferenceSpeed
	if mass > 0 && sp.ReferenceMass > 0 {
		ref *= physics.RMSSpeed(physics.RoomTemperature, mass) / physics.RMSSpeed(physics.RoomTemperature, sp.ReferenceMass)
	}
	return physics.SampleVelocity(sp.rng, temperature, mass, ref)
}

// Rethermalize rescales every molecule's speed to the new temperature,
// keeping directions.
func Rethermalize(reg *chem.Registry, from, to float64) {
	if from <= 0 || to <= 0 {
		return
	}
	scale := physics.VisualSpeed(to, 1, 1) / physics.VisualSpeed(from, 1, 1)
	reg.Each(func(m *chem.Molecule) bool {
		m.Velocity = m.Velocity.Mul(scale)
		return true
	})
}

func (sp *Spawner) place(reg *chem.Registry, radius float64) (mgl64.Vec3, bool) {
	limit := sp.HalfSize - radius
	if limit < 0 {
		return mgl64.Vec3{}, false
	}
	for range placementAttempts {
		p := mgl64.Vec3{sp.coord(limit), sp.coord(limit), sp.coord(limit)}
		free := true
		reg.Each(func(o *chem.Molecule) bool {
			if physics.SpheresOverlap(p, radius, o.Position(), o.Radius()) {
				free = false
			}
			return free
		})
		if free {
			return p, true
		}
	}
	return mgl64.Vec3{}, false
}

func (sp *Spawner) coord(limit float64) float64 {
	return (sp.rng.Float64()*2 - 1) * limit
}

func (sp *Spawner) spin() float64 {
	return (sp.rng.Float64()*2 - 1) * sp.MaxSpin
}

func (sp *Spawner) orientation() mgl64.Quat {
	axis := mgl64.Vec3{sp.rng.NormFloat64(), sp.rng.NormFloat64(), sp.rng.NormFloat64()}
	if axis.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(sp.rng.Float64()*2*math.Pi, axis.Normalize())
}
