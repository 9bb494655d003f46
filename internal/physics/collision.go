package physics

import (
	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
)

// DefaultHullSanityFactor bounds hull extent relative to the atomic extent.
// A hull's points never leave the molecule's padded local box, so its world
// box diagonal is at most sqrt(3) times the local one.
const DefaultHullSanityFactor = 2.0

// Detector runs the staged collision test: bounding spheres and world boxes
// first, then SAT on cached hulls.
type Detector struct {
	hulls  *HullCache
	kin    Kinematics
	bus    *event.Bus
	logger *log.Logger

	sanityFactor float64
	tick         uint64

	stats DetectorStats
}

// DetectorStats are cumulative detector counters.
type DetectorStats struct {
	BroadTests  int // pairs reaching the broad phase
	NarrowTests int // pairs reaching SAT
	Fallbacks   int // pairs without hulls, decided on atom spheres
	NarrowSkips int // pairs dropped because a hull failed the sanity check
}

// NewDetector creates a detector publishing collisions to bus. A nil bus
// disables publication; a non-positive sanity factor uses the default.
func NewDetector(hulls *HullCache, kin Kinematics, bus *event.Bus, logger *log.Logger, sanityFactor float64) *Detector {
	if sanityFactor <= 0 {
		sanityFactor = DefaultHullSanityFactor
	}
	return &Detector{
		hulls:        hulls,
		kin:          kin,
		bus:          bus,
		logger:       logger,
		sanityFactor: sanityFactor,
	}
}

// SetTick sets the tick number stamped on published collisions.
func (d *Detector) SetTick(tick uint64) { d.tick = tick }

func (d *Detector) Stats() DetectorStats { return d.stats }

// Collides reports whether a and b touch, publishing a collision event when
// they do. The answer does not depend on argument order.
func (d *Detector) Collides(a, b *chem.Molecule) bool {
	_, ok := d.Check(a, b)
	return ok
}

// Check is Collides returning the collision event, with A being a.
func (d *Detector) Check(a, b *chem.Molecule) (event.Collision, bool) {
	swapped := false
	if Less(b, a) {
		a, b = b, a
		swapped = true
	}
	if !d.test(a, b) {
		return event.Collision{}, false
	}

	ap := d.kin.Approach(a, b)
	ev := event.Collision{
		Tick:             d.tick,
		A:                a.ID,
		B:                b.ID,
		NameA:            a.Name,
		NameB:            b.Name,
		RelativeVelocity: ap.RelativeVelocity,
		Energy:           ap.Energy,
		AngleA:           ap.AngleA,
		AngleB:           ap.AngleB,
		Impact:           ap.Impact,
		OrientationA:     a.Orientation(),
		OrientationB:     b.Orientation(),
	}
	if swapped {
		ev = ev.Swap()
	}
	if d.bus != nil {
		d.bus.Publish(ev)
	}
	return ev, true
}

func (d *Detector) test(a, b *chem.Molecule) bool {
	d.stats.BroadTests++
	if !Broad(a, b) {
		return false
	}

	ha, okA := d.hulls.Get(a)
	hb, okB := d.hulls.Get(b)
	if !okA || !okB {
		d.stats.Fallbacks++
		return AtomSpheresOverlap(a, b)
	}
	for _, p := range []struct {
		h *Hull
		m *chem.Molecule
	}{{ha, a}, {hb, b}} {
		if !Sane(p.h, p.m, d.sanityFactor) {
			d.stats.NarrowSkips++
			d.logger.Warn("hull out of proportion, skipping narrow phase",
				"molecule", p.m.Name, "hull_extent", p.h.Extent(), "atomic_extent", p.m.Extent())
			return false
		}
	}

	d.stats.NarrowTests++
	return SAT(ha, hb)
}

// Broad is the cheap test: bounding spheres, then world boxes with radii.
func Broad(a, b *chem.Molecule) bool {
	if !SpheresOverlap(a.Position(), a.Radius(), b.Position(), b.Radius()) {
		return false
	}
	ba, okA := WorldBounds(a)
	bb, okB := WorldBounds(b)
	return okA && okB && ba.Overlaps(bb)
}

// AtomSpheresOverlap reports whether any atom sphere of a overlaps any atom
// sphere of b. It decides pairs without hulls.
func AtomSpheresOverlap(a, b *chem.Molecule) bool {
	for i, x := range a.Atoms() {
		pa, _ := a.WorldAtom(i)
		for j, y := range b.Atoms() {
			pb, _ := b.WorldAtom(j)
			if SpheresOverlap(pa, x.Radius(), pb, y.Radius()) {
				return true
			}
		}
	}
	return false
}

// SAT reports whether two hulls intersect. Candidate axes are the face
// normals of both hulls, the normalized cross products of every edge pair
// and the axis between the hull centers. Hulls with fewer than
// MinHullAtoms points never intersect.
func SAT(a, b *Hull) bool {
	if a == nil || b == nil || len(a.Points) < MinHullAtoms || len(b.Points) < MinHullAtoms {
		return false
	}
	for _, axis := range candidateAxes(a, b) {
		loA, hiA := a.Project(axis)
		loB, hiB := b.Project(axis)
		if hiA < loB || hiB < loA {
			return false
		}
	}
	return true
}

func candidateAxes(a, b *Hull) []mgl64.Vec3 {
	axes := make([]mgl64.Vec3, 0, len(a.Normals)+len(b.Normals)+len(a.Edges)*len(b.Edges)+1)
	axes = append(axes, a.Normals...)
	axes = append(axes, b.Normals...)
	for _, ea := range a.Edges {
		for _, eb := range b.Edges {
			// Parallel edges give no axis.
			if c := ea.Cross(eb); c.Len() > 1e-9 {
				axes = append(axes, c.Normalize())
			}
		}
	}
	if c := b.Center.Sub(a.Center); c.Len() > 1e-9 {
		axes = append(axes, c.Normalize())
	}
	return axes
}
