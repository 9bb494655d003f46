package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/reactyl/internal/chem"
)

// MinHullAtoms is the smallest atom count that yields a 3D hull.
const MinHullAtoms = 4

var invSqrt3 = 1 / math.Sqrt(3)

// dopAxes are the seven slab axes of a 14-DOP in the molecule frame: the
// three frame axes and the four body diagonals. Each atom contributes one
// point per axis and sign.
var dopAxes = [7]mgl64.Vec3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{invSqrt3, invSqrt3, invSqrt3},
	{invSqrt3, invSqrt3, -invSqrt3},
	{invSqrt3, -invSqrt3, invSqrt3},
	{-invSqrt3, invSqrt3, invSqrt3},
}

// Hull is a world-space point set approximating a molecule's convex hull.
type Hull struct {
	Points  []mgl64.Vec3
	Normals []mgl64.Vec3 // face normals, world space
	Edges   []mgl64.Vec3 // edge directions, world space
	Center  mgl64.Vec3   // centroid of Points
	Bounds  AABB
}

// LocalBounds returns the local-space box around the atoms, including their
// radii when withRadii is set. An empty atom list has no bounds.
func LocalBounds(atoms []chem.Atom, withRadii bool) (AABB, bool) {
	if len(atoms) == 0 {
		return AABB{}, false
	}
	b := emptyAABB()
	for _, a := range atoms {
		r := 0.0
		if withRadii {
			r = a.Radius()
		}
		b = b.Extend(a.Position, r)
	}
	return b, true
}

// WorldBounds returns the world-space box around every atom sphere of m.
func WorldBounds(m *chem.Molecule) (AABB, bool) {
	atoms := m.Atoms()
	if len(atoms) == 0 {
		return AABB{}, false
	}
	w := m.WorldMatrix()
	b := emptyAABB()
	for _, a := range atoms {
		b = b.Extend(w.Mul4x1(a.Position.Vec4(1)).Vec3(), a.Radius())
	}
	return b, true
}

// BuildHull places, for every atom, points at the atom radius along each DOP
// axis in both directions and collects them in world space. Molecules with
// fewer than MinHullAtoms atoms have no hull.
func BuildHull(m *chem.Molecule) (*Hull, bool) {
	atoms := m.Atoms()
	if len(atoms) < MinHullAtoms {
		return nil, false
	}
	w := m.WorldMatrix()
	q := m.Orientation()

	var axes [7]mgl64.Vec3
	for i, a := range dopAxes {
		axes[i] = q.Rotate(a)
	}

	h := &Hull{
		Points:  make([]mgl64.Vec3, 0, len(atoms)*2*len(axes)),
		Normals: axes[:],
		Edges:   []mgl64.Vec3{axes[0], axes[1], axes[2]},
		Bounds:  emptyAABB(),
	}
	for _, a := range atoms {
		c := w.Mul4x1(a.Position.Vec4(1)).Vec3()
		r := a.Radius()
		for _, ax := range axes {
			for _, p := range [2]mgl64.Vec3{c.Add(ax.Mul(r)), c.Sub(ax.Mul(r))} {
				h.Points = append(h.Points, p)
				h.Center = h.Center.Add(p)
				h.Bounds = h.Bounds.Extend(p, 0)
			}
		}
	}
	h.Center = h.Center.Mul(1 / float64(len(h.Points)))
	return h, true
}

// Project returns the interval of the hull's points on axis.
func (h *Hull) Project(axis mgl64.Vec3) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range h.Points {
		d := p.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// Extent is the diagonal of the hull's world bounds.
func (h *Hull) Extent() float64 { return h.Bounds.Diagonal() }

// Sane reports whether h is plausibly built from m's current atoms: its
// extent must stay within factor times the molecule's atomic extent and its
// center inside the molecule's bounding sphere. A hull failing this came from
// a stale or corrupt cache.
func Sane(h *Hull, m *chem.Molecule, factor float64) bool {
	ext := m.Extent()
	if ext <= 0 || h.Extent() > factor*ext {
		return false
	}
	r := m.Radius()
	return DistanceSquared(h.Center, m.Position()) <= r*r
}

type hullEntry struct {
	geometry  uint64
	transform uint64
	hull      *Hull
	ok        bool
}

// HullCache keeps one hull per molecule, rebuilt when the molecule's
// geometry or transform version moves.
type HullCache struct {
	entries  map[uuid.UUID]hullEntry
	hits     int
	rebuilds int
}

// HullCacheStats are the cumulative cache counters.
type HullCacheStats struct {
	Entries  int
	Hits     int
	Rebuilds int
}

func NewHullCache() *HullCache {
	return &HullCache{entries: make(map[uuid.UUID]hullEntry)}
}

// Get returns m's hull, rebuilding it only when m changed since it was built.
func (c *HullCache) Get(m *chem.Molecule) (*Hull, bool) {
	e, ok := c.entries[m.ID]
	if ok && e.geometry == m.GeometryVersion() && e.transform == m.TransformVersion() {
		c.hits++
		return e.hull, e.ok
	}
	h, built := BuildHull(m)
	c.entries[m.ID] = hullEntry{
		geometry:  m.GeometryVersion(),
		transform: m.TransformVersion(),
		hull:      h,
		ok:        built,
	}
	c.rebuilds++
	return h, built
}

// Put stores a hull for m at its current versions.
func (c *HullCache) Put(m *chem.Molecule, h *Hull) {
	c.entries[m.ID] = hullEntry{
		geometry:  m.GeometryVersion(),
		transform: m.TransformVersion(),
		hull:      h,
		ok:        h != nil,
	}
}

// Forget drops the cached hull of a molecule.
func (c *HullCache) Forget(id uuid.UUID) {
	delete(c.entries, id)
}

func (c *HullCache) Stats() HullCacheStats {
	return HullCacheStats{Entries: len(c.entries), Hits: c.hits, Rebuilds: c.rebuilds}
}
