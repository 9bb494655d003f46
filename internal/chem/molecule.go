package chem

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Errors reported by molecule construction and mutation.
var (
	ErrIndexOutOfRange = errors.New("atom index out of range")
	ErrSelfBond        = errors.New("bond endpoints must differ")
	ErrBondOrder       = errors.New("bond order must be positive")
	ErrNoLeavingGroup  = errors.New("no leaving group bonded to carbon")
	ErrNoBetaHydrogen  = errors.New("no beta hydrogen available for elimination")
)

// Atom is a single atom in molecule-local coordinates (Å).
type Atom struct {
	Element  string
	Position mgl64.Vec3
}

// Radius returns the van der Waals radius of the atom's element.
func (a Atom) Radius() float64 {
	return Radius(a.Element)
}

// Bond links two atoms of the same molecule by index.
type Bond struct {
	I, J  int
	Order int
}

// Has reports whether the bond touches atom i.
func (b Bond) Has(i int) bool {
	return b.I == i || b.J == i
}

// Other returns the index on the far side of atom i, or -1 if i is not an endpoint.
func (b Bond) Other(i int) int {
	switch i {
	case b.I:
		return b.J
	case b.J:
		return b.I
	}
	return -1
}

// Matches reports whether the bond joins the unordered pair {i, j}.
func (b Bond) Matches(i, j int) bool {
	return (b.I == i && b.J == j) || (b.I == j && b.J == i)
}

// Molecule is a rigid body owning an atom list, a bond list and optional
// reaction feature annotations.
//
// Atoms, bonds and features are only changed through the mutation
// primitives in this package so the bond-index invariant holds and derived
// data (bounds, mass, hulls) is invalidated. Transform changes go through
// the setters, which mark the cached world matrix dirty.
type Molecule struct {
	ID   uuid.UUID
	Name string

	// Velocity is the linear velocity in Å/s of simulation time.
	Velocity mgl64.Vec3
	// Spin is the angular velocity in rad/s, world axes.
	Spin mgl64.Vec3

	atoms        []Atom
	bonds        []Bond
	features     []FeatureSite
	autoFeatures bool

	position    mgl64.Vec3
	orientation mgl64.Quat

	geometryVersion  uint64
	transformVersion uint64

	derivedFor uint64 // geometry version the derived values belong to
	derivedOK  bool
	radius     float64
	mass       float64
	bounds     [2]mgl64.Vec3

	world           mgl64.Mat4
	worldFor        uint64
	worldOK         bool
	worldRecomputes int
}

// NewMolecule builds a molecule from parsed atoms and bonds. Every bond is
// validated; features are annotated from the graph.
func NewMolecule(name string, atoms []Atom, bonds []Bond) (*Molecule, error) {
	m := &Molecule{
		ID:           uuid.New(),
		Name:         name,
		atoms:        append([]Atom(nil), atoms...),
		orientation:  mgl64.QuatIdent(),
		autoFeatures: true,
	}
	for _, b := range bonds {
		if err := m.checkBond(b.I, b.J, b.Order); err != nil {
			return nil, fmt.Errorf("molecule %q: bond %d-%d: %w", name, b.I, b.J, err)
		}
		m.bonds = append(m.bonds, b)
	}
	m.Annotate()
	return m, nil
}

func (m *Molecule) checkBond(i, j, order int) error {
	n := len(m.atoms)
	if i < 0 || i >= n || j < 0 || j >= n {
		return ErrIndexOutOfRange
	}
	if i == j {
		return ErrSelfBond
	}
	if order < 1 {
		return ErrBondOrder
	}
	return nil
}

// AtomCount returns the number of atoms.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// Atom returns the atom at index i.
func (m *Molecule) Atom(i int) (Atom, bool) {
	if i < 0 || i >= len(m.atoms) {
		return Atom{}, false
	}
	return m.atoms[i], true
}

// Atoms returns the atom list. The slice must not be modified.
func (m *Molecule) Atoms() []Atom { return m.atoms }

// Bonds returns the bond list. The slice must not be modified.
func (m *Molecule) Bonds() []Bond { return m.bonds }

// Features returns the reaction feature annotations. The slice must not be modified.
func (m *Molecule) Features() []FeatureSite { return m.features }

// Neighbors returns the indices of atoms bonded to atom i.
func (m *Molecule) Neighbors(i int) []int {
	var out []int
	for _, b := range m.bonds {
		if o := b.Other(i); o >= 0 {
			out = append(out, o)
		}
	}
	return out
}

// BondBetween returns the index of the first bond joining i and j, or -1.
func (m *Molecule) BondBetween(i, j int) int {
	for k, b := range m.bonds {
		if b.Matches(i, j) {
			return k
		}
	}
	return -1
}

// CountElement returns how many atoms of the element the molecule holds.
func (m *Molecule) CountElement(symbol string) int {
	n := 0
	for _, a := range m.atoms {
		if a.Element == symbol {
			n++
		}
	}
	return n
}

// GeometryVersion changes every time atoms or bonds change.
func (m *Molecule) GeometryVersion() uint64 { return m.geometryVersion }

// TransformVersion changes every time position or orientation change.
func (m *Molecule) TransformVersion() uint64 { return m.transformVersion }

func (m *Molecule) markGeometryDirty() {
	m.geometryVersion++
}

func (m *Molecule) markTransformDirty() {
	m.transformVersion++
}

// Position returns the world position of the molecule origin.
func (m *Molecule) Position() mgl64.Vec3 { return m.position }

// SetPosition moves the molecule and marks its transform dirty.
func (m *Molecule) SetPosition(p mgl64.Vec3) {
	if p == m.position {
		return
	}
	m.position = p
	m.markTransformDirty()
}

// Translate offsets the molecule position.
func (m *Molecule) Translate(d mgl64.Vec3) {
	if d == (mgl64.Vec3{}) {
		return
	}
	m.SetPosition(m.position.Add(d))
}

// Orientation returns the world orientation.
func (m *Molecule) Orientation() mgl64.Quat { return m.orientation }

// SetOrientation replaces the orientation and marks the transform dirty.
func (m *Molecule) SetOrientation(q mgl64.Quat) {
	q = q.Normalize()
	if q == m.orientation {
		return
	}
	m.orientation = q
	m.markTransformDirty()
}

// Rotate applies q on top of the current orientation.
func (m *Molecule) Rotate(q mgl64.Quat) {
	m.SetOrientation(q.Mul(m.orientation))
}

// WorldMatrix returns the cached local-to-world matrix, recomputing it only
// when the transform has changed since the last call.
func (m *Molecule) WorldMatrix() mgl64.Mat4 {
	if m.worldOK && m.worldFor == m.transformVersion {
		return m.world
	}
	m.world = mgl64.Translate3D(m.position[0], m.position[1], m.position[2]).Mul4(m.orientation.Mat4())
	m.worldFor = m.transformVersion
	m.worldOK = true
	m.worldRecomputes++
	return m.world
}

// WorldRecomputes counts how often the world matrix was rebuilt.
func (m *Molecule) WorldRecomputes() int { return m.worldRecomputes }

// ToWorld maps a molecule-local point to world space.
func (m *Molecule) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return m.WorldMatrix().Mul4x1(local.Vec4(1)).Vec3()
}

// ToLocal maps a world-space point into the molecule frame.
func (m *Molecule) ToLocal(world mgl64.Vec3) mgl64.Vec3 {
	return m.orientation.Inverse().Rotate(world.Sub(m.position))
}

// WorldAtom returns the world position of atom i.
func (m *Molecule) WorldAtom(i int) (mgl64.Vec3, bool) {
	a, ok := m.Atom(i)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return m.ToWorld(a.Position), true
}

func (m *Molecule) derive() {
	if m.derivedOK && m.derivedFor == m.geometryVersion {
		return
	}
	m.radius, m.mass = 0, 0
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, a := range m.atoms {
		r := a.Radius()
		if d := a.Position.Len() + r; d > m.radius {
			m.radius = d
		}
		m.mass += Mass(a.Element)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], a.Position[k]-r)
			hi[k] = math.Max(hi[k], a.Position[k]+r)
		}
	}
	m.bounds = [2]mgl64.Vec3{lo, hi}
	m.derivedFor = m.geometryVersion
	m.derivedOK = true
}

// Radius is the bounding radius around the molecule origin, atom radii included.
func (m *Molecule) Radius() float64 {
	m.derive()
	return m.radius
}

// Mass is the molecular mass in amu.
func (m *Molecule) Mass() float64 {
	m.derive()
	return m.mass
}

// Extent returns the diagonal of the local bounds, atom radii included.
// Empty molecules report 0.
func (m *Molecule) Extent() float64 {
	m.derive()
	if len(m.atoms) == 0 {
		return 0
	}
	return m.bounds[1].Sub(m.bounds[0]).Len()
}

// Recenter moves the local origin to the atom centroid while keeping every
// atom at the same world position.
func (m *Molecule) Recenter() {
	if len(m.atoms) == 0 {
		return
	}
	var c mgl64.Vec3
	for _, a := range m.atoms {
		c = c.Add(a.Position)
	}
	c = c.Mul(1 / float64(len(m.atoms)))
	if c.Len() < 1e-9 {
		return
	}
	shifted := make([]Atom, len(m.atoms))
	for i, a := range m.atoms {
		shifted[i] = Atom{Element: a.Element, Position: a.Position.Sub(c)}
	}
	m.atoms = shifted
	m.markGeometryDirty()
	m.SetPosition(m.position.Add(m.orientation.Rotate(c)))
}

// PrincipalAxis returns the world-space reactive axis: from the carbon that
// carries a leaving group to that group when one is annotated, otherwise
// the molecule's local +X axis.
func (m *Molecule) PrincipalAxis() mgl64.Vec3 {
	if lg, ok := m.StrongestFeature(LeavingGroup); ok && lg.Partner >= 0 {
		from, _ := m.WorldAtom(lg.Partner)
		to, _ := m.WorldAtom(lg.Atom)
		if d := to.Sub(from); d.Len() > 1e-9 {
			return d.Normalize()
		}
	}
	return m.orientation.Rotate(mgl64.Vec3{1, 0, 0})
}

// ReactiveCenter returns the world position the approach angle is measured
// from: the electrophilic carbon when present, otherwise the strongest
// nucleophile atom, otherwise the molecule origin.
func (m *Molecule) ReactiveCenter() mgl64.Vec3 {
	for _, kind := range []FeatureKind{Electrophile, Nucleophile} {
		if f, ok := m.StrongestFeature(kind); ok {
			if p, ok := m.WorldAtom(f.Atom); ok {
				return p
			}
		}
	}
	return m.position
}

// Formula returns the molecular formula in Hill order (C, H, then alphabetical).
func (m *Molecule) Formula() string {
	return HillFormula(m.atoms)
}
