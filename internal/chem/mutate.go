package chem

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bond lengths used when grafting new atoms, Å.
const (
	OHBondLength = 0.96
	NHBondLength = 1.01
	SHBondLength = 1.34
)

// Every primitive below builds the new atom, bond and feature lists aside and
// installs them in one assignment block, so nothing outside the call can see
// a bond list that disagrees with the atom list.

// AddAtom appends an atom and returns its index. Existing atoms keep their
// indices.
func AddAtom(m *Molecule, element string, position mgl64.Vec3) int {
	atoms := make([]Atom, len(m.atoms), len(m.atoms)+1)
	copy(atoms, m.atoms)
	atoms = append(atoms, Atom{Element: element, Position: position})

	m.atoms = atoms
	m.markGeometryDirty()
	return len(atoms) - 1
}

// RemoveAtom deletes the atom at index. Bonds touching it are dropped, bonds
// referencing higher indices are shifted down by one, and feature sites are
// pruned and renumbered the same way.
func RemoveAtom(m *Molecule, index int) error {
	if index < 0 || index >= len(m.atoms) {
		return fmt.Errorf("remove atom %d of %d: %w", index, len(m.atoms), ErrIndexOutOfRange)
	}

	atoms := make([]Atom, 0, len(m.atoms)-1)
	atoms = append(atoms, m.atoms[:index]...)
	atoms = append(atoms, m.atoms[index+1:]...)

	shift := func(i int) int {
		if i > index {
			return i - 1
		}
		return i
	}

	bonds := make([]Bond, 0, len(m.bonds))
	for _, b := range m.bonds {
		if b.Has(index) {
			continue
		}
		bonds = append(bonds, Bond{I: shift(b.I), J: shift(b.J), Order: b.Order})
	}

	features := make([]FeatureSite, 0, len(m.features))
	for _, f := range m.features {
		if f.Atom == index || f.Partner == index {
			continue
		}
		partner := f.Partner
		if partner >= 0 {
			partner = shift(partner)
		}
		features = append(features, FeatureSite{Kind: f.Kind, Atom: shift(f.Atom), Partner: partner, Strength: f.Strength})
	}

	m.atoms, m.bonds, m.features = atoms, bonds, features
	m.markGeometryDirty()
	return nil
}

// AddBond appends a bond between i and j. Out-of-range indices, self bonds
// and non-positive orders are rejected without touching the molecule.
func AddBond(m *Molecule, i, j, order int) error {
	if err := m.checkBond(i, j, order); err != nil {
		return fmt.Errorf("add bond %d-%d: %w", i, j, err)
	}
	bonds := make([]Bond, len(m.bonds), len(m.bonds)+1)
	copy(bonds, m.bonds)
	m.bonds = append(bonds, Bond{I: i, J: j, Order: order})
	m.markGeometryDirty()
	return nil
}

// RemoveBond deletes the first bond joining {i, j} and reports whether one
// was found.
func RemoveBond(m *Molecule, i, j int) bool {
	k := m.BondBetween(i, j)
	if k < 0 {
		return false
	}
	bonds := make([]Bond, 0, len(m.bonds)-1)
	bonds = append(bonds, m.bonds[:k]...)
	bonds = append(bonds, m.bonds[k+1:]...)
	m.bonds = bonds
	m.markGeometryDirty()
	return true
}

// SetBondOrder changes the order of the bond joining {i, j}.
func SetBondOrder(m *Molecule, i, j, order int) error {
	if err := m.checkBond(i, j, order); err != nil {
		return fmt.Errorf("set bond order %d-%d: %w", i, j, err)
	}
	k := m.BondBetween(i, j)
	if k < 0 {
		return fmt.Errorf("set bond order %d-%d: bond not found", i, j)
	}
	bonds := make([]Bond, len(m.bonds))
	copy(bonds, m.bonds)
	bonds[k].Order = order
	m.bonds = bonds
	m.markGeometryDirty()
	return nil
}

// Group describes the fragment grafted onto a carbon during substitution:
// a head atom bonded to the carbon, carrying some hydrogens.
type Group struct {
	Head      string
	Hydrogens int
}

// Hydroxyl is the product group of the canonical SN2 hydrolysis.
var Hydroxyl = Group{Head: Oxygen, Hydrogens: 1}

// Substitution records what SubstituteLeavingGroup changed.
type Substitution struct {
	Carbon    int   // index of the carbon after the edit
	Head      int   // index of the grafted head atom
	Hydrogens []int // indices of grafted hydrogens
	Removed   Atom  // the departed leaving group, local coordinates
	// RemovedWorld is where the leaving group sat in world space.
	RemovedWorld mgl64.Vec3
}

// SubstituteLeavingGroup replaces a leaving group with a hydroxyl: the
// leaving atom is removed, an oxygen is placed where it was, a hydrogen is
// placed OHBondLength beyond the oxygen along the carbon->oxygen direction,
// and C–O and O–H single bonds are added.
func SubstituteLeavingGroup(m *Molecule, leaving []string) (Substitution, error) {
	return Substitute(m, leaving, Hydroxyl)
}

// Substitute removes the first leaving-group atom (element in leaving, bonded
// to a carbon) and grafts g in its place. The removal happens before any
// addition so index shifting is applied once.
func Substitute(m *Molecule, leaving []string, g Group) (Substitution, error) {
	lg, c, ok := findLeavingGroup(m, leaving)
	if !ok {
		return Substitution{}, ErrNoLeavingGroup
	}
	removed := m.atoms[lg]
	carbonPos := m.atoms[c].Position
	removedWorld := m.ToWorld(removed.Position)

	if err := RemoveAtom(m, lg); err != nil {
		return Substitution{}, err
	}
	if c > lg {
		c--
	}

	head := AddAtom(m, g.Head, removed.Position)
	dir := removed.Position.Sub(carbonPos)
	if dir.Len() < 1e-9 {
		dir = mgl64.Vec3{1, 0, 0}
	}
	dir = dir.Normalize()

	var hs []int
	for _, d := range hydrogenDirections(dir, g.Hydrogens) {
		h := AddAtom(m, Hydrogen, removed.Position.Add(d.Mul(hydrogenBondLength(g.Head))))
		hs = append(hs, h)
	}

	if err := AddBond(m, c, head, 1); err != nil {
		return Substitution{}, err
	}
	for _, h := range hs {
		if err := AddBond(m, head, h, 1); err != nil {
			return Substitution{}, err
		}
	}
	if m.autoFeatures {
		m.Annotate()
	}
	return Substitution{Carbon: c, Head: head, Hydrogens: hs, Removed: removed, RemovedWorld: removedWorld}, nil
}

// Elimination records what Eliminate changed.
type Elimination struct {
	AlphaCarbon   int
	BetaCarbon    int
	Removed       Atom
	RemovedWorld  mgl64.Vec3
	HydrogenWorld mgl64.Vec3
}

// Eliminate performs an E2-style edit: the leaving group on Cα and one
// hydrogen on a neighbouring carbon Cβ are removed and the Cα–Cβ bond order
// is raised by one.
func Eliminate(m *Molecule, leaving []string) (Elimination, error) {
	lg, alpha, ok := findLeavingGroup(m, leaving)
	if !ok {
		return Elimination{}, ErrNoLeavingGroup
	}
	beta, h := findBetaHydrogen(m, alpha)
	if h < 0 {
		return Elimination{}, ErrNoBetaHydrogen
	}

	out := Elimination{
		Removed:       m.atoms[lg],
		RemovedWorld:  m.ToWorld(m.atoms[lg].Position),
		HydrogenWorld: m.ToWorld(m.atoms[h].Position),
	}

	// Remove the higher index first so the lower one stays valid.
	first, second := lg, h
	if second > first {
		first, second = second, first
	}
	if err := RemoveAtom(m, first); err != nil {
		return Elimination{}, err
	}
	if err := RemoveAtom(m, second); err != nil {
		return Elimination{}, err
	}
	adjust := func(i int) int {
		if i > first {
			i--
		}
		if i > second {
			i--
		}
		return i
	}
	alpha, beta = adjust(alpha), adjust(beta)

	order := 1
	if k := m.BondBetween(alpha, beta); k >= 0 {
		order = m.bonds[k].Order
	}
	if err := SetBondOrder(m, alpha, beta, order+1); err != nil {
		return Elimination{}, err
	}
	if m.autoFeatures {
		m.Annotate()
	}
	out.AlphaCarbon, out.BetaCarbon = alpha, beta
	return out, nil
}

// Protonate attaches a hydrogen to atom i, pointing away from its existing
// neighbours.
func Protonate(m *Molecule, i int) (int, error) {
	a, ok := m.Atom(i)
	if !ok {
		return -1, fmt.Errorf("protonate atom %d: %w", i, ErrIndexOutOfRange)
	}
	var away mgl64.Vec3
	for _, n := range m.Neighbors(i) {
		away = away.Add(a.Position.Sub(m.atoms[n].Position))
	}
	if away.Len() < 1e-9 {
		away = mgl64.Vec3{0, 1, 0}
	}
	h := AddAtom(m, Hydrogen, a.Position.Add(away.Normalize().Mul(hydrogenBondLength(a.Element))))
	if err := AddBond(m, i, h, 1); err != nil {
		return -1, err
	}
	if m.autoFeatures {
		m.Annotate()
	}
	return h, nil
}

// CanEliminate reports whether Eliminate would succeed on m.
func CanEliminate(m *Molecule, leaving []string) bool {
	_, alpha, ok := findLeavingGroup(m, leaving)
	if !ok {
		return false
	}
	_, h := findBetaHydrogen(m, alpha)
	return h >= 0
}

// CanSubstitute reports whether Substitute would find a leaving group on m.
func CanSubstitute(m *Molecule, leaving []string) bool {
	_, _, ok := findLeavingGroup(m, leaving)
	return ok
}

func findBetaHydrogen(m *Molecule, alpha int) (beta, h int) {
	for _, n := range m.Neighbors(alpha) {
		if m.atoms[n].Element != Carbon {
			continue
		}
		for _, nn := range m.Neighbors(n) {
			if m.atoms[nn].Element == Hydrogen {
				return n, nn
			}
		}
	}
	return -1, -1
}

func findLeavingGroup(m *Molecule, leaving []string) (lg, carbon int, ok bool) {
	for i, a := range m.atoms {
		if !contains(leaving, a.Element) {
			continue
		}
		for _, n := range m.Neighbors(i) {
			if m.atoms[n].Element == Carbon {
				return i, n, true
			}
		}
	}
	return -1, -1, false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func hydrogenBondLength(head string) float64 {
	switch head {
	case Nitrogen:
		return NHBondLength
	case Sulfur:
		return SHBondLength
	}
	return OHBondLength
}

// hydrogenDirections spreads n hydrogens around axis. The first lies on the
// axis itself; further ones are tilted by the tetrahedral complement and
// fanned around it.
func hydrogenDirections(axis mgl64.Vec3, n int) []mgl64.Vec3 {
	if n <= 0 {
		return nil
	}
	out := []mgl64.Vec3{axis}
	if n == 1 {
		return out
	}
	perp := axis.Cross(mgl64.Vec3{0, 0, 1})
	if perp.Len() < 1e-6 {
		perp = axis.Cross(mgl64.Vec3{0, 1, 0})
	}
	perp = perp.Normalize()
	tilt := mgl64.DegToRad(180 - 109.5)
	for k := 1; k < n; k++ {
		spin := mgl64.QuatRotate(2*math.Pi*float64(k-1)/float64(n-1), axis)
		tilted := mgl64.QuatRotate(tilt, spin.Rotate(perp)).Rotate(axis)
		out = append(out, tilted.Normalize())
	}
	return out
}
