package chem

import "sort"

// FeatureKind tags a reactive site on a molecule.
type FeatureKind string

const (
	LeavingGroup FeatureKind = "leaving_group"
	Nucleophile  FeatureKind = "nucleophile"
	Electrophile FeatureKind = "electrophile"
	DoubleBond   FeatureKind = "double_bond"
)

// MaxStrength is the top of the feature strength scale.
const MaxStrength = 10.0

// FeatureSite marks one reactive atom. Partner is the bonded atom the feature
// is defined against (the carbon of a leaving group, the far end of a
// double bond) or -1.
type FeatureSite struct {
	Kind     FeatureKind
	Atom     int
	Partner  int
	Strength float64
}

var leavingStrength = map[string]float64{
	Iodine:   9,
	Bromine:  8,
	Chlorine: 6,
	Fluorine: 2,
}

// SetFeatures replaces the annotations with caller-supplied ones and stops
// automatic re-annotation after mutations. Sites pointing outside the atom
// list are rejected.
func (m *Molecule) SetFeatures(sites []FeatureSite) error {
	for _, s := range sites {
		if s.Atom < 0 || s.Atom >= len(m.atoms) || s.Partner >= len(m.atoms) {
			return ErrIndexOutOfRange
		}
	}
	m.features = append([]FeatureSite(nil), sites...)
	m.autoFeatures = false
	return nil
}

// Annotate derives feature sites from the molecular graph: halides on carbon
// are leaving groups, the carbon carrying them is the electrophile, lone-pair
// heteroatoms and free halide ions are nucleophiles, and C=C bonds are
// double bond sites.
func (m *Molecule) Annotate() {
	m.autoFeatures = true
	m.features = nil

	for i, a := range m.atoms {
		nbrs := m.Neighbors(i)
		switch {
		case IsHalogen(a.Element) && len(nbrs) == 1 && m.atoms[nbrs[0]].Element == Carbon:
			c := nbrs[0]
			m.features = append(m.features,
				FeatureSite{Kind: LeavingGroup, Atom: i, Partner: c, Strength: leavingStrength[a.Element]},
				FeatureSite{Kind: Electrophile, Atom: c, Partner: i, Strength: m.electrophileStrength(c)},
			)
		case IsHalogen(a.Element) && len(nbrs) == 0 && a.Element != Fluorine:
			m.features = append(m.features, FeatureSite{Kind: Nucleophile, Atom: i, Partner: -1, Strength: 4})
		case a.Element == Oxygen && len(nbrs) <= 1:
			m.features = append(m.features, FeatureSite{Kind: Nucleophile, Atom: i, Partner: -1, Strength: 8})
		case a.Element == Oxygen && len(nbrs) == 2 && m.hydrogens(i) == 2:
			m.features = append(m.features, FeatureSite{Kind: Nucleophile, Atom: i, Partner: -1, Strength: 3})
		case a.Element == Nitrogen && len(nbrs) <= 3 && m.bondOrderSum(i) <= 3:
			m.features = append(m.features, FeatureSite{Kind: Nucleophile, Atom: i, Partner: -1, Strength: 5})
		case a.Element == Sulfur && len(nbrs) <= 1:
			m.features = append(m.features, FeatureSite{Kind: Nucleophile, Atom: i, Partner: -1, Strength: 7})
		}
	}
	for _, b := range m.bonds {
		if b.Order >= 2 && m.atoms[b.I].Element == Carbon && m.atoms[b.J].Element == Carbon {
			m.features = append(m.features, FeatureSite{Kind: DoubleBond, Atom: b.I, Partner: b.J, Strength: 6})
		}
	}
}

// electrophileStrength drops with the number of carbon substituents:
// methyl carbons are the easiest SN2 targets, tertiary the hardest.
func (m *Molecule) electrophileStrength(c int) float64 {
	carbons := 0
	for _, n := range m.Neighbors(c) {
		if m.atoms[n].Element == Carbon {
			carbons++
		}
	}
	switch carbons {
	case 0:
		return 8
	case 1:
		return 6
	case 2:
		return 3
	}
	return 1
}

func (m *Molecule) hydrogens(i int) int {
	n := 0
	for _, o := range m.Neighbors(i) {
		if m.atoms[o].Element == Hydrogen {
			n++
		}
	}
	return n
}

func (m *Molecule) bondOrderSum(i int) int {
	sum := 0
	for _, b := range m.bonds {
		if b.Has(i) {
			sum += b.Order
		}
	}
	return sum
}

// FeaturesOf returns every site of the given kind, strongest first.
func (m *Molecule) FeaturesOf(kind FeatureKind) []FeatureSite {
	var out []FeatureSite
	for _, f := range m.features {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out
}

// StrongestFeature returns the strongest site of the given kind.
func (m *Molecule) StrongestFeature(kind FeatureKind) (FeatureSite, bool) {
	fs := m.FeaturesOf(kind)
	if len(fs) == 0 {
		return FeatureSite{}, false
	}
	return fs[0], true
}
