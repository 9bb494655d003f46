package reaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
)

var ErrNoNucleophile = errors.New("nucleophile carries no nucleophilic site")

// ionNames names released halides.
var ionNames = map[string]string{
	chem.Fluorine: "fluoride",
	chem.Chlorine: "chloride",
	chem.Bromine:  "bromide",
	chem.Iodine:   "iodide",
}

// Outcome describes the molecules a reaction produced and consumed.
type Outcome struct {
	Product  *chem.Molecule   // the rewritten substrate
	Partner  *chem.Molecule   // the protonated base of an elimination
	Consumed []*chem.Molecule // removed from the registry
	Released []*chem.Molecule // new molecules added to the registry

	ReactantFormulas []string
	ProductFormulas  []string
}

// Applier rewrites reaction participants inside a registry.
type Applier struct {
	// ReleaseSpeed is the extra speed, Å/s, given to a departing leaving
	// group along the bond it broke.
	ReleaseSpeed float64
	// Name returns a display name for a formula. Nil uses the formula.
	Name func(formula string) string
}

// Apply performs the reaction of t on substrate and nucleophile. All
// preconditions are checked before anything is mutated, so a failed call
// leaves every molecule and the registry as they were.
//
// Substitutions graft the nucleophile's reactive atom, with up to valence-1
// of its hydrogens, onto the substrate carbon, consume the nucleophile and
// release the leaving group as a new molecule. Eliminations form a C=C bond
// on the substrate, protonate the base and release the leaving group.
// Momentum is conserved across the participants.
func (ap Applier) Apply(reg *chem.Registry, t Type, substrate, nucleophile *chem.Molecule) (Outcome, error) {
	site, ok := nucleophile.StrongestFeature(chem.Nucleophile)
	if !ok {
		return Outcome{}, fmt.Errorf("%s on %s: %w", t.ID, nucleophile.Name, ErrNoNucleophile)
	}
	switch {
	case t.Mechanism.Substitution():
		if !chem.CanSubstitute(substrate, t.LeavingGroups) {
			return Outcome{}, fmt.Errorf("%s on %s: %w", t.ID, substrate.Name, chem.ErrNoLeavingGroup)
		}
	case t.Mechanism == MechanismE2:
		if !chem.CanEliminate(substrate, t.LeavingGroups) {
			return Outcome{}, fmt.Errorf("%s on %s: %w", t.ID, substrate.Name, chem.ErrNoBetaHydrogen)
		}
	default:
		return Outcome{}, fmt.Errorf("%s: %w: mechanism %q", t.ID, ErrInvalidReactionType, t.Mechanism)
	}

	out := Outcome{ReactantFormulas: []string{substrate.Formula(), nucleophile.Formula()}}
	total := substrate.Velocity.Mul(substrate.Mass()).Add(nucleophile.Velocity.Mul(nucleophile.Mass()))

	var departed chem.Atom
	var departedAt mgl64.Vec3
	if t.Mechanism.Substitution() {
		sub, err := chem.Substitute(substrate, t.LeavingGroups, graftGroup(nucleophile, site))
		if err != nil {
			return Outcome{}, err
		}
		departed, departedAt = sub.Removed, sub.RemovedWorld
		if err := reg.Remove(nucleophile.Name); err != nil {
			return Outcome{}, err
		}
		out.Consumed = append(out.Consumed, nucleophile)
	} else {
		el, err := chem.Eliminate(substrate, t.LeavingGroups)
		if err != nil {
			return Outcome{}, err
		}
		departed, departedAt = el.Removed, el.RemovedWorld
		if _, err := chem.Protonate(nucleophile, site.Atom); err != nil {
			return Outcome{}, err
		}
		nucleophile.Recenter()
		out.Partner = nucleophile
	}
	substrate.Recenter()
	out.Product = substrate

	ion, err := reg.Create(reg.UniqueName(ionName(departed.Element)), []chem.Atom{{Element: departed.Element}}, nil, departedAt)
	if err != nil {
		return Outcome{}, err
	}
	out.Released = append(out.Released, ion)

	ap.share(total, out, departedAt)
	ap.rename(reg, substrate)
	out.ProductFormulas = append(out.ProductFormulas, substrate.Formula())
	if out.Partner != nil {
		ap.rename(reg, out.Partner)
		out.ProductFormulas = append(out.ProductFormulas, out.Partner.Formula())
	}
	out.ProductFormulas = append(out.ProductFormulas, ion.Formula())
	return out, nil
}

// graftGroup derives the fragment a nucleophile donates: its reactive atom
// and as many of that atom's hydrogens as the atom can keep once bonded to
// carbon.
func graftGroup(n *chem.Molecule, site chem.FeatureSite) chem.Group {
	a, _ := n.Atom(site.Atom)
	hs := 0
	for _, o := range n.Neighbors(site.Atom) {
		if h, _ := n.Atom(o); h.Element == chem.Hydrogen {
			hs++
		}
	}
	if keep := chem.Valence(a.Element) - 1; hs > keep {
		hs = keep
	}
	if hs < 0 {
		hs = 0
	}
	return chem.Group{Head: a.Element, Hydrogens: hs}
}

// share hands the total momentum to the products: every product moves with
// the centre-of-mass velocity, then the released ion gets ReleaseSpeed away
// from the product and the product recoils to compensate.
func (ap Applier) share(total mgl64.Vec3, out Outcome, departedAt mgl64.Vec3) {
	products := []*chem.Molecule{out.Product}
	if out.Partner != nil {
		products = append(products, out.Partner)
	}
	products = append(products, out.Released...)

	mass := 0.0
	for _, m := range products {
		mass += m.Mass()
	}
	if mass <= 0 {
		return
	}
	com := total.Mul(1 / mass)
	for _, m := range products {
		m.Velocity = com
	}

	dir := departedAt.Sub(out.Product.Position())
	if dir.Len() < 1e-9 || ap.ReleaseSpeed <= 0 {
		return
	}
	kick := dir.Normalize().Mul(ap.ReleaseSpeed)
	for _, ion := range out.Released {
		ion.Velocity = ion.Velocity.Add(kick)
		out.Product.Velocity = out.Product.Velocity.Sub(kick.Mul(ion.Mass() / out.Product.Mass()))
	}
}

func (ap Applier) rename(reg *chem.Registry, m *chem.Molecule) {
	base := m.Formula()
	if ap.Name != nil {
		if n := ap.Name(base); n != "" {
			base = n
		}
	}
	if base == m.Name || strings.HasPrefix(m.Name, base+"-") {
		return
	}
	// The name is free by construction; a clash only keeps the old name.
	_ = reg.Rename(m.Name, reg.UniqueName(base))
}

func ionName(element string) string {
	if n, ok := ionNames[element]; ok {
		return n
	}
	return strings.ToLower(element)
}
