// Package reaction decides whether a collision turns into a reaction and
// rewrites the participants when it does.
package reaction

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/physics"
)

var (
	ErrUnknownReactionType = errors.New("unknown reaction type")
	ErrInvalidReactionType = errors.New("invalid reaction type")
)

// Mechanism selects how a reaction rewrites its participants.
type Mechanism string

const (
	MechanismSN2 Mechanism = "SN2"
	MechanismSN1 Mechanism = "SN1"
	MechanismE2  Mechanism = "E2"
)

// Substitution reports whether the mechanism replaces the leaving group.
func (m Mechanism) Substitution() bool {
	return m == MechanismSN2 || m == MechanismSN1
}

// FeatureRequirement is one feature a participant must carry. An empty
// element set accepts any element.
type FeatureRequirement struct {
	Kind     chem.FeatureKind
	Elements []string
	Weight   float64
}

// Accepts reports whether the site satisfies the requirement's kind and
// element set.
func (r FeatureRequirement) Accepts(m *chem.Molecule, site chem.FeatureSite) bool {
	if site.Kind != r.Kind {
		return false
	}
	if len(r.Elements) == 0 {
		return true
	}
	a, ok := m.Atom(site.Atom)
	return ok && slices.Contains(r.Elements, a.Element)
}

// TemperatureModel maps a temperature in kelvin to a factor in [0,1]. It
// must never decrease as temperature rises.
type TemperatureModel interface {
	Factor(temperature float64) float64
}

// Arrhenius is an Arrhenius-shaped factor exp(-Θ(1/T - 1/Tref)) capped at 1,
// so it reaches 1 at the reference temperature and stays there.
type Arrhenius struct {
	// Theta is the characteristic temperature Ea/R in kelvin, softened so
	// that reactions remain visible at room temperature.
	Theta float64
	// Reference is the temperature at which the factor saturates.
	Reference float64
}

func (a Arrhenius) Factor(temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	if a.Reference <= 0 {
		return 1
	}
	return math.Min(1, math.Exp(-a.Theta*(1/temperature-1/a.Reference)))
}

// Constant is a temperature model returning the same factor for every
// positive temperature.
type Constant float64

func (c Constant) Factor(temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, float64(c)))
}

// Type is a static reaction definition.
type Type struct {
	ID        string
	Name      string
	Mechanism Mechanism

	ActivationEnergy float64 // kJ/mol
	OptimalAngle     float64 // deg
	AngleTolerance   float64 // σ, deg

	SubstrateFeatures   []FeatureRequirement
	NucleophileFeatures []FeatureRequirement
	// LeavingGroups are the elements that may depart from the substrate.
	LeavingGroups []string

	Temperature TemperatureModel
}

// Validate checks that the definition can be evaluated.
func (t Type) Validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidReactionType)
	case t.ActivationEnergy <= 0:
		return fmt.Errorf("%w: %s: activation energy must be positive", ErrInvalidReactionType, t.ID)
	case t.AngleTolerance <= 0:
		return fmt.Errorf("%w: %s: angle tolerance must be positive", ErrInvalidReactionType, t.ID)
	case t.Temperature == nil:
		return fmt.Errorf("%w: %s: missing temperature model", ErrInvalidReactionType, t.ID)
	case len(t.LeavingGroups) == 0:
		return fmt.Errorf("%w: %s: no leaving groups", ErrInvalidReactionType, t.ID)
	}
	switch t.Mechanism {
	case MechanismSN2, MechanismSN1, MechanismE2:
	default:
		return fmt.Errorf("%w: %s: mechanism %q", ErrInvalidReactionType, t.ID, t.Mechanism)
	}
	return nil
}

var halides = []string{chem.Chlorine, chem.Bromine, chem.Iodine}

// SN2 is the bimolecular nucleophilic substitution: backside attack on the
// carbon carrying the leaving group.
var SN2 = Type{
	ID:               "sn2",
	Name:             "Bimolecular nucleophilic substitution",
	Mechanism:        MechanismSN2,
	ActivationEnergy: 80,
	OptimalAngle:     180,
	AngleTolerance:   30,
	SubstrateFeatures: []FeatureRequirement{
		{Kind: chem.LeavingGroup, Elements: halides, Weight: 1},
		{Kind: chem.Electrophile, Elements: []string{chem.Carbon}, Weight: 1},
	},
	NucleophileFeatures: []FeatureRequirement{
		{Kind: chem.Nucleophile, Weight: 1},
	},
	LeavingGroups: halides,
	Temperature:   Arrhenius{Theta: 1000, Reference: 500},
}

// SN1 goes through a carbocation, so the approach direction barely matters
// and the leaving group ability dominates.
var SN1 = Type{
	ID:               "sn1",
	Name:             "Unimolecular nucleophilic substitution",
	Mechanism:        MechanismSN1,
	ActivationEnergy: 100,
	OptimalAngle:     180,
	AngleTolerance:   180,
	SubstrateFeatures: []FeatureRequirement{
		{Kind: chem.LeavingGroup, Elements: halides, Weight: 2},
		{Kind: chem.Electrophile, Elements: []string{chem.Carbon}, Weight: 1},
	},
	NucleophileFeatures: []FeatureRequirement{
		{Kind: chem.Nucleophile, Weight: 1},
	},
	LeavingGroups: halides,
	Temperature:   Arrhenius{Theta: 1500, Reference: 550},
}

// E2 is the bimolecular elimination: a base takes a β-hydrogen while the
// leaving group departs, forming a C=C bond.
var E2 = Type{
	ID:               "e2",
	Name:             "Bimolecular elimination",
	Mechanism:        MechanismE2,
	ActivationEnergy: 90,
	OptimalAngle:     180,
	AngleTolerance:   40,
	SubstrateFeatures: []FeatureRequirement{
		{Kind: chem.LeavingGroup, Elements: halides, Weight: 1},
		{Kind: chem.Electrophile, Elements: []string{chem.Carbon}, Weight: 1},
	},
	NucleophileFeatures: []FeatureRequirement{
		{Kind: chem.Nucleophile, Elements: []string{chem.Oxygen, chem.Nitrogen}, Weight: 1},
	},
	LeavingGroups: halides,
	Temperature:   Arrhenius{Theta: 1200, Reference: 500},
}

// Catalog holds the reaction types available to a simulation.
type Catalog struct {
	types map[string]Type
	order []string
}

// NewCatalog validates and registers the given types.
func NewCatalog(types ...Type) (*Catalog, error) {
	c := &Catalog{types: make(map[string]Type, len(types))}
	for _, t := range types {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.types[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidReactionType, t.ID)
		}
		c.types[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c, nil
}

// DefaultCatalog returns the built-in SN2, SN1 and E2 types.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(SN2, SN1, E2)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the type with the given id.
func (c *Catalog) Lookup(id string) (Type, error) {
	t, ok := c.types[id]
	if !ok {
		return Type{}, fmt.Errorf("reaction type %q: %w", id, ErrUnknownReactionType)
	}
	return t, nil
}

// IDs returns the registered ids in registration order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.order)
}

// Next returns the id registered after id, wrapping around. Unknown ids
// yield the first type.
func (c *Catalog) Next(id string) string {
	if len(c.order) == 0 {
		return ""
	}
	i := slices.Index(c.order, id)
	return c.order[(i+1)%len(c.order)]
}

// MinimumSpeed returns the relative speed in m/s at which a pair with the
// given reduced mass reaches the activation energy.
func (t Type) MinimumSpeed(reducedMassAmu float64) float64 {
	if reducedMassAmu <= 0 {
		return math.Inf(1)
	}
	unit := physics.CollisionEnergy(reducedMassAmu, 1)
	return math.Sqrt(t.ActivationEnergy / unit)
}
