// Package chem holds the molecular data model: atoms, bonds, molecules, the
// registry that owns molecule lifetimes and the mutation primitives that keep
// bond indices consistent.
package chem

// Element symbols understood by the engine.
const (
	Hydrogen = "H"
	Carbon   = "C"
	Nitrogen = "N"
	Oxygen   = "O"
	Fluorine = "F"
	Phosphor = "P"
	Sulfur   = "S"
	Chlorine = "Cl"
	Bromine  = "Br"
	Iodine   = "I"
)

// Fallbacks for symbols outside the table.
const (
	DefaultRadius = 1.70 // Å
	DefaultMass   = 12.0 // amu
)

type elementData struct {
	radius  float64 // van der Waals radius, Å
	mass    float64 // standard atomic weight, amu
	valence int
}

var elements = map[string]elementData{
	Hydrogen: {radius: 1.20, mass: 1.008, valence: 1},
	Carbon:   {radius: 1.70, mass: 12.011, valence: 4},
	Nitrogen: {radius: 1.55, mass: 14.007, valence: 3},
	Oxygen:   {radius: 1.52, mass: 15.999, valence: 2},
	Fluorine: {radius: 1.47, mass: 18.998, valence: 1},
	Phosphor: {radius: 1.80, mass: 30.974, valence: 3},
	Sulfur:   {radius: 1.80, mass: 32.06, valence: 2},
	Chlorine: {radius: 1.75, mass: 35.45, valence: 1},
	Bromine:  {radius: 1.85, mass: 79.904, valence: 1},
	Iodine:   {radius: 1.98, mass: 126.904, valence: 1},
}

// Known reports whether the symbol is part of the element vocabulary.
func Known(symbol string) bool {
	_, ok := elements[symbol]
	return ok
}

// Radius returns the van der Waals radius for an element symbol.
func Radius(symbol string) float64 {
	if e, ok := elements[symbol]; ok {
		return e.radius
	}
	return DefaultRadius
}

// Mass returns the atomic mass in amu for an element symbol.
func Mass(symbol string) float64 {
	if e, ok := elements[symbol]; ok {
		return e.mass
	}
	return DefaultMass
}

// Valence returns the usual number of single bonds the element forms.
// Unknown symbols report 0.
func Valence(symbol string) int {
	return elements[symbol].valence
}

// IsHalogen reports whether the element can act as a halide leaving group.
func IsHalogen(symbol string) bool {
	switch symbol {
	case Fluorine, Chlorine, Bromine, Iodine:
		return true
	}
	return false
}
