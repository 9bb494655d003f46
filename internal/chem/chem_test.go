package chem

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

// chloromethane: C0 with three H and a Cl on +X.
func chloromethane(t *testing.T) *Molecule {
	t.Helper()
	m, err := NewMolecule("chloromethane", []Atom{
		{Element: Carbon, Position: mgl64.Vec3{0, 0, 0}},
		{Element: Hydrogen, Position: mgl64.Vec3{-0.36, 1.03, 0}},
		{Element: Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, 0.89}},
		{Element: Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, -0.89}},
		{Element: Chlorine, Position: mgl64.Vec3{1.78, 0, 0}},
	}, []Bond{
		{I: 0, J: 1, Order: 1},
		{I: 0, J: 2, Order: 1},
		{I: 0, J: 3, Order: 1},
		{I: 0, J: 4, Order: 1},
	})
	require.NoError(t, err)
	return m
}

// bromoethane: C0-C1, Br on C0, two H on C0, three H on C1.
func bromoethane(t *testing.T) *Molecule {
	t.Helper()
	m, err := NewMolecule("bromoethane", []Atom{
		{Element: Carbon, Position: mgl64.Vec3{0, 0, 0}},
		{Element: Carbon, Position: mgl64.Vec3{1.54, 0, 0}},
		{Element: Bromine, Position: mgl64.Vec3{-0.65, 1.8, 0}},
		{Element: Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, 0.89}},
		{Element: Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, -0.89}},
		{Element: Hydrogen, Position: mgl64.Vec3{1.9, 1.03, 0}},
		{Element: Hydrogen, Position: mgl64.Vec3{1.9, -0.51, 0.89}},
		{Element: Hydrogen, Position: mgl64.Vec3{1.9, -0.51, -0.89}},
	}, []Bond{
		{I: 0, J: 1, Order: 1},
		{I: 0, J: 2, Order: 1},
		{I: 0, J: 3, Order: 1},
		{I: 0, J: 4, Order: 1},
		{I: 1, J: 5, Order: 1},
		{I: 1, J: 6, Order: 1},
		{I: 1, J: 7, Order: 1},
	})
	require.NoError(t, err)
	return m
}

func requireValidBonds(t *testing.T, m *Molecule) {
	t.Helper()
	n := m.AtomCount()
	for _, b := range m.Bonds() {
		require.True(t, b.I >= 0 && b.I < n, "bond %v out of range for %d atoms", b, n)
		require.True(t, b.J >= 0 && b.J < n, "bond %v out of range for %d atoms", b, n)
		require.NotEqual(t, b.I, b.J)
	}
	for _, f := range m.Features() {
		require.True(t, f.Atom >= 0 && f.Atom < n, "feature %v out of range", f)
		require.True(t, f.Partner >= -1 && f.Partner < n, "feature %v out of range", f)
	}
}
