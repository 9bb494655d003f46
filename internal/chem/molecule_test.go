package chem

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoleculeRejectsBadBonds(t *testing.T) {
	atoms := []Atom{{Element: Carbon}, {Element: Hydrogen}}
	tests := []struct {
		name string
		bond Bond
		want error
	}{
		{"out of range", Bond{I: 0, J: 2, Order: 1}, ErrIndexOutOfRange},
		{"negative", Bond{I: -1, J: 1, Order: 1}, ErrIndexOutOfRange},
		{"self", Bond{I: 1, J: 1, Order: 1}, ErrSelfBond},
		{"zero order", Bond{I: 0, J: 1, Order: 0}, ErrBondOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMolecule("x", atoms, []Bond{tt.bond})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestElementDefaults(t *testing.T) {
	assert.Equal(t, DefaultRadius, Radius("Xx"))
	assert.Equal(t, DefaultMass, Mass("Xx"))
	assert.False(t, Known("Xx"))
	assert.Equal(t, 1.20, Radius(Hydrogen))
	assert.True(t, IsHalogen(Bromine))
	assert.False(t, IsHalogen(Oxygen))
}

func TestDerivedValues(t *testing.T) {
	m := chloromethane(t)
	assert.InDelta(t, 12.011+3*1.008+35.45, m.Mass(), 1e-9)
	assert.InDelta(t, 1.78+1.75, m.Radius(), 1e-9)
	assert.Greater(t, m.Extent(), 1.78)
	assert.Equal(t, "CH3Cl", m.Formula())

	v := m.GeometryVersion()
	AddAtom(m, Hydrogen, mgl64.Vec3{0, 0, 5})
	assert.Greater(t, m.GeometryVersion(), v)
	assert.InDelta(t, 5+1.20, m.Radius(), 1e-9)
}

func TestWorldMatrixRecomputedOnlyWhenDirty(t *testing.T) {
	m := chloromethane(t)
	m.WorldMatrix()
	m.WorldMatrix()
	assert.Equal(t, 1, m.WorldRecomputes())

	m.SetPosition(m.Position())
	m.WorldMatrix()
	assert.Equal(t, 1, m.WorldRecomputes(), "setting the same position is not a change")

	m.SetPosition(mgl64.Vec3{1, 2, 3})
	m.WorldMatrix()
	assert.Equal(t, 2, m.WorldRecomputes())

	// A rotation about X leaves the first matrix element untouched but is
	// still a transform change.
	m.Rotate(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0}))
	w := m.WorldMatrix()
	assert.Equal(t, 3, m.WorldRecomputes())
	assert.InDelta(t, 1.0, w.At(0, 0), 1e-9)
}

func TestToWorldAndBack(t *testing.T) {
	m := chloromethane(t)
	m.SetPosition(mgl64.Vec3{10, -2, 4})
	m.SetOrientation(mgl64.QuatRotate(0.7, mgl64.Vec3{0, 1, 1}.Normalize()))

	p := mgl64.Vec3{1.78, 0, 0}
	w := m.ToWorld(p)
	assert.True(t, m.ToLocal(w).ApproxEqualThreshold(p, 1e-9))
	assert.InDelta(t, 1.78, w.Sub(m.Position()).Len(), 1e-9)
}

func TestRecenterKeepsWorldPositions(t *testing.T) {
	m := chloromethane(t)
	m.SetPosition(mgl64.Vec3{5, 5, 5})
	m.SetOrientation(mgl64.QuatRotate(1.1, mgl64.Vec3{0, 0, 1}))

	before := make([]mgl64.Vec3, m.AtomCount())
	for i := range before {
		before[i], _ = m.WorldAtom(i)
	}
	m.Recenter()
	for i := range before {
		after, _ := m.WorldAtom(i)
		assert.True(t, after.ApproxEqualThreshold(before[i], 1e-9), "atom %d moved", i)
	}
}

func TestPrincipalAxisPointsToLeavingGroup(t *testing.T) {
	m := chloromethane(t)
	assert.True(t, m.PrincipalAxis().ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9))

	m.SetOrientation(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	assert.True(t, m.PrincipalAxis().ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9))
	assert.True(t, m.ReactiveCenter().ApproxEqualThreshold(m.Position(), 1e-9))
}

func TestAnnotate(t *testing.T) {
	m := chloromethane(t)
	lg, ok := m.StrongestFeature(LeavingGroup)
	require.True(t, ok)
	assert.Equal(t, 4, lg.Atom)
	assert.Equal(t, 0, lg.Partner)
	assert.Equal(t, 6.0, lg.Strength)

	el, ok := m.StrongestFeature(Electrophile)
	require.True(t, ok)
	assert.Equal(t, 0, el.Atom)
	assert.Equal(t, 8.0, el.Strength)

	b := bromoethane(t)
	el, ok = b.StrongestFeature(Electrophile)
	require.True(t, ok)
	assert.Equal(t, 6.0, el.Strength, "primary carbon")

	oh, err := NewMolecule("hydroxide", []Atom{{Element: Oxygen}, {Element: Hydrogen, Position: mgl64.Vec3{0.96, 0, 0}}}, []Bond{{I: 0, J: 1, Order: 1}})
	require.NoError(t, err)
	nu, ok := oh.StrongestFeature(Nucleophile)
	require.True(t, ok)
	assert.Equal(t, 0, nu.Atom)
	assert.Equal(t, 8.0, nu.Strength)
}

func TestSetFeaturesDisablesAnnotation(t *testing.T) {
	m := chloromethane(t)
	require.NoError(t, m.SetFeatures([]FeatureSite{{Kind: Nucleophile, Atom: 1, Partner: -1, Strength: 2}}))
	assert.ErrorIs(t, m.SetFeatures([]FeatureSite{{Kind: Nucleophile, Atom: 9, Partner: -1}}), ErrIndexOutOfRange)

	_, err := SubstituteLeavingGroup(m, []string{Chlorine})
	require.NoError(t, err)
	assert.Len(t, m.Features(), 1)
	assert.Equal(t, Nucleophile, m.Features()[0].Kind)
}

func TestHillFormula(t *testing.T) {
	tests := []struct {
		atoms []string
		want  string
	}{
		{[]string{Carbon, Hydrogen, Hydrogen, Hydrogen, Chlorine}, "CH3Cl"},
		{[]string{Oxygen, Hydrogen, Hydrogen}, "H2O"},
		{[]string{Bromine, Carbon, Carbon, Hydrogen, Hydrogen, Hydrogen, Hydrogen, Hydrogen}, "C2H5Br"},
		{[]string{Chlorine}, "Cl"},
		{[]string{Nitrogen, Hydrogen, Hydrogen, Hydrogen}, "H3N"},
		{nil, ""},
	}
	for _, tt := range tests {
		atoms := make([]Atom, len(tt.atoms))
		for i, e := range tt.atoms {
			atoms[i] = Atom{Element: e}
		}
		assert.Equal(t, tt.want, HillFormula(atoms))
	}
}
