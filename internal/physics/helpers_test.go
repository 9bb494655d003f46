package physics

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
)

func molecule(t *testing.T, name string, at mgl64.Vec3, positions ...mgl64.Vec3) *chem.Molecule {
	t.Helper()
	atoms := make([]chem.Atom, len(positions))
	for i, p := range positions {
		atoms[i] = chem.Atom{Element: chem.Hydrogen, Position: p}
	}
	m, err := chem.NewMolecule(name, atoms, nil)
	require.NoError(t, err)
	m.SetPosition(at)
	return m
}

// rod lays hydrogens along the (1,-1,0) diagonal at the given offsets.
func rod(t *testing.T, name string, at mgl64.Vec3, offsets ...float64) *chem.Molecule {
	t.Helper()
	dir := mgl64.Vec3{1, -1, 0}.Normalize()
	ps := make([]mgl64.Vec3, len(offsets))
	for i, o := range offsets {
		ps[i] = dir.Mul(o)
	}
	return molecule(t, name, at, ps...)
}

// across returns a point s Å away from the origin along (1,1,0), which is
// perpendicular to every rod.
func across(s float64) mgl64.Vec3 {
	return mgl64.Vec3{1, 1, 0}.Mul(s / math.Sqrt2)
}

func chloromethane(t *testing.T, at mgl64.Vec3) *chem.Molecule {
	t.Helper()
	m, err := chem.NewMolecule("chloromethane", []chem.Atom{
		{Element: chem.Carbon},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, 1.03, 0}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, 0.89}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, -0.89}},
		{Element: chem.Chlorine, Position: mgl64.Vec3{1.78, 0, 0}},
	}, []chem.Bond{{I: 0, J: 1, Order: 1}, {I: 0, J: 2, Order: 1}, {I: 0, J: 3, Order: 1}, {I: 0, J: 4, Order: 1}})
	require.NoError(t, err)
	m.SetPosition(at)
	return m
}

func hydroxide(t *testing.T, at mgl64.Vec3) *chem.Molecule {
	t.Helper()
	m, err := chem.NewMolecule("hydroxide", []chem.Atom{
		{Element: chem.Oxygen},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.96, 0, 0}},
	}, []chem.Bond{{I: 0, J: 1, Order: 1}})
	require.NoError(t, err)
	m.SetPosition(at)
	return m
}

func newDetector(bus *event.Bus) *Detector {
	return NewDetector(NewHullCache(), Kinematics{VelocityScale: DefaultVelocityScale}, bus, log.New(io.Discard), 0)
}
