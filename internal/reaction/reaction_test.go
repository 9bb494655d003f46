package reaction

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/physics"
)

func build(t *testing.T, name string, atoms []chem.Atom, bonds ...[2]int) *chem.Molecule {
	t.Helper()
	bs := make([]chem.Bond, len(bonds))
	for i, b := range bonds {
		bs[i] = chem.Bond{I: b[0], J: b[1], Order: 1}
	}
	m, err := chem.NewMolecule(name, atoms, bs)
	require.NoError(t, err)
	return m
}

func chloromethane(t *testing.T) *chem.Molecule {
	return build(t, "chloromethane", []chem.Atom{
		{Element: chem.Carbon},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, 1.03, 0}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, 0.89}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.36, -0.51, -0.89}},
		{Element: chem.Chlorine, Position: mgl64.Vec3{1.78, 0, 0}},
	}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4})
}

func bromoethane(t *testing.T) *chem.Molecule {
	return build(t, "bromoethane", []chem.Atom{
		{Element: chem.Carbon},
		{Element: chem.Carbon, Position: mgl64.Vec3{-1.54, 0, 0}},
		{Element: chem.Bromine, Position: mgl64.Vec3{1.94, 0, 0}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{0.36, 1.03, 0}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{0.36, -0.51, 0.89}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-1.9, 1.03, 0}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-1.9, -0.51, 0.89}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-1.9, -0.51, -0.89}},
	}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4}, [2]int{1, 5}, [2]int{1, 6}, [2]int{1, 7})
}

func methane(t *testing.T) *chem.Molecule {
	return build(t, "methane", []chem.Atom{
		{Element: chem.Carbon},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{0.63, 0.63, 0.63}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.63, -0.63, 0.63}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.63, 0.63, -0.63}},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{0.63, -0.63, -0.63}},
	}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4})
}

func hydroxide(t *testing.T) *chem.Molecule {
	return build(t, "hydroxide", []chem.Atom{
		{Element: chem.Oxygen},
		{Element: chem.Hydrogen, Position: mgl64.Vec3{-0.96, 0, 0}},
	}, [2]int{0, 1})
}

// backside is a collision between substrate a and nucleophile b, attacking
// from behind the leaving group.
func backside(a, b *chem.Molecule, energy float64) event.Collision {
	return event.Collision{A: a.ID, B: b.ID, NameA: a.Name, NameB: b.Name, Energy: energy, AngleA: 180, AngleB: 0}
}

func always() float64 { return 0 }
func never() float64  { return math.Nextafter(1, 0) }

func TestEnergyFactor(t *testing.T) {
	assert.Equal(t, 0.0, EnergyFactor(80, 80), "at the threshold")
	assert.Equal(t, 0.0, EnergyFactor(79.999, 80))
	assert.Equal(t, 0.0, EnergyFactor(-5, 80))
	assert.InDelta(t, 1-math.Exp(-1), EnergyFactor(160, 80), 1e-12)
	assert.Greater(t, EnergyFactor(80.001, 80), 0.0)

	prev := 0.0
	for e := 0.0; e < 1000; e += 5 {
		f := EnergyFactor(e, 80)
		assert.GreaterOrEqual(t, f, prev)
		assert.LessOrEqual(t, f, 1.0)
		prev = f
	}
}

func TestOrientationFactor(t *testing.T) {
	assert.Equal(t, 1.0, OrientationFactor(180, 180, 30))
	assert.InDelta(t, math.Exp(-0.5), OrientationFactor(150, 180, 30), 1e-12)
	assert.InDelta(t, math.Exp(-0.5), OrientationFactor(210, 180, 30), 1e-12)
	assert.InDelta(t, OrientationFactor(20, 0, 30), OrientationFactor(350, 10, 30), 1e-12)
	assert.Equal(t, 0.0, OrientationFactor(170, 180, 0))
}

func TestTemperatureModels(t *testing.T) {
	for _, tt := range []TemperatureModel{SN2.Temperature, SN1.Temperature, E2.Temperature, Constant(0.5)} {
		prev := 0.0
		for temp := -50.0; temp <= 2000; temp += 10 {
			f := tt.Factor(temp)
			assert.GreaterOrEqual(t, f, prev, "%T at %v K", tt, temp)
			assert.LessOrEqual(t, f, 1.0)
			prev = f
		}
	}
	a := Arrhenius{Theta: 1000, Reference: 500}
	assert.Equal(t, 1.0, a.Factor(500))
	assert.Equal(t, 1.0, a.Factor(900))
	assert.InDelta(t, math.Exp(-1000*(1.0/298-1.0/500)), a.Factor(298), 1e-12)
	assert.Equal(t, 0.0, a.Factor(0))
}

func TestCompatibility(t *testing.T) {
	s, n := chloromethane(t), hydroxide(t)
	c := Compatibility(SN2, s, n)
	// Cl leaving group 6, methyl electrophile 8, hydroxide 8.
	assert.InDelta(t, (0.6+0.8)/2*0.8, c, 1e-12)

	assert.Equal(t, 0.0, Compatibility(SN2, n, s), "hydroxide has no leaving group")
	assert.Equal(t, 0.0, Compatibility(SN2, methane(t), n))
	assert.Equal(t, 0.0, Compatibility(E2, s, n), "no beta hydrogen")
	assert.Greater(t, Compatibility(E2, bromoethane(t), n), 0.0)
	assert.Equal(t, 0.0, Compatibility(E2, bromoethane(t), methane(t)))
}

func TestRoles(t *testing.T) {
	s, n := chloromethane(t), hydroxide(t)
	sub, nu := Roles(SN2, n, s)
	assert.Same(t, s, sub)
	assert.Same(t, n, nu)
	sub, nu = Roles(SN2, s, n)
	assert.Same(t, s, sub)
	assert.Same(t, n, nu)

	a, b := methane(t), hydroxide(t)
	sub, _ = Roles(SN2, a, b)
	assert.Same(t, a, sub, "ties keep the first argument")
}

func TestDetectAtThresholdNeverReacts(t *testing.T) {
	s, n := chloromethane(t), hydroxide(t)
	r := NewDetector(always).Detect(backside(s, n, 80.0), SN2, 600, s, n)
	assert.Equal(t, 0.0, r.Energy)
	assert.Equal(t, 0.0, r.Probability)
	assert.False(t, r.Occurs)
}

func TestDetectFactors(t *testing.T) {
	s, n := chloromethane(t), hydroxide(t)
	c := backside(s, n, 160)
	r := NewDetector(always).Detect(c, SN2, 600, s, n)

	assert.InDelta(t, 1-math.Exp(-1), r.Energy, 1e-12)
	assert.Equal(t, 1.0, r.Orientation)
	assert.Equal(t, 1.0, r.Temperature)
	assert.InDelta(t, r.Energy*r.Orientation*r.Temperature*r.Compatibility, r.Probability, 1e-12)
	assert.True(t, r.Occurs)

	assert.False(t, NewDetector(never).Detect(c, SN2, 600, s, n).Occurs)

	// Same collision seen from the nucleophile's side.
	r2 := NewDetector(always).Detect(c.Swap(), SN2, 600, s, n)
	assert.Equal(t, r.Probability, r2.Probability)

	frontside := c
	frontside.AngleA = 0
	assert.Less(t, NewDetector(always).Detect(frontside, SN2, 600, s, n).Orientation, 1e-4)
}

func TestDetectIsBernoulli(t *testing.T) {
	s, n := chloromethane(t), hydroxide(t)
	rng := rand.New(rand.NewPCG(9, 9))
	d := NewDetector(rng.Float64)
	c := backside(s, n, 120)

	p := d.Detect(c, SN2, 400, s, n).Probability
	require.Greater(t, p, 0.05)
	require.Less(t, p, 0.95)

	const trials = 4000
	hits := 0
	for i := 0; i < trials; i++ {
		if d.Detect(c, SN2, 400, s, n).Occurs {
			hits++
		}
	}
	assert.InDelta(t, p, float64(hits)/trials, 0.04)
}

func TestProbabilityBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	d := NewDetector(rng.Float64)
	subs := []*chem.Molecule{chloromethane(t), bromoethane(t), methane(t), hydroxide(t)}
	for i := 0; i < 2000; i++ {
		s, n := subs[rng.IntN(len(subs))], subs[rng.IntN(len(subs))]
		ty := []Type{SN2, SN1, E2}[rng.IntN(3)]
		c := event.Collision{
			A:      s.ID,
			B:      n.ID,
			Energy: rng.Float64()*400 - 50,
			AngleA: rng.Float64() * 360,
			AngleB: rng.Float64() * 360,
		}
		r := d.Detect(c, ty, rng.Float64()*1500-100, s, n)
		for _, v := range []float64{r.Probability, r.Energy, r.Orientation, r.Temperature, r.Compatibility} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		if c.Energy <= ty.ActivationEnergy {
			assert.Equal(t, 0.0, r.Probability)
			assert.False(t, r.Occurs)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"sn2", "sn1", "e2"}, c.IDs())

	sn2, err := c.Lookup("sn2")
	require.NoError(t, err)
	assert.Equal(t, 80.0, sn2.ActivationEnergy)
	assert.Equal(t, 180.0, sn2.OptimalAngle)

	_, err = c.Lookup("sn3")
	assert.ErrorIs(t, err, ErrUnknownReactionType)
	assert.Contains(t, err.Error(), "sn3")

	assert.Equal(t, "sn1", c.Next("sn2"))
	assert.Equal(t, "sn2", c.Next("e2"))
	assert.Equal(t, "sn2", c.Next("bogus"))

	_, err = NewCatalog(SN2, SN2)
	assert.ErrorIs(t, err, ErrInvalidReactionType)

	bad := SN2
	bad.AngleTolerance = 0
	_, err = NewCatalog(bad)
	assert.ErrorIs(t, err, ErrInvalidReactionType)

	bad = SN2
	bad.Mechanism = "radical"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidReactionType)
}

func TestMinimumSpeed(t *testing.T) {
	mu := 12.7
	v := SN2.MinimumSpeed(mu)
	assert.Greater(t, v, 0.0)
	assert.InDelta(t, SN2.ActivationEnergy, physics.CollisionEnergy(mu, v), 1e-6)
	assert.Equal(t, 0.0, EnergyFactor(physics.CollisionEnergy(mu, v*0.999), SN2.ActivationEnergy))
	assert.True(t, math.IsInf(SN2.MinimumSpeed(0), 1))
}
