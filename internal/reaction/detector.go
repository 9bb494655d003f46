package reaction

import (
	"math"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
)

// Result is the outcome of one reaction decision with its factors.
type Result struct {
	Occurs        bool
	Probability   float64
	Energy        float64
	Orientation   float64
	Temperature   float64
	Compatibility float64
}

// Detector turns collisions into stochastic reaction decisions.
type Detector struct {
	rand func() float64
}

// NewDetector creates a detector drawing from rand, which must return values
// uniformly distributed in [0,1).
func NewDetector(rand func() float64) *Detector {
	return &Detector{rand: rand}
}

// Detect evaluates the four factors for a collision between substrate and
// nucleophile and makes one Bernoulli draw against their product. The
// substrate's approach angle is taken from whichever side of the collision
// it is on.
func (d *Detector) Detect(c event.Collision, t Type, temperature float64, substrate, nucleophile *chem.Molecule) Result {
	angle := c.AngleA
	if substrate.ID == c.B {
		angle = c.AngleB
	}
	r := Result{
		Energy:        EnergyFactor(c.Energy, t.ActivationEnergy),
		Orientation:   OrientationFactor(angle, t.OptimalAngle, t.AngleTolerance),
		Temperature:   clamp01(t.Temperature.Factor(temperature)),
		Compatibility: Compatibility(t, substrate, nucleophile),
	}
	r.Probability = clamp01(r.Energy * r.Orientation * r.Temperature * r.Compatibility)
	if r.Probability > 0 {
		r.Occurs = d.rand() < r.Probability
	}
	return r
}

// EnergyFactor is 0 up to and including the activation energy and
// 1 - exp(-excess/Ea) above it.
func EnergyFactor(energy, activation float64) float64 {
	if activation <= 0 {
		return 1
	}
	if !(energy > activation) {
		return 0
	}
	return 1 - math.Exp(-(energy-activation)/activation)
}

// OrientationFactor is a Gaussian in the deviation from the optimal angle.
// Deviations wrap at 360°.
func OrientationFactor(angle, optimal, sigma float64) float64 {
	dev := math.Mod(math.Abs(angle-optimal), 360)
	if dev > 180 {
		dev = 360 - dev
	}
	if sigma <= 0 {
		if dev == 0 {
			return 1
		}
		return 0
	}
	return math.Exp(-dev * dev / (2 * sigma * sigma))
}

// Compatibility scores how well the participants carry the features t
// requires: 0 if any requirement is unmet, otherwise the product of the
// weighted mean normalized strength on each side. Eliminations also need a
// β-hydrogen on the substrate.
func Compatibility(t Type, substrate, nucleophile *chem.Molecule) float64 {
	if t.Mechanism == MechanismE2 && !chem.CanEliminate(substrate, t.LeavingGroups) {
		return 0
	}
	return sideScore(t.SubstrateFeatures, substrate) * sideScore(t.NucleophileFeatures, nucleophile)
}

func sideScore(reqs []FeatureRequirement, m *chem.Molecule) float64 {
	if len(reqs) == 0 {
		return 1
	}
	score, weights := 0.0, 0.0
	for _, req := range reqs {
		best, found := 0.0, false
		for _, site := range m.FeaturesOf(req.Kind) {
			if req.Accepts(m, site) {
				best, found = site.Strength, true
				break
			}
		}
		if !found {
			return 0
		}
		score += req.Weight * best / chem.MaxStrength
		weights += req.Weight
	}
	if weights <= 0 {
		return 0
	}
	return clamp01(score / weights)
}

// Roles orders a colliding pair into substrate and nucleophile: the order
// with the higher compatibility wins, ties keep a as the substrate.
func Roles(t Type, a, b *chem.Molecule) (substrate, nucleophile *chem.Molecule) {
	if Compatibility(t, b, a) > Compatibility(t, a, b) {
		return b, a
	}
	return a, b
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
