package physics

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomz197/reactyl/internal/chem"
)

// Physical constants (SI unless noted).
const (
	AtomicMassUnit  = 1.66053906660e-27 // kg
	Avogadro        = 6.02214076e23     // 1/mol
	Boltzmann       = 1.380649e-23      // J/K
	GasConstant     = 8.314462618       // J/(mol K)
	RoomTemperature = 298.0             // K
)

// DefaultVelocityScale converts simulation speed (Å per simulated second) to
// m/s for the energy model. Illustrative: it puts typical visual speeds in
// the range of activation energies of tens of kJ/mol.
const DefaultVelocityScale = 650.0

// ReducedMass returns m1·m2/(m1+m2). Non-positive totals give 0.
func ReducedMass(m1, m2 float64) float64 {
	if m1+m2 <= 0 {
		return 0
	}
	return m1 * m2 / (m1 + m2)
}

// CollisionEnergy returns ½·μ·v² in kJ/mol for a reduced mass in amu and a
// relative speed in m/s.
func CollisionEnergy(reducedMassAmu, speed float64) float64 {
	joules := 0.5 * reducedMassAmu * AtomicMassUnit * speed * speed
	return joules * Avogadro / 1000
}

// ApproachAngle returns the angle in degrees, in [0, 180], between a
// molecule's principal axis and the direction towards its partner.
// Degenerate vectors give 0.
func ApproachAngle(principal, toward mgl64.Vec3) float64 {
	lp, lt := principal.Len(), toward.Len()
	if lp < 1e-12 || lt < 1e-12 {
		return 0
	}
	cos := mgl64.Clamp(principal.Dot(toward)/(lp*lt), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// RMSSpeed is the Maxwell–Boltzmann root-mean-square speed sqrt(3kT/m) in
// m/s. Non-positive temperature or mass gives 0.
func RMSSpeed(temperature, massAmu float64) float64 {
	if temperature <= 0 || massAmu <= 0 {
		return 0
	}
	return math.Sqrt(3 * Boltzmann * temperature / (massAmu * AtomicMassUnit))
}

// VisualSpeed maps a temperature to a display speed: ref at RoomTemperature,
// scaled by the ratio of RMS speeds elsewhere. It grows monotonically with
// temperature.
func VisualSpeed(temperature, massAmu, ref float64) float64 {
	room := RMSSpeed(RoomTemperature, massAmu)
	if room == 0 {
		return 0
	}
	return ref * (RMSSpeed(temperature, massAmu) / room)
}

// SampleVelocity draws a velocity whose components are Maxwell–Boltzmann
// distributed at the given temperature, expressed in display units so that
// the RMS speed equals VisualSpeed.
func SampleVelocity(rng *rand.Rand, temperature, massAmu, ref float64) mgl64.Vec3 {
	sigma := VisualSpeed(temperature, massAmu, ref) / math.Sqrt(3)
	return mgl64.Vec3{rng.NormFloat64() * sigma, rng.NormFloat64() * sigma, rng.NormFloat64() * sigma}
}

// Kinematics derives collision parameters from simulation state.
type Kinematics struct {
	// VelocityScale converts simulation speed to m/s.
	VelocityScale float64
}

// Approach holds the physical parameters of a pair at contact.
type Approach struct {
	RelativeVelocity mgl64.Vec3 // m/s, vA - vB
	ReducedMass      float64    // amu
	Energy           float64    // kJ/mol
	AngleA           float64    // deg
	AngleB           float64    // deg
	Impact           mgl64.Vec3
}

// Approach computes relative velocity, reduced mass, collision energy,
// approach angles and impact point for a touching pair. Angles are measured
// at each molecule's reactive center towards the partner's reactive center.
func (k Kinematics) Approach(a, b *chem.Molecule) Approach {
	rel := a.Velocity.Sub(b.Velocity).Mul(k.VelocityScale)
	mu := ReducedMass(a.Mass(), b.Mass())

	ca, cb := a.ReactiveCenter(), b.ReactiveCenter()
	ab := cb.Sub(ca)

	ra, rb := a.Radius(), b.Radius()
	impact := a.Position().Add(b.Position()).Mul(0.5)
	if d := b.Position().Sub(a.Position()); ra+rb > 0 && d.Len() > 1e-12 {
		impact = a.Position().Add(d.Mul(ra / (ra + rb)))
	}

	return Approach{
		RelativeVelocity: rel,
		ReducedMass:      mu,
		Energy:           CollisionEnergy(mu, rel.Len()),
		AngleA:           ApproachAngle(a.PrincipalAxis(), ab),
		AngleB:           ApproachAngle(b.PrincipalAxis(), ab.Mul(-1)),
		Impact:           impact,
	}
}
