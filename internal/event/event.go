// Package event defines the events the simulation publishes and the bus that
// carries them to subscribers.
package event

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind names an event channel on the bus.
type Kind string

const (
	KindCollisionDetected Kind = "collision-detected"
	KindReactionStarted   Kind = "reaction-started"
	KindReactionCompleted Kind = "reaction-completed"
	KindErrorOccurred     Kind = "error-occurred"
)

// Kinds lists every event kind in publication order of a successful tick.
var Kinds = []Kind{KindCollisionDetected, KindReactionStarted, KindReactionCompleted, KindErrorOccurred}

// Event is one of Collision, ReactionStarted, ReactionCompleted or
// ErrorOccurred. The set is closed; dispatch with Match.
type Event interface {
	Kind() Kind
	sealed()
}

// Collision describes one confirmed geometric collision.
type Collision struct {
	Tick  uint64
	A, B  uuid.UUID
	NameA string
	NameB string

	// RelativeVelocity is vA - vB in m/s.
	RelativeVelocity mgl64.Vec3
	// Energy is the collision kinetic energy in kJ/mol.
	Energy float64
	// AngleA and AngleB are the approach angles in degrees, measured between
	// each molecule's principal axis and the direction towards the other.
	AngleA float64
	AngleB float64

	Impact       mgl64.Vec3
	OrientationA mgl64.Quat
	OrientationB mgl64.Quat
}

// Swap returns the same collision seen from B.
func (c Collision) Swap() Collision {
	c.A, c.B = c.B, c.A
	c.NameA, c.NameB = c.NameB, c.NameA
	c.RelativeVelocity = c.RelativeVelocity.Mul(-1)
	c.AngleA, c.AngleB = c.AngleB, c.AngleA
	c.OrientationA, c.OrientationB = c.OrientationB, c.OrientationA
	return c
}

// ReactionStarted is published once a reaction was decided and before the
// participants are rewritten.
type ReactionStarted struct {
	Tick            uint64
	Reaction        string
	Substrate       uuid.UUID
	SubstrateName   string
	Nucleophile     uuid.UUID
	NucleophileName string
	Probability     float64
}

// ReactionCompleted is published after the product has been written.
type ReactionCompleted struct {
	Tick          uint64
	Reaction      string
	Product       uuid.UUID
	ProductName   string
	Formula       string
	Consumed      []string
	Released      []string
	Enthalpy      float64 // kJ/mol, valid when EnthalpyKnown
	EnthalpyKnown bool
}

// ErrorOccurred reports a failed stage. The simulation keeps running.
type ErrorOccurred struct {
	Tick     uint64
	Stage    string
	Molecule uuid.UUID
	Err      error
}

func (Collision) Kind() Kind         { return KindCollisionDetected }
func (ReactionStarted) Kind() Kind   { return KindReactionStarted }
func (ReactionCompleted) Kind() Kind { return KindReactionCompleted }
func (ErrorOccurred) Kind() Kind     { return KindErrorOccurred }

func (Collision) sealed()         {}
func (ReactionStarted) sealed()   {}
func (ReactionCompleted) sealed() {}
func (ErrorOccurred) sealed()     {}

// Cases holds one handler per variant. Nil handlers ignore their variant.
type Cases struct {
	Collision         func(Collision)
	ReactionStarted   func(ReactionStarted)
	ReactionCompleted func(ReactionCompleted)
	ErrorOccurred     func(ErrorOccurred)
}

// Match dispatches e to the handler of its variant.
func Match(e Event, c Cases) {
	switch v := e.(type) {
	case Collision:
		if c.Collision != nil {
			c.Collision(v)
		}
	case ReactionStarted:
		if c.ReactionStarted != nil {
			c.ReactionStarted(v)
		}
	case ReactionCompleted:
		if c.ReactionCompleted != nil {
			c.ReactionCompleted(v)
		}
	case ErrorOccurred:
		if c.ErrorOccurred != nil {
			c.ErrorOccurred(v)
		}
	default:
		panic(fmt.Sprintf("event: unknown variant %T", e))
	}
}

// Summary renders a one-line description for logs and the HUD.
func Summary(e Event) string {
	var s string
	Match(e, Cases{
		Collision: func(c Collision) {
			s = fmt.Sprintf("collision %s + %s (%.1f kJ/mol)", c.NameA, c.NameB, c.Energy)
		},
		ReactionStarted: func(r ReactionStarted) {
			s = fmt.Sprintf("%s: %s + %s (p=%.2f)", r.Reaction, r.SubstrateName, r.NucleophileName, r.Probability)
		},
		ReactionCompleted: func(r ReactionCompleted) {
			s = fmt.Sprintf("%s -> %s", r.Reaction, r.Formula)
			if r.EnthalpyKnown {
				s += fmt.Sprintf(" (ΔH %.1f kJ/mol)", r.Enthalpy)
			}
		},
		ErrorOccurred: func(r ErrorOccurred) {
			s = fmt.Sprintf("error in %s: %v", r.Stage, r.Err)
		},
	})
	return s
}
