package loop

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
)

// AtomView is an atom in world space.
type AtomView struct {
	Element  string
	Position mgl64.Vec3
	Radius   float64
}

// MoleculeView is an immutable copy of one molecule for renderers.
type MoleculeView struct {
	ID        uuid.UUID
	Name      string
	Formula   string
	Position  mgl64.Vec3
	Velocity  mgl64.Vec3
	Radius    float64
	Atoms     []AtomView
	Bonds     []chem.Bond
	Highlight float64 // fading reaction highlight, 0..1
	Product   bool    // recently produced by a reaction
}

// Stats are the live counters of one simulation.
type Stats struct {
	Tick          uint64
	Phase         Phase
	Molecules     int
	GridCells     int
	MeanOccupancy float64
	PairChecks    int
	Collisions    int

	ReactionsAttempted int
	ReactionsSucceeded int
	ReactionsFailed    int

	HullHits            int
	HullRebuilds        int
	TransformRecomputes int
	NarrowSkips         int
	PendingTasks        int

	KineticEnergy float64 // amu·Å²/s²
}

// Snapshot is an immutable view of the simulation after a tick. Nothing in
// it aliases live simulation state.
type Snapshot struct {
	Tick        uint64
	Paused      bool
	Temperature float64
	Reaction    string
	Molecules   []MoleculeView
	Stats       Stats
	// Events are the most recent events, oldest first.
	Events []event.Event
}

// Molecule returns the view with the given name.
func (s *Snapshot) Molecule(name string) (MoleculeView, bool) {
	for _, m := range s.Molecules {
		if m.Name == name {
			return m, true
		}
	}
	return MoleculeView{}, false
}

func viewOf(m *chem.Molecule, highlight float64, product bool) MoleculeView {
	atoms := make([]AtomView, m.AtomCount())
	for i, a := range m.Atoms() {
		atoms[i] = AtomView{Element: a.Element, Position: m.ToWorld(a.Position), Radius: a.Radius()}
	}
	return MoleculeView{
		ID:        m.ID,
		Name:      m.Name,
		Formula:   m.Formula(),
		Position:  m.Position(),
		Velocity:  m.Velocity,
		Radius:    m.Radius(),
		Atoms:     atoms,
		Bonds:     append([]chem.Bond(nil), m.Bonds()...),
		Highlight: highlight,
		Product:   product,
	}
}
