// Package loop sequences one simulation tick: physics step, collision check,
// reaction processing and visual sync, with a pause gate between stages.
package loop

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tomz197/reactyl/internal/chem"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/physics"
	"github.com/tomz197/reactyl/internal/reaction"
	"github.com/tomz197/reactyl/internal/structure"
)

var (
	ErrMissingDependency  = errors.New("missing dependency")
	ErrInvalidTemperature = errors.New("temperature must be positive")
	ErrNoSpawner          = errors.New("orchestrator has no spawner")
)

// Phase is the orchestrator state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePhysicsStep
	PhaseCollisionCheck
	PhaseReactionProcessing
	PhaseVisualSync
	PhasePaused
)

var phaseNames = [...]string{
	PhaseIdle:               "idle",
	PhasePhysicsStep:        "physics-step",
	PhaseCollisionCheck:     "collision-check",
	PhaseReactionProcessing: "reaction-processing",
	PhaseVisualSync:         "visual-sync",
	PhasePaused:             "paused",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// PhysicsEngine moves molecules and resolves non-reacting contacts.
type PhysicsEngine interface {
	Step(molecules []*chem.Molecule, dt float64)
	Bounce(a, b *chem.Molecule) bool
}

// EnthalpyTable reports reaction enthalpies for Hill formulas.
type EnthalpyTable interface {
	ReactionEnthalpy(reactants, products []string) (float64, bool)
}

// Deps are the collaborators of an Orchestrator. Enthalpy, Spawner and
// Logger are optional.
type Deps struct {
	Registry  *chem.Registry
	Engine    PhysicsEngine
	Grid      *physics.SpatialGrid
	Hulls     *physics.HullCache
	Collider  *physics.Detector
	Catalog   *reaction.Catalog
	Reactions *reaction.Detector
	Applier   reaction.Applier
	Bus       *event.Bus
	Enthalpy  EnthalpyTable
	Spawner   *Spawner
	Logger    *log.Logger
}

// Options are the environment parameters of a simulation.
type Options struct {
	Temperature      float64 // K
	Reaction         string  // reaction type id
	HighlightSeconds float64
	RevertTicks      uint64 // ticks a product stays marked
	RecentEvents     int    // events kept for snapshots
}

type contact struct {
	a, b  *chem.Molecule
	event event.Collision
}

type decided struct {
	contact
	substrate   *chem.Molecule
	nucleophile *chem.Molecule
	probability float64
}

type stage struct {
	phase Phase
	run   func(dt float64)
}

// Orchestrator owns one simulation and advances it tick by tick. It is not
// safe for concurrent use; the host calls Tick from a single goroutine.
type Orchestrator struct {
	deps        Deps
	opts        Options
	reaction    reaction.Type
	temperature float64

	stages         []stage
	phase          Phase
	pauseRequested bool
	tick           uint64

	scheduler *Scheduler
	effects   *Effects
	products  map[uuid.UUID]Token

	contacts []contact
	pending  []decided
	bounces  []contact
	recent   []event.Event

	attempted, succeeded, failed int
	retiredRecomputes            int

	observers   []func(Phase)
	unsubscribe func()
	snapshot    *Snapshot
}

// New wires an orchestrator. The reaction type is looked up immediately so
// a bad id fails here rather than mid-simulation.
func New(d Deps, o Options) (*Orchestrator, error) {
	switch {
	case d.Registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	case d.Engine == nil:
		return nil, fmt.Errorf("%w: physics engine", ErrMissingDependency)
	case d.Grid == nil:
		return nil, fmt.Errorf("%w: grid", ErrMissingDependency)
	case d.Hulls == nil:
		return nil, fmt.Errorf("%w: hull cache", ErrMissingDependency)
	case d.Collider == nil:
		return nil, fmt.Errorf("%w: collision detector", ErrMissingDependency)
	case d.Catalog == nil:
		return nil, fmt.Errorf("%w: reaction catalog", ErrMissingDependency)
	case d.Reactions == nil:
		return nil, fmt.Errorf("%w: reaction detector", ErrMissingDependency)
	case d.Bus == nil:
		return nil, fmt.Errorf("%w: event bus", ErrMissingDependency)
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	if o.Temperature <= 0 {
		return nil, fmt.Errorf("%w: %v K", ErrInvalidTemperature, o.Temperature)
	}
	t, err := d.Catalog.Lookup(o.Reaction)
	if err != nil {
		return nil, err
	}
	if o.RecentEvents <= 0 {
		o.RecentEvents = 8
	}

	orc := &Orchestrator{
		deps:        d,
		opts:        o,
		reaction:    t,
		temperature: o.Temperature,
		scheduler:   NewScheduler(),
		effects:     NewEffects(o.HighlightSeconds),
		products:    make(map[uuid.UUID]Token),
	}
	orc.stages = []stage{
		{PhasePhysicsStep, orc.physicsStep},
		{PhaseCollisionCheck, orc.collisionCheck},
		{PhaseReactionProcessing, orc.processReactions},
		{PhaseVisualSync, orc.visualSync},
	}
	d.Registry.OnRemove(orc.forget)
	orc.unsubscribe = d.Bus.SubscribeAll(orc.record)
	d.Grid.RebuildAll(d.Registry.Molecules())
	orc.snapshot = orc.capture()
	return orc, nil
}

// Tick runs one tick and returns the resulting snapshot. A pause request is
// honoured at the next stage boundary; the stage in progress, including
// any mutation, always completes. While paused, Tick only re-captures the
// current state.
func (o *Orchestrator) Tick(dt float64) *Snapshot {
	if o.phase == PhasePaused {
		o.snapshot = o.capture()
		return o.snapshot
	}
	for _, st := range o.stages {
		if o.pauseRequested {
			o.enterPause()
			return o.snapshot
		}
		o.enter(st.phase)
		st.run(dt)
	}
	o.enter(PhaseIdle)
	return o.snapshot
}

// Pause requests the Paused state. It takes effect at the next stage
// boundary and may be called from event handlers and phase observers.
func (o *Orchestrator) Pause() {
	if o.phase != PhasePaused {
		o.pauseRequested = true
	}
}

// Resume leaves the Paused state or withdraws a pending pause request.
func (o *Orchestrator) Resume() {
	o.pauseRequested = false
	if o.phase == PhasePaused {
		o.enter(PhaseIdle)
		o.deps.Logger.Info("resumed", "tick", o.tick)
	}
}

func (o *Orchestrator) Paused() bool { return o.phase == PhasePaused }

// Pausing reports whether the simulation is paused or will pause at the
// next stage boundary.
func (o *Orchestrator) Pausing() bool { return o.pauseRequested || o.phase == PhasePaused }

func (o *Orchestrator) Phase() Phase { return o.phase }

// TickCount is the number of ticks that reached the physics step.
func (o *Orchestrator) TickCount() uint64 { return o.tick }

// OnPhase registers an observer called on every phase transition.
func (o *Orchestrator) OnPhase(fn func(Phase)) {
	o.observers = append(o.observers, fn)
}

func (o *Orchestrator) Temperature() float64 { return o.temperature }

// SetTemperature changes the environment temperature and rescales every
// molecule's speed to match it.
func (o *Orchestrator) SetTemperature(t float64) error {
	if t <= 0 {
		return fmt.Errorf("%w: %v K", ErrInvalidTemperature, t)
	}
	Rethermalize(o.deps.Registry, o.temperature, t)
	o.temperature = t
	return nil
}

func (o *Orchestrator) Reaction() reaction.Type { return o.reaction }

// SetReactionType selects the reaction evaluated for collisions.
func (o *Orchestrator) SetReactionType(id string) error {
	t, err := o.deps.Catalog.Lookup(id)
	if err != nil {
		return err
	}
	o.reaction = t
	return nil
}

func (o *Orchestrator) Registry() *chem.Registry { return o.deps.Registry }

func (o *Orchestrator) Scheduler() *Scheduler { return o.scheduler }

func (o *Orchestrator) Effects() *Effects { return o.effects }

// Snapshot returns the snapshot of the last VisualSync or paused tick.
func (o *Orchestrator) Snapshot() *Snapshot { return o.snapshot }

// Spawn adds a molecule built from s at a free position.
func (o *Orchestrator) Spawn(s structure.Structure) (*chem.Molecule, error) {
	if o.deps.Spawner == nil {
		return nil, ErrNoSpawner
	}
	m, err := o.deps.Spawner.Spawn(o.deps.Registry, s, o.temperature)
	if err != nil {
		return nil, err
	}
	o.deps.Grid.Insert(m)
	o.deps.Logger.Debug("spawned", "molecule", m.Name, "formula", m.Formula())
	return m, nil
}

// Populate spawns n molecules, cycling through the structures.
func (o *Orchestrator) Populate(structures []structure.Structure, n int) error {
	if len(structures) == 0 {
		return nil
	}
	for i := 0; i < n; i++ {
		if _, err := o.Spawn(structures[i%len(structures)]); err != nil {
			return err
		}
	}
	return nil
}

// Reset empties the world: pending tasks are cancelled, effects dropped,
// every molecule removed and any pause lifted. Counters and bus
// subscriptions survive.
func (o *Orchestrator) Reset() {
	o.scheduler.CancelAll()
	o.effects.Clear()
	o.deps.Registry.Clear()
	o.deps.Grid.Clear()
	clear(o.products)
	o.recent = o.recent[:0]
	o.pauseRequested = false
	o.enter(PhaseIdle)
	o.snapshot = o.capture()
}

// Close resets the simulation and detaches it from the event bus.
func (o *Orchestrator) Close() {
	o.Reset()
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
}

func (o *Orchestrator) enter(p Phase) {
	o.phase = p
	for _, fn := range o.observers {
		fn(p)
	}
}

func (o *Orchestrator) enterPause() {
	o.pauseRequested = false
	// Nothing decided this tick has touched a molecule yet.
	o.contacts = o.contacts[:0]
	o.pending = o.pending[:0]
	o.bounces = o.bounces[:0]
	o.enter(PhasePaused)
	o.snapshot = o.capture()
	o.deps.Logger.Info("paused", "tick", o.tick)
}

func (o *Orchestrator) physicsStep(dt float64) {
	o.tick++
	o.deps.Collider.SetTick(o.tick)
	molecules := o.deps.Registry.Molecules()
	o.deps.Engine.Step(molecules, dt)
	for _, m := range molecules {
		o.deps.Grid.Update(m)
	}
}

// collisionCheck finds the colliding pairs and decides each pair's reaction
// from the state at the start of the stage. Nothing is mutated here, so the
// decisions do not depend on evaluation order. A molecule joins at most one
// reaction per tick; later pairs claiming it bounce instead.
func (o *Orchestrator) collisionCheck(float64) {
	o.contacts = o.contacts[:0]
	o.deps.Grid.Pairs(func(a, b *chem.Molecule) bool {
		if !physics.Approaching(a, b) {
			return true
		}
		if c, ok := o.deps.Collider.Check(a, b); ok {
			o.deps.Grid.RecordCollision()
			o.contacts = append(o.contacts, contact{a: a, b: b, event: c})
		}
		return true
	})

	claimed := make(map[uuid.UUID]struct{})
	for _, ct := range o.contacts {
		sub, nuc := reaction.Roles(o.reaction, ct.a, ct.b)
		r := o.deps.Reactions.Detect(ct.event, o.reaction, o.temperature, sub, nuc)
		o.attempted++

		_, busyS := claimed[sub.ID]
		_, busyN := claimed[nuc.ID]
		if r.Occurs && !busyS && !busyN {
			claimed[sub.ID] = struct{}{}
			claimed[nuc.ID] = struct{}{}
			o.pending = append(o.pending, decided{contact: ct, substrate: sub, nucleophile: nuc, probability: r.Probability})
			continue
		}
		o.deps.Logger.Debug("no reaction",
			"a", ct.a.Name, "b", ct.b.Name, "energy", ct.event.Energy, "p", r.Probability)
		o.bounces = append(o.bounces, ct)
	}
}

func (o *Orchestrator) processReactions(float64) {
	for _, d := range o.pending {
		o.react(d)
	}
	for _, ct := range o.bounces {
		if o.present(ct.a) && o.present(ct.b) {
			o.deps.Engine.Bounce(ct.a, ct.b)
		}
	}
	o.pending = o.pending[:0]
	o.bounces = o.bounces[:0]
}

func (o *Orchestrator) react(d decided) {
	t := o.reaction
	sub, nuc := d.substrate, d.nucleophile
	o.deps.Bus.Publish(event.ReactionStarted{
		Tick:            o.tick,
		Reaction:        t.ID,
		Substrate:       sub.ID,
		SubstrateName:   sub.Name,
		Nucleophile:     nuc.ID,
		NucleophileName: nuc.Name,
		Probability:     d.probability,
	})

	out, err := o.deps.Applier.Apply(o.deps.Registry, t, sub, nuc)
	if err != nil {
		o.failed++
		o.deps.Logger.Error("reaction failed",
			"reaction", t.ID, "substrate", sub.Name, "nucleophile", nuc.Name, "err", err)
		o.deps.Bus.Publish(event.ErrorOccurred{
			Tick:     o.tick,
			Stage:    PhaseReactionProcessing.String(),
			Molecule: sub.ID,
			Err:      err,
		})
		o.deps.Engine.Bounce(sub, nuc)
		return
	}
	o.succeeded++

	touched := append([]*chem.Molecule{out.Product}, out.Released...)
	if out.Partner != nil {
		touched = append(touched, out.Partner)
	}
	for _, m := range touched {
		o.deps.Grid.Update(m)
		o.mark(m)
	}

	done := event.ReactionCompleted{
		Tick:        o.tick,
		Reaction:    t.ID,
		Product:     out.Product.ID,
		ProductName: out.Product.Name,
		Formula:     out.Product.Formula(),
	}
	for _, m := range out.Consumed {
		done.Consumed = append(done.Consumed, m.Name)
	}
	for _, m := range out.Released {
		done.Released = append(done.Released, m.Name)
	}
	if o.deps.Enthalpy != nil {
		done.Enthalpy, done.EnthalpyKnown = o.deps.Enthalpy.ReactionEnthalpy(out.ReactantFormulas, out.ProductFormulas)
	}
	o.deps.Logger.Info("reaction",
		"reaction", t.ID, "product", done.ProductName, "formula", done.Formula, "released", done.Released)
	o.deps.Bus.Publish(done)
}

// mark highlights a reaction product and schedules the end of its product
// marking, restarting both if it reacts again.
func (o *Orchestrator) mark(m *chem.Molecule) {
	o.effects.Highlight(m.ID)
	if tok, ok := o.products[m.ID]; ok {
		o.scheduler.Cancel(tok)
	}
	id := m.ID
	o.products[id] = o.scheduler.After(o.tick, o.opts.RevertTicks, id, func() {
		delete(o.products, id)
	})
}

func (o *Orchestrator) visualSync(dt float64) {
	o.scheduler.RunDue(o.tick)
	o.effects.Update(dt)
	o.snapshot = o.capture()
}

func (o *Orchestrator) present(m *chem.Molecule) bool {
	_, ok := o.deps.Registry.GetByID(m.ID)
	return ok
}

// forget releases everything tied to a removed molecule.
func (o *Orchestrator) forget(m *chem.Molecule) {
	o.deps.Grid.Remove(m)
	o.deps.Hulls.Forget(m.ID)
	o.scheduler.CancelOwner(m.ID)
	o.effects.Drop(m.ID)
	delete(o.products, m.ID)
	o.retiredRecomputes += m.WorldRecomputes()
}

func (o *Orchestrator) record(e event.Event) {
	o.recent = append(o.recent, e)
	if n := len(o.recent) - o.opts.RecentEvents; n > 0 {
		o.recent = slices.Delete(o.recent, 0, n)
	}
}

// Stats returns the live counters.
func (o *Orchestrator) Stats() Stats {
	gs := o.deps.Grid.Stats()
	hs := o.deps.Hulls.Stats()
	ds := o.deps.Collider.Stats()
	molecules := o.deps.Registry.Molecules()

	recomputes := o.retiredRecomputes
	for _, m := range molecules {
		recomputes += m.WorldRecomputes()
	}
	return Stats{
		Tick:                o.tick,
		Phase:               o.phase,
		Molecules:           len(molecules),
		GridCells:           gs.Cells,
		MeanOccupancy:       gs.MeanOccupancy,
		PairChecks:          gs.PairChecks,
		Collisions:          gs.Collisions,
		ReactionsAttempted:  o.attempted,
		ReactionsSucceeded:  o.succeeded,
		ReactionsFailed:     o.failed,
		HullHits:            hs.Hits,
		HullRebuilds:        hs.Rebuilds,
		TransformRecomputes: recomputes,
		NarrowSkips:         ds.NarrowSkips,
		PendingTasks:        o.scheduler.Pending(),
		KineticEnergy:       physics.KineticEnergy(molecules),
	}
}

func (o *Orchestrator) capture() *Snapshot {
	s := &Snapshot{
		Tick:        o.tick,
		Paused:      o.phase == PhasePaused,
		Temperature: o.temperature,
		Reaction:    o.reaction.ID,
		Stats:       o.Stats(),
		Events:      slices.Clone(o.recent),
	}
	o.deps.Registry.Each(func(m *chem.Molecule) bool {
		_, product := o.products[m.ID]
		s.Molecules = append(s.Molecules, viewOf(m, o.effects.Intensity(m.ID), product))
		return true
	})
	return s
}
