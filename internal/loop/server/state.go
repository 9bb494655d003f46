package server

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/reactyl/internal/chem"
	appcfg "github.com/tomz197/reactyl/internal/config"
	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/loop/config"
	"github.com/tomz197/reactyl/internal/physics"
	"github.com/tomz197/reactyl/internal/reaction"
	"github.com/tomz197/reactyl/internal/structure"
	"github.com/tomz197/reactyl/internal/thermo"
)

// World is one wired simulation: the orchestrator plus the pieces the
// server drives directly.
type World struct {
	Orchestrator *loop.Orchestrator
	Bus          *event.Bus
	Catalog      *reaction.Catalog
	Templates    []structure.Structure
	HalfSize     float64

	initial int
}

// NewWorld builds a simulation from cfg and populates it. A zero seed
// draws one from the clock.
func NewWorld(cfg appcfg.Simulation, logger *log.Logger) (*World, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger = logger.With("seed", seed)

	table := thermo.Default()
	if cfg.Thermo != "" {
		f, err := os.Open(cfg.Thermo)
		if err != nil {
			return nil, fmt.Errorf("thermo table: %w", err)
		}
		table, err = thermo.Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("thermo table %q: %w", cfg.Thermo, err)
		}
	}

	templates := make([]structure.Structure, 0, len(cfg.Templates))
	for _, name := range cfg.Templates {
		s, err := structure.Template(name)
		if err != nil {
			return nil, err
		}
		templates = append(templates, s)
	}

	catalog := reaction.DefaultCatalog()
	bus := event.NewBus()
	hulls := physics.NewHullCache()
	chance := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	orc, err := loop.New(loop.Deps{
		Registry:  chem.NewRegistry(),
		Engine:    physics.Engine{HalfSize: cfg.HalfSize},
		Grid:      physics.NewSpatialGrid(cfg.CellSize),
		Hulls:     hulls,
		Collider:  physics.NewDetector(hulls, physics.Kinematics{VelocityScale: config.VelocityScale}, bus, logger, config.HullSanityFactor),
		Catalog:   catalog,
		Reactions: reaction.NewDetector(chance.Float64),
		Applier:   reaction.Applier{ReleaseSpeed: config.ReleaseSpeed, Name: table.Name},
		Bus:       bus,
		Enthalpy:  table,
		Spawner: loop.NewSpawner(rand.New(rand.NewPCG(seed, seed+1)), cfg.HalfSize,
			config.ReferenceSpeed, config.ReferenceMass, config.MaxSpin),
		Logger: logger,
	}, loop.Options{
		Temperature:      cfg.Temperature,
		Reaction:         cfg.Reaction,
		HighlightSeconds: config.HighlightSeconds,
		RevertTicks:      config.RevertTicks,
		RecentEvents:     config.RecentEvents,
	})
	if err != nil {
		return nil, err
	}

	w := &World{
		Orchestrator: orc,
		Bus:          bus,
		Catalog:      catalog,
		Templates:    templates,
		HalfSize:     cfg.HalfSize,
		initial:      cfg.Molecules,
	}
	if err := w.Populate(); err != nil {
		return nil, err
	}
	logger.Info("world ready", "molecules", orc.Registry().Len(), "reaction", cfg.Reaction, "temperature", cfg.Temperature)
	return w, nil
}

// Populate spawns the configured initial molecules.
func (w *World) Populate() error {
	return w.Orchestrator.Populate(w.Templates, w.initial)
}

// Template returns the configured template called name.
func (w *World) Template(name string) (structure.Structure, bool) {
	for _, s := range w.Templates {
		if s.Name == name {
			return s, true
		}
	}
	return structure.Structure{}, false
}
