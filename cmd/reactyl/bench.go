package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomz197/reactyl/internal/loop"
	"github.com/tomz197/reactyl/internal/loop/server"
)

// benchReport is the JSON printed by the bench command.
type benchReport struct {
	Ticks        uint64        `json:"ticks"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	TicksPerSec  float64       `json:"ticks_per_second"`
	Temperature  float64       `json:"temperature"`
	Reaction     string        `json:"reaction"`
	Stats        loop.Stats    `json:"stats"`
	Molecules    []string      `json:"molecules"`
}

func newBenchCommand(a *app) *cobra.Command {
	var (
		ticks int
		dt    float64
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the simulation headless and print statistics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.logger(io.Discard)
			if err != nil {
				return err
			}
			world, err := server.NewWorld(a.cfg.Simulation, logger)
			if err != nil {
				return err
			}
			defer world.Orchestrator.Close()

			start := time.Now()
			var snap *loop.Snapshot
			for range ticks {
				snap = world.Orchestrator.Tick(dt)
			}
			if snap == nil {
				snap = world.Orchestrator.Snapshot()
			}
			elapsed := time.Since(start)

			report := benchReport{
				Ticks:       snap.Tick,
				Elapsed:     elapsed,
				Temperature: snap.Temperature,
				Reaction:    snap.Reaction,
				Stats:       snap.Stats,
			}
			if elapsed > 0 {
				report.TicksPerSec = float64(snap.Tick) / elapsed.Seconds()
			}
			for _, m := range snap.Molecules {
				report.Molecules = append(report.Molecules, m.Name)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 600, "ticks to run")
	cmd.Flags().Float64Var(&dt, "dt", 1.0/60, "simulated seconds per tick")
	return cmd
}
