package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tomz197/reactyl/internal/loop/client"
	"github.com/tomz197/reactyl/internal/loop/server"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the simulation in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.logger(io.Discard)
			if err != nil {
				return err
			}
			world, err := server.NewWorld(a.cfg.Simulation, logger)
			if err != nil {
				return err
			}
			srv := server.NewServer(world, logger)
			defer srv.Close()

			fd := int(os.Stdin.Fd())
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("failed to enable raw mode: %w", err)
			}
			defer func() {
				_ = term.Restore(fd, oldState)
			}()

			ctx, cancel := context.WithCancel(cmd.Context())
			done := make(chan struct{})
			go func() {
				srv.Run(ctx, time.Second/time.Duration(a.cfg.Simulation.TickRate))
				close(done)
			}()
			defer func() {
				cancel()
				<-done
			}()

			c := client.NewClient(srv, bufio.NewReader(os.Stdin), os.Stdout, client.ClientOptions{
				Username:  os.Getenv("USER"),
				HalfSize:  world.HalfSize,
				Reactions: world.Catalog.IDs(),
			})
			return c.Run()
		},
	}
}
