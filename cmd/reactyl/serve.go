package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tomz197/reactyl/internal/loop/server"
	"github.com/tomz197/reactyl/internal/metrics"
)

const (
	clientShutdownTimeout = 15 * time.Second
	serverShutdownTimeout = 5 * time.Second
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shared simulation over SSH, with a landing page and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.logger(os.Stderr)
			if err != nil {
				return err
			}
			world, err := server.NewWorld(a.cfg.Simulation, logger)
			if err != nil {
				return err
			}
			srv := server.NewServer(world, logger)
			defer srv.Close()

			m := metrics.New(srv)
			defer m.Observe(world.Bus)()

			sshServer, err := newSSHServer(a.cfg.SSH, srv, logger)
			if err != nil {
				return err
			}
			var httpServer *http.Server
			if a.cfg.HTTP.Addr != "" {
				httpServer = &http.Server{
					Addr:              a.cfg.HTTP.Addr,
					Handler:           newWebHandler(srv, m, a.cfg.HTTP, a.cfg.SSH, logger),
					ReadHeaderTimeout: 5 * time.Second,
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			tickCtx, stopTicks := context.WithCancel(context.Background())
			defer stopTicks()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				srv.Run(tickCtx, time.Second/time.Duration(a.cfg.Simulation.TickRate))
				return nil
			})
			g.Go(func() error {
				logger.Info("ssh listening", "addr", sshServer.Addr)
				if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
					return err
				}
				return nil
			})
			if httpServer != nil {
				g.Go(func() error {
					logger.Info("http listening", "addr", httpServer.Addr)
					if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
			}
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down", "clients", srv.ClientCount())

				// Notify clients and wait for them to disconnect while the
				// simulation keeps ticking.
				srv.Shutdown(clientShutdownTimeout)
				stopTicks()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
				defer cancel()
				var errs []error
				if err := sshServer.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, err)
				}
				if httpServer != nil {
					if err := httpServer.Shutdown(shutdownCtx); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			})
			return g.Wait()
		},
	}
	return cmd
}
