package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tomz197/reactyl/internal/config"
	"github.com/tomz197/reactyl/internal/logging"
)

// app carries the loaded configuration to subcommands.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logFile    *os.File
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "reactyl",
		Short: "Collision-driven chemistry in a terminal",
		Long: "reactyl simulates molecules moving in a closed box. Colliding pairs react\n" +
			"when the collision energy and orientation allow it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != nil {
				a.logFile.Close()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.Float64("temperature", 0, "initial temperature in K")
	pf.String("reaction", "", "reaction type id (sn2, sn1, e2)")
	pf.Int("molecules", 0, "initial molecule count")
	pf.StringSlice("templates", nil, "molecule templates to spawn")
	pf.Uint64("seed", 0, "random seed; 0 seeds from the clock")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json, logfmt)")
	pf.String("log-file", "", "write logs to this file")
	for key, flag := range map[string]string{
		"simulation.temperature": "temperature",
		"simulation.reaction":    "reaction",
		"simulation.molecules":   "molecules",
		"simulation.templates":   "templates",
		"simulation.seed":        "seed",
		"log.level":              "log-level",
		"log.format":             "log-format",
		"log.file":               "log-file",
	} {
		// Unset flags fall through to the file, environment and defaults.
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(newRunCommand(a), newServeCommand(a), newBenchCommand(a))
	return cmd
}

// logger builds the logger for a command. fallback receives logs when no
// log file is configured.
func (a *app) logger(fallback io.Writer) (*log.Logger, error) {
	w := fallback
	if a.cfg.Log.File != "" {
		f, err := os.OpenFile(a.cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		w = f
	}
	return logging.New(a.cfg.Log, w)
}
