// Package logging builds the structured loggers handed to every component.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/reactyl/internal/config"
)

// New builds a logger writing to w at the configured level and format.
func New(cfg config.Log, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	var formatter log.Formatter
	switch cfg.Format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "reactyl",
	}), nil
}

// Discard returns a logger that drops everything, for tests and headless
// runs.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
