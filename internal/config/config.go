// Package config loads runtime configuration from defaults, an optional
// YAML file and REACTYL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	loopcfg "github.com/tomz197/reactyl/internal/loop/config"
	"github.com/tomz197/reactyl/internal/reaction"
	"github.com/tomz197/reactyl/internal/structure"
)

// envPrefix maps nested keys such as simulation.temperature to
// REACTYL_SIMULATION_TEMPERATURE.
const envPrefix = "REACTYL"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
	SSH        SSH        `mapstructure:"ssh"`
	HTTP       HTTP       `mapstructure:"http"`
	Log        Log        `mapstructure:"log"`
}

type Simulation struct {
	Temperature float64  `mapstructure:"temperature"` // K
	Reaction    string   `mapstructure:"reaction"`
	Molecules   int      `mapstructure:"molecules"`
	Templates   []string `mapstructure:"templates"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed     uint64  `mapstructure:"seed"`
	TickRate int     `mapstructure:"tick_rate"` // ticks per second
	HalfSize float64 `mapstructure:"half_size"` // Å
	CellSize float64 `mapstructure:"cell_size"` // Å
	// Thermo is a JSON enthalpy table; empty uses the embedded one.
	Thermo string `mapstructure:"thermo"`
}

type SSH struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	HostKeyPath string `mapstructure:"host_key_path"`
}

type HTTP struct {
	// Addr serves the landing page and /metrics; empty disables it.
	Addr string `mapstructure:"addr"`
	// DisplayHost is the SSH host advertised on the landing page.
	DisplayHost string `mapstructure:"display_host"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json or logfmt
	// File receives logs when set; the interactive terminal otherwise
	// discards them and servers write to stderr.
	File string `mapstructure:"file"`
}

// DefaultTemplates is the mix spawned when none is configured.
var DefaultTemplates = []string{"chloromethane", "hydroxide", "bromoethane", "water", "iodomethane", "ammonia"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("simulation.temperature", loopcfg.DefaultTemperature)
	v.SetDefault("simulation.reaction", loopcfg.DefaultReaction)
	v.SetDefault("simulation.molecules", loopcfg.InitialMolecules)
	v.SetDefault("simulation.templates", DefaultTemplates)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.tick_rate", loopcfg.ServerTickRate)
	v.SetDefault("simulation.half_size", loopcfg.WorldHalfSize)
	v.SetDefault("simulation.cell_size", loopcfg.GridCellSize)
	v.SetDefault("simulation.thermo", "")

	v.SetDefault("ssh.host", "::")
	v.SetDefault("ssh.port", "2222")
	v.SetDefault("ssh.host_key_path", ".ssh/reactyl_host_key")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.display_host", "localhost")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// New returns a viper instance with defaults and environment binding, for
// callers that bind command-line flags before loading.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads the YAML file at path, if any, over the defaults and
// environment, then validates the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = New()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(reaction.DefaultCatalog()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and that the reaction and templates exist.
func (c *Config) Validate(catalog *reaction.Catalog) error {
	s := c.Simulation
	var errs []error
	if s.Temperature < loopcfg.MinTemperature || s.Temperature > loopcfg.MaxTemperature {
		errs = append(errs, fmt.Errorf("simulation.temperature %v outside [%v, %v]",
			s.Temperature, loopcfg.MinTemperature, loopcfg.MaxTemperature))
	}
	if _, err := catalog.Lookup(s.Reaction); err != nil {
		errs = append(errs, fmt.Errorf("simulation.reaction: %w", err))
	}
	if s.Molecules < 0 {
		errs = append(errs, fmt.Errorf("simulation.molecules must not be negative"))
	}
	if s.Molecules > 0 && len(s.Templates) == 0 {
		errs = append(errs, fmt.Errorf("simulation.templates: empty"))
	}
	for _, name := range s.Templates {
		if _, err := structure.Template(name); err != nil {
			errs = append(errs, fmt.Errorf("simulation.templates: %w", err))
		}
	}
	if s.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.tick_rate must be positive"))
	}
	if s.HalfSize <= 0 || s.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("simulation.half_size and cell_size must be positive"))
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		errs = append(errs, fmt.Errorf("log.format %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
