// Package config provides unified configuration loading for jaggdy.
// It supports loading from YAML files, a .env file, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/jaggdy/internal/agenda"
	"github.com/nvandessel/jaggdy/internal/constants"
	"github.com/nvandessel/jaggdy/internal/markov"
	"github.com/nvandessel/jaggdy/internal/pathutil"
	"github.com/nvandessel/jaggdy/internal/simulation"
)

// JaggdyConfig contains all jaggdy configuration settings.
type JaggdyConfig struct {
	// Agenda bounds model enumeration.
	Agenda AgendaConfig `json:"agenda" yaml:"agenda"`

	// Chain bounds and tunes Markov chain analysis.
	Chain ChainConfig `json:"chain" yaml:"chain"`

	// Simulation controls seeded runs of the update rule.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// MCP configures the MCP server.
	MCP MCPConfig `json:"mcp" yaml:"mcp"`
}

// AgendaConfig bounds model enumeration.
type AgendaConfig struct {
	// MaxPropositions is the largest agenda enumerated (2^n interpretations).
	MaxPropositions int `json:"max_propositions" yaml:"max_propositions"`
}

// ChainConfig bounds and tunes Markov chain analysis.
type ChainConfig struct {
	// MaxStates is the largest state space (models^agents) that will be built.
	MaxStates int `json:"max_states" yaml:"max_states"`

	// Horizon is the matrix power used for the long-run distribution.
	Horizon int `json:"horizon" yaml:"horizon"`

	// ZeroTolerance clamps long-run probabilities below it to 0.
	ZeroTolerance float64 `json:"zero_tolerance" yaml:"zero_tolerance"`

	// RowSumTolerance is the allowed drift of a transition row sum from 1.
	RowSumTolerance float64 `json:"row_sum_tolerance" yaml:"row_sum_tolerance"`
}

// SimulationConfig controls seeded runs.
type SimulationConfig struct {
	MaxIterations  int    `json:"max_iterations" yaml:"max_iterations"`
	StopWhenStable bool   `json:"stop_when_stable" yaml:"stop_when_stable"`
	Seed           uint64 `json:"seed" yaml:"seed"`

	// Runs is the number of Monte Carlo runs for outcome estimates.
	Runs int `json:"runs" yaml:"runs"`

	// Workers bounds concurrent Monte Carlo runs. 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// LoggingConfig configures jaggdy's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <trace_dir>/decisions.jsonl.
	// "trace" additionally logs every candidate set.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where decisions.jsonl is written. Supports ${VAR} syntax.
	TraceDir string `json:"trace_dir" yaml:"trace_dir"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	// RatePerMinute is the sustained call rate allowed per tool.
	RatePerMinute float64 `json:"rate_per_minute" yaml:"rate_per_minute"`

	// Burst is the number of calls allowed in a burst per tool.
	Burst int `json:"burst" yaml:"burst"`
}

// Default returns a JaggdyConfig with sensible defaults.
func Default() *JaggdyConfig {
	return &JaggdyConfig{
		Agenda: AgendaConfig{
			MaxPropositions: constants.DefaultMaxPropositions,
		},
		Chain: ChainConfig{
			MaxStates:       constants.DefaultMaxStates,
			Horizon:         constants.DefaultHorizon,
			ZeroTolerance:   constants.DefaultZeroTolerance,
			RowSumTolerance: constants.DefaultRowSumTolerance,
		},
		Simulation: SimulationConfig{
			MaxIterations:  constants.DefaultMaxIterations,
			StopWhenStable: true,
			Seed:           constants.DefaultSeed,
			Runs:           constants.DefaultMonteCarloRuns,
		},
		Logging: LoggingConfig{
			Level:    "info",
			TraceDir: filepath.Join(".jaggdy", "trace"),
		},
		MCP: MCPConfig{
			RatePerMinute: constants.DefaultMCPRatePerMinute,
			Burst:         constants.DefaultMCPBurst,
		},
	}
}

// DefaultPath returns ~/.jaggdy/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".jaggdy", "config.yaml"), nil
}

// Load loads configuration from path, or from the default location when path
// is empty, then applies .env and environment variable overrides.
// Order: defaults -> config file -> .env -> environment variables
func Load(path string) (*JaggdyConfig, error) {
	config := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	// A missing .env is normal; variables already set take precedence.
	_ = godotenv.Load()

	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*JaggdyConfig, error) {
	data, err := os.ReadFile(pathutil.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.TraceDir = pathutil.ExpandHome(expandEnvVars(config.Logging.TraceDir))
	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *JaggdyConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *JaggdyConfig) Validate() error {
	if c.Agenda.MaxPropositions < 1 || c.Agenda.MaxPropositions > constants.MaxPropositionsCeiling {
		return fmt.Errorf("max_propositions must be between 1 and %d, got %d",
			constants.MaxPropositionsCeiling, c.Agenda.MaxPropositions)
	}
	if c.Chain.MaxStates < 1 {
		return fmt.Errorf("max_states must be positive, got %d", c.Chain.MaxStates)
	}
	if c.Chain.Horizon < 1 {
		return fmt.Errorf("horizon must be positive, got %d", c.Chain.Horizon)
	}
	if c.Chain.ZeroTolerance <= 0 || c.Chain.ZeroTolerance >= 1 {
		return fmt.Errorf("zero_tolerance must be between 0 and 1, got %g", c.Chain.ZeroTolerance)
	}
	if c.Chain.RowSumTolerance <= 0 || c.Chain.RowSumTolerance >= 1 {
		return fmt.Errorf("row_sum_tolerance must be between 0 and 1, got %g", c.Chain.RowSumTolerance)
	}
	if c.Simulation.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.Simulation.MaxIterations)
	}
	if c.Simulation.Runs < 1 {
		return fmt.Errorf("runs must be positive, got %d", c.Simulation.Runs)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Simulation.Workers)
	}
	if c.MCP.RatePerMinute <= 0 {
		return fmt.Errorf("rate_per_minute must be positive, got %g", c.MCP.RatePerMinute)
	}
	if c.MCP.Burst < 1 {
		return fmt.Errorf("burst must be positive, got %d", c.MCP.Burst)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	return nil
}

// AgendaOptions returns the enumeration limits for agenda.New.
func (c *JaggdyConfig) AgendaOptions() agenda.Config {
	return agenda.Config{MaxPropositions: c.Agenda.MaxPropositions}
}

// ChainOptions returns the settings for markov.New.
func (c *JaggdyConfig) ChainOptions() markov.Config {
	return markov.Config{
		MaxStates:       c.Chain.MaxStates,
		Horizon:         c.Chain.Horizon,
		ZeroTolerance:   c.Chain.ZeroTolerance,
		RowSumTolerance: c.Chain.RowSumTolerance,
	}
}

// SimulationOptions returns the settings for simulation.NewRunner.
func (c *JaggdyConfig) SimulationOptions() simulation.Config {
	return simulation.Config{
		MaxIterations:  c.Simulation.MaxIterations,
		StopWhenStable: c.Simulation.StopWhenStable,
		Seed:           c.Simulation.Seed,
		Workers:        c.Simulation.Workers,
	}
}

// Keys returns every dot-notation key accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type accessor struct {
	get func(c *JaggdyConfig) any
	set func(c *JaggdyConfig, v string) error
}

var accessors = map[string]accessor{
	"agenda.max_propositions": {
		func(c *JaggdyConfig) any { return c.Agenda.MaxPropositions },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Agenda.MaxPropositions, v) },
	},
	"chain.max_states": {
		func(c *JaggdyConfig) any { return c.Chain.MaxStates },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Chain.MaxStates, v) },
	},
	"chain.horizon": {
		func(c *JaggdyConfig) any { return c.Chain.Horizon },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Chain.Horizon, v) },
	},
	"chain.zero_tolerance": {
		func(c *JaggdyConfig) any { return c.Chain.ZeroTolerance },
		func(c *JaggdyConfig, v string) error { return setFloat(&c.Chain.ZeroTolerance, v) },
	},
	"chain.row_sum_tolerance": {
		func(c *JaggdyConfig) any { return c.Chain.RowSumTolerance },
		func(c *JaggdyConfig, v string) error { return setFloat(&c.Chain.RowSumTolerance, v) },
	},
	"simulation.max_iterations": {
		func(c *JaggdyConfig) any { return c.Simulation.MaxIterations },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Simulation.MaxIterations, v) },
	},
	"simulation.stop_when_stable": {
		func(c *JaggdyConfig) any { return c.Simulation.StopWhenStable },
		func(c *JaggdyConfig, v string) error { c.Simulation.StopWhenStable = parseBool(v); return nil },
	},
	"simulation.seed": {
		func(c *JaggdyConfig) any { return c.Simulation.Seed },
		func(c *JaggdyConfig, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed: %s (must be a non-negative integer)", v)
			}
			c.Simulation.Seed = n
			return nil
		},
	},
	"simulation.runs": {
		func(c *JaggdyConfig) any { return c.Simulation.Runs },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Simulation.Runs, v) },
	},
	"simulation.workers": {
		func(c *JaggdyConfig) any { return c.Simulation.Workers },
		func(c *JaggdyConfig, v string) error { return setInt(&c.Simulation.Workers, v) },
	},
	"logging.level": {
		func(c *JaggdyConfig) any { return c.Logging.Level },
		func(c *JaggdyConfig, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.trace_dir": {
		func(c *JaggdyConfig) any { return c.Logging.TraceDir },
		func(c *JaggdyConfig, v string) error { c.Logging.TraceDir = v; return nil },
	},
	"mcp.rate_per_minute": {
		func(c *JaggdyConfig) any { return c.MCP.RatePerMinute },
		func(c *JaggdyConfig, v string) error { return setFloat(&c.MCP.RatePerMinute, v) },
	},
	"mcp.burst": {
		func(c *JaggdyConfig) any { return c.MCP.Burst },
		func(c *JaggdyConfig, v string) error { return setInt(&c.MCP.Burst, v) },
	},
}

// Get retrieves a configuration value by dot-notation key.
func (c *JaggdyConfig) Get(key string) (any, bool) {
	a, ok := accessors[key]
	if !ok {
		return nil, false
	}
	return a.get(c), true
}

// Set sets a configuration value by dot-notation key and revalidates.
func (c *JaggdyConfig) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	next := *c
	if err := a.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer: %s", v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %s", v)
	}
	*dst = f
	return nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *JaggdyConfig) {
	if v := os.Getenv("JAGGDY_MAX_PROPOSITIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Agenda.MaxPropositions = n
		}
	}

	if v := os.Getenv("JAGGDY_MAX_STATES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Chain.MaxStates = n
		}
	}
	if v := os.Getenv("JAGGDY_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Chain.Horizon = n
		}
	}
	if v := os.Getenv("JAGGDY_ZERO_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Chain.ZeroTolerance = f
		}
	}

	if v := os.Getenv("JAGGDY_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.MaxIterations = n
		}
	}
	if v := os.Getenv("JAGGDY_STOP_WHEN_STABLE"); v != "" {
		config.Simulation.StopWhenStable = parseBool(v)
	}
	if v := os.Getenv("JAGGDY_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}
	if v := os.Getenv("JAGGDY_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Runs = n
		}
	}
	if v := os.Getenv("JAGGDY_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Workers = n
		}
	}

	if v := os.Getenv("JAGGDY_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("JAGGDY_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = pathutil.ExpandHome(v)
	}

	if v := os.Getenv("JAGGDY_MCP_RATE_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.MCP.RatePerMinute = f
		}
	}
	if v := os.Getenv("JAGGDY_MCP_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MCP.Burst = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
