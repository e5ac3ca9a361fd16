// Package config provides configuration management for sumgo
package config

import "math"

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
		return true
	default:
		return false
	}
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	return l.Rank() >= 0
}

// Rank orders levels from most to least verbose; -1 for unknown levels
func (l LogLevel) Rank() int {
	switch l {
	case LogLevelTrace:
		return 0
	case LogLevelDebug:
		return 1
	case LogLevelInfo:
		return 2
	case LogLevelWarn:
		return 3
	case LogLevelError:
		return 4
	case LogLevelFatal:
		return 5
	default:
		return -1
	}
}

// Config represents the complete sumgo configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Logging configuration
	Log LogConfig `yaml:"log" json:"log"`

	// Accumulator run configuration
	Accumulator AccumulatorConfig `yaml:"accumulator" json:"accumulator"`

	// Report output configuration
	Report ReportConfig `yaml:"report" json:"report"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Application version
	Version string `yaml:"version" json:"version"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`

	// Debug mode
	Debug bool `yaml:"debug" json:"debug"`

	// Application description
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Application metadata
	Metadata map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// Log level
	Level LogLevel `yaml:"level" json:"level"`

	// Output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`
}

// AccumulatorConfig describes the accumulator built by the driver and the
// integer range appended to it
type AccumulatorConfig struct {
	// Accumulator name
	Name string `yaml:"name" json:"name"`

	// First integer appended
	Start int `yaml:"start" json:"start"`

	// Number of consecutive integers appended
	Count int `yaml:"count" json:"count"`
}

// End returns the last integer appended, inclusive
func (a AccumulatorConfig) End() int {
	return a.Start + a.Count - 1
}

// ReportConfig controls the report line
type ReportConfig struct {
	// Label printed before the total, as in "Sum: 4950"
	Label string `yaml:"label" json:"label"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "sumgo",
			Version:     "1.0.0",
			Environment: EnvProduction,
			Debug:       false,
			Description: "sums a range of integers",
		},
		Log: LogConfig{
			Level:  LogLevelWarn,
			Output: "stderr",
		},
		Accumulator: AccumulatorConfig{
			Name:  "test_object",
			Start: 0,
			Count: 100,
		},
		Report: ReportConfig{
			Label: "Sum",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	// Validate log config
	if !c.Log.Level.IsValid() {
		return ErrInvalidLogLevel
	}

	// Validate accumulator config
	if c.Accumulator.Count < 0 {
		return ErrInvalidCount
	}
	// The last appended value, Start+Count-1, must fit in an int
	if c.Accumulator.Count > 0 && c.Accumulator.Start > math.MaxInt-(c.Accumulator.Count-1) {
		return ErrInvalidRange
	}

	// Validate report config
	if c.Report.Label == "" {
		return ErrInvalidReportLabel
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// GetLogLevel returns the log level, raised to debug when debug mode is on
func (c *Config) GetLogLevel() LogLevel {
	if c.IsDebugEnabled() && c.Log.Level.Rank() > LogLevelDebug.Rank() {
		return LogLevelDebug
	}
	return c.Log.Level
}

// IsDebugEnabled returns true if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
