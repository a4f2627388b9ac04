package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Output format constants
	FormatJSON   = "json"
	FormatPretty = "pretty"

	// Default values
	DefaultLogLevel      = "info"
	DefaultFormat        = FormatJSON
	DefaultMinConfidence = 0.70
)

// Config holds all configuration for the CAQH intake extractor.
type Config struct {
	// Input configuration
	InputPath string // a PDF file or a directory of PDFs
	RulesPath string // optional field rules file; empty uses the embedded defaults

	// Extraction configuration
	Fields        []string // field names to extract; empty uses the default critical set
	MinConfidence float64  // average confidence below which documents go to review
	SkipGate      bool     // bypass the document type check

	// Output configuration
	OutputPath string // JSON report destination; empty writes to stdout
	Format     string // "json" or "pretty"

	// Application configuration
	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MinConfidence: DefaultMinConfidence,
		Format:        DefaultFormat,
		Version:       "1.0.0",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Positional input path wins over the flag form.
	if pflag.NArg() > 0 {
		cfg.InputPath = pflag.Arg(0)
	}
	if cfg.InputPath != "" {
		if expandedPath, err := filepath.Abs(cfg.InputPath); err == nil {
			cfg.InputPath = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("CAQH_INTAKE")
	viper.AutomaticEnv()

	viper.SetDefault("input", cfg.InputPath)
	viper.SetDefault("rules", cfg.RulesPath)
	viper.SetDefault("fields", cfg.Fields)
	viper.SetDefault("minconfidence", cfg.MinConfidence)
	viper.SetDefault("skipgate", cfg.SkipGate)
	viper.SetDefault("output", cfg.OutputPath)
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("input", cfg.InputPath, "PDF file or directory of PDFs to process")
	pflag.String("rules", cfg.RulesPath, "Field rules YAML file (default: embedded rules)")
	pflag.StringSlice("fields", cfg.Fields, "Field names to extract (default: critical intake set)")
	pflag.Float64("minconfidence", cfg.MinConfidence, "Average confidence below which documents need review")
	pflag.Bool("skipgate", cfg.SkipGate, "Skip the CAQH document type check")
	pflag.String("output", cfg.OutputPath, "Write the JSON report to this file instead of stdout")
	pflag.String("format", cfg.Format, "Output format: 'json' or 'pretty'")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("input", pflag.Lookup("input"))
	_ = viper.BindPFlag("rules", pflag.Lookup("rules"))
	_ = viper.BindPFlag("fields", pflag.Lookup("fields"))
	_ = viper.BindPFlag("minconfidence", pflag.Lookup("minconfidence"))
	_ = viper.BindPFlag("skipgate", pflag.Lookup("skipgate"))
	_ = viper.BindPFlag("output", pflag.Lookup("output"))
	_ = viper.BindPFlag("format", pflag.Lookup("format"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nCAQH Intake Extractor - field extraction and triage for CAQH Data Summary PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s summary.pdf                             # one file, report to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=/path/to/intake --output=out.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s summary.pdf --fields=ssn,individual_npi\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  CAQH_INTAKE_INPUT          Input file or directory\n")
		fmt.Fprintf(os.Stderr, "  CAQH_INTAKE_RULES          Field rules file\n")
		fmt.Fprintf(os.Stderr, "  CAQH_INTAKE_MINCONFIDENCE  Review threshold\n")
		fmt.Fprintf(os.Stderr, "  CAQH_INTAKE_OUTPUT         Report destination\n")
		fmt.Fprintf(os.Stderr, "  CAQH_INTAKE_LOGLEVEL       Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.InputPath = viper.GetString("input")
	cfg.RulesPath = viper.GetString("rules")
	cfg.Fields = viper.GetStringSlice("fields")
	cfg.MinConfidence = viper.GetFloat64("minconfidence")
	cfg.SkipGate = viper.GetBool("skipgate")
	cfg.OutputPath = viper.GetString("output")
	cfg.Format = viper.GetString("format")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path cannot be empty")
	}
	if _, err := os.Stat(c.InputPath); err != nil {
		return fmt.Errorf("cannot access input path %s: %w", c.InputPath, err)
	}

	if c.RulesPath != "" {
		if _, err := os.Stat(c.RulesPath); err != nil {
			return fmt.Errorf("cannot access rules file %s: %w", c.RulesPath, err)
		}
	}

	if c.Format != FormatJSON && c.Format != FormatPretty {
		return fmt.Errorf("invalid format: %s (must be 'json' or 'pretty')", c.Format)
	}

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return errors.New("minconfidence must be between 0 and 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug checks if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Rules: %s, Fields: %v, MinConfidence: %.2f, Format: %s, LogLevel: %s}",
		c.InputPath, c.RulesPath, c.Fields, c.MinConfidence, c.Format, c.LogLevel)
}
