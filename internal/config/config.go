// Package config loads the fmtemplate CLI configuration from flags, with
// defaults taken from the environment.
//
// Environment variables:
//   - FMTEMPLATE_SCHEMA: schema path
//   - FMTEMPLATE_OUTPUT: output file (stdout when empty)
//   - FMTEMPLATE_FORMAT: output format, "json" or "yaml" (default: json)
//   - FMTEMPLATE_MODE: unresolved variable handling, "lenient", "strict" or "blank" (default: lenient)
//   - FMTEMPLATE_STRICT: shorthand for FMTEMPLATE_MODE=strict
//   - FMTEMPLATE_LOG_LEVEL: debug, info, warn or error (default: info)
//   - FMTEMPLATE_LOG_JSON: emit JSON logs
//
// Container variables are passed with repeated -var key=value flags.
//
// A .env file in the working directory is loaded by the CLI before Load runs.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/resolve"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// Config holds the CLI settings.
type Config struct {
	SchemaPath string         // Schema declaring the template directives
	OutputPath string         // Output file, stdout when empty
	Format     string         // Output format (json, yaml)
	Mode       string         // Unresolved variable handling (lenient, strict, blank)
	LogLevel   string         // Logging level (debug, info, warn, error)
	LogJSON    bool           // JSON log encoding
	Debug      bool           // Dump detection results
	AssumeYes  bool           // Overwrite the output file without asking
	Inputs     []string       // Markdown documents
	Vars       map[string]any // Container globals from -var key=value
}

// Load parses args (without the program name). Flags override environment
// defaults. Usage text goes to usage; nil discards it.
func Load(args []string, usage io.Writer) (*Config, error) {
	cfg := &Config{
		SchemaPath: getEnv("FMTEMPLATE_SCHEMA", ""),
		OutputPath: getEnv("FMTEMPLATE_OUTPUT", ""),
		Format:     getEnv("FMTEMPLATE_FORMAT", string(template.FormatJSON)),
		Mode:       getEnv("FMTEMPLATE_MODE", resolve.ModeLenient.String()),
		LogLevel:   getEnv("FMTEMPLATE_LOG_LEVEL", "info"),
		LogJSON:    getEnvBool("FMTEMPLATE_LOG_JSON", false),
	}
	strict := getEnvBool("FMTEMPLATE_STRICT", false)

	if usage == nil {
		usage = io.Discard
	}
	flags := flag.NewFlagSet("fmtemplate", flag.ContinueOnError)
	flags.SetOutput(usage)
	flags.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "schema declaring x-template directives")
	flags.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "output file (stdout if empty)")
	flags.StringVar(&cfg.Format, "format", cfg.Format, "output format: json or yaml")
	flags.StringVar(&cfg.Mode, "mode", cfg.Mode, "unresolved variables: lenient, strict or blank")
	flags.BoolVar(&strict, "strict", strict, "fail on unresolved variables (same as -mode strict)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	flags.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "emit JSON logs")
	flags.BoolVar(&cfg.Debug, "debug", false, "dump list-marker detection results")
	flags.BoolVar(&cfg.AssumeYes, "yes", false, "overwrite the output file without asking")
	flags.Func("var", "container variable as key=value (repeatable)", func(raw string) error {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("expected key=value, got %q", raw)
		}
		if cfg.Vars == nil {
			cfg.Vars = make(map[string]any)
		}
		cfg.Vars[key] = strings.TrimSpace(value)
		return nil
	})
	flags.Usage = func() {
		fmt.Fprintln(usage, "usage: fmtemplate -schema schema.json [flags] document.md...")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if strict {
		cfg.Mode = resolve.ModeStrict.String()
	}
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	cfg.Inputs = flags.Args()
	return cfg, nil
}

// Validate checks that the configuration can drive a render.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SchemaPath) == "" {
		errs = append(errs, errors.New("config: -schema is required"))
	}
	if _, err := c.OutputFormat(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RenderMode(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("config: invalid log level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// OutputFormat returns the parsed output format.
func (c *Config) OutputFormat() (template.Format, error) {
	format, err := template.ParseFormat(c.Format)
	if err != nil {
		return "", fmt.Errorf("config: invalid output format: %w", err)
	}
	if format == "" {
		return template.FormatJSON, nil
	}
	return format, nil
}

// RenderMode returns the parsed resolution mode.
func (c *Config) RenderMode() (resolve.Mode, error) {
	return resolve.ParseMode(c.Mode)
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level: logging.ParseLevel(c.LogLevel),
		Name:  "fmtemplate",
		JSON:  c.LogJSON,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
