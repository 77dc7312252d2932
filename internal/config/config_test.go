package config

import (
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/resolve"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FMTEMPLATE_SCHEMA",
		"FMTEMPLATE_OUTPUT",
		"FMTEMPLATE_FORMAT",
		"FMTEMPLATE_MODE",
		"FMTEMPLATE_STRICT",
		"FMTEMPLATE_LOG_LEVEL",
		"FMTEMPLATE_LOG_JSON",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"-schema", "schema.json", "a.md", "b.md"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "schema.json", cfg.SchemaPath)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "lenient", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"a.md", "b.md"}, cfg.Inputs)
	assert.False(t, cfg.AssumeYes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FMTEMPLATE_SCHEMA", "env.yaml")
	t.Setenv("FMTEMPLATE_FORMAT", "yaml")
	t.Setenv("FMTEMPLATE_STRICT", "true")
	t.Setenv("FMTEMPLATE_LOG_LEVEL", "warn")

	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "env.yaml", cfg.SchemaPath)
	mode, err := cfg.RenderMode()
	require.NoError(t, err)
	assert.Equal(t, resolve.ModeStrict, mode)
	format, err := cfg.OutputFormat()
	require.NoError(t, err)
	assert.Equal(t, template.FormatYAML, format)
	assert.Equal(t, logging.WarnLevel, cfg.Logging().Level)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FMTEMPLATE_FORMAT", "yaml")
	t.Setenv("FMTEMPLATE_MODE", "strict")

	cfg, err := Load([]string{"-schema", "s.json", "-format", "json", "-mode", "blank", "-debug", "-yes"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "blank", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.AssumeYes)
}

func TestLoad_Help(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"-h"}, nil)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestValidate(t *testing.T) {
	cfg := &Config{Format: "toml", Mode: "loud", LogLevel: "verbose"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-schema is required")
	assert.Contains(t, err.Error(), "invalid output format")
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLoad_Vars(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"-schema", "s.json", "-var", "version=1.2", "-var", "site = docs"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"version": "1.2", "site": "docs"}, cfg.Vars)

	_, err = Load([]string{"-var", "novalue"}, nil)
	assert.Error(t, err)
}
