package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/semmatch/semmatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(DefaultMaxTargetBytes), cfg.Targets.MaxTargetBytes)
	assert.True(t, cfg.Targets.RespectGitignore)
	assert.False(t, cfg.Targets.ScanUnknownExtensions)
	assert.Empty(t, cfg.Validators)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[targets]
exclude = ["vendor/**", "*.min.js"]
include = ["src/**"]
max_target_bytes = 2048
respect_gitignore = false
project_root = "/repo"

[[validators]]
rule = "go.secrets.token"
expr = 'metavars["$TOKEN"].startsWith("ghp_")'
severity = "critical"

[validators.metadata]
confidence = "HIGH"
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"vendor/**", "*.min.js"}, cfg.Targets.Exclude)
	assert.Equal(t, []string{"src/**"}, cfg.Targets.Include)
	assert.Equal(t, int64(2048), cfg.Targets.MaxTargetBytes)
	assert.False(t, cfg.Targets.RespectGitignore)
	assert.Equal(t, "/repo", cfg.Targets.ProjectRoot)

	require.Len(t, cfg.Validators, 1)
	v := cfg.Validators[0]
	assert.Equal(t, "go.secrets.token", v.Rule)
	assert.Equal(t, map[string]any{"confidence": "HIGH"}, v.Metadata)
	require.NotNil(t, v.SeverityOverride())
	assert.Equal(t, semmatch.SeverityCritical, *v.SeverityOverride())
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative size":    "[targets]\nmax_target_bytes = -1\n",
		"bad glob":         "[targets]\nexclude = [\"src/[\"]\n",
		"missing rule":     "[[validators]]\nexpr = \"true\"\n",
		"missing expr":     "[[validators]]\nrule = \"r\"\n",
		"unknown severity": "[[validators]]\nrule = \"r\"\nexpr = \"true\"\nseverity = \"spicy\"\n",
		"not toml":         "[targets\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semmatch.toml")
	require.NoError(t, os.WriteFile(path, []byte("[targets]\nscan_unknown_extensions = true\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Targets.ScanUnknownExtensions)
	assert.True(t, cfg.Targets.RespectGitignore, "defaults survive a partial file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
