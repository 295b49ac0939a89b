package vep

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vep.config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"command": "vep",
		"args": {
			"--input_file": "{vcf_path}",
			"--offline": true,
			"--fork": 4
		}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "vep", cfg.Command)
	assert.Len(t, cfg.Args, 3)
}

func TestLoadConfigMissingCommand(t *testing.T) {
	path := writeConfig(t, `{"args": {"--offline": true}}`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	path := writeConfig(t, `{
		"command": "vep",
		"args": {
			"--input_file": "{vcf_path}",
			"--output_file": "{vcf_vep}",
			"--offline": true,
			"--database": false,
			"--fork": 4,
			"--plugin": ["SpliceAI", "dbNSFP"]
		}
	}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	args, err := cfg.BuildArgs(map[string]string{
		"vcf_path": "/data/S1.vcf",
		"vcf_vep":  "/spool/S1.vep.vcf",
	})
	require.NoError(t, err)

	// Flags render in sorted order; false booleans drop, lists repeat.
	assert.Equal(t, []string{
		"--fork", "4",
		"--input_file", "/data/S1.vcf",
		"--offline",
		"--output_file", "/spool/S1.vep.vcf",
		"--plugin", "SpliceAI",
		"--plugin", "dbNSFP",
	}, args)
}

func TestBuildArgsUnknownPlaceholderKept(t *testing.T) {
	cfg := &Config{Command: "vep", Args: map[string]json.RawMessage{
		"--custom": json.RawMessage(`"{clinvar_vcf},ClinVar,vcf"`),
	}}

	args, err := cfg.BuildArgs(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"--custom", "{clinvar_vcf},ClinVar,vcf"}, args)
}

func TestBuildArgsUnsupportedValue(t *testing.T) {
	cfg := &Config{Command: "vep", Args: map[string]json.RawMessage{
		"--bad": json.RawMessage(`{"nested": true}`),
	}}
	_, err := cfg.BuildArgs(nil)
	assert.Error(t, err)
}
