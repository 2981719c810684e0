package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minutes/config"
)

func createConfigTestDeps(path string, saved *[]*config.Config) *ConfigCommandDeps {
	return &ConfigCommandDeps{
		LoadConfig: func() (*config.Config, error) { return config.DefaultConfig(), nil },
		SaveConfig: func(c *config.Config) error {
			*saved = append(*saved, c)
			return os.WriteFile(path, []byte("chunk_size: 120\n"), 0o600)
		},
		ConfigPath: func() (string, error) { return path, nil },
	}
}

func TestConfigShow(t *testing.T) {
	var saved []*config.Config
	path := filepath.Join(t.TempDir(), "config.yaml")

	var out bytes.Buffer
	c := NewConfigCommand(createConfigTestDeps(path, &saved))
	c.SetOut(&out)
	c.SetArgs([]string{"show"})
	require.NoError(t, c.Execute())

	assert.Contains(t, out.String(), "Config file:    "+path)
	assert.Contains(t, out.String(), "Chunk size:     120s")
	assert.Contains(t, out.String(), "Summary cache:  (disabled)")
}

func TestConfigInit(t *testing.T) {
	var saved []*config.Config
	path := filepath.Join(t.TempDir(), "config.yaml")
	deps := createConfigTestDeps(path, &saved)

	var out bytes.Buffer
	c := NewConfigCommand(deps)
	c.SetOut(&out)
	c.SetArgs([]string{"init"})
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "Created configuration file")
	require.Len(t, saved, 1)

	out.Reset()
	c = NewConfigCommand(deps)
	c.SetOut(&out)
	c.SetArgs([]string{"init"})
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "already exists")
	assert.Len(t, saved, 1, "existing file must not be overwritten")
}
