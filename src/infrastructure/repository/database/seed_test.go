package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeed_EmbeddedDefaults(t *testing.T) {
	data, err := LoadSeed("")
	require.NoError(t, err)

	require.Len(t, data.Templates, 2)
	assert.Equal(t, "hello_world", data.Templates[0].Name)
	assert.Equal(t, "en_US", data.Templates[0].Language)

	policies := data.policies()
	require.Len(t, policies, 11)
	byCode := map[string][2]int{}
	for _, p := range policies {
		assert.True(t, p.Enabled)
		byCode[p.CountryCode] = [2]int{p.MaxPerSecond, p.MaxConcurrency}
	}
	assert.Equal(t, [2]int{80, 15}, byCode["+1"])
	assert.Equal(t, [2]int{30, 8}, byCode["+91"])
	assert.Equal(t, [2]int{50, 10}, byCode["*"])
}

func TestLoadSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := "countryLimits:\n  - {countryCode: \"+44\", countryName: UK, maxPerSecond: 5, maxConcurrency: 2, enabled: false}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	data, err := LoadSeed(path)
	require.NoError(t, err)
	policies := data.policies()
	require.Len(t, policies, 1)
	assert.False(t, policies[0].Enabled)
	assert.Empty(t, data.templates())
}

func TestLoadSeed_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("countryLimits:\n  - {countryCode: \"+44\"}\n"), 0o600))

	_, err := LoadSeed(path)
	assert.Error(t, err)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
