package nesting

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := model.DefaultConfig()
	original.Margin = 5
	original.Algorithm = model.AlgorithmNFPGA
	original.GA.PopulationSize = 60

	require.NoError(t, SaveConfig(path, original))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadConfig_MissingRotationAnglesFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, SaveConfig(path, model.Config{Margin: 1, Algorithm: model.AlgorithmFast}))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultGAConfig().RotationAngles, loaded.GA.RotationAngles)
}
