package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_iters: 10\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.MaxIters)
	require.Equal(t, DefaultCostConvgRatio, cfg.CostConvgRatio)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.yaml")

	cfg := Presets["accurate"]
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.MaxIters, loaded.MaxIters)
	require.Equal(t, cfg.CostConvgRatio, loaded.CostConvgRatio)
}

func TestToParamsCarriesAllFields(t *testing.T) {
	cfg := Presets["receding_horizon"]
	p := cfg.ToParams()
	require.True(t, p.WarmStart)
	require.Equal(t, 1, p.TOffset)
	require.Equal(t, cfg.MaxIters, p.MaxIters)
}
