// Package config loads solver hyperparameters from YAML, following the
// Config struct + DefaultConfig + Load/Save pattern used elsewhere in this
// module's pack for simulation configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trajopt/ilqr/ilqr"
)

const (
	DefaultMu             = 1.0
	DefaultMaxIters       = 100
	DefaultCostConvgRatio = 1e-6
	DefaultStartAlpha     = 1.0
	DefaultAlphaShrink    = 0.5
	DefaultMaxLineSearch  = 50
)

// SolverConfig mirrors ilqr.Params/hindsight.Params in a YAML-friendly
// shape so hyperparameters can be tuned without recompiling.
type SolverConfig struct {
	Mu                  float64 `yaml:"mu"`
	MaxIters            int     `yaml:"max_iters"`
	CostConvgRatio      float64 `yaml:"cost_convg_ratio"`
	StartAlpha          float64 `yaml:"start_alpha"`
	AlphaShrink         float64 `yaml:"alpha_shrink"`
	MaxLineSearch       int     `yaml:"max_line_search"`
	WarmStart           bool    `yaml:"warm_start"`
	TOffset             int     `yaml:"t_offset"`
	DisableBoundaryCost bool    `yaml:"disable_boundary_cost"`
	Verbose             bool    `yaml:"verbose"`
}

// DefaultSolverConfig returns conservative defaults. All but Mu match the
// values ilqr.NewSolver/hindsight.NewSolver apply themselves when a Params
// field is left at its zero value; those solvers keep a zero Mu as zero, so
// DefaultMu takes effect only through a SolverConfig. Expressing them here
// lets a written-out YAML file document the effective configuration.
func DefaultSolverConfig() *SolverConfig {
	return &SolverConfig{
		Mu:             DefaultMu,
		MaxIters:       DefaultMaxIters,
		CostConvgRatio: DefaultCostConvgRatio,
		StartAlpha:     DefaultStartAlpha,
		AlphaShrink:    DefaultAlphaShrink,
		MaxLineSearch:  DefaultMaxLineSearch,
	}
}

// Load reads and parses a SolverConfig from a YAML file, applying
// DefaultSolverConfig for any field the file omits.
func Load(path string) (*SolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultSolverConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *SolverConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ToParams converts a SolverConfig into ilqr.Params.
func (c *SolverConfig) ToParams() ilqr.Params {
	return ilqr.Params{
		Mu:                  c.Mu,
		MaxIters:            c.MaxIters,
		CostConvgRatio:      c.CostConvgRatio,
		StartAlpha:          c.StartAlpha,
		AlphaShrink:         c.AlphaShrink,
		MaxLineSearch:       c.MaxLineSearch,
		WarmStart:           c.WarmStart,
		TOffset:             c.TOffset,
		DisableBoundaryCost: c.DisableBoundaryCost,
		Verbose:             c.Verbose,
	}
}
