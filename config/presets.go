package config

// Presets collects named starting configurations for common tuning
// regimes, in the map-of-named-configs shape used elsewhere in this
// module's pack.
var Presets = map[string]*SolverConfig{
	"fast": {
		Mu: 1.0, MaxIters: 30, CostConvgRatio: 1e-4,
		StartAlpha: 1.0, AlphaShrink: 0.5, MaxLineSearch: 20,
	},
	"accurate": {
		Mu: 1.0, MaxIters: 300, CostConvgRatio: 1e-10,
		StartAlpha: 1.0, AlphaShrink: 0.7, MaxLineSearch: 80,
	},
	"receding_horizon": {
		Mu: 1.0, MaxIters: 50, CostConvgRatio: 1e-6,
		StartAlpha: 1.0, AlphaShrink: 0.5, MaxLineSearch: 50,
		WarmStart: true, TOffset: 1,
	},
}
