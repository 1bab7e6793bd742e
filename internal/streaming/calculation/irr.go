package calculation

import (
	"math"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/pkg/solver"
)

// IRRConfig holds the immutable settings of the IRR solver. The zero value is
// not usable; use DefaultIRRConfig.
type IRRConfig struct {
	// DefaultGuess seeds the derivative-free fallback (decimal rate).
	DefaultGuess float64
	// Tolerance is the absolute convergence tolerance for bracketing.
	Tolerance float64
	// MaxIterations caps both the bracketed and fallback iterations.
	MaxIterations int
	// ResidualThreshold is the maximum |NPV(r)| accepted from the fallback.
	ResidualThreshold float64
}

// DefaultIRRConfig returns the engine-wide IRR solver defaults.
func DefaultIRRConfig() IRRConfig {
	return IRRConfig{
		DefaultGuess:      0.10,
		Tolerance:         1e-6,
		MaxIterations:     100,
		ResidualThreshold: 1e-3,
	}
}

// IRRCalculator computes the internal rate of return of a cash-flow series.
// It holds only immutable configuration and is safe to share.
type IRRCalculator struct {
	cfg    IRRConfig
	logger *zap.Logger
}

// NewIRRCalculator creates an IRR calculator. A nil logger disables logging.
func NewIRRCalculator(cfg IRRConfig, logger *zap.Logger) *IRRCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultGuess == 0 {
		cfg.DefaultGuess = 0.10
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 1e-6
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	if cfg.ResidualThreshold <= 0 {
		cfg.ResidualThreshold = 1e-3
	}
	return &IRRCalculator{cfg: cfg, logger: logger}
}

// NPVAtRate discounts the cash flows at the given rate, with the first entry
// treated as period 0 (undiscounted).
func NPVAtRate(cashFlows []float64, rate float64) float64 {
	npv := 0.0
	for t, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

// findBounds computes the adaptive search bracket. The lower bound is fixed
// at -99% (rates cannot reach -100%); the upper bound starts at 1000% and is
// widened to 10000% when the NPV is still positive there, so a sign change
// exists for the bracketing method whenever a root does.
func (c *IRRCalculator) findBounds(cashFlows []float64) (float64, float64) {
	lower := -0.99
	upper := 10.0
	if NPVAtRate(cashFlows, upper) > 0 {
		upper = 100.0
	}
	return lower, upper
}

// Calculate returns the IRR of the cash-flow series, or NaN when no real IRR
// could be found. NaN is a deliberate sentinel: callers must check it with
// math.IsNaN before using the value arithmetically.
//
// The solver runs an explicit fallback chain: Brent's method over the
// adaptive bracket first, then a secant iteration seeded at the default
// guess whose result is only accepted if it actually zeroes the NPV.
func (c *IRRCalculator) Calculate(cashFlows []float64) float64 {
	if len(cashFlows) == 0 {
		return math.NaN()
	}

	npv := func(rate float64) float64 { return NPVAtRate(cashFlows, rate) }
	solverCfg := solver.Config{Tolerance: c.cfg.Tolerance, MaxIterations: c.cfg.MaxIterations}

	strategies := []solver.Strategy{
		{
			Name: "brent",
			Run: func() (float64, error) {
				lower, upper := c.findBounds(cashFlows)
				return solver.Brent(npv, lower, upper, solverCfg)
			},
		},
		{
			Name: "secant",
			Run: func() (float64, error) {
				rate, err := solver.Secant(npv, c.cfg.DefaultGuess, solverCfg)
				if err != nil {
					return 0, err
				}
				if math.Abs(npv(rate)) > c.cfg.ResidualThreshold {
					return 0, solver.ErrNoConvergence
				}
				return rate, nil
			},
		},
	}

	rate, method, attempts, err := solver.RunChain(strategies)
	if err != nil {
		c.logger.Warn("IRR calculation failed, returning NaN",
			zap.Int("cash_flow_years", len(cashFlows)),
			zap.Int("strategies_tried", len(attempts)))
		return math.NaN()
	}
	if method != "brent" {
		c.logger.Warn("IRR bracketing failed, fallback method used",
			zap.String("method", method),
			zap.Float64("irr", rate))
	}
	return rate
}
