// Package valuation implements the inverse problems built on top of the DCF
// engine: goal-seeking a streaming percentage, back-solving deal purchase
// prices, and locating breakeven points.
package valuation

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
	"carbon-stream/valuation-engine/pkg/solver"
)

// infeasibleErrorMagnitude is returned from objective functions at invalid or
// NaN trial points. It steers the root-finder away without crashing it.
const infeasibleErrorMagnitude = 1e10

// InfeasibilityError reports that a target is unreachable within the search
// bracket. It is detected by a bounds check before any root-finding runs, and
// names which bound was exceeded and in which direction so the caller knows
// whether the target is too aggressive or too conservative.
type InfeasibilityError struct {
	Bound     float64
	BoundName string
	TooHigh   bool // true: metric already above target at this bound
	Metric    string
}

func (e *InfeasibilityError) Error() string {
	direction := "too low"
	if e.TooHigh {
		direction = "too high"
	}
	return fmt.Sprintf("target %s cannot be achieved: even at %s (%g), the %s is %s",
		e.Metric, e.BoundName, e.Bound, e.Metric, direction)
}

// ErrOptimizationFailed marks root-finder non-convergence, as distinct from
// infeasibility: the problem may still be solvable with different bounds or
// tolerance.
var ErrOptimizationFailed = errors.New("optimization failed")

// GoalSeekResult represents the outcome of a streaming-percentage goal seek.
type GoalSeekResult struct {
	StreamingPercentage float64              `json:"streaming_percentage"`
	ActualIRR           float64              `json:"actual_irr"`
	TargetIRR           float64              `json:"target_irr"`
	Difference          float64              `json:"difference"`
	NPV                 float64              `json:"npv"`
	Result              *streaming.DCFResult `json:"result"`
}

// GoalSeeker finds the streaming percentage that achieves a target IRR.
type GoalSeeker struct {
	engine    *calculation.Engine
	tolerance float64
	maxIter   int
	logger    *zap.Logger
}

// NewGoalSeeker creates a goal seeker around the given DCF engine.
// A non-positive tolerance falls back to 1e-4.
func NewGoalSeeker(engine *calculation.Engine, tolerance float64, logger *zap.Logger) *GoalSeeker {
	if tolerance <= 0 {
		tolerance = 1e-4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoalSeeker{engine: engine, tolerance: tolerance, maxIter: 100, logger: logger}
}

// irrError builds the objective: actual IRR at a streaming percentage minus
// the target. NaN IRRs and out-of-range trial points map to a large positive
// error.
func (g *GoalSeeker) irrError(series *streaming.ProjectSeries, targetIRR float64) solver.Objective {
	return func(streamingPct float64) float64 {
		if streamingPct < 0 || streamingPct > 1 {
			return infeasibleErrorMagnitude
		}
		result, err := g.engine.Run(series, streamingPct)
		if err != nil {
			return infeasibleErrorMagnitude
		}
		if math.IsNaN(result.IRR) {
			return infeasibleErrorMagnitude
		}
		return result.IRR - targetIRR
	}
}

// FindTargetIRRStream finds the streaming percentage in [0, 1] whose IRR
// matches the target. It fails fast with an InfeasibilityError when both
// bounds sit on the same side of the target.
func (g *GoalSeeker) FindTargetIRRStream(series *streaming.ProjectSeries, targetIRR float64) (*GoalSeekResult, error) {
	objective := g.irrError(series, targetIRR)

	if err := checkBracketFeasibility(objective, 0.0, 1.0, "0% streaming", "100% streaming", "IRR"); err != nil {
		return nil, err
	}

	optimal, err := solver.Brent(objective, 0.0, 1.0, solver.Config{Tolerance: g.tolerance, MaxIterations: g.maxIter})
	if err != nil {
		return nil, fmt.Errorf("%w: could not find streaming percentage for target IRR %g: %v",
			ErrOptimizationFailed, targetIRR, err)
	}

	final, err := g.engine.Run(series, optimal)
	if err != nil {
		return nil, err
	}

	g.logger.Info("goal seek converged",
		zap.Float64("target_irr", targetIRR),
		zap.Float64("streaming_percentage", optimal),
		zap.Float64("actual_irr", final.IRR))

	return &GoalSeekResult{
		StreamingPercentage: optimal,
		ActualIRR:           final.IRR,
		TargetIRR:           targetIRR,
		Difference:          math.Abs(final.IRR - targetIRR),
		NPV:                 final.NPV,
		Result:              final,
	}, nil
}

// checkBracketFeasibility evaluates the objective at both bracket bounds and
// returns an InfeasibilityError when they share a sign.
func checkBracketFeasibility(objective solver.Objective, lower, upper float64, lowerName, upperName, metric string) error {
	errLower := objective(lower)
	errUpper := objective(upper)
	if errLower*errUpper > 0 {
		if errLower > 0 {
			return &InfeasibilityError{Bound: lower, BoundName: lowerName, TooHigh: true, Metric: metric}
		}
		return &InfeasibilityError{Bound: upper, BoundName: upperName, TooHigh: false, Metric: metric}
	}
	return nil
}
