package valuation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
)

func flatSeries(t *testing.T, years int, volume, price float64) *streaming.ProjectSeries {
	t.Helper()
	volumes := make([]float64, years)
	prices := make([]float64, years)
	costs := make([]float64, years)
	for i := range volumes {
		volumes[i] = volume
		prices[i] = price
	}
	series, err := streaming.NewProjectSeries(volumes, prices, costs)
	require.NoError(t, err)
	return series
}

func newTestEngine(t *testing.T, total float64, tenor int) *calculation.Engine {
	t.Helper()
	engine, err := calculation.NewEngine(calculation.EngineConfig{
		WACC:            0.08,
		InvestmentTotal: total,
		InvestmentTenor: tenor,
	}, nil)
	require.NoError(t, err)
	return engine
}

func TestFindTargetIRRStreamInfeasibleBounds(t *testing.T) {
	// At 0% streaming the cash flows are pure investment outflows, so the
	// IRR is undefined there and the objective maps it to a large positive
	// error. The bounds check therefore reports the lower bound.
	engine := newTestEngine(t, 20_000_000, 5)
	seeker := NewGoalSeeker(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	_, err := seeker.FindTargetIRRStream(series, 0.15)
	require.Error(t, err)

	var infeasible *InfeasibilityError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, 0.0, infeasible.Bound)
	assert.Equal(t, "0% streaming", infeasible.BoundName)
	assert.True(t, infeasible.TooHigh)
	assert.Contains(t, infeasible.Error(), "too high")
}

func TestInfeasibilityErrorDirections(t *testing.T) {
	high := &InfeasibilityError{Bound: 0, BoundName: "0% streaming", TooHigh: true, Metric: "IRR"}
	assert.Contains(t, high.Error(), "too high")
	assert.Contains(t, high.Error(), "0% streaming")

	low := &InfeasibilityError{Bound: 1, BoundName: "100% streaming", TooHigh: false, Metric: "IRR"}
	assert.Contains(t, low.Error(), "too low")
	assert.Contains(t, low.Error(), "100% streaming")
}

func TestIRRErrorObjective(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	seeker := NewGoalSeeker(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	objective := seeker.irrError(series, 0.15)

	// Out-of-range trial points map to the large error sentinel.
	assert.Equal(t, infeasibleErrorMagnitude, objective(-0.1))
	assert.Equal(t, infeasibleErrorMagnitude, objective(1.1))

	// At 0% streaming the IRR is NaN, which also maps to the sentinel.
	assert.Equal(t, infeasibleErrorMagnitude, objective(0))

	// A mid-range streaming percentage yields a real signed error.
	mid := objective(0.48)
	result, err := engine.Run(series, 0.48)
	require.NoError(t, err)
	assert.InDelta(t, result.IRR-0.15, mid, 1e-12)
}

func TestIRRErrorObjectiveSign(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	series := flatSeries(t, 20, 100_000, 50)

	result, err := engine.Run(series, 0.48)
	require.NoError(t, err)

	seeker := NewGoalSeeker(engine, 0, nil)
	above := seeker.irrError(series, result.IRR+0.05)
	below := seeker.irrError(series, result.IRR-0.05)
	assert.Negative(t, above(0.48))
	assert.Positive(t, below(0.48))
}
