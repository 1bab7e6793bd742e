package calculation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-stream/valuation-engine/internal/streaming"
)

// testSeries builds a 20-year project delivering 100k credits per year at a
// flat $50 base price.
func testSeries(t *testing.T) *streaming.ProjectSeries {
	t.Helper()
	n := 20
	volumes := make([]float64, n)
	prices := make([]float64, n)
	costs := make([]float64, n)
	for i := 0; i < n; i++ {
		volumes[i] = 100_000
		prices[i] = 50
		costs[i] = 1_000_000
	}
	series, err := streaming.NewProjectSeries(volumes, prices, costs)
	require.NoError(t, err)
	return series
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		WACC:            0.08,
		InvestmentTotal: 20_000_000,
		InvestmentTenor: 5,
	}, nil)
	require.NoError(t, err)
	return engine
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(EngineConfig{WACC: 0.08, InvestmentTotal: -1, InvestmentTenor: 5}, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewEngine(EngineConfig{WACC: 0.08, InvestmentTotal: 100, InvestmentTenor: 0}, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewEngine(EngineConfig{WACC: -1.5, InvestmentTotal: 100, InvestmentTenor: 5}, nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRunBuildsSchedule(t *testing.T) {
	engine := testEngine(t)
	series := testSeries(t)

	result, err := engine.Run(series, 0.48)
	require.NoError(t, err)
	require.Len(t, result.Schedule, 20)

	year1 := result.Schedule[0]
	assert.Equal(t, 1, year1.Year)
	assert.InDelta(t, 48_000.0, year1.ShareOfCredits, 1e-9)
	assert.InDelta(t, 2_400_000.0, year1.Revenue, 1e-6)
	assert.InDelta(t, -4_000_000.0, year1.InvestmentCashFlow, 1e-6)
	assert.InDelta(t, -1_600_000.0, year1.NetCashFlow, 1e-6)
	// year 1 is undiscounted
	assert.InDelta(t, 1.0, year1.DiscountFactor, 1e-12)
	assert.InDelta(t, year1.NetCashFlow, year1.PresentValue, 1e-6)

	year6 := result.Schedule[5]
	assert.Equal(t, 0.0, year6.InvestmentCashFlow)
	assert.InDelta(t, 2_400_000.0, year6.NetCashFlow, 1e-6)
	assert.InDelta(t, 1.0/math.Pow(1.08, 5), year6.DiscountFactor, 1e-12)

	last := result.Schedule[19]
	assert.InDelta(t, result.NPV, last.CumulativePV, 1e-6)

	assert.False(t, math.IsNaN(result.NPV))
	assert.False(t, math.IsNaN(result.IRR))
	assert.Greater(t, result.IRR, 0.0)
}

func TestRunNPVMonotoneInStreamingPercentage(t *testing.T) {
	engine := testEngine(t)
	series := testSeries(t)

	low, err := engine.Run(series, 0.20)
	require.NoError(t, err)
	high, err := engine.Run(series, 0.60)
	require.NoError(t, err)

	assert.Greater(t, high.NPV, low.NPV)
}

func TestRunIsPure(t *testing.T) {
	engine := testEngine(t)
	series := testSeries(t)

	first, err := engine.Run(series, 0.48)
	require.NoError(t, err)
	second, err := engine.Run(series, 0.48)
	require.NoError(t, err)

	assert.Equal(t, first.NPV, second.NPV)
	assert.Equal(t, first.IRR, second.IRR)
	assert.NotEqual(t, first.ID, second.ID)
	// the input series is untouched
	assert.Equal(t, 100_000.0, series.Volume(1))
}

func TestRunRejectsBadStreamingPercentage(t *testing.T) {
	engine := testEngine(t)
	series := testSeries(t)

	_, err := engine.Run(series, -0.1)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = engine.Run(series, 1.5)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRunRejectsNilSeries(t *testing.T) {
	engine := testEngine(t)

	_, err := engine.Run(nil, 0.48)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRunSurfacesNaNIRRWithoutError(t *testing.T) {
	// All-negative net cash flows: revenue never covers the investment.
	engine, err := NewEngine(EngineConfig{
		WACC:            0.08,
		InvestmentTotal: 1_000_000_000,
		InvestmentTenor: 20,
	}, nil)
	require.NoError(t, err)
	series := testSeries(t)

	result, err := engine.Run(series, 0.01)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(result.IRR))
	assert.Less(t, result.NPV, 0.0)
}

func TestWithInvestmentTotal(t *testing.T) {
	engine := testEngine(t)
	series := testSeries(t)

	repriced, err := engine.WithInvestmentTotal(10_000_000)
	require.NoError(t, err)
	assert.Equal(t, 10_000_000.0, repriced.Config().InvestmentTotal)
	assert.Equal(t, 20_000_000.0, engine.Config().InvestmentTotal)

	base, err := engine.Run(series, 0.48)
	require.NoError(t, err)
	cheaper, err := repriced.Run(series, 0.48)
	require.NoError(t, err)
	assert.Greater(t, cheaper.NPV, base.NPV)
	assert.Greater(t, cheaper.IRR, base.IRR)

	_, err = engine.WithInvestmentTotal(-5)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
