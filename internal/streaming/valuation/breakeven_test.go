package valuation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakevenPriceDrivesNPVToTarget(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	breakeven, err := calc.BreakevenPrice(series, 0.48, 0)
	require.NoError(t, err)

	assert.Equal(t, 50.0, breakeven.BasePrice)
	assert.Greater(t, breakeven.PriceMultiplier, 0.1)
	assert.Less(t, breakeven.PriceMultiplier, 5.0)
	assert.InDelta(t, 50.0*breakeven.PriceMultiplier, breakeven.BreakevenPrice, 1e-9)

	result, err := engine.Run(series.ScalePrices(breakeven.PriceMultiplier), 0.48)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.NPV, 50_000)
}

func TestBreakevenPriceNonZeroTarget(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	targetNPV := 10_000_000.0
	breakeven, err := calc.BreakevenPrice(series, 0.48, targetNPV)
	require.NoError(t, err)

	result, err := engine.Run(series.ScalePrices(breakeven.PriceMultiplier), 0.48)
	require.NoError(t, err)
	assert.InDelta(t, targetNPV, result.NPV, 50_000)
}

func TestBreakevenPriceNoAnchor(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 0)

	_, err := calc.BreakevenPrice(series, 0.48, 0)
	require.Error(t, err)

	var noAnchor *NoAnchorError
	require.True(t, errors.As(err, &noAnchor))
	assert.Equal(t, "price", noAnchor.Column)
}

func TestBreakevenVolumeDrivesNPVToTarget(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	breakeven, err := calc.BreakevenVolume(series, 0.48, 0)
	require.NoError(t, err)

	assert.Equal(t, 100_000.0, breakeven.BaseVolume)

	result, err := engine.Run(series.ScaleVolumes(breakeven.VolumeMultiplier), 0.48)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.NPV, 50_000)
}

func TestBreakevenVolumeNoAnchor(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 0, 50)

	_, err := calc.BreakevenVolume(series, 0.48, 0)
	require.Error(t, err)

	var noAnchor *NoAnchorError
	require.True(t, errors.As(err, &noAnchor))
	assert.Equal(t, "volume", noAnchor.Column)
}

func TestBreakevenStreamingDrivesNPVToTarget(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	breakeven, err := calc.BreakevenStreaming(series, 0)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, breakeven.Streaming, 0.01)
	assert.LessOrEqual(t, breakeven.Streaming, 1.0)

	result, err := engine.Run(series, breakeven.Streaming)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, result.NPV, 50_000)
}

func TestAllBreakevens(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	series := flatSeries(t, 20, 100_000, 50)

	set := calc.AllBreakevens(series, 0.48, 0)
	require.NotNil(t, set)
	assert.NotNil(t, set.Price)
	assert.NotNil(t, set.Volume)
	assert.NotNil(t, set.Streaming)
	assert.Equal(t, 0.0, set.TargetNPV)
}

func TestAllBreakevensIsolatesFailures(t *testing.T) {
	engine := newTestEngine(t, 20_000_000, 5)
	calc := NewBreakevenCalculator(engine, 0, nil)
	// Zero prices: no price anchor, and the NPV is flat so no multiplier
	// or streaming percentage can reach the target.
	series := flatSeries(t, 20, 100_000, 0)

	set := calc.AllBreakevens(series, 0.48, 0)
	require.NotNil(t, set)
	assert.Nil(t, set.Price)
	assert.Nil(t, set.Volume)
	assert.Nil(t, set.Streaming)
}

func TestPositiveMean(t *testing.T) {
	assert.Equal(t, 0.0, positiveMean(nil))
	assert.Equal(t, 0.0, positiveMean([]float64{0, -5}))
	assert.InDelta(t, 30.0, positiveMean([]float64{10, 50, 0, -10}), 1e-12)
}
