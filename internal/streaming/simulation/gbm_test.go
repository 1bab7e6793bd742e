package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-stream/valuation-engine/internal/streaming/calculation"
)

func TestGeneratePathReproducibleWithSeed(t *testing.T) {
	sim := NewPriceSimulator(nil)

	first, err := sim.GeneratePath(50, 0.03, 0.15, 20, NewSeededSource(42))
	require.NoError(t, err)
	second, err := sim.GeneratePath(50, 0.03, 0.15, 20, NewSeededSource(42))
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := sim.GeneratePath(50, 0.03, 0.15, 20, NewSeededSource(7))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestGeneratePathZeroVolatilityIsDeterministic(t *testing.T) {
	sim := NewPriceSimulator(nil)

	path, err := sim.GeneratePath(50, 0, 0, 10, NewSeededSource(1))
	require.NoError(t, err)
	require.Len(t, path, 10)
	for _, price := range path {
		assert.InDelta(t, 50.0, price, 1e-9)
	}

	// With zero volatility the exponent reduces to the drift alone.
	drifted, err := sim.GeneratePath(50, 0.03, 0, 20, NewSeededSource(1))
	require.NoError(t, err)
	assert.InDelta(t, 50*math.Exp(0.03*20), drifted[19], 1e-6)
}

func TestGeneratePathMeanTerminalPrice(t *testing.T) {
	sim := NewPriceSimulator(nil)
	src := NewSeededSource(42)

	trials := 1000
	sum := 0.0
	for i := 0; i < trials; i++ {
		path, err := sim.GeneratePath(50, 0.03, 0.15, 20, src)
		require.NoError(t, err)
		sum += path[19]
	}
	mean := sum / float64(trials)

	// E[S(T)] = S(0) * exp(mu * T) for GBM.
	assert.InEpsilon(t, 50*math.Exp(0.03*20), mean, 0.15)
}

func TestGeneratePathValidation(t *testing.T) {
	sim := NewPriceSimulator(nil)

	_, err := sim.GeneratePath(50, 0.03, 0.15, 0, nil)
	assert.True(t, errors.Is(err, calculation.ErrInvalidInput))

	_, err = sim.GeneratePath(50, 0.03, -0.1, 10, nil)
	assert.True(t, errors.Is(err, calculation.ErrInvalidInput))
}

func TestGeneratePathFromBaseAnchorsFirstPositive(t *testing.T) {
	sim := NewPriceSimulator(nil)
	base := []float64{0, 0, 40, 45, 50}

	path, err := sim.GeneratePathFromBase(base, 0, 0, NewSeededSource(1))
	require.NoError(t, err)
	require.Len(t, path, len(base))
	for _, price := range path {
		assert.InDelta(t, 40.0, price, 1e-9)
	}

	_, err = sim.GeneratePathFromBase(nil, 0, 0, nil)
	assert.True(t, errors.Is(err, calculation.ErrInvalidInput))
}

func TestImpliedVolatility(t *testing.T) {
	// Constant growth: every period return is identical, so zero spread.
	assert.InDelta(t, 0.0, ImpliedVolatility([]float64{100, 110, 121}, 1), 1e-12)

	// Alternating +10%/-10% returns around a 3.33% mean.
	vol := ImpliedVolatility([]float64{100, 110, 99, 108.9}, 1)
	assert.InDelta(t, 0.11547, vol, 1e-4)

	// Sub-annual data is annualized by sqrt(periods per year).
	quarterly := ImpliedVolatility([]float64{100, 110, 99, 108.9}, 4)
	assert.InDelta(t, vol*2, quarterly, 1e-9)
}

func TestImpliedVolatilityDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, ImpliedVolatility(nil, 1))
	assert.Equal(t, 0.0, ImpliedVolatility([]float64{100}, 1))
	assert.Equal(t, 0.0, ImpliedVolatility([]float64{100, 110}, 1))
	// Zero prices break the return at that step but not the whole series.
	assert.Equal(t, 0.0, ImpliedVolatility([]float64{0, 0, 100}, 1))
}

func TestImpliedDrift(t *testing.T) {
	assert.InDelta(t, 0.21, ImpliedDrift([]float64{100, 121}), 1e-12)
	assert.InDelta(t, 0.10, ImpliedDrift([]float64{100, 110, 121}), 1e-9)

	assert.Equal(t, 0.0, ImpliedDrift([]float64{100}))
	assert.Equal(t, 0.0, ImpliedDrift(nil))
	assert.Equal(t, 0.0, ImpliedDrift([]float64{0, 110}))
}
