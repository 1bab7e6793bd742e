package streaming

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProjectSeries(t *testing.T) {
	series, err := NewProjectSeries(
		[]float64{100_000, 120_000},
		[]float64{50, 52},
		[]float64{1_000_000, 0},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, series.NumYears())
	assert.Equal(t, []int{1, 2}, series.Years())
	assert.Equal(t, 100_000.0, series.Volume(1))
	assert.Equal(t, 52.0, series.Price(2))
	assert.Equal(t, 1_000_000.0, series.Cost(1))
}

func TestNewProjectSeriesRejectsEmpty(t *testing.T) {
	_, err := NewProjectSeries(nil, nil, nil)
	assert.Error(t, err)
}

func TestNewProjectSeriesRejectsMismatchedColumns(t *testing.T) {
	_, err := NewProjectSeries(
		[]float64{1, 2, 3},
		[]float64{50, 52},
		[]float64{0, 0, 0},
	)
	assert.Error(t, err)
}

func TestNewProjectSeriesCoercesNonFinite(t *testing.T) {
	series, err := NewProjectSeries(
		[]float64{math.NaN(), 100},
		[]float64{50, math.Inf(1)},
		[]float64{0, 0},
	)
	require.NoError(t, err)

	assert.Equal(t, 0.0, series.Volume(1))
	assert.Equal(t, 0.0, series.Price(2))
}

func TestAccessorsReturnCopies(t *testing.T) {
	series, err := NewProjectSeries(
		[]float64{100, 200},
		[]float64{50, 52},
		[]float64{0, 0},
	)
	require.NoError(t, err)

	volumes := series.Volumes()
	volumes[0] = -1
	assert.Equal(t, 100.0, series.Volume(1))
}

func TestScaleVolumesAndPrices(t *testing.T) {
	series, err := NewProjectSeries(
		[]float64{100, 200},
		[]float64{50, 52},
		[]float64{10, 20},
	)
	require.NoError(t, err)

	scaled := series.ScaleVolumes(2).ScalePrices(0.5)
	assert.Equal(t, 200.0, scaled.Volume(1))
	assert.Equal(t, 25.0, scaled.Price(1))
	assert.Equal(t, 10.0, scaled.Cost(1))

	// original untouched
	assert.Equal(t, 100.0, series.Volume(1))
	assert.Equal(t, 50.0, series.Price(1))
}

func TestWithPricesRequiresMatchingLength(t *testing.T) {
	series, err := NewProjectSeries(
		[]float64{100, 200},
		[]float64{50, 52},
		[]float64{0, 0},
	)
	require.NoError(t, err)

	_, err = series.WithPrices([]float64{50})
	assert.Error(t, err)

	replaced, err := series.WithPrices([]float64{60, 70})
	require.NoError(t, err)
	assert.Equal(t, 60.0, replaced.Price(1))
	assert.Equal(t, 100.0, replaced.Volume(1))
}

func TestDCFResultColumns(t *testing.T) {
	result := &DCFResult{
		Schedule: []CashFlowRow{
			{Year: 1, NetCashFlow: -100, CumulativeCashFlow: -100},
			{Year: 2, NetCashFlow: 150, CumulativeCashFlow: 50},
		},
	}

	assert.Equal(t, []float64{-100, 150}, result.NetCashFlows())
	assert.Equal(t, []float64{-100, 50}, result.CumulativeCashFlows())
}
