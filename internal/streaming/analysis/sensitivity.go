// Package analysis provides scenario sweeps over the DCF engine.
package analysis

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
)

// SensitivityTable is a 2D grid of IRR outcomes: rows are credit volume
// multipliers, columns are carbon price multipliers. Cells that could not be
// computed hold NaN.
type SensitivityTable struct {
	VolumeMultipliers []float64   `json:"volume_multipliers"`
	PriceMultipliers  []float64   `json:"price_multipliers"`
	IRR               [][]float64 `json:"irr"`
}

// IRRAt returns the IRR for the volume-multiplier row i and price-multiplier
// column j.
func (t *SensitivityTable) IRRAt(i, j int) float64 { return t.IRR[i][j] }

// SensitivityAnalyzer sweeps volume and price multipliers over the DCF
// engine.
type SensitivityAnalyzer struct {
	engine *calculation.Engine
	logger *zap.Logger
}

// NewSensitivityAnalyzer creates a sensitivity analyzer.
func NewSensitivityAnalyzer(engine *calculation.Engine, logger *zap.Logger) *SensitivityAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SensitivityAnalyzer{engine: engine, logger: logger}
}

// RunTable computes the IRR for every (volume multiplier, price multiplier)
// pair at a fixed streaming percentage. A failure in one cell records NaN and
// never aborts the sweep.
func (a *SensitivityAnalyzer) RunTable(series *streaming.ProjectSeries, streamingPct float64, volumeMultipliers, priceMultipliers []float64) (*SensitivityTable, error) {
	if err := calculation.ValidateStreamingPercentage(streamingPct); err != nil {
		return nil, err
	}
	if len(volumeMultipliers) == 0 || len(priceMultipliers) == 0 {
		return nil, fmt.Errorf("%w: multiplier ranges must not be empty", calculation.ErrInvalidInput)
	}

	table := &SensitivityTable{
		VolumeMultipliers: append([]float64(nil), volumeMultipliers...),
		PriceMultipliers:  append([]float64(nil), priceMultipliers...),
		IRR:               make([][]float64, len(volumeMultipliers)),
	}

	for i, volumeMult := range volumeMultipliers {
		row := make([]float64, len(priceMultipliers))
		for j, priceMult := range priceMultipliers {
			row[j] = a.cellIRR(series, streamingPct, volumeMult, priceMult)
		}
		table.IRR[i] = row
	}

	return table, nil
}

func (a *SensitivityAnalyzer) cellIRR(series *streaming.ProjectSeries, streamingPct, volumeMult, priceMult float64) float64 {
	scenario := series.ScaleVolumes(volumeMult).ScalePrices(priceMult)
	result, err := a.engine.Run(scenario, streamingPct)
	if err != nil {
		a.logger.Warn("sensitivity cell failed",
			zap.Float64("volume_multiplier", volumeMult),
			zap.Float64("price_multiplier", priceMult),
			zap.Error(err))
		return math.NaN()
	}
	if math.IsNaN(result.IRR) || math.IsInf(result.IRR, 0) {
		return math.NaN()
	}
	return result.IRR
}
