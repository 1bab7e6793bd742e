package valuation

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
	"carbon-stream/valuation-engine/pkg/solver"
)

// Multiplicative search brackets for breakeven root-finding.
const (
	minMultiplier       = 0.1
	maxMultiplier       = 5.0
	minStreamingBracket = 0.01
	maxStreamingBracket = 1.0
)

// npvErrorMagnitude is the objective value returned for NaN NPVs during
// breakeven search.
const npvErrorMagnitude = 1e6

// NoAnchorError reports that a breakeven multiplier has no valid base value
// to anchor against, e.g. an all-zero price column.
type NoAnchorError struct {
	Column string
}

func (e *NoAnchorError) Error() string {
	return fmt.Sprintf("no valid base values in %s column to anchor the breakeven multiplier", e.Column)
}

// PriceBreakeven represents the carbon price needed to reach a target NPV.
type PriceBreakeven struct {
	BreakevenPrice  float64 `json:"breakeven_price"`
	BasePrice       float64 `json:"base_price"`
	PriceMultiplier float64 `json:"price_multiplier"`
	TargetNPV       float64 `json:"target_npv"`
}

// VolumeBreakeven represents the credit volume multiplier needed to reach a
// target NPV.
type VolumeBreakeven struct {
	VolumeMultiplier float64 `json:"breakeven_volume_multiplier"`
	BaseVolume       float64 `json:"base_volume"`
	TargetNPV        float64 `json:"target_npv"`
}

// StreamingBreakeven represents the streaming percentage needed to reach a
// target NPV.
type StreamingBreakeven struct {
	Streaming float64 `json:"breakeven_streaming"`
	TargetNPV float64 `json:"target_npv"`
}

// BreakevenSet bundles all three breakeven calculations for one series.
type BreakevenSet struct {
	Price     *PriceBreakeven     `json:"breakeven_price,omitempty"`
	Volume    *VolumeBreakeven    `json:"breakeven_volume,omitempty"`
	Streaming *StreamingBreakeven `json:"breakeven_streaming,omitempty"`
	TargetNPV float64             `json:"target_npv"`
}

// BreakevenCalculator root-finds the input value (price multiplier, volume
// multiplier, or streaming percentage) that drives NPV to a target.
type BreakevenCalculator struct {
	engine    *calculation.Engine
	tolerance float64
	maxIter   int
	logger    *zap.Logger
}

// NewBreakevenCalculator creates a breakeven calculator around the given
// DCF engine.
func NewBreakevenCalculator(engine *calculation.Engine, tolerance float64, logger *zap.Logger) *BreakevenCalculator {
	if tolerance <= 0 {
		tolerance = 1e-4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakevenCalculator{engine: engine, tolerance: tolerance, maxIter: 100, logger: logger}
}

// BreakevenPrice finds the carbon price (expressed as a multiplier on the
// base price column, anchored to its positive-value average) at which NPV
// equals targetNPV.
func (b *BreakevenCalculator) BreakevenPrice(series *streaming.ProjectSeries, streamingPct, targetNPV float64) (*PriceBreakeven, error) {
	if err := calculation.ValidateStreamingPercentage(streamingPct); err != nil {
		return nil, err
	}

	avgBasePrice := positiveMean(series.Prices())
	if avgBasePrice <= 0 {
		return nil, &NoAnchorError{Column: "price"}
	}

	objective := func(multiplier float64) float64 {
		scaled := series.ScalePrices(multiplier)
		result, err := b.engine.Run(scaled, streamingPct)
		if err != nil || math.IsNaN(result.NPV) {
			return npvErrorMagnitude
		}
		return result.NPV - targetNPV
	}

	multiplier, err := b.solveMultiplier(objective, minMultiplier, maxMultiplier, 1.0)
	if err != nil {
		return nil, fmt.Errorf("%w: could not solve for breakeven price: %v", ErrOptimizationFailed, err)
	}

	return &PriceBreakeven{
		BreakevenPrice:  avgBasePrice * multiplier,
		BasePrice:       avgBasePrice,
		PriceMultiplier: multiplier,
		TargetNPV:       targetNPV,
	}, nil
}

// BreakevenVolume finds the credit volume multiplier at which NPV equals
// targetNPV.
func (b *BreakevenCalculator) BreakevenVolume(series *streaming.ProjectSeries, streamingPct, targetNPV float64) (*VolumeBreakeven, error) {
	if err := calculation.ValidateStreamingPercentage(streamingPct); err != nil {
		return nil, err
	}

	avgBaseVolume := positiveMean(series.Volumes())
	if avgBaseVolume <= 0 {
		return nil, &NoAnchorError{Column: "volume"}
	}

	objective := func(multiplier float64) float64 {
		scaled := series.ScaleVolumes(multiplier)
		result, err := b.engine.Run(scaled, streamingPct)
		if err != nil || math.IsNaN(result.NPV) {
			return npvErrorMagnitude
		}
		return result.NPV - targetNPV
	}

	multiplier, err := b.solveMultiplier(objective, minMultiplier, maxMultiplier, 1.0)
	if err != nil {
		return nil, fmt.Errorf("%w: could not solve for breakeven volume: %v", ErrOptimizationFailed, err)
	}

	return &VolumeBreakeven{
		VolumeMultiplier: multiplier,
		BaseVolume:       avgBaseVolume,
		TargetNPV:        targetNPV,
	}, nil
}

// BreakevenStreaming finds the streaming percentage at which NPV equals
// targetNPV.
func (b *BreakevenCalculator) BreakevenStreaming(series *streaming.ProjectSeries, targetNPV float64) (*StreamingBreakeven, error) {
	objective := func(streamingPct float64) float64 {
		if streamingPct < 0 || streamingPct > 1 {
			return npvErrorMagnitude
		}
		result, err := b.engine.Run(series, streamingPct)
		if err != nil || math.IsNaN(result.NPV) {
			return npvErrorMagnitude
		}
		return result.NPV - targetNPV
	}

	streamingPct, err := b.solveMultiplier(objective, minStreamingBracket, maxStreamingBracket, 0.5)
	if err != nil {
		return nil, fmt.Errorf("%w: could not solve for breakeven streaming: %v", ErrOptimizationFailed, err)
	}
	// The secant fallback can step outside the bracket.
	streamingPct = math.Max(minStreamingBracket, math.Min(maxStreamingBracket, streamingPct))

	return &StreamingBreakeven{Streaming: streamingPct, TargetNPV: targetNPV}, nil
}

// AllBreakevens computes the three breakeven points in one call. Individual
// failures are isolated: a nil entry with the error logged, not a failed set.
func (b *BreakevenCalculator) AllBreakevens(series *streaming.ProjectSeries, streamingPct, targetNPV float64) *BreakevenSet {
	set := &BreakevenSet{TargetNPV: targetNPV}

	price, err := b.BreakevenPrice(series, streamingPct, targetNPV)
	if err != nil {
		b.logger.Warn("breakeven price unavailable", zap.Error(err))
	} else {
		set.Price = price
	}

	volume, err := b.BreakevenVolume(series, streamingPct, targetNPV)
	if err != nil {
		b.logger.Warn("breakeven volume unavailable", zap.Error(err))
	} else {
		set.Volume = volume
	}

	str, err := b.BreakevenStreaming(series, targetNPV)
	if err != nil {
		b.logger.Warn("breakeven streaming unavailable", zap.Error(err))
	} else {
		set.Streaming = str
	}

	return set
}

// solveMultiplier attempts the bracketed method first, then the secant
// fallback seeded at guess.
func (b *BreakevenCalculator) solveMultiplier(objective solver.Objective, lower, upper, guess float64) (float64, error) {
	cfg := solver.Config{Tolerance: b.tolerance, MaxIterations: b.maxIter}

	value, method, _, err := solver.RunChain([]solver.Strategy{
		{Name: "brent", Run: func() (float64, error) { return solver.Brent(objective, lower, upper, cfg) }},
		{Name: "secant", Run: func() (float64, error) { return solver.Secant(objective, guess, cfg) }},
	})
	if err != nil {
		return 0, err
	}
	if method != "brent" {
		b.logger.Warn("breakeven bracketing failed, secant fallback used", zap.Float64("value", value))
	}
	return value, nil
}

// positiveMean averages the strictly positive entries of a column.
func positiveMean(values []float64) float64 {
	sum := 0.0
	count := 0
	for _, v := range values {
		if v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
