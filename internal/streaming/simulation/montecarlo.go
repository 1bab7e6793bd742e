package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
)

// multiplier floor applied to noisy price and volume draws so generated
// paths stay strictly positive.
const multiplierFloor = 0.01

// progressInterval is the trial cadence for progress logging.
const progressInterval = 1000

// MonteCarloConfig carries the parameters of one simulation batch.
type MonteCarloConfig struct {
	// Trials is the number of independent simulations to run.
	Trials int
	// Seed fixes the top-level random source for full-run reproducibility.
	// Nil yields independent draws every run. The seed is applied once for
	// the whole batch, never per trial: reseeding each trial would collapse
	// all trials onto identical noise.
	Seed *uint64
	// StreamingPercentage is held fixed across all trials.
	StreamingPercentage float64

	// UseGBM selects the GBM price model; otherwise the growth-rate
	// deviation model runs (the default).
	UseGBM        bool
	GBMDrift      float64
	GBMVolatility float64

	// UsePercentageVariation switches the non-GBM path to direct
	// multiplicative noise on each year's base price instead of perturbing
	// growth rates.
	UsePercentageVariation bool
	// PriceGrowthBase is the fallback annual growth rate used when a base
	// price of zero makes the implied growth rate undefined.
	PriceGrowthBase float64
	// PriceGrowthDeviationMean biases the normal growth-rate deviation
	// (default 0: centered on the base forecast).
	PriceGrowthDeviationMean float64
	// PriceGrowthStdDev is the volatility of the growth-rate deviation, or
	// of the direct price multiplier in percentage-variation mode.
	PriceGrowthStdDev float64

	// VolumeMultiplierBase is the mean of the yearly volume multiplier,
	// typically 1.0.
	VolumeMultiplierBase float64
	// VolumeStdDev is the standard deviation of the volume multiplier.
	VolumeStdDev float64
}

// MonteCarloSimulator runs repeated DCF valuations over stochastically
// perturbed price and volume paths and aggregates the IRR/NPV distributions.
// Trials run strictly sequentially in index order and share no mutable
// state beyond the batch random source.
type MonteCarloSimulator struct {
	engine *calculation.Engine
	prices *PriceSimulator
	logger *zap.Logger
}

// NewMonteCarloSimulator creates a Monte Carlo simulator around the given
// DCF engine.
func NewMonteCarloSimulator(engine *calculation.Engine, prices *PriceSimulator, logger *zap.Logger) *MonteCarloSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prices == nil {
		prices = NewPriceSimulator(logger)
	}
	return &MonteCarloSimulator{engine: engine, prices: prices, logger: logger}
}

// Run executes the batch. A failed trial records NaN for both IRR and NPV at
// its trial index and never aborts the batch; summary statistics are
// computed over finite entries only.
func (m *MonteCarloSimulator) Run(series *streaming.ProjectSeries, cfg MonteCarloConfig) (*streaming.SimulationResult, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: project series is required", calculation.ErrInvalidInput)
	}
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("%w: trial count must be positive, got %d", calculation.ErrInvalidInput, cfg.Trials)
	}
	if err := calculation.ValidateStreamingPercentage(cfg.StreamingPercentage); err != nil {
		return nil, err
	}
	if cfg.PriceGrowthStdDev < 0 || cfg.VolumeStdDev < 0 || cfg.GBMVolatility < 0 {
		return nil, fmt.Errorf("%w: standard deviations must not be negative", calculation.ErrInvalidInput)
	}

	var src rand.Source
	if cfg.Seed != nil {
		src = rand.NewSource(*cfg.Seed)
	} else {
		src = rand.NewSource(uint64(time.Now().UnixNano()))
	}

	m.logger.Info("starting Monte Carlo simulation",
		zap.Int("trials", cfg.Trials),
		zap.Bool("gbm_price_model", cfg.UseGBM),
		zap.Float64("streaming_percentage", cfg.StreamingPercentage))

	irrs := make([]float64, cfg.Trials)
	npvs := make([]float64, cfg.Trials)

	for i := 0; i < cfg.Trials; i++ {
		irr, npv := m.runTrial(series, cfg, src)
		irrs[i] = irr
		npvs[i] = npv

		if (i+1)%progressInterval == 0 {
			m.logger.Info("simulation progress",
				zap.Int("completed", i+1),
				zap.Int("total", cfg.Trials))
		}
	}

	result := &streaming.SimulationResult{
		ID:          uuid.New(),
		IRRs:        irrs,
		NPVs:        npvs,
		Trials:      cfg.Trials,
		GeneratedAt: time.Now(),
	}
	result.IRRStats, result.ValidTrials = summarize(irrs)
	result.NPVStats, _ = summarize(npvs)

	m.logger.Info("Monte Carlo simulation complete",
		zap.Int("valid_trials", result.ValidTrials),
		zap.Float64("mean_irr", result.IRRStats.Mean),
		zap.Float64("p10_irr", result.IRRStats.P10),
		zap.Float64("p90_irr", result.IRRStats.P90))

	return result, nil
}

// runTrial clones the base series, swaps in noisy price and volume paths,
// and reruns the DCF engine. Any failure maps to (NaN, NaN).
func (m *MonteCarloSimulator) runTrial(series *streaming.ProjectSeries, cfg MonteCarloConfig, src rand.Source) (float64, float64) {
	pricePath, err := m.trialPricePath(series.Prices(), cfg, src)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	volumePath := m.trialVolumePath(series.Volumes(), cfg, src)

	trial, err := series.WithPrices(pricePath)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	trial, err = trial.WithVolumes(volumePath)
	if err != nil {
		return math.NaN(), math.NaN()
	}

	result, err := m.engine.Run(trial, cfg.StreamingPercentage)
	if err != nil {
		return math.NaN(), math.NaN()
	}

	irr := result.IRR
	npv := result.NPV
	if math.IsInf(irr, 0) {
		irr = math.NaN()
	}
	if math.IsInf(npv, 0) {
		npv = math.NaN()
	}
	return irr, npv
}

func (m *MonteCarloSimulator) trialPricePath(basePrices []float64, cfg MonteCarloConfig, src rand.Source) ([]float64, error) {
	if cfg.UseGBM {
		return m.prices.GeneratePathFromBase(basePrices, cfg.GBMDrift, cfg.GBMVolatility, src)
	}
	if cfg.UsePercentageVariation {
		return percentageVariationPath(basePrices, cfg.PriceGrowthStdDev, src), nil
	}
	return growthDeviationPath(basePrices, cfg.PriceGrowthBase, cfg.PriceGrowthDeviationMean, cfg.PriceGrowthStdDev, src), nil
}

// growthDeviationPath perturbs the growth rates implied by the base price
// curve and compounds them onto the previous *simulated* price, so
// deviations accumulate along the path. A zero previous simulated price
// shortcuts to that year's base price.
func growthDeviationPath(basePrices []float64, fallbackGrowth, deviationMean, stdDev float64, src rand.Source) []float64 {
	normal := distuv.Normal{Mu: deviationMean, Sigma: stdDev, Src: src}

	path := make([]float64, len(basePrices))
	copy(path, basePrices)

	for i := 1; i < len(basePrices); i++ {
		basePrev := basePrices[i-1]
		baseCurr := basePrices[i]

		baseGrowth := fallbackGrowth
		if basePrev > 0 {
			baseGrowth = baseCurr/basePrev - 1
		}

		prev := path[i-1]
		if prev > 0 {
			path[i] = prev * (1 + baseGrowth + normal.Rand())
		} else {
			path[i] = baseCurr
		}
	}
	return path
}

// percentageVariationPath multiplies each year's base price by an
// independent normal multiplier centered at 1.0, floored at 0.01.
func percentageVariationPath(basePrices []float64, stdDev float64, src rand.Source) []float64 {
	normal := distuv.Normal{Mu: 1.0, Sigma: stdDev, Src: src}

	path := make([]float64, len(basePrices))
	for i, base := range basePrices {
		path[i] = base * math.Max(normal.Rand(), multiplierFloor)
	}
	return path
}

// trialVolumePath applies independent normal multipliers to the base
// volumes, floored at 0.01. Volume noise is independent of the price model.
func (m *MonteCarloSimulator) trialVolumePath(baseVolumes []float64, cfg MonteCarloConfig, src rand.Source) []float64 {
	normal := distuv.Normal{Mu: cfg.VolumeMultiplierBase, Sigma: cfg.VolumeStdDev, Src: src}

	path := make([]float64, len(baseVolumes))
	for i, base := range baseVolumes {
		path[i] = base * math.Max(normal.Rand(), multiplierFloor)
	}
	return path
}

// summarize computes distribution statistics over the finite entries of a
// trial outcome slice, returning NaN statistics when no trial succeeded.
func summarize(values []float64) (streaming.DistributionStats, int) {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}

	if len(valid) == 0 {
		nan := math.NaN()
		return streaming.DistributionStats{Mean: nan, Std: nan, P10: nan, P90: nan}, 0
	}

	mean, _ := stats.Mean(valid)
	sd, _ := stats.StandardDeviation(valid)
	p10, err10 := stats.Percentile(valid, 10)
	if err10 != nil {
		p10 = valid[0]
	}
	p90, err90 := stats.Percentile(valid, 90)
	if err90 != nil {
		p90 = valid[0]
	}

	return streaming.DistributionStats{Mean: mean, Std: sd, P10: p10, P90: p90}, len(valid)
}
