// Package calculation implements the DCF calculation chain for carbon credit
// streaming deals: the per-year cash-flow schedule, NPV, IRR, and payback.
package calculation

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/streaming"
)

// EngineConfig holds the deal parameters an Engine is constructed with.
type EngineConfig struct {
	// WACC is the annual discount rate as a decimal (0.08 for 8%).
	WACC float64
	// InvestmentTotal is the total investor purchase amount in USD.
	InvestmentTotal float64
	// InvestmentTenor is the number of years the investment is deployed over.
	InvestmentTenor int
	// IRR configures the embedded IRR solver. Zero value uses defaults.
	IRR IRRConfig
}

// Engine performs DCF calculations for a fixed set of deal parameters.
// Run is a pure function of its arguments; the engine holds no mutable state
// and a single instance can serve any number of calls.
type Engine struct {
	cfg    EngineConfig
	irr    *IRRCalculator
	logger *zap.Logger
}

// NewEngine creates a DCF engine. Deal parameters are validated up front.
func NewEngine(cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if err := ValidateInvestment(cfg.InvestmentTotal, cfg.InvestmentTenor); err != nil {
		return nil, err
	}
	if cfg.WACC <= -1 {
		return nil, fmt.Errorf("%w: WACC must be greater than -100%%, got %g", ErrInvalidInput, cfg.WACC)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.IRR == (IRRConfig{}) {
		cfg.IRR = DefaultIRRConfig()
	}
	return &Engine{
		cfg:    cfg,
		irr:    NewIRRCalculator(cfg.IRR, logger),
		logger: logger,
	}, nil
}

// Config returns the engine's deal parameters.
func (e *Engine) Config() EngineConfig { return e.cfg }

// WithInvestmentTotal returns a new engine with the investment total swapped
// and everything else unchanged. Used by the deal valuation solver, which
// re-prices the same project at candidate purchase prices.
func (e *Engine) WithInvestmentTotal(total float64) (*Engine, error) {
	cfg := e.cfg
	cfg.InvestmentTotal = total
	return NewEngine(cfg, e.logger)
}

// Run executes the full DCF chain for the series at the given streaming
// percentage and returns a fresh result. The input series is never mutated.
//
// An IRR of NaN is an expected outcome for degenerate cash-flow signs and is
// surfaced in the result rather than as an error; a NaN NPV indicates broken
// input data and is returned as an error.
func (e *Engine) Run(series *streaming.ProjectSeries, streamingPct float64) (*streaming.DCFResult, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: project series is required", ErrInvalidInput)
	}
	if err := ValidateStreamingPercentage(streamingPct); err != nil {
		return nil, err
	}

	n := series.NumYears()
	schedule := make([]streaming.CashFlowRow, n)
	annualInvestment := e.cfg.InvestmentTotal / float64(e.cfg.InvestmentTenor)

	cumulativeCF := 0.0
	cumulativePV := 0.0
	npv := 0.0
	netCashFlows := make([]float64, n)

	for i := 0; i < n; i++ {
		year := i + 1

		share := series.Volume(year) * streamingPct
		revenue := share * series.Price(year)

		investmentCF := 0.0
		if year <= e.cfg.InvestmentTenor {
			investmentCF = -annualInvestment
		}

		netCF := revenue + investmentCF

		// Year 1 is undiscounted: the exponent is year-1.
		discountFactor := 1.0 / math.Pow(1+e.cfg.WACC, float64(year-1))
		presentValue := netCF * discountFactor

		cumulativeCF += netCF
		cumulativePV += presentValue
		npv += presentValue
		netCashFlows[i] = netCF

		schedule[i] = streaming.CashFlowRow{
			Year:               year,
			GrossCredits:       series.Volume(year),
			BaseCarbonPrice:    series.Price(year),
			ProjectCost:        series.Cost(year),
			ShareOfCredits:     share,
			Revenue:            revenue,
			InvestmentCashFlow: investmentCF,
			NetCashFlow:        netCF,
			DiscountFactor:     discountFactor,
			PresentValue:       presentValue,
			CumulativeCashFlow: cumulativeCF,
			CumulativePV:       cumulativePV,
		}
	}

	if math.IsNaN(npv) {
		return nil, fmt.Errorf("NPV is NaN: input data is malformed")
	}

	irr := e.irr.Calculate(netCashFlows)
	if math.IsNaN(irr) {
		e.logger.Warn("no real IRR exists for cash-flow series",
			zap.Float64("streaming_percentage", streamingPct),
			zap.Float64("npv", npv))
	}

	return &streaming.DCFResult{
		ID:                  uuid.New(),
		StreamingPercentage: streamingPct,
		Schedule:            schedule,
		NPV:                 npv,
		IRR:                 irr,
		GeneratedAt:         time.Now(),
	}, nil
}
