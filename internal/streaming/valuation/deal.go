package valuation

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"carbon-stream/valuation-engine/internal/streaming"
	"carbon-stream/valuation-engine/internal/streaming/calculation"
	"carbon-stream/valuation-engine/pkg/solver"
)

// Purchase price search bracket. Deal sizes vary enormously, so the bracket
// is deliberately wide.
const (
	minPurchasePrice = 1_000.0
	maxPurchasePrice = 1_000_000_000.0
)

// PriceSolution represents a solved maximum purchase price for a target IRR.
type PriceSolution struct {
	PurchasePrice       float64              `json:"purchase_price"`
	ActualIRR           float64              `json:"actual_irr"`
	TargetIRR           float64              `json:"target_irr"`
	Difference          float64              `json:"difference"`
	StreamingPercentage float64              `json:"streaming_percentage"`
	InvestmentTenor     int                  `json:"investment_tenor"`
	NPV                 float64              `json:"npv"`
	Result              *streaming.DCFResult `json:"result"`
}

// IRRSolution represents the direct valuation of a deal at a fixed price.
type IRRSolution struct {
	PurchasePrice       float64              `json:"purchase_price"`
	IRR                 float64              `json:"irr"`
	NPV                 float64              `json:"npv"`
	StreamingPercentage float64              `json:"streaming_percentage"`
	InvestmentTenor     int                  `json:"investment_tenor"`
	Result              *streaming.DCFResult `json:"result"`
}

// StreamingSolution represents a solved streaming percentage for a fixed
// purchase price and target IRR.
type StreamingSolution struct {
	StreamingPercentage float64              `json:"streaming_percentage"`
	PurchasePrice       float64              `json:"purchase_price"`
	ActualIRR           float64              `json:"actual_irr"`
	TargetIRR           float64              `json:"target_irr"`
	Difference          float64              `json:"difference"`
	InvestmentTenor     int                  `json:"investment_tenor"`
	NPV                 float64              `json:"npv"`
	Result              *streaming.DCFResult `json:"result"`
}

// DealSolver answers the three inverse deal questions: what price achieves a
// target IRR, what IRR does a given price produce, and what streaming
// percentage is needed at a given price.
type DealSolver struct {
	engine    *calculation.Engine
	tolerance float64
	maxIter   int
	logger    *zap.Logger
}

// NewDealSolver creates a deal valuation solver around the given DCF engine.
func NewDealSolver(engine *calculation.Engine, tolerance float64, logger *zap.Logger) *DealSolver {
	if tolerance <= 0 {
		tolerance = 1e-4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealSolver{engine: engine, tolerance: tolerance, maxIter: 100, logger: logger}
}

// priceError builds the objective for price back-solving: the IRR achieved
// when the deal is re-priced at the candidate purchase price, minus the
// target.
func (d *DealSolver) priceError(series *streaming.ProjectSeries, targetIRR, streamingPct float64) solver.Objective {
	return func(price float64) float64 {
		if price <= 0 {
			return infeasibleErrorMagnitude
		}
		engine, err := d.engine.WithInvestmentTotal(price)
		if err != nil {
			return infeasibleErrorMagnitude
		}
		result, err := engine.Run(series, streamingPct)
		if err != nil || math.IsNaN(result.IRR) {
			return infeasibleErrorMagnitude
		}
		return result.IRR - targetIRR
	}
}

// SolveForPurchasePrice finds the maximum purchase price at which the deal
// still delivers the target IRR, holding the streaming percentage fixed.
func (d *DealSolver) SolveForPurchasePrice(series *streaming.ProjectSeries, targetIRR, streamingPct float64) (*PriceSolution, error) {
	if err := calculation.ValidateStreamingPercentage(streamingPct); err != nil {
		return nil, err
	}

	objective := d.priceError(series, targetIRR, streamingPct)

	if err := checkBracketFeasibility(objective, minPurchasePrice, maxPurchasePrice,
		"minimum price $1,000", "maximum price $1B", "IRR"); err != nil {
		return nil, err
	}

	price, err := solver.Brent(objective, minPurchasePrice, maxPurchasePrice,
		solver.Config{Tolerance: d.tolerance, MaxIterations: d.maxIter})
	if err != nil {
		return nil, fmt.Errorf("%w: could not find purchase price for target IRR %g: %v",
			ErrOptimizationFailed, targetIRR, err)
	}

	engine, err := d.engine.WithInvestmentTotal(price)
	if err != nil {
		return nil, err
	}
	final, err := engine.Run(series, streamingPct)
	if err != nil {
		return nil, err
	}

	d.logger.Info("solved purchase price",
		zap.Float64("purchase_price", price),
		zap.Float64("target_irr", targetIRR),
		zap.Float64("actual_irr", final.IRR))

	return &PriceSolution{
		PurchasePrice:       price,
		ActualIRR:           final.IRR,
		TargetIRR:           targetIRR,
		Difference:          math.Abs(final.IRR - targetIRR),
		StreamingPercentage: streamingPct,
		InvestmentTenor:     engine.Config().InvestmentTenor,
		NPV:                 final.NPV,
		Result:              final,
	}, nil
}

// SolveForProjectIRR values the deal at a fixed purchase price: a direct DCF
// run, no root-finding.
func (d *DealSolver) SolveForProjectIRR(series *streaming.ProjectSeries, purchasePrice, streamingPct float64) (*IRRSolution, error) {
	if err := calculation.ValidatePurchasePrice(purchasePrice); err != nil {
		return nil, err
	}

	engine, err := d.engine.WithInvestmentTotal(purchasePrice)
	if err != nil {
		return nil, err
	}
	result, err := engine.Run(series, streamingPct)
	if err != nil {
		return nil, err
	}

	return &IRRSolution{
		PurchasePrice:       purchasePrice,
		IRR:                 result.IRR,
		NPV:                 result.NPV,
		StreamingPercentage: streamingPct,
		InvestmentTenor:     engine.Config().InvestmentTenor,
		Result:              result,
	}, nil
}

// SolveForStreamingGivenPrice finds the streaming percentage needed to hit
// the target IRR when the deal is priced at the given fixed purchase price.
// It delegates to the goal seeker's bracketed search over [0, 1].
func (d *DealSolver) SolveForStreamingGivenPrice(series *streaming.ProjectSeries, purchasePrice, targetIRR float64) (*StreamingSolution, error) {
	if err := calculation.ValidatePurchasePrice(purchasePrice); err != nil {
		return nil, err
	}

	engine, err := d.engine.WithInvestmentTotal(purchasePrice)
	if err != nil {
		return nil, err
	}

	seeker := NewGoalSeeker(engine, d.tolerance, d.logger)
	goal, err := seeker.FindTargetIRRStream(series, targetIRR)
	if err != nil {
		return nil, err
	}

	return &StreamingSolution{
		StreamingPercentage: goal.StreamingPercentage,
		PurchasePrice:       purchasePrice,
		ActualIRR:           goal.ActualIRR,
		TargetIRR:           targetIRR,
		Difference:          goal.Difference,
		InvestmentTenor:     engine.Config().InvestmentTenor,
		NPV:                 goal.NPV,
		Result:              goal.Result,
	}, nil
}
