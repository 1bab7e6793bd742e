package streaming

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ProjectSeries holds the annual project dataset for a carbon streaming deal:
// gross credit volumes, base carbon prices, and project implementation costs,
// indexed by a dense integer year range starting at 1.
//
// A series is read-only once constructed. Components that need to vary prices
// or volumes (sensitivity scenarios, Monte Carlo trials) work on a Clone.
type ProjectSeries struct {
	years   []int
	volumes []float64
	prices  []float64
	costs   []float64
}

// NewProjectSeries builds a ProjectSeries from parallel annual slices.
// Element i corresponds to year i+1. Non-finite values are coerced to 0 so
// downstream financial calculations never see NaN.
func NewProjectSeries(volumes, prices, costs []float64) (*ProjectSeries, error) {
	n := len(volumes)
	if n == 0 {
		return nil, fmt.Errorf("project series must contain at least one year")
	}
	if len(prices) != n || len(costs) != n {
		return nil, fmt.Errorf("series columns must have equal length: volumes=%d prices=%d costs=%d",
			n, len(prices), len(costs))
	}

	s := &ProjectSeries{
		years:   make([]int, n),
		volumes: make([]float64, n),
		prices:  make([]float64, n),
		costs:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.years[i] = i + 1
		s.volumes[i] = coerceFinite(volumes[i])
		s.prices[i] = coerceFinite(prices[i])
		s.costs[i] = coerceFinite(costs[i])
	}
	return s, nil
}

func coerceFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0.0
	}
	return v
}

// NumYears returns the length of the series.
func (s *ProjectSeries) NumYears() int { return len(s.years) }

// Years returns the dense 1..N year index.
func (s *ProjectSeries) Years() []int { return s.years }

// Volume returns the gross credit volume for the given year (1-based).
func (s *ProjectSeries) Volume(year int) float64 { return s.volumes[year-1] }

// Price returns the base carbon price for the given year (1-based).
func (s *ProjectSeries) Price(year int) float64 { return s.prices[year-1] }

// Cost returns the project implementation cost for the given year (1-based).
func (s *ProjectSeries) Cost(year int) float64 { return s.costs[year-1] }

// Volumes returns a copy of the gross credit volume column.
func (s *ProjectSeries) Volumes() []float64 { return copyColumn(s.volumes) }

// Prices returns a copy of the base carbon price column.
func (s *ProjectSeries) Prices() []float64 { return copyColumn(s.prices) }

// Costs returns a copy of the implementation cost column.
func (s *ProjectSeries) Costs() []float64 { return copyColumn(s.costs) }

// Clone returns a fully independent copy of the series.
func (s *ProjectSeries) Clone() *ProjectSeries {
	c := &ProjectSeries{
		years:   make([]int, len(s.years)),
		volumes: copyColumn(s.volumes),
		prices:  copyColumn(s.prices),
		costs:   copyColumn(s.costs),
	}
	copy(c.years, s.years)
	return c
}

// WithPrices returns a clone of the series with the price column replaced.
// The replacement must match the series length.
func (s *ProjectSeries) WithPrices(prices []float64) (*ProjectSeries, error) {
	if len(prices) != len(s.prices) {
		return nil, fmt.Errorf("price path length %d does not match series length %d", len(prices), len(s.prices))
	}
	c := s.Clone()
	for i, p := range prices {
		c.prices[i] = coerceFinite(p)
	}
	return c, nil
}

// WithVolumes returns a clone of the series with the volume column replaced.
func (s *ProjectSeries) WithVolumes(volumes []float64) (*ProjectSeries, error) {
	if len(volumes) != len(s.volumes) {
		return nil, fmt.Errorf("volume path length %d does not match series length %d", len(volumes), len(s.volumes))
	}
	c := s.Clone()
	for i, v := range volumes {
		c.volumes[i] = coerceFinite(v)
	}
	return c, nil
}

// ScaleVolumes returns a clone with the volume column multiplied by factor.
func (s *ProjectSeries) ScaleVolumes(factor float64) *ProjectSeries {
	c := s.Clone()
	for i := range c.volumes {
		c.volumes[i] *= factor
	}
	return c
}

// ScalePrices returns a clone with the price column multiplied by factor.
func (s *ProjectSeries) ScalePrices(factor float64) *ProjectSeries {
	c := s.Clone()
	for i := range c.prices {
		c.prices[i] *= factor
	}
	return c
}

func copyColumn(col []float64) []float64 {
	out := make([]float64, len(col))
	copy(out, col)
	return out
}

// CashFlowRow represents one year of the derived cash-flow schedule.
type CashFlowRow struct {
	Year               int     `json:"year"`
	GrossCredits       float64 `json:"gross_credits"`
	BaseCarbonPrice    float64 `json:"base_carbon_price"`
	ProjectCost        float64 `json:"project_cost"`
	ShareOfCredits     float64 `json:"share_of_credits"`
	Revenue            float64 `json:"revenue"`
	InvestmentCashFlow float64 `json:"investment_cash_flow"`
	NetCashFlow        float64 `json:"net_cash_flow"`
	DiscountFactor     float64 `json:"discount_factor"`
	PresentValue       float64 `json:"present_value"`
	CumulativeCashFlow float64 `json:"cumulative_cash_flow"`
	CumulativePV       float64 `json:"cumulative_pv"`
}

// DCFResult represents the outcome of one DCF engine run. It is immutable
// once returned; one instance exists per (streaming percentage, series) pair.
type DCFResult struct {
	ID                  uuid.UUID     `json:"id"`
	StreamingPercentage float64       `json:"streaming_percentage"`
	Schedule            []CashFlowRow `json:"schedule"`
	NPV                 float64       `json:"npv"`
	IRR                 float64       `json:"irr"` // NaN when no real IRR exists
	GeneratedAt         time.Time     `json:"generated_at"`
}

// NetCashFlows returns the net cash-flow column of the schedule,
// ordered year 1..N.
func (r *DCFResult) NetCashFlows() []float64 {
	flows := make([]float64, len(r.Schedule))
	for i, row := range r.Schedule {
		flows[i] = row.NetCashFlow
	}
	return flows
}

// CumulativeCashFlows returns the running-sum cash-flow column.
func (r *DCFResult) CumulativeCashFlows() []float64 {
	out := make([]float64, len(r.Schedule))
	for i, row := range r.Schedule {
		out[i] = row.CumulativeCashFlow
	}
	return out
}

// DistributionStats summarizes a simulated outcome distribution. Statistics
// are computed over finite entries only.
type DistributionStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P10  float64 `json:"p10"`
	P90  float64 `json:"p90"`
}

// SimulationResult represents an aggregated Monte Carlo batch. The raw
// per-trial slices retain NaN placeholders at their original trial index so
// failed trials stay positionally identifiable.
type SimulationResult struct {
	ID          uuid.UUID         `json:"id"`
	IRRs        []float64         `json:"irr_series"`
	NPVs        []float64         `json:"npv_series"`
	IRRStats    DistributionStats `json:"irr_stats"`
	NPVStats    DistributionStats `json:"npv_stats"`
	Trials      int               `json:"trials"`
	ValidTrials int               `json:"valid_trials"`
	GeneratedAt time.Time         `json:"generated_at"`
}
