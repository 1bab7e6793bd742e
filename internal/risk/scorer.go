package risk

import (
	"math"
)

// Weights distributes the composite risk score across factor categories.
// Weights are normalized to sum to 1 when a Scorer is constructed.
type Weights struct {
	Financial   float64
	Volume      float64
	Price       float64
	Operational float64
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		Financial:   0.40,
		Volume:      0.25,
		Price:       0.20,
		Operational: 0.15,
	}
}

// Score represents a composite 0-100 risk score. Higher means riskier.
type Score struct {
	Overall     float64 `json:"overall_risk_score"`
	Financial   float64 `json:"financial_risk"`
	Volume      float64 `json:"volume_risk"`
	Price       float64 `json:"price_risk"`
	Operational float64 `json:"operational_risk"`
	Category    string  `json:"risk_category"` // Low, Medium, High
}

// ScoreInputs bundles the inputs to a scoring pass. Optional inputs are
// pointers or nil slices; absent factors score zero and carry no weight
// penalty.
type ScoreInputs struct {
	IRR              float64
	NPV              float64
	PaybackYears     *float64
	CreditVolumes    []float64
	BasePrices       []float64
	ProjectCosts     []float64
	VolumeVolatility *float64
	PriceVolatility  *float64
	TotalInvestment  *float64
}

// Scorer computes composite risk scores.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights; zero-value weights fall
// back to the defaults. Weights are normalized to sum to 1.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	total := weights.Financial + weights.Volume + weights.Price + weights.Operational
	if total > 0 {
		weights.Financial /= total
		weights.Volume /= total
		weights.Price /= total
		weights.Operational /= total
	}
	return &Scorer{weights: weights}
}

// CalculateScore combines the factor scores into the weighted composite.
func (s *Scorer) CalculateScore(in ScoreInputs) *Score {
	financial := financialRisk(in.IRR, in.NPV, in.PaybackYears)

	volume := 0.0
	if len(in.CreditVolumes) > 0 {
		volume = volumeRisk(in.CreditVolumes, in.VolumeVolatility)
	}

	price := 0.0
	if len(in.BasePrices) > 0 {
		price = priceRisk(in.BasePrices, in.PriceVolatility)
	}

	operational := 0.0
	if len(in.ProjectCosts) > 0 {
		operational = operationalRisk(in.ProjectCosts, in.TotalInvestment)
	}

	overall := financial*s.weights.Financial +
		volume*s.weights.Volume +
		price*s.weights.Price +
		operational*s.weights.Operational

	category := "High"
	switch {
	case overall < 30:
		category = "Low"
	case overall < 60:
		category = "Medium"
	}

	return &Score{
		Overall:     round1(overall),
		Financial:   round1(financial),
		Volume:      round1(volume),
		Price:       round1(price),
		Operational: round1(operational),
		Category:    category,
	}
}

// financialRisk scores IRR (0-40), NPV (0-35), and payback (0-25).
func financialRisk(irr, npv float64, payback *float64) float64 {
	score := 0.0

	switch {
	case math.IsNaN(irr):
		score += 40
	case irr < 0.10:
		score += 40
	case irr < 0.15:
		score += 30
	case irr < 0.20:
		score += 15
	case irr < 0.25:
		score += 5
	}

	switch {
	case math.IsNaN(npv):
		score += 35
	case npv < 0:
		score += 35
	case npv < 5_000_000:
		score += 25
	case npv < 10_000_000:
		score += 15
	case npv < 20_000_000:
		score += 5
	}

	if payback != nil && !math.IsNaN(*payback) {
		switch {
		case *payback > 15:
			score += 25
		case *payback > 12:
			score += 20
		case *payback > 10:
			score += 10
		case *payback > 8:
			score += 5
		}
	}

	return math.Min(100.0, score)
}

// volumeRisk scores total delivery (0-40), zero years (0-30), and Monte
// Carlo volume volatility (0-30).
func volumeRisk(volumes []float64, volatility *float64) float64 {
	score := 0.0

	total := 0.0
	zeroYears := 0
	for _, v := range volumes {
		total += v
		if v == 0 {
			zeroYears++
		}
	}

	switch {
	case total < 1_000_000:
		score += 40
	case total < 5_000_000:
		score += 30
	case total < 10_000_000:
		score += 20
	case total < 20_000_000:
		score += 10
	}

	switch {
	case zeroYears > 10:
		score += 30
	case zeroYears > 5:
		score += 20
	case zeroYears > 2:
		score += 10
	}

	if volatility != nil {
		switch {
		case *volatility > 0.25:
			score += 30
		case *volatility > 0.15:
			score += 20
		case *volatility > 0.10:
			score += 10
		}
	}

	return math.Min(100.0, score)
}

// priceRisk scores the average positive price level (0-50) and Monte Carlo
// price volatility (0-50).
func priceRisk(prices []float64, volatility *float64) float64 {
	score := 0.0

	sum := 0.0
	count := 0
	for _, p := range prices {
		if p > 0 {
			sum += p
			count++
		}
	}
	avg := math.NaN()
	if count > 0 {
		avg = sum / float64(count)
	}

	switch {
	case math.IsNaN(avg) || avg < 20:
		score += 50
	case avg < 30:
		score += 40
	case avg < 40:
		score += 25
	case avg < 50:
		score += 10
	}

	if volatility != nil {
		switch {
		case *volatility > 0.05:
			score += 50
		case *volatility > 0.03:
			score += 30
		case *volatility > 0.02:
			score += 15
		}
	}

	return math.Min(100.0, score)
}

// operationalRisk scores total implementation costs (0-60) and deal size
// (0-40).
func operationalRisk(costs []float64, totalInvestment *float64) float64 {
	score := 0.0

	total := 0.0
	for _, c := range costs {
		total += c
	}
	total = math.Abs(total)

	switch {
	case total > 200_000_000:
		score += 60
	case total > 100_000_000:
		score += 40
	case total > 50_000_000:
		score += 25
	case total > 25_000_000:
		score += 10
	}

	if totalInvestment != nil {
		switch {
		case *totalInvestment > 50_000_000:
			score += 40
		case *totalInvestment > 30_000_000:
			score += 25
		case *totalInvestment > 20_000_000:
			score += 15
		case *totalInvestment > 10_000_000:
			score += 5
		}
	}

	return math.Min(100.0, score)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
