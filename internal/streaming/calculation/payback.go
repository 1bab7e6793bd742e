package calculation

import "math"

// PaybackCalculator finds the fractional year at which cumulative cash flow
// turns positive. It is stateless.
type PaybackCalculator struct{}

// NewPaybackCalculator creates a payback calculator.
func NewPaybackCalculator() *PaybackCalculator {
	return &PaybackCalculator{}
}

// SimplePayback returns the payback period in fractional years for a net
// cash-flow series (element i = year i+1), or nil if cumulative cash flow
// never turns positive within the series.
func (p *PaybackCalculator) SimplePayback(cashFlows []float64) *float64 {
	return paybackFromFlows(cashFlows)
}

// DiscountedPayback discounts the flows at the given rate (year 1
// undiscounted) before locating the payback year.
func (p *PaybackCalculator) DiscountedPayback(cashFlows []float64, discountRate float64) *float64 {
	discounted := make([]float64, len(cashFlows))
	for i, cf := range cashFlows {
		discounted[i] = cf / math.Pow(1+discountRate, float64(i))
	}
	return paybackFromFlows(discounted)
}

// paybackFromFlows locates the first year where the cumulative sum exceeds
// zero and interpolates within that year using the prior deficit.
func paybackFromFlows(flows []float64) *float64 {
	cumulative := 0.0
	prevCumulative := 0.0
	for i, cf := range flows {
		prevCumulative = cumulative
		cumulative += cf

		if cumulative > 0 {
			year := float64(i + 1)
			if i == 0 {
				return &year
			}
			if cf == 0 {
				// Cannot interpolate through a zero-flow year.
				return &year
			}
			fraction := math.Abs(prevCumulative) / cf
			payback := float64(i) + fraction
			return &payback
		}
	}
	return nil
}
