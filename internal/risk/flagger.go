// Package risk provides red/yellow/green risk flagging and 0-100 composite
// risk scoring for carbon streaming deals, driven entirely by the valuation
// engine's outputs (IRR, NPV, payback, Monte Carlo volatility).
package risk

import (
	"fmt"
	"math"
)

// Level represents the overall risk classification of a project.
type Level string

const (
	LevelRed    Level = "red"
	LevelYellow Level = "yellow"
	LevelGreen  Level = "green"
)

// FlagThresholds holds the metric cutoffs for one flag tier.
type FlagThresholds struct {
	MinIRR            float64
	MinNPV            float64
	MaxPayback        float64
	HighIRRVolatility float64
}

// DefaultRedThresholds returns the cutoffs that trigger red flags.
func DefaultRedThresholds() FlagThresholds {
	return FlagThresholds{
		MinIRR:            0.15,
		MinNPV:            0,
		MaxPayback:        15.0,
		HighIRRVolatility: 0.05,
	}
}

// DefaultYellowThresholds returns the cutoffs that trigger yellow flags.
func DefaultYellowThresholds() FlagThresholds {
	return FlagThresholds{
		MinIRR:            0.18,
		MinNPV:            5_000_000,
		MaxPayback:        12.0,
		HighIRRVolatility: 0.03,
	}
}

// Metrics bundles the inputs to a flagging pass. Optional inputs are
// pointers; nil skips that check.
type Metrics struct {
	IRR           float64
	NPV           float64
	PaybackYears  *float64
	IRRVolatility *float64
	CreditVolumes []float64
	ProjectCosts  []float64
}

// Assessment represents the outcome of a flagging pass.
type Assessment struct {
	Level       Level    `json:"risk_level"`
	RedFlags    []string `json:"red_flags"`
	YellowFlags []string `json:"yellow_flags"`
	GreenFlags  []string `json:"green_flags"`
}

// Flags returns the actionable (red + yellow) flags.
func (a *Assessment) Flags() []string {
	out := make([]string, 0, len(a.RedFlags)+len(a.YellowFlags))
	out = append(out, a.RedFlags...)
	out = append(out, a.YellowFlags...)
	return out
}

// Flagger classifies projects against configurable red/yellow thresholds.
type Flagger struct {
	red    FlagThresholds
	yellow FlagThresholds
}

// NewFlagger creates a flagger with the default thresholds.
func NewFlagger() *Flagger {
	return &Flagger{red: DefaultRedThresholds(), yellow: DefaultYellowThresholds()}
}

// NewFlaggerWithThresholds creates a flagger with custom thresholds.
func NewFlaggerWithThresholds(red, yellow FlagThresholds) *Flagger {
	return &Flagger{red: red, yellow: yellow}
}

// Flag evaluates the metrics and returns the classification. A missing IRR
// (NaN) is itself a red flag.
func (f *Flagger) Flag(m Metrics) *Assessment {
	a := &Assessment{}

	// IRR
	switch {
	case math.IsNaN(m.IRR) || m.IRR < f.red.MinIRR:
		a.RedFlags = append(a.RedFlags, fmt.Sprintf("Low IRR: %.2f%% (below %.0f%%)", m.IRR*100, f.red.MinIRR*100))
	case m.IRR < f.yellow.MinIRR:
		a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("IRR below target: %.2f%% (target: %.0f%%)", m.IRR*100, f.yellow.MinIRR*100))
	default:
		a.GreenFlags = append(a.GreenFlags, fmt.Sprintf("Strong IRR: %.2f%%", m.IRR*100))
	}

	// NPV
	switch {
	case math.IsNaN(m.NPV) || m.NPV < f.red.MinNPV:
		a.RedFlags = append(a.RedFlags, fmt.Sprintf("Negative or low NPV: $%.0f", m.NPV))
	case m.NPV < f.yellow.MinNPV:
		a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("Moderate NPV: $%.0f (below $%.0f)", m.NPV, f.yellow.MinNPV))
	default:
		a.GreenFlags = append(a.GreenFlags, fmt.Sprintf("Strong NPV: $%.0f", m.NPV))
	}

	// Payback period
	if m.PaybackYears != nil {
		payback := *m.PaybackYears
		switch {
		case math.IsNaN(payback) || payback > f.red.MaxPayback:
			a.RedFlags = append(a.RedFlags, fmt.Sprintf("Long payback: %.1f years (exceeds %.0f years)", payback, f.red.MaxPayback))
		case payback > f.yellow.MaxPayback:
			a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("Extended payback: %.1f years", payback))
		default:
			a.GreenFlags = append(a.GreenFlags, fmt.Sprintf("Reasonable payback: %.1f years", payback))
		}
	}

	// IRR volatility from Monte Carlo
	if m.IRRVolatility != nil {
		vol := *m.IRRVolatility
		switch {
		case vol > f.red.HighIRRVolatility:
			a.RedFlags = append(a.RedFlags, fmt.Sprintf("High IRR volatility: %.2f%% (std dev)", vol*100))
		case vol > f.yellow.HighIRRVolatility:
			a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("Moderate IRR volatility: %.2f%%", vol*100))
		default:
			a.GreenFlags = append(a.GreenFlags, fmt.Sprintf("Low IRR volatility: %.2f%%", vol*100))
		}
	}

	// Credit volume profile
	if len(m.CreditVolumes) > 0 {
		total := 0.0
		zeroYears := 0
		for _, v := range m.CreditVolumes {
			total += v
			if v == 0 {
				zeroYears++
			}
		}
		if total < 1_000_000 {
			a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("Low total credits: %.0f", total))
		} else if total > 50_000_000 {
			a.GreenFlags = append(a.GreenFlags, fmt.Sprintf("High credit volume: %.0f", total))
		}
		if zeroYears > 5 {
			a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("Many zero-credit years: %d years", zeroYears))
		}
	}

	// Project cost profile
	if len(m.ProjectCosts) > 0 {
		total := 0.0
		for _, c := range m.ProjectCosts {
			total += c
		}
		if math.Abs(total) > 200_000_000 {
			a.YellowFlags = append(a.YellowFlags, fmt.Sprintf("High total costs: $%.0f", math.Abs(total)))
		}
	}

	switch {
	case len(a.RedFlags) > 0:
		a.Level = LevelRed
	case len(a.YellowFlags) > 0:
		a.Level = LevelYellow
	default:
		a.Level = LevelGreen
	}

	return a
}
