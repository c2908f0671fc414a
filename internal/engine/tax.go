package engine

import "math"

// Bracket is one progressive tax tier: the rate applies to gains between
// the previous bracket's upper bound and this one's.
type Bracket struct {
	UpperBound float64 `json:"upper_bound" yaml:"upper_bound"`
	Rate       float64 `json:"rate" yaml:"rate"`
}

// DefaultBrackets is a US-style progressive table. The last bound is
// unbounded.
func DefaultBrackets() []Bracket {
	return []Bracket{
		{UpperBound: 10_000, Rate: 0.10},
		{UpperBound: 40_000, Rate: 0.12},
		{UpperBound: 85_000, Rate: 0.22},
		{UpperBound: 165_000, Rate: 0.24},
		{UpperBound: math.Inf(1), Rate: 0.32},
	}
}

// Tax computes the progressive tax owed on cumulative realized gains.
func Tax(realizedGains float64, brackets []Bracket) float64 {
	if brackets == nil {
		brackets = DefaultBrackets()
	}
	if realizedGains <= 0 {
		return 0
	}
	var tax, prevBound float64
	for _, b := range brackets {
		if realizedGains <= prevBound {
			break
		}
		taxable := math.Min(realizedGains, b.UpperBound) - prevBound
		if taxable > 0 {
			tax += taxable * b.Rate
		}
		prevBound = b.UpperBound
	}
	return round6(tax)
}

// MarginalTax is the tax on an additional amount on top of existing gains.
func MarginalTax(amount, existingGains float64, brackets []Bracket) float64 {
	return round6(Tax(existingGains+amount, brackets) - Tax(existingGains, brackets))
}
