package engine

import "math/rand"

// Base exchange rates relative to USD: units of X per 1 USD.
var baseRates = map[string]float64{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"PKR": 278.50,
	"JPY": 149.80,
}

// Daily rate volatility per currency (standard deviation as fraction of rate).
var rateVolatility = map[string]float64{
	"USD": 0,
	"EUR": 0.002,
	"GBP": 0.0025,
	"PKR": 0.004,
	"JPY": 0.003,
}

const minRate = 0.0001

// SupportedCurrency reports whether the engine carries a rate for code.
func SupportedCurrency(code string) bool {
	_, ok := baseRates[code]
	return ok
}

// CurrencyTable lets config override the built-in rate and volatility
// tables. Codes present in rates but absent from vols get zero volatility.
func CurrencyTable(rates, vols map[string]float64) {
	if len(rates) == 0 {
		return
	}
	baseRates = make(map[string]float64, len(rates))
	rateVolatility = make(map[string]float64, len(rates))
	for code, r := range rates {
		baseRates[code] = r
		rateVolatility[code] = vols[code]
	}
	baseRates["USD"] = 1.0
	rateVolatility["USD"] = 0
}

// CurrencyEngine generates deterministic daily exchange rate tables from a
// seeded generator shared with the rest of the run.
type CurrencyEngine struct {
	rng     *rand.Rand
	rates   map[string]float64
	history map[int]map[string]float64
}

// NewCurrencyEngine starts from the base rate table.
func NewCurrencyEngine(rng *rand.Rand) *CurrencyEngine {
	rates := make(map[string]float64, len(baseRates))
	for code, r := range baseRates {
		rates[code] = r
	}
	return &CurrencyEngine{
		rng:     rng,
		rates:   rates,
		history: make(map[int]map[string]float64),
	}
}

// AdvanceDay perturbs every non-USD rate with a Gaussian draw and records
// the day's table. The draw order is the sorted currency order so that the
// stream position is identical across runs.
func (e *CurrencyEngine) AdvanceDay(day int) map[string]float64 {
	for _, code := range sortedCurrencies(e.rates) {
		if code == "USD" {
			continue
		}
		change := e.rng.NormFloat64() * rateVolatility[code]
		e.rates[code] = round6(e.rates[code] * (1 + change))
		if e.rates[code] < minRate {
			e.rates[code] = minRate
		}
	}
	snap := make(map[string]float64, len(e.rates))
	for code, r := range e.rates {
		snap[code] = r
	}
	e.history[day] = snap
	return snap
}

// Convert exchanges amount between currencies through USD at the current
// day's rates.
func (e *CurrencyEngine) Convert(amount float64, from, to string) float64 {
	if from == to {
		return round6(amount)
	}
	usd := amount / e.rates[from]
	return round6(usd * e.rates[to])
}

// Rate returns the current rate from one currency to another.
func (e *CurrencyEngine) Rate(from, to string) float64 {
	if from == to {
		return 1.0
	}
	return round6(1.0 / e.rates[from] * e.rates[to])
}

// Rates returns a copy of the current table.
func (e *CurrencyEngine) Rates() map[string]float64 {
	out := make(map[string]float64, len(e.rates))
	for code, r := range e.rates {
		out[code] = r
	}
	return out
}
