package engine

import (
	"fmt"
	"math/rand"
)

// liquidationOrder lists asset types from most to least liquid; the
// waterfall sells in this order.
var liquidationOrder = []string{AssetLiquid, AssetYieldGenerating, AssetVolatile, AssetIlliquid}

// dailyVolDivisor approximates sqrt(365) for scaling annual volatility to a
// daily standard deviation.
const dailyVolDivisor = 19.1

// RevalueAssets advances every positive-value asset by one day: yield
// compounding first, then a stochastic shock from the shared stream.
// Values are floored at zero. Mutates assets in place.
func RevalueAssets(assets []Asset, rng *rand.Rand) {
	for i := range assets {
		a := &assets[i]
		if a.Value <= 0 {
			continue
		}
		if a.YieldRate > 0 {
			a.Value = round6(a.Value * (1 + a.YieldRate/365.0))
		}
		if a.Volatility > 0 {
			change := rng.NormFloat64() * (a.Volatility / dailyVolDivisor)
			a.Value = round6(a.Value * (1 + change))
			if a.Value < 0 {
				a.Value = 0
			}
		}
	}
}

// TotalAssetValue sums all asset values.
func TotalAssetValue(assets []Asset) float64 {
	var total float64
	for i := range assets {
		total += assets[i].Value
	}
	return round6(total)
}

// LiquidAssetValue sums assets that could be sold today: positive value,
// not illiquid, and past any lock period.
func LiquidAssetValue(assets []Asset, day int) float64 {
	var total float64
	for i := range assets {
		a := &assets[i]
		if a.Value <= 0 || a.Type == AssetIlliquid {
			continue
		}
		if locked(a, day) {
			continue
		}
		total += a.Value
	}
	return round6(total)
}

// LiquidityRatio is liquid value over total value; an empty portfolio is
// fully liquid by convention.
func LiquidityRatio(assets []Asset, day int) float64 {
	total := TotalAssetValue(assets)
	if total <= 0 {
		return 1.0
	}
	return round6(LiquidAssetValue(assets, day) / total)
}

// Liquidate sells assets to cover a deficit, in priority-class order and
// stored order within a class, respecting lock periods and sale penalties.
// Returns the amount recovered and the liquidation events. Mutates assets.
func Liquidate(assets []Asset, deficit float64, day int) (float64, []SimulationEvent) {
	var events []SimulationEvent
	var recovered float64
	remaining := deficit

	for _, class := range liquidationOrder {
		if remaining <= 0 {
			break
		}
		for i := range assets {
			if remaining <= 0 {
				break
			}
			a := &assets[i]
			if a.Type != class || a.Value <= 0 {
				continue
			}
			if locked(a, day) {
				continue
			}

			sellable := a.Value * (1 - a.SalePenaltyPct)

			var sale float64
			if sellable <= remaining {
				sale = sellable
				events = append(events, SimulationEvent{
					Day:  day,
					Type: EventLiquidation,
					Description: fmt.Sprintf("Sold entire %s (%s) for %.2f (penalty: %.0f%%)",
						a.Name, a.Type, sale, a.SalePenaltyPct*100),
					Amount:   sale,
					Severity: SeverityWarning,
				})
				a.Value = 0
			} else {
				fraction := remaining / sellable
				sale = remaining
				a.Value = round6(a.Value * (1 - fraction))
				a.CostBasis = round6(a.CostBasis * (1 - fraction))
				events = append(events, SimulationEvent{
					Day:         day,
					Type:        EventLiquidation,
					Description: fmt.Sprintf("Partially sold %s (%s) for %.2f", a.Name, a.Type, sale),
					Amount:      sale,
					Severity:    SeverityWarning,
				})
			}

			recovered += sale
			remaining -= sale
		}
	}
	return round6(recovered), events
}

func locked(a *Asset, day int) bool {
	return a.LockPeriodDays > 0 && day-a.PurchaseDay < a.LockPeriodDays
}
