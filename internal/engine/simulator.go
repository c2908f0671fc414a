package engine

import (
	"fmt"
	"math"
	"math/rand"
)

// isPaymentDay implements the calendar-naive recurrence: weekly fires every
// 7th day index, monthly every 30th. Real month lengths are out of model.
func isPaymentDay(day int, frequency string) bool {
	switch frequency {
	case FreqDaily:
		return true
	case FreqWeekly:
		return day%7 == 0
	case FreqMonthly:
		return day%30 == 0
	}
	return false
}

func inActiveRange(day, startDay int, endDay *int) bool {
	if day < startDay {
		return false
	}
	if endDay != nil && day > *endDay {
		return false
	}
	return true
}

// Simulator drives the fixed nine-step daily pipeline over one owned
// UserState. A run is strictly single-threaded; the only stochastic input
// is the seeded stream shared by the currency engine and asset revaluation,
// consumed in pipeline order (currency first, then assets).
type Simulator struct {
	brackets []Bracket
}

// NewSimulator uses the default tax brackets.
func NewSimulator() *Simulator {
	return &Simulator{brackets: DefaultBrackets()}
}

// NewSimulatorWithBrackets injects a custom progressive tax table.
func NewSimulatorWithBrackets(brackets []Bracket) *Simulator {
	if len(brackets) == 0 {
		brackets = DefaultBrackets()
	}
	return &Simulator{brackets: brackets}
}

// Run simulates horizon_days starting at startDay, mutating state in place
// and writing the final running totals back so a subsequent branch can
// continue from exactly this point.
//
// Reproducibility contract: the stream is re-seeded from state.Seed at
// every call, including runs starting at a non-zero offset. A continuation
// therefore draws the same sequence as a fresh run with the same seed;
// branched and original continuations from the same fork day are fully
// correlated unless the branch patch changes the seed.
func (s *Simulator) Run(state *UserState, startDay int) *SimulationResult {
	rng := rand.New(rand.NewSource(state.Seed))
	currency := NewCurrencyEngine(rng)

	var dailyData []DailySnapshot
	var events []SimulationEvent

	balance := state.Balance
	creditScore := state.CreditScore
	realizedGains := state.RealizedGains
	unrealizedGains := 0.0
	taxesPaid := state.TaxesPaid
	totalIncome := state.TotalIncomeReceived
	totalExpenses := state.TotalExpensesPaid
	deficitDays := state.DeficitDays
	shockEvents := append([]int(nil), state.ShockEvents...)
	recoveryDays := append([]int(nil), state.RecoveryDays...)
	currentShockStart := state.CurrentShockStart

	totalMissed := 0
	totalDue := 0
	for i := range state.Debts {
		totalMissed += state.Debts[i].MissedPayments
		totalDue += state.Debts[i].TotalPaymentsDue
	}

	endDay := startDay + state.HorizonDays

	for day := startDay; day < endDay; day++ {
		var dayEvents []SimulationEvent
		liquidationCount := 0

		// Step 1: exchange rate fluctuations.
		currency.AdvanceDay(day)

		// Step 2: credit income streams.
		for i := range state.IncomeStreams {
			inc := &state.IncomeStreams[i]
			if !inActiveRange(day, inc.StartDay, inc.EndDay) {
				continue
			}
			if isPaymentDay(day, inc.Frequency) {
				amount := currency.Convert(inc.Amount, inc.Currency, state.Currency)
				balance += amount
				totalIncome += amount
			}
		}

		// Step 3: deduct expenses.
		for i := range state.Expenses {
			exp := &state.Expenses[i]
			if !inActiveRange(day, exp.StartDay, exp.EndDay) {
				continue
			}
			if isPaymentDay(day, exp.Frequency) {
				amount := currency.Convert(exp.Amount, exp.Currency, state.Currency)
				balance -= amount
				totalExpenses += amount
			}
		}

		// Step 4: amortize debts.
		for i := range state.Debts {
			debt := &state.Debts[i]
			if debt.PaidOff || day < debt.StartDay {
				continue
			}

			// Daily interest compounding.
			debt.Principal = round6(debt.Principal * (1 + debt.InterestRate/365.0))

			if isPaymentDay(day, FreqMonthly) {
				debt.TotalPaymentsDue++
				totalDue++
				payment := math.Min(debt.MinPayment, debt.Principal)

				if balance >= payment {
					balance -= payment
					debt.Principal = round6(debt.Principal - payment)
					debt.TotalPaymentsMade++
				} else {
					debt.MissedPayments++
					totalMissed++
					dayEvents = append(dayEvents, SimulationEvent{
						Day:         day,
						Type:        EventDeficit,
						Description: fmt.Sprintf("Missed payment on %s (owed %.2f)", debt.Name, payment),
						Amount:      payment,
						Severity:    SeverityDanger,
					})
				}

				// Payoff is one-way and terminal.
				if debt.Principal <= 0.01 {
					debt.Principal = 0
					debt.PaidOff = true
					dayEvents = append(dayEvents, SimulationEvent{
						Day:         day,
						Type:        EventDebtPayoff,
						Description: fmt.Sprintf("Paid off %s!", debt.Name),
						Severity:    SeveritySuccess,
					})
				}
			}
		}

		// Step 5: revalue assets.
		RevalueAssets(state.Assets, rng)
		unrealizedGains = 0
		for i := range state.Assets {
			if gain := state.Assets[i].Value - state.Assets[i].CostBasis; gain > 0 {
				unrealizedGains += gain
			}
		}

		// Step 6: deficit triggers the liquidation waterfall. The full
		// recovered sale amount feeds realized gains, not gain over basis;
		// inherited simplification, see DESIGN.md.
		if balance < 0 {
			recovered, liqEvents := Liquidate(state.Assets, -balance, day)
			balance += recovered
			for _, ev := range liqEvents {
				if ev.Amount > 0 {
					realizedGains += ev.Amount
				}
			}
			liquidationCount += len(liqEvents)
			dayEvents = append(dayEvents, liqEvents...)

			if balance < 0 {
				dayEvents = append(dayEvents, SimulationEvent{
					Day:         day,
					Type:        EventDeficit,
					Description: fmt.Sprintf("Balance negative: %.2f (insufficient assets to cover)", balance),
					Amount:      -balance,
					Severity:    SeverityDanger,
				})
			}
		}

		// Step 7: shock streak tracking.
		if balance < 0 {
			deficitDays++
			if currentShockStart == nil {
				start := day
				currentShockStart = &start
				shockEvents = append(shockEvents, day)
			}
		} else if currentShockStart != nil {
			recoveryDays = append(recoveryDays, day-*currentShockStart)
			currentShockStart = nil
		}

		// Step 8: quarterly tax settlement on cumulative realized gains;
		// only the increment over tax already paid is charged.
		if day > 0 && day%90 == 0 && realizedGains > 0 {
			taxDue := Tax(realizedGains, s.brackets)
			increment := taxDue - taxesPaid
			if increment > 0 {
				balance -= increment
				taxesPaid = taxDue
				dayEvents = append(dayEvents, SimulationEvent{
					Day:         day,
					Type:        EventTax,
					Description: fmt.Sprintf("Quarterly tax payment: %.2f", increment),
					Amount:      increment,
					Severity:    SeverityInfo,
				})
			}
		}

		// Step 9: credit score update, then the day's snapshot.
		var totalDebt float64
		for i := range state.Debts {
			if !state.Debts[i].PaidOff {
				totalDebt += state.Debts[i].Principal
			}
		}
		annualizedIncome := totalIncome / float64(max(1, day+1)) * 365
		creditScore = UpdateScore(creditScore, totalDebt, annualizedIncome,
			totalMissed, max(1, totalDue), liquidationCount)

		totalAssets := TotalAssetValue(state.Assets)
		dailyData = append(dailyData, DailySnapshot{
			Day:            day,
			Balance:        round2(balance),
			NetWorth:       round2(balance + totalAssets - totalDebt),
			CreditScore:    round2(creditScore),
			NAV:            round2(totalAssets),
			LiquidityRatio: round4(LiquidityRatio(state.Assets, day)),
			TotalDebt:      round2(totalDebt),
			TotalAssets:    round2(totalAssets),
		})
		events = append(events, dayEvents...)
	}

	summary := buildSummary(state, dailyData, events, summaryInputs{
		realizedGains:   realizedGains,
		unrealizedGains: unrealizedGains,
		taxesPaid:       taxesPaid,
		totalIncome:     totalIncome,
		totalExpenses:   totalExpenses,
		deficitDays:     deficitDays,
		recoveryDays:    recoveryDays,
	})

	// Write back so a branch can continue from this exact point.
	state.Balance = balance
	state.CreditScore = creditScore
	state.RealizedGains = realizedGains
	state.UnrealizedGains = unrealizedGains
	state.TaxesPaid = taxesPaid
	state.TotalIncomeReceived = totalIncome
	state.TotalExpensesPaid = totalExpenses
	state.DeficitDays = deficitDays
	state.ShockEvents = shockEvents
	state.RecoveryDays = recoveryDays
	state.CurrentShockStart = currentShockStart

	return &SimulationResult{
		DailyData: dailyData,
		Events:    events,
		Summary:   summary,
	}
}

type summaryInputs struct {
	realizedGains   float64
	unrealizedGains float64
	taxesPaid       float64
	totalIncome     float64
	totalExpenses   float64
	deficitDays     int
	recoveryDays    []int
}

// Health tiers, best to worst, with their mascot labels.
var vibeLabels = map[string]string{
	"Thriving":  "Happy Cat",
	"Stable":    "Nervous Dog",
	"Stressed":  "Hibernating Bear",
	"Critical":  "Phoenix Rising",
	"Collapsed": "Ghost",
}

func buildSummary(state *UserState, dailyData []DailySnapshot, events []SimulationEvent, in summaryInputs) Summary {
	var final *DailySnapshot
	if len(dailyData) > 0 {
		final = &dailyData[len(dailyData)-1]
	}
	totalDays := len(dailyData)
	collapseProb := round2(float64(in.deficitDays) / float64(max(1, totalDays)) * 100)

	var firstDeficit *int
	for i := range dailyData {
		if dailyData[i].Balance < 0 {
			d := dailyData[i].Day
			firstDeficit = &d
			break
		}
	}

	volatility := balanceVolatility(dailyData)
	var vibe string
	switch {
	case final != nil && final.Balance > 0 && collapseProb == 0:
		if volatility < 0.05 {
			vibe = "Thriving"
		} else {
			vibe = "Stable"
		}
	case collapseProb < 20:
		vibe = "Stressed"
	case collapseProb < 50:
		vibe = "Critical"
	default:
		vibe = "Collapsed"
	}

	var sri float64
	switch {
	case len(in.recoveryDays) > 0:
		var sum int
		for _, d := range in.recoveryDays {
			sum += d
		}
		avg := float64(sum) / float64(len(in.recoveryDays))
		sri = round2(100 - avg*2)
		if sri < 0 {
			sri = 0
		}
		if sri > 100 {
			sri = 100
		}
	case in.deficitDays == 0:
		sri = 100
	default:
		sri = 0 // shocked and never recovered
	}

	liquidations := 0
	for i := range events {
		if events[i].Type == EventLiquidation {
			liquidations++
		}
	}

	summary := Summary{
		CollapseProbability:  collapseProb,
		CollapseTiming:       firstDeficit,
		FinancialVibe:        vibe,
		PetState:             vibeLabels[vibe],
		ShockResilienceIndex: sri,
		TotalIncome:          round2(in.totalIncome),
		TotalExpenses:        round2(in.totalExpenses),
		TotalTaxesPaid:       round2(in.taxesPaid),
		RealizedGains:        round2(in.realizedGains),
		UnrealizedGains:      round2(in.unrealizedGains),
		LiquidationEvents:    liquidations,
		DeficitDays:          in.deficitDays,
	}
	if final != nil {
		summary.FinalBalance = final.Balance
		summary.FinalNetWorth = final.NetWorth
		summary.FinalCreditScore = final.CreditScore
	} else {
		summary.FinalCreditScore = state.CreditScore
	}
	return summary
}

// balanceVolatility is the coefficient of variation of the daily balance
// series: zero for degenerate series, one when the mean is exactly zero.
func balanceVolatility(dailyData []DailySnapshot) float64 {
	if len(dailyData) < 2 {
		return 0
	}
	var sum float64
	for i := range dailyData {
		sum += dailyData[i].Balance
	}
	mean := sum / float64(len(dailyData))
	if mean == 0 {
		return 1
	}
	var variance float64
	for i := range dailyData {
		d := dailyData[i].Balance - mean
		variance += d * d
	}
	variance /= float64(len(dailyData))
	return math.Abs(math.Sqrt(variance) / mean)
}
