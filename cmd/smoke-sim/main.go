package main

import (
	"context"
	"fmt"
	"log"

	"futurewallet.org/internal/engine"
	"futurewallet.org/internal/runs"
)

// Smoke check: run a canned scenario end to end against the registry, then
// branch it with an extra income stream and report the deltas.
func main() {
	registry := runs.NewRegistry(engine.NewSimulator())
	ctx := context.Background()

	state := engine.NewUserState(5000)
	state.HorizonDays = 180
	state.IncomeStreams = []engine.IncomeStream{
		{Name: "Salary", Amount: 4000, Currency: "USD", Frequency: engine.FreqMonthly},
	}
	state.Expenses = []engine.Expense{
		{Name: "Rent", Amount: 1800, Currency: "USD", Frequency: engine.FreqMonthly, Category: "housing"},
		{Name: "Groceries", Amount: 120, Currency: "USD", Frequency: engine.FreqWeekly, Category: "food"},
	}
	state.Debts = []engine.Debt{
		{Name: "Car loan", Principal: 9000, InterestRate: 0.07, MinPayment: 320, Currency: "USD"},
	}
	state.Assets = []engine.Asset{
		{Name: "Index fund", Value: 12000, Currency: "USD", Type: engine.AssetVolatile, Volatility: 0.15, YieldRate: 0.05},
		{Name: "Savings", Value: 3000, Currency: "USD", Type: engine.AssetLiquid},
	}

	run, err := registry.Create(ctx, state)
	if err != nil {
		log.Fatalf("create run: %v", err)
	}
	s := run.Result.Summary
	fmt.Printf("run %s: final balance %.2f, net worth %.2f, credit %.2f, vibe %s\n",
		run.ID, s.FinalBalance, s.FinalNetWorth, s.FinalCreditScore, s.FinancialVibe)

	if s.CollapseProbability < 0 || s.CollapseProbability > 100 {
		log.Fatalf("collapse probability out of range: %v", s.CollapseProbability)
	}

	extra := &engine.IncomeStream{Name: "Side gig", Amount: 600, Frequency: engine.FreqMonthly}
	report, err := registry.Branch(ctx, run.ID, 90, engine.Patch{AddIncome: extra})
	if err != nil {
		log.Fatalf("branch run: %v", err)
	}
	fmt.Printf("branch at day %d: balance delta %+.2f, net worth delta %+.2f\n",
		report.BranchDay, report.Deltas.FinalBalance, report.Deltas.FinalNetWorth)

	empty, err := registry.Branch(ctx, run.ID, 90, engine.Patch{})
	if err != nil {
		log.Fatalf("empty branch: %v", err)
	}
	if empty.Deltas.FinalBalance != 0 || empty.Deltas.FinalCreditScore != 0 {
		log.Fatalf("empty patch diverged: %+v", empty.Deltas)
	}

	fmt.Println("smoke test passed")
}
