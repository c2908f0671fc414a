package engine

import (
	"math"
	"math/rand"
	"testing"
)

func TestRevalueYieldOnly(t *testing.T) {
	assets := []Asset{
		{Name: "Bond", Value: 10000, Type: AssetYieldGenerating, YieldRate: 0.0365, CostBasis: 10000},
	}
	RevalueAssets(assets, rand.New(rand.NewSource(1)))
	want := round6(10000 * (1 + 0.0365/365.0))
	if assets[0].Value != want {
		t.Fatalf("value after yield = %v, want %v", assets[0].Value, want)
	}
}

func TestRevalueSkipsZeroValue(t *testing.T) {
	assets := []Asset{
		{Name: "Dead", Value: 0, Type: AssetVolatile, Volatility: 0.9, YieldRate: 0.1},
	}
	RevalueAssets(assets, rand.New(rand.NewSource(1)))
	if assets[0].Value != 0 {
		t.Fatalf("zero-value asset moved to %v", assets[0].Value)
	}
}

func TestLiquidityRatioConventions(t *testing.T) {
	if got := LiquidityRatio(nil, 10); got != 1.0 {
		t.Fatalf("empty portfolio ratio = %v, want 1", got)
	}

	assets := []Asset{
		{Name: "Cash", Value: 300, Type: AssetLiquid},
		{Name: "House", Value: 700, Type: AssetIlliquid},
	}
	if got := LiquidityRatio(assets, 0); got != 0.3 {
		t.Fatalf("ratio = %v, want 0.3", got)
	}

	locked := []Asset{
		{Name: "CD", Value: 500, Type: AssetLiquid, LockPeriodDays: 90, PurchaseDay: 0},
	}
	if got := LiquidityRatio(locked, 30); got != 0 {
		t.Fatalf("locked ratio = %v, want 0", got)
	}
	if got := LiquidityRatio(locked, 90); got != 1.0 {
		t.Fatalf("unlocked ratio = %v, want 1", got)
	}
}

func TestLiquidateFullSale(t *testing.T) {
	assets := []Asset{
		{Name: "Cash", Value: 200, Type: AssetLiquid, CostBasis: 200},
	}
	recovered, events := Liquidate(assets, 500, 0)
	if recovered != 200 {
		t.Fatalf("recovered = %v, want 200", recovered)
	}
	if assets[0].Value != 0 {
		t.Fatalf("asset value = %v, want 0", assets[0].Value)
	}
	if len(events) != 1 || events[0].Type != EventLiquidation || events[0].Severity != SeverityWarning {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestLiquidatePartialSaleReducesCostBasis(t *testing.T) {
	assets := []Asset{
		{Name: "Fund", Value: 1000, Type: AssetLiquid, SalePenaltyPct: 0.2, CostBasis: 800},
	}
	// sellable = 800; need 400 = half of it.
	recovered, events := Liquidate(assets, 400, 0)
	if recovered != 400 {
		t.Fatalf("recovered = %v, want 400", recovered)
	}
	if math.Abs(assets[0].Value-500) > 1e-6 {
		t.Fatalf("asset value = %v, want 500", assets[0].Value)
	}
	if math.Abs(assets[0].CostBasis-400) > 1e-6 {
		t.Fatalf("cost basis = %v, want 400", assets[0].CostBasis)
	}
	if len(events) != 1 {
		t.Fatalf("expected one partial-sale event, got %d", len(events))
	}
}

func TestLiquidatePriorityOrder(t *testing.T) {
	assets := []Asset{
		{Name: "House", Value: 100000, Type: AssetIlliquid, CostBasis: 100000},
		{Name: "Crypto", Value: 400, Type: AssetVolatile, CostBasis: 400},
		{Name: "Cash", Value: 300, Type: AssetLiquid, CostBasis: 300},
	}
	recovered, events := Liquidate(assets, 500, 0)
	if recovered != 500 {
		t.Fatalf("recovered = %v, want 500", recovered)
	}
	// Cash goes first and fully, then a partial crypto sale; the house untouched.
	if assets[2].Value != 0 {
		t.Fatalf("cash value = %v, want 0", assets[2].Value)
	}
	if math.Abs(assets[1].Value-200) > 1e-6 {
		t.Fatalf("crypto value = %v, want 200", assets[1].Value)
	}
	if assets[0].Value != 100000 {
		t.Fatalf("house was touched: %v", assets[0].Value)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Description == "" || events[1].Description == "" {
		t.Fatal("events missing descriptions")
	}
}

func TestLiquidateRespectsLockPeriod(t *testing.T) {
	assets := []Asset{
		{Name: "CD", Value: 1000, Type: AssetLiquid, LockPeriodDays: 180, PurchaseDay: 0, CostBasis: 1000},
	}
	recovered, events := Liquidate(assets, 500, 30)
	if recovered != 0 || len(events) != 0 {
		t.Fatalf("locked asset sold: recovered=%v events=%d", recovered, len(events))
	}
	recovered, _ = Liquidate(assets, 500, 180)
	if recovered != 500 {
		t.Fatalf("unlocked asset not sold: recovered=%v", recovered)
	}
}
