package engine

import (
	"math"
	"testing"
)

func TestScoreDeltaQuietDay(t *testing.T) {
	// No debt, no payments due, no liquidations: every factor at its best.
	got := ScoreDelta(0, 50000, 0, 0, 0)
	want := (0.40*1.0 + 0.35*1.0 + 0.25*0.2) * 2.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("delta = %v, want %v", got, want)
	}
}

func TestScoreDeltaWorstDay(t *testing.T) {
	// Crushing debt, all payments missed, liquidation today.
	got := ScoreDelta(100000, 10000, 10, 10, 2)
	want := (0.40*-1.0 + 0.35*-1.0 + 0.25*-1.0) * 2.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("delta = %v, want %v", got, want)
	}
	if got < -maxDailyChange || got > maxDailyChange {
		t.Fatalf("delta %v exceeds daily cap", got)
	}
}

func TestScoreDeltaDTITiers(t *testing.T) {
	cases := []struct {
		debt, income float64
		tier         float64
	}{
		{25, 100, 1.0},   // dti 0.25
		{45, 100, 0.5},   // dti 0.45
		{70, 100, 0.0},   // dti 0.70
		{120, 100, -1.0}, // dti 1.2
		{0, 0, 1.0},      // no debt, no income: dti 0
		{10, 0, -1.0},    // debt with no income: dti 1.0
	}
	for _, tc := range cases {
		got := ScoreDelta(tc.debt, tc.income, 0, 0, 0)
		want := (0.40*tc.tier + 0.35*1.0 + 0.25*0.2) * 2.0
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("ScoreDelta(debt=%v, income=%v) = %v, want %v", tc.debt, tc.income, got, want)
		}
	}
}

func TestUpdateScoreClamps(t *testing.T) {
	if got := UpdateScore(ScoreMax, 0, 50000, 0, 0, 0); got != ScoreMax {
		t.Fatalf("score above ceiling: %v", got)
	}
	if got := UpdateScore(ScoreMin, 100000, 1000, 10, 10, 3); got != ScoreMin {
		t.Fatalf("score below floor: %v", got)
	}
	mid := UpdateScore(650, 0, 50000, 0, 0, 0)
	if mid <= 650 || mid > 652 {
		t.Fatalf("expected small positive update from 650, got %v", mid)
	}
}
