package engine

// Credit score bounds and the per-day change cap.
const (
	ScoreMin       = 300.0
	ScoreMax       = 850.0
	maxDailyChange = 2.0
)

// Factor weights: debt-to-income, payment punctuality, restructuring.
const (
	weightDebtRatio     = 0.40
	weightPunctuality   = 0.35
	weightRestructuring = 0.25
)

// ScoreDelta computes the bounded daily credit score change from the three
// weighted factors. Each factor is normalized to [-1,1]; the weighted sum is
// scaled to at most maxDailyChange points per day.
func ScoreDelta(totalDebt, annualIncome float64, missedPayments, paymentsDue, liquidationsToday int) float64 {
	var dti float64
	switch {
	case annualIncome > 0:
		dti = totalDebt / annualIncome
	case totalDebt > 0:
		dti = 1.0
	}
	var dtiScore float64
	switch {
	case dti <= 0.3:
		dtiScore = 1.0
	case dti <= 0.5:
		dtiScore = 0.5
	case dti <= 0.8:
		dtiScore = 0.0
	default:
		dtiScore = -1.0
	}

	punctuality := 1.0 // no payments due yet counts as perfect
	if paymentsDue > 0 {
		punctuality = 1.0 - float64(missedPayments)/float64(paymentsDue)
	}
	punctScore := (punctuality - 0.5) * 2 // [0,1] -> [-1,1]

	restructScore := 0.2 // slight positive for a quiet day
	if liquidationsToday > 0 {
		restructScore = -1.0
	}

	raw := weightDebtRatio*dtiScore + weightPunctuality*punctScore + weightRestructuring*restructScore

	delta := raw * maxDailyChange
	if delta > maxDailyChange {
		delta = maxDailyChange
	}
	if delta < -maxDailyChange {
		delta = -maxDailyChange
	}
	return delta
}

// UpdateScore applies the daily delta and clamps to the score range.
func UpdateScore(score, totalDebt, annualIncome float64, missedPayments, paymentsDue, liquidationsToday int) float64 {
	next := round2(score + ScoreDelta(totalDebt, annualIncome, missedPayments, paymentsDue, liquidationsToday))
	if next < ScoreMin {
		return ScoreMin
	}
	if next > ScoreMax {
		return ScoreMax
	}
	return next
}
