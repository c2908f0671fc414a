package engine

// Clone returns a fully independent deep copy of the state: every owned
// slice and pointer field is copied, so mutating one side can never alias
// the other.
func (s *UserState) Clone() *UserState {
	out := *s
	out.IncomeStreams = make([]IncomeStream, len(s.IncomeStreams))
	for i, inc := range s.IncomeStreams {
		out.IncomeStreams[i] = inc.clone()
	}
	out.Expenses = make([]Expense, len(s.Expenses))
	for i, exp := range s.Expenses {
		out.Expenses[i] = exp.clone()
	}
	out.Debts = append([]Debt(nil), s.Debts...)
	out.Assets = append([]Asset(nil), s.Assets...)
	out.ShockEvents = append([]int(nil), s.ShockEvents...)
	out.RecoveryDays = append([]int(nil), s.RecoveryDays...)
	if s.CurrentShockStart != nil {
		v := *s.CurrentShockStart
		out.CurrentShockStart = &v
	}
	return &out
}

func (i IncomeStream) clone() IncomeStream {
	if i.EndDay != nil {
		v := *i.EndDay
		i.EndDay = &v
	}
	return i
}

func (e Expense) clone() Expense {
	if e.EndDay != nil {
		v := *e.EndDay
		e.EndDay = &v
	}
	return e
}

// Patch is the closed set of branch operations. Nil fields are no-ops;
// application is order-independent. Removals match entities by name.
type Patch struct {
	SetBalance     *float64      `json:"balance,omitempty"`
	SetCreditScore *float64      `json:"credit_score,omitempty"`
	SetSeed        *int64        `json:"seed,omitempty"`
	SetHorizonDays *int          `json:"horizon_days,omitempty"`
	AddIncome      *IncomeStream `json:"add_income,omitempty"`
	RemoveIncome   string        `json:"remove_income,omitempty"`
	AddExpense     *Expense      `json:"add_expense,omitempty"`
	RemoveExpense  string        `json:"remove_expense,omitempty"`
	AddDebt        *Debt         `json:"add_debt,omitempty"`
	RemoveDebt     string        `json:"remove_debt,omitempty"`
	AddAsset       *Asset        `json:"add_asset,omitempty"`
	RemoveAsset    string        `json:"remove_asset,omitempty"`
}

// Branch applies the patch to a fresh clone of the snapshot and returns
// the new independent state.
func Branch(snapshot *UserState, patch Patch) *UserState {
	branched := snapshot.Clone()

	if patch.SetBalance != nil {
		branched.Balance = *patch.SetBalance
	}
	if patch.SetCreditScore != nil {
		branched.CreditScore = *patch.SetCreditScore
	}
	if patch.SetSeed != nil {
		branched.Seed = *patch.SetSeed
	}
	if patch.SetHorizonDays != nil {
		branched.HorizonDays = *patch.SetHorizonDays
	}

	if patch.AddIncome != nil {
		inc := patch.AddIncome.clone()
		applyIncomeDefaults(&inc)
		branched.IncomeStreams = append(branched.IncomeStreams, inc)
	}
	if patch.RemoveIncome != "" {
		kept := branched.IncomeStreams[:0]
		for _, inc := range branched.IncomeStreams {
			if inc.Name != patch.RemoveIncome {
				kept = append(kept, inc)
			}
		}
		branched.IncomeStreams = kept
	}

	if patch.AddExpense != nil {
		exp := patch.AddExpense.clone()
		applyExpenseDefaults(&exp)
		branched.Expenses = append(branched.Expenses, exp)
	}
	if patch.RemoveExpense != "" {
		kept := branched.Expenses[:0]
		for _, exp := range branched.Expenses {
			if exp.Name != patch.RemoveExpense {
				kept = append(kept, exp)
			}
		}
		branched.Expenses = kept
	}

	if patch.AddDebt != nil {
		d := *patch.AddDebt
		if d.Currency == "" {
			d.Currency = "USD"
		}
		branched.Debts = append(branched.Debts, d)
	}
	if patch.RemoveDebt != "" {
		kept := branched.Debts[:0]
		for _, d := range branched.Debts {
			if d.Name != patch.RemoveDebt {
				kept = append(kept, d)
			}
		}
		branched.Debts = kept
	}

	if patch.AddAsset != nil {
		a := *patch.AddAsset
		if a.Currency == "" {
			a.Currency = "USD"
		}
		if a.Type == "" {
			a.Type = AssetLiquid
		}
		if a.CostBasis == 0 {
			a.CostBasis = a.Value
		}
		branched.Assets = append(branched.Assets, a)
	}
	if patch.RemoveAsset != "" {
		kept := branched.Assets[:0]
		for _, a := range branched.Assets {
			if a.Name != patch.RemoveAsset {
				kept = append(kept, a)
			}
		}
		branched.Assets = kept
	}

	return branched
}

func applyIncomeDefaults(inc *IncomeStream) {
	if inc.Currency == "" {
		inc.Currency = "USD"
	}
	if inc.Frequency == "" {
		inc.Frequency = FreqMonthly
	}
}

func applyExpenseDefaults(exp *Expense) {
	if exp.Currency == "" {
		exp.Currency = "USD"
	}
	if exp.Frequency == "" {
		exp.Frequency = FreqMonthly
	}
	if exp.Category == "" {
		exp.Category = "general"
	}
}

// DayPoint is a daily series entry compact enough for side-by-side plots.
type DayPoint struct {
	Day            int     `json:"day"`
	Balance        float64 `json:"balance"`
	NetWorth       float64 `json:"net_worth"`
	CreditScore    float64 `json:"credit_score"`
	NAV            float64 `json:"nav"`
	LiquidityRatio float64 `json:"liquidity_ratio"`
}

// Deltas are branched-minus-original summary differences, rounded to two
// decimals.
type Deltas struct {
	FinalBalance         float64 `json:"final_balance"`
	FinalNetWorth        float64 `json:"final_net_worth"`
	FinalCreditScore     float64 `json:"final_credit_score"`
	CollapseProbability  float64 `json:"collapse_probability"`
	ShockResilienceIndex float64 `json:"shock_resilience_index"`
}

// Comparison pairs two trajectories for a what-if report.
type Comparison struct {
	Original      Summary    `json:"original"`
	Branched      Summary    `json:"branched"`
	Deltas        Deltas     `json:"deltas"`
	OriginalDaily []DayPoint `json:"original_daily"`
	BranchedDaily []DayPoint `json:"branched_daily"`
}

// Compare reduces two results to summaries, numeric deltas and compact
// daily series.
func Compare(a, b *SimulationResult) Comparison {
	diff := func(va, vb float64) float64 { return round2(vb - va) }
	return Comparison{
		Original: a.Summary,
		Branched: b.Summary,
		Deltas: Deltas{
			FinalBalance:         diff(a.Summary.FinalBalance, b.Summary.FinalBalance),
			FinalNetWorth:        diff(a.Summary.FinalNetWorth, b.Summary.FinalNetWorth),
			FinalCreditScore:     diff(a.Summary.FinalCreditScore, b.Summary.FinalCreditScore),
			CollapseProbability:  diff(a.Summary.CollapseProbability, b.Summary.CollapseProbability),
			ShockResilienceIndex: diff(a.Summary.ShockResilienceIndex, b.Summary.ShockResilienceIndex),
		},
		OriginalDaily: dayPoints(a.DailyData),
		BranchedDaily: dayPoints(b.DailyData),
	}
}

func dayPoints(snaps []DailySnapshot) []DayPoint {
	points := make([]DayPoint, len(snaps))
	for i, s := range snaps {
		points[i] = DayPoint{
			Day:            s.Day,
			Balance:        s.Balance,
			NetWorth:       s.NetWorth,
			CreditScore:    s.CreditScore,
			NAV:            s.NAV,
			LiquidityRatio: s.LiquidityRatio,
		}
	}
	return points
}
