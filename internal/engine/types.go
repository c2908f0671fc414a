package engine

// Frequency values accepted on income streams and expenses.
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

// Asset types, in liquidation priority order (most liquid first).
const (
	AssetLiquid          = "liquid"
	AssetYieldGenerating = "yield-generating"
	AssetVolatile        = "volatile"
	AssetIlliquid        = "illiquid"
)

// Event types and severity tiers.
const (
	EventLiquidation = "liquidation"
	EventDeficit     = "deficit"
	EventDebtPayoff  = "debt_payoff"
	EventTax         = "tax"

	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
	SeveritySuccess = "success"
)

// IncomeStream is a recurring credit to the balance.
type IncomeStream struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Frequency string  `json:"frequency"`
	StartDay  int     `json:"start_day"`
	EndDay    *int    `json:"end_day,omitempty"`
}

// Expense is a recurring debit from the balance.
type Expense struct {
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Frequency string  `json:"frequency"`
	Category  string  `json:"category"`
	StartDay  int     `json:"start_day"`
	EndDay    *int    `json:"end_day,omitempty"`
}

// Debt accrues daily interest and takes a minimum payment on monthly
// payment days. Once PaidOff is set the debt is terminal: principal stays
// zero and the amortizer skips it.
type Debt struct {
	Name              string  `json:"name"`
	Principal         float64 `json:"principal"`
	InterestRate      float64 `json:"interest_rate"` // annual, e.g. 0.05
	MinPayment        float64 `json:"min_payment"`
	Currency          string  `json:"currency"`
	StartDay          int     `json:"start_day"`
	PaidOff           bool    `json:"paid_off"`
	MissedPayments    int     `json:"missed_payments"`
	TotalPaymentsMade int     `json:"total_payments_made"`
	TotalPaymentsDue  int     `json:"total_payments_due"`
}

// Asset is a holding revalued daily from yield and volatility. CostBasis
// defaults to the initial value and only shrinks proportionally to the
// fraction sold.
type Asset struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Currency       string  `json:"currency"`
	Type           string  `json:"asset_type"`
	Volatility     float64 `json:"volatility"` // 0-1
	YieldRate      float64 `json:"yield_rate"` // annual
	LockPeriodDays int     `json:"lock_period_days"`
	SalePenaltyPct float64 `json:"sale_penalty_pct"` // 0-1
	PurchaseDay    int     `json:"purchase_day"`
	CostBasis      float64 `json:"cost_basis"`
}

// DailySnapshot is the immutable per-day record appended to a result.
type DailySnapshot struct {
	Day            int     `json:"day"`
	Balance        float64 `json:"balance"`
	NetWorth       float64 `json:"net_worth"`
	CreditScore    float64 `json:"credit_score"`
	NAV            float64 `json:"nav"`
	LiquidityRatio float64 `json:"liquidity_ratio"`
	TotalDebt      float64 `json:"total_debt"`
	TotalAssets    float64 `json:"total_assets"`
}

// SimulationEvent records a notable occurrence on a given day.
type SimulationEvent struct {
	Day         int     `json:"day"`
	Type        string  `json:"event_type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Severity    string  `json:"severity"`
}

// Summary holds the end-of-run scalar and qualitative metrics.
type Summary struct {
	FinalBalance         float64 `json:"final_balance"`
	FinalNetWorth        float64 `json:"final_net_worth"`
	FinalCreditScore     float64 `json:"final_credit_score"`
	CollapseProbability  float64 `json:"collapse_probability"` // percent of days in deficit
	CollapseTiming       *int    `json:"collapse_timing"`      // first deficit day, nil if none
	FinancialVibe        string  `json:"financial_vibe"`
	PetState             string  `json:"pet_state"`
	ShockResilienceIndex float64 `json:"shock_resilience_index"`
	TotalIncome          float64 `json:"total_income"`
	TotalExpenses        float64 `json:"total_expenses"`
	TotalTaxesPaid       float64 `json:"total_taxes_paid"`
	RealizedGains        float64 `json:"realized_gains"`
	UnrealizedGains      float64 `json:"unrealized_gains"`
	LiquidationEvents    int     `json:"total_liquidation_events"`
	DeficitDays          int     `json:"deficit_days"`
}

// SimulationResult is one run's full trajectory.
type SimulationResult struct {
	DailyData []DailySnapshot   `json:"daily_data"`
	Events    []SimulationEvent `json:"events"`
	Summary   Summary           `json:"summary"`
}

// UserState is the mutable aggregate one simulation run owns exclusively.
// A run mutates it in place; use Clone before running if the caller wants
// to keep the pre-run state for branching.
type UserState struct {
	Balance       float64        `json:"balance"`
	Currency      string         `json:"currency"`
	IncomeStreams []IncomeStream `json:"income_streams"`
	Expenses      []Expense      `json:"expenses"`
	Debts         []Debt         `json:"debts"`
	Assets        []Asset        `json:"assets"`
	CreditScore   float64        `json:"credit_score"`
	Seed          int64          `json:"seed"`
	HorizonDays   int            `json:"horizon_days"`

	// Running ledgers, carried across a branch point.
	RealizedGains       float64 `json:"realized_gains"`
	UnrealizedGains     float64 `json:"unrealized_gains"`
	TaxesPaid           float64 `json:"taxes_paid"`
	TotalIncomeReceived float64 `json:"total_income_received"`
	TotalExpensesPaid   float64 `json:"total_expenses_paid"`

	// Shock bookkeeping.
	DeficitDays       int   `json:"deficit_days"`
	ShockEvents       []int `json:"shock_events"`  // days on which shocks started
	RecoveryDays      []int `json:"recovery_days"` // duration of each resolved shock
	CurrentShockStart *int  `json:"current_shock_start,omitempty"`
}

// NewUserState returns a state with the engine defaults applied.
func NewUserState(balance float64) *UserState {
	return &UserState{
		Balance:     balance,
		Currency:    "USD",
		CreditScore: 650,
		Seed:        42,
		HorizonDays: 365,
	}
}

// Normalize fills zero-value fields with their documented defaults.
// Boundary decoding leaves unset fields at zero; the engine expects every
// entity to carry a currency and a frequency.
func (s *UserState) Normalize() {
	if s.Currency == "" {
		s.Currency = "USD"
	}
	for i := range s.IncomeStreams {
		inc := &s.IncomeStreams[i]
		if inc.Currency == "" {
			inc.Currency = "USD"
		}
		if inc.Frequency == "" {
			inc.Frequency = FreqMonthly
		}
	}
	for i := range s.Expenses {
		exp := &s.Expenses[i]
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
	for i := range s.Debts {
		if s.Debts[i].Currency == "" {
			s.Debts[i].Currency = "USD"
		}
	}
	for i := range s.Assets {
		a := &s.Assets[i]
		if a.Currency == "" {
			a.Currency = "USD"
		}
		if a.Type == "" {
			a.Type = AssetLiquid
		}
		if a.CostBasis == 0 {
			a.CostBasis = a.Value
		}
	}
}
