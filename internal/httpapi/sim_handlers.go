package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"futurewallet.org/internal/engine"
	"futurewallet.org/internal/runs"
)

// simulateRequest mirrors the caller-facing input record. Pointer scalars
// distinguish "absent" from an explicit zero so documented defaults apply.
type simulateRequest struct {
	Balance       *float64              `json:"balance"`
	Currency      string                `json:"currency"`
	IncomeStreams []engine.IncomeStream `json:"income_streams"`
	Expenses      []engine.Expense      `json:"expenses"`
	Debts         []engine.Debt         `json:"debts"`
	Assets        []engine.Asset        `json:"assets"`
	CreditScore   *float64              `json:"credit_score"`
	Seed          *int64                `json:"seed"`
	HorizonDays   *int                  `json:"horizon_days"`
}

type simulateResponse struct {
	ID        string                   `json:"id"`
	CreatedAt time.Time                `json:"created_at"`
	Result    *engine.SimulationResult `json:"result"`
}

type branchRequest struct {
	BranchDay int          `json:"branch_day"`
	Patch     engine.Patch `json:"patch"`
}

func (a *API) handleSimulationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createSimulation(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleSimulationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/simulations/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/branches") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/branches"), "/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, r, http.StatusNotFound, "simulation not found")
			return
		}
		switch r.Method {
		case http.MethodPost:
			a.branchSimulation(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodPost)
		}
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getSimulation(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) createSimulation(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	state, err := a.buildState(&req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	run, err := a.registry.Create(r.Context(), state)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Location", "/v1/simulations/"+run.ID)
	writeJSON(w, http.StatusCreated, simulateResponse{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Result:    run.Result,
	})
}

func (a *API) getSimulation(w http.ResponseWriter, r *http.Request, id string) {
	run, err := a.registry.Get(r.Context(), id)
	if err != nil {
		handleRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Result:    run.Result,
	})
}

func (a *API) branchSimulation(w http.ResponseWriter, r *http.Request, id string) {
	var req branchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePatch(&req.Patch); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := a.registry.Branch(r.Context(), id, req.BranchDay, req.Patch)
	if err != nil {
		handleRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// buildState validates the request and applies the documented defaults.
func (a *API) buildState(req *simulateRequest) (*engine.UserState, error) {
	balance := 5000.0
	if req.Balance != nil {
		balance = *req.Balance
	}
	state := engine.NewUserState(balance)
	if req.Currency != "" {
		state.Currency = strings.ToUpper(req.Currency)
	}
	if req.CreditScore != nil {
		state.CreditScore = *req.CreditScore
	}
	if req.Seed != nil {
		state.Seed = *req.Seed
	}
	if req.HorizonDays != nil {
		state.HorizonDays = *req.HorizonDays
	}
	state.IncomeStreams = req.IncomeStreams
	state.Expenses = req.Expenses
	state.Debts = req.Debts
	state.Assets = req.Assets

	if state.HorizonDays < 1 || state.HorizonDays > a.opts.MaxHorizonDays {
		return nil, fmt.Errorf("horizon_days must be between 1 and %d", a.opts.MaxHorizonDays)
	}
	if !engine.SupportedCurrency(state.Currency) {
		return nil, fmt.Errorf("unsupported currency %q", state.Currency)
	}
	if state.CreditScore < engine.ScoreMin || state.CreditScore > engine.ScoreMax {
		return nil, fmt.Errorf("credit_score must be between %v and %v", engine.ScoreMin, engine.ScoreMax)
	}
	if !finite(balance) {
		return nil, errors.New("balance must be a finite number")
	}

	for i := range state.IncomeStreams {
		if err := validateIncome(&state.IncomeStreams[i]); err != nil {
			return nil, err
		}
	}
	for i := range state.Expenses {
		if err := validateExpense(&state.Expenses[i]); err != nil {
			return nil, err
		}
	}
	for i := range state.Debts {
		if err := validateDebt(&state.Debts[i]); err != nil {
			return nil, err
		}
	}
	for i := range state.Assets {
		if err := validateAsset(&state.Assets[i]); err != nil {
			return nil, err
		}
	}

	return state, nil
}

// validatePatch checks added entities with the same rules as the simulate
// path, so a branch cannot smuggle in values the engine never sees from a
// fresh run.
func validatePatch(p *engine.Patch) error {
	if p.AddIncome != nil {
		if err := validateIncome(p.AddIncome); err != nil {
			return err
		}
	}
	if p.AddExpense != nil {
		if err := validateExpense(p.AddExpense); err != nil {
			return err
		}
	}
	if p.AddDebt != nil {
		if err := validateDebt(p.AddDebt); err != nil {
			return err
		}
	}
	if p.AddAsset != nil {
		if err := validateAsset(p.AddAsset); err != nil {
			return err
		}
	}
	return nil
}

func validateIncome(inc *engine.IncomeStream) error {
	if inc.Name == "" {
		return errors.New("income stream name is required")
	}
	if !finite(inc.Amount) || inc.Amount < 0 {
		return fmt.Errorf("income %q: amount must be a non-negative number", inc.Name)
	}
	if err := validateFrequency(inc.Frequency); err != nil {
		return fmt.Errorf("income %q: %w", inc.Name, err)
	}
	if err := validateCurrency(inc.Currency); err != nil {
		return fmt.Errorf("income %q: %w", inc.Name, err)
	}
	return nil
}

func validateExpense(exp *engine.Expense) error {
	if exp.Name == "" {
		return errors.New("expense name is required")
	}
	if !finite(exp.Amount) || exp.Amount < 0 {
		return fmt.Errorf("expense %q: amount must be a non-negative number", exp.Name)
	}
	if err := validateFrequency(exp.Frequency); err != nil {
		return fmt.Errorf("expense %q: %w", exp.Name, err)
	}
	if err := validateCurrency(exp.Currency); err != nil {
		return fmt.Errorf("expense %q: %w", exp.Name, err)
	}
	return nil
}

func validateDebt(d *engine.Debt) error {
	if d.Name == "" {
		return errors.New("debt name is required")
	}
	if !finite(d.Principal) || d.Principal < 0 {
		return fmt.Errorf("debt %q: principal must be a non-negative number", d.Name)
	}
	if !finite(d.InterestRate) || d.InterestRate < 0 {
		return fmt.Errorf("debt %q: interest_rate must be a non-negative number", d.Name)
	}
	if !finite(d.MinPayment) || d.MinPayment < 0 {
		return fmt.Errorf("debt %q: min_payment must be a non-negative number", d.Name)
	}
	if err := validateCurrency(d.Currency); err != nil {
		return fmt.Errorf("debt %q: %w", d.Name, err)
	}
	return nil
}

func validateAsset(as *engine.Asset) error {
	if as.Name == "" {
		return errors.New("asset name is required")
	}
	if !finite(as.Value) || as.Value < 0 {
		return fmt.Errorf("asset %q: value must be a non-negative number", as.Name)
	}
	if err := validateAssetType(as.Type); err != nil {
		return fmt.Errorf("asset %q: %w", as.Name, err)
	}
	if as.Volatility < 0 || as.Volatility > 1 {
		return fmt.Errorf("asset %q: volatility must be within [0,1]", as.Name)
	}
	if as.SalePenaltyPct < 0 || as.SalePenaltyPct > 1 {
		return fmt.Errorf("asset %q: sale_penalty_pct must be within [0,1]", as.Name)
	}
	if err := validateCurrency(as.Currency); err != nil {
		return fmt.Errorf("asset %q: %w", as.Name, err)
	}
	return nil
}

func validateFrequency(freq string) error {
	switch freq {
	case "", engine.FreqDaily, engine.FreqWeekly, engine.FreqMonthly:
		return nil
	}
	return fmt.Errorf("unknown frequency %q", freq)
}

func validateAssetType(t string) error {
	switch t {
	case "", engine.AssetLiquid, engine.AssetYieldGenerating, engine.AssetVolatile, engine.AssetIlliquid:
		return nil
	}
	return fmt.Errorf("unknown asset type %q", t)
}

func validateCurrency(code string) error {
	if code == "" {
		return nil
	}
	if !engine.SupportedCurrency(code) {
		return fmt.Errorf("unsupported currency %q", code)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// decodeJSON decodes a strict single-document JSON body. Body size is
// already capped by the MaxBodyBytes middleware.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, runs.ErrInvalidForkDay):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, runs.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
