package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"futurewallet.org/internal/auth"
	"futurewallet.org/internal/engine"
	"futurewallet.org/internal/runs"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	t.Setenv("FUTUREWALLET_AUTH_SECRET", "")
	auth.ResetSecretForTests()

	registry := runs.NewRegistry(engine.NewSimulator())
	api := New(ReadyProbe{Registry: registry}, "test", registry, Options{
		RateBurst:  100,
		RatePerSec: 100,
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func simulateBody() map[string]any {
	return map[string]any{
		"balance":      5000,
		"horizon_days": 90,
		"income_streams": []map[string]any{
			{"name": "salary", "amount": 4000, "frequency": "monthly"},
		},
		"expenses": []map[string]any{
			{"name": "rent", "amount": 1800, "frequency": "monthly", "category": "housing"},
		},
		"debts": []map[string]any{
			{"name": "loan", "principal": 6000, "interest_rate": 0.08, "min_payment": 250},
		},
		"assets": []map[string]any{
			{"name": "savings", "value": 3000, "asset_type": "liquid", "cost_basis": 3000},
		},
	}
}

func TestSimulateAndBranchFlow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/simulations", simulateBody(), nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	created := decode[simulateResponse](t, resp)
	if created.ID == "" {
		t.Fatal("expected a simulation ID")
	}
	if want := "/v1/simulations/" + created.ID; loc != want {
		t.Fatalf("Location = %q, want %q", loc, want)
	}
	if got := len(created.Result.DailyData); got != 90 {
		t.Fatalf("expected 90 daily snapshots, got %d", got)
	}
	if created.Result.Summary.FinancialVibe == "" {
		t.Fatal("expected a financial vibe in the summary")
	}

	resp = api.get(loc, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	fetched := decode[simulateResponse](t, resp)
	if fetched.ID != created.ID {
		t.Fatalf("get returned ID %q, want %q", fetched.ID, created.ID)
	}

	resp = api.post(loc+"/branches", map[string]any{
		"branch_day": 30,
		"patch": map[string]any{
			"add_income": map[string]any{
				"name": "side gig", "amount": 500, "frequency": "monthly",
			},
		},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("branch status = %d, want 200", resp.StatusCode)
	}
	report := decode[runs.BranchReport](t, resp)
	if report.BranchDay != 30 {
		t.Fatalf("branch day = %d, want 30", report.BranchDay)
	}
	if len(report.OriginalDaily) != 60 || len(report.BranchedDaily) != 60 {
		t.Fatalf("expected 60-day continuations, got %d and %d",
			len(report.OriginalDaily), len(report.BranchedDaily))
	}
	if report.Deltas.FinalBalance <= 0 {
		t.Fatalf("extra income should improve the final balance, delta = %v", report.Deltas.FinalBalance)
	}
}

func TestSimulateDefaultsApply(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/simulations", map[string]any{"horizon_days": 5}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	created := decode[simulateResponse](t, resp)
	if got := created.Result.DailyData[0].Balance; got != 5000 {
		t.Fatalf("default balance = %v, want 5000", got)
	}
	// Day 0 applies one quiet-day credit delta on top of the default 650.
	if got := created.Result.DailyData[0].CreditScore; got != 651.6 {
		t.Fatalf("day-0 credit score = %v, want 651.6", got)
	}
}

func TestSimulateValidation(t *testing.T) {
	api := newTestAPI(t)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"zero horizon", map[string]any{"horizon_days": 0}},
		{"unknown currency", map[string]any{"currency": "XPD"}},
		{"credit score too low", map[string]any{"credit_score": 100}},
		{"unknown frequency", map[string]any{
			"income_streams": []map[string]any{{"name": "x", "amount": 1, "frequency": "hourly"}},
		}},
		{"unknown asset type", map[string]any{
			"assets": []map[string]any{{"name": "x", "value": 1, "asset_type": "meme"}},
		}},
		{"missing name", map[string]any{
			"expenses": []map[string]any{{"amount": 10, "frequency": "daily"}},
		}},
		{"negative amount", map[string]any{
			"expenses": []map[string]any{{"name": "x", "amount": -5, "frequency": "daily"}},
		}},
		{"unknown field", map[string]any{"horizon_days": 10, "bogus": true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.post("/v1/simulations", tc.body, nil)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestBranchPatchValidation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/simulations", map[string]any{"horizon_days": 30}, nil)
	created := decode[simulateResponse](t, resp)
	branchPath := "/v1/simulations/" + created.ID + "/branches"

	cases := []struct {
		name  string
		patch map[string]any
	}{
		{"income unknown currency", map[string]any{
			"add_income": map[string]any{"name": "gig", "amount": 100, "currency": "XYZ", "frequency": "daily"},
		}},
		{"income negative amount", map[string]any{
			"add_income": map[string]any{"name": "gig", "amount": -5, "frequency": "daily"},
		}},
		{"income missing name", map[string]any{
			"add_income": map[string]any{"amount": 100, "frequency": "daily"},
		}},
		{"expense unknown frequency", map[string]any{
			"add_expense": map[string]any{"name": "x", "amount": 10, "frequency": "hourly"},
		}},
		{"expense unknown currency", map[string]any{
			"add_expense": map[string]any{"name": "x", "amount": 10, "currency": "XYZ"},
		}},
		{"debt negative principal", map[string]any{
			"add_debt": map[string]any{"name": "loan", "principal": -100, "min_payment": 10},
		}},
		{"asset volatility out of range", map[string]any{
			"add_asset": map[string]any{"name": "moon", "value": 100, "asset_type": "volatile", "volatility": 2},
		}},
		{"asset unknown currency", map[string]any{
			"add_asset": map[string]any{"name": "moon", "value": 100, "currency": "XYZ"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.post(branchPath, map[string]any{
				"branch_day": 10,
				"patch":      tc.patch,
			}, nil)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}

	// A clean patch on the same run still branches.
	resp = api.post(branchPath, map[string]any{
		"branch_day": 10,
		"patch": map[string]any{
			"add_income": map[string]any{"name": "gig", "amount": 100, "currency": "EUR", "frequency": "daily"},
		},
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid patch status = %d, want 200", resp.StatusCode)
	}
	report := decode[runs.BranchReport](t, resp)
	if !finite(report.Deltas.FinalBalance) {
		t.Fatalf("non-finite balance delta %v", report.Deltas.FinalBalance)
	}
}

func TestMaxBodyBytesFollowsOptions(t *testing.T) {
	t.Setenv("FUTUREWALLET_AUTH_SECRET", "")
	auth.ResetSecretForTests()

	registry := runs.NewRegistry(engine.NewSimulator())
	api := New(ReadyProbe{Registry: registry}, "test", registry, Options{
		MaxBodyBytes: 8 << 20,
		RateBurst:    100,
		RatePerSec:   100,
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	client := &apiClient{baseURL: srv.URL, client: srv.Client(), t: t}

	// Well over 1 MiB of entities; must pass with the larger configured cap.
	expenses := make([]map[string]any, 20000)
	for i := range expenses {
		expenses[i] = map[string]any{
			"name":      fmt.Sprintf("line item %05d", i),
			"amount":    1,
			"frequency": "monthly",
			"category":  "general",
		}
	}
	resp := client.post("/v1/simulations", map[string]any{
		"horizon_days": 1,
		"expenses":     expenses,
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("large body status = %d, want 201", resp.StatusCode)
	}
}

func TestSimulateRejectsEmptyBody(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post("/v1/simulations", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetUnknownSimulation(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/v1/simulations/01ZZZZZZZZZZZZZZZZZZZZZZZZ", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestBranchInvalidDay(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/simulations", map[string]any{"horizon_days": 30}, nil)
	created := decode[simulateResponse](t, resp)

	resp = api.post("/v1/simulations/"+created.ID+"/branches", map[string]any{
		"branch_day": 30,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/v1/simulations", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); !strings.Contains(allow, http.MethodPost) {
		t.Fatalf("Allow header = %q, want POST", allow)
	}
}

func TestHealthAndInfoEndpoints(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := api.get(path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := api.get("/healthz", nil)
	body := decode[map[string]any](t, resp)
	if body["service"] != "futurewallet-api" {
		t.Fatalf("unexpected health payload: %v", body)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/healthz", nil)
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
}

func TestTokenEndpointWithoutSecret(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post("/v1/auth/token", map[string]any{"subject": "alice"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 when auth is unconfigured", resp.StatusCode)
	}
}

func TestAuthProtectsSimulationRoutes(t *testing.T) {
	t.Setenv("FUTUREWALLET_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	registry := runs.NewRegistry(engine.NewSimulator())
	api := New(ReadyProbe{Registry: registry}, "test", registry, Options{
		RateBurst:  100,
		RatePerSec: 100,
	})
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	client := &apiClient{baseURL: srv.URL, client: srv.Client(), t: t}

	resp := client.post("/v1/simulations", map[string]any{"horizon_days": 5}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	resp = client.post("/v1/auth/token", map[string]any{"subject": "alice"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("token status = %d, want 200", resp.StatusCode)
	}
	token := decode[tokenResponse](t, resp)
	if token.Token == "" {
		t.Fatal("empty token issued")
	}

	resp = client.post("/v1/simulations", map[string]any{"horizon_days": 5}, map[string]string{
		"Authorization": "Bearer " + token.Token,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("authenticated status = %d, want 201", resp.StatusCode)
	}

	resp = client.post("/v1/simulations", map[string]any{"horizon_days": 5}, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}

	resp = client.get("/healthz", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health check should stay public, got %d", resp.StatusCode)
	}
}
