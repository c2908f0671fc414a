package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"futurewallet.org/internal/obs"
	"futurewallet.org/internal/runs"
)

var errNotWired = errors.New("run registry is not wired")

// ReadyProbe reports whether the service can take traffic. The registry is
// in-process, so readiness only fails when wiring is incomplete.
type ReadyProbe struct {
	Registry *runs.Registry
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Registry == nil {
		return errNotWired
	}
	return nil
}

// Options tune the boundary layer.
type Options struct {
	MaxHorizonDays int
	MaxBodyBytes   int64
	RateBurst      int
	RatePerSec     int
	TokenTTL       time.Duration
}

func (o *Options) fillDefaults() {
	if o.MaxHorizonDays <= 0 {
		o.MaxHorizonDays = 36500
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.RateBurst <= 0 {
		o.RateBurst = 20
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 10
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = time.Hour
	}
}

// API is the HTTP layer over the run registry.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	registry   *runs.Registry
	opts       Options
}

// New wires the routes.
func New(rp ReadyProbe, version string, registry *runs.Registry, opts Options) *API {
	opts.fillDefaults()
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		registry:   registry,
		opts:       opts,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.HandleFunc("/v1/auth/token", a.handleToken)

	a.mux.HandleFunc("/v1/simulations", a.handleSimulationsCollection)
	a.mux.HandleFunc("/v1/simulations/", a.handleSimulationResource)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = Logging(h)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "futurewallet-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "futurewallet-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}
