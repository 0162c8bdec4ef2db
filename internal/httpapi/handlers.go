package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"pflegelog.org/internal/auth"
	"pflegelog.org/internal/obs"
	"pflegelog.org/internal/pflege"
)

// ReadyProbe reports readiness, e.g. by pinging the database.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	pflege     *pflege.Service
	readyProbe ReadyProbe
	version    string

	rateBurst     int
	ratePerSecond int
	maxBodyBytes  int64
}

// Option adjusts API construction.
type Option func(*API)

// WithRateLimit overrides the per-IP token bucket parameters.
func WithRateLimit(burst, perSecond int) Option {
	return func(a *API) {
		if burst > 0 && perSecond > 0 {
			a.rateBurst = burst
			a.ratePerSecond = perSecond
		}
	}
}

func New(authSvc *auth.Service, pflegeSvc *pflege.Service, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:           http.NewServeMux(),
		auth:          authSvc,
		pflege:        pflegeSvc,
		readyProbe:    rp,
		version:       version,
		rateBurst:     50,
		ratePerSecond: 25,
		maxBodyBytes:  1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/pfleger", a.handlePflegerCollection)
	a.mux.HandleFunc("/api/pfleger/", a.handlePflegerResource)
	a.mux.HandleFunc("/api/protokoll", a.handleProtokollCollection)
	a.mux.HandleFunc("/api/protokoll/", a.handleProtokollResource)
	a.mux.HandleFunc("/api/eintrag", a.handleEintragCollection)
	a.mux.HandleFunc("/api/eintrag/", a.handleEintragResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler wires the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = LoggingJSON(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "pflegelog-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
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

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
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

// handleServiceError maps domain sentinels onto HTTP status codes.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pflege.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, pflege.ErrNotAuthenticated):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, pflege.ErrForbidden):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, pflege.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, pflege.ErrClosed),
		errors.Is(err, pflege.ErrSelfDelete),
		errors.Is(err, pflege.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
