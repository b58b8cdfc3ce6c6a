package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"turbocycle/internal/cycle"
	"turbocycle/internal/database"
	"turbocycle/internal/sweep"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// Handler serves the solver, sweeps and stored runs over HTTP
type Handler struct {
	repo     database.Repository
	runner   *sweep.Runner
	baseline cycle.EngineInputs
}

// Options configures NewRouter
type Options struct {
	RateLimit float64 // requests per second per client
	RateBurst int
}

func NewHandler(repo database.Repository, runner *sweep.Runner, baseline cycle.EngineInputs) *Handler {
	return &Handler{repo: repo, runner: runner, baseline: baseline}
}

// NewRouter registers every route on a gorilla/mux router
func NewRouter(h *Handler, o Options) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	limiter := NewIPRateLimiter(rate.Limit(o.RateLimit), o.RateBurst)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(logMiddleware)
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/solve", h.Solve).Methods(http.MethodPost)
	api.HandleFunc("/solve/sheet.pdf", h.SolveSheet).Methods(http.MethodPost)
	api.HandleFunc("/sweeps/{kind}", h.RunSweep).Methods(http.MethodPost)
	api.HandleFunc("/runs", h.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", h.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/points", h.ListPoints).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/chart.html", h.RunChart).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/workbook.xlsx", h.RunWorkbook).Methods(http.MethodGet)
	api.HandleFunc("/envelope.png", h.EnvelopePNG).Methods(http.MethodGet)

	return r
}

// NewServer wraps the router in an http.Server
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header so an encoding failure still
// reaches the client as a 500
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeErr maps sentinel errors to status codes
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cycle.ErrUnknownOverride),
		errors.Is(err, cycle.ErrInvalidInput),
		errors.Is(err, sweep.ErrInvalidRange),
		errors.Is(err, sweep.ErrUnknownKind),
		errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errIncomplete):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
