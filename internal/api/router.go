// Package api assembles the HTTP API server.
package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/saldo-certo/internal/api/handlers"
	"github.com/dvloznov/saldo-certo/internal/api/middleware"
	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/metrics"
	"github.com/dvloznov/saldo-certo/internal/store"
)

// Deps are the collaborators served by the API. Publisher and Archive may
// be nil when export archiving is disabled.
type Deps struct {
	Interpreter *interpreter.Interpreter
	Ledger      store.Ledger
	Jobs        jobs.JobStore
	Publisher   jobs.Publisher
	Archive     export.Storage
	Metrics     *metrics.Metrics
	APIToken    string
	Log         zerolog.Logger
}

// NewRouter returns the API handler with the full middleware chain.
func NewRouter(d Deps) http.Handler {
	interpret := handlers.NewInterpretHandler(d.Interpreter, d.Log)
	ledger := handlers.NewLedgerHandler(d.Ledger, d.Log)
	exports := handlers.NewExportsHandler(d.Publisher, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Jobs, d.Archive, d.Log)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/interpret", interpret.Interpret)

	mux.HandleFunc("GET /api/users/{id}/balance", ledger.Balance)
	mux.HandleFunc("GET /api/users/{id}/transactions", ledger.ListTransactions)
	mux.HandleFunc("GET /api/users/{id}/report", ledger.Report)
	mux.HandleFunc("POST /api/users/{id}/exports", exports.CreateExport)

	mux.HandleFunc("GET /api/jobs", jobsHandler.ListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", jobsHandler.GetJob)
	mux.HandleFunc("GET /api/jobs/{id}/download", jobsHandler.Download)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(d.Log),
		middleware.RequestID,
		middleware.Logger(d.Log),
	}
	if d.Metrics != nil {
		mws = append(mws, middleware.Metrics(d.Metrics))
	}
	mws = append(mws, middleware.CORS, middleware.Auth(d.APIToken, "/health", "/metrics"))

	return middleware.Chain(mux, mws...)
}
