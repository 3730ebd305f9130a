package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/pkg/response"
)

type Routes struct {
	Loans       *LoanHandler
	Delinquency *DelinquencyHandler
	Health      *HealthHandler
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// NewRouter wires the REST API, health checks and, when metrics are set, /metrics.
func NewRouter(routes Routes) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(routes.Logger))
	router.Use(response.CORSMiddleware)
	if routes.Metrics != nil {
		router.Use(routes.Metrics.Middleware)
		router.Handle("/metrics", routes.Metrics.Handler()).Methods(http.MethodGet)
	}

	// Health check
	router.HandleFunc("/health", routes.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", routes.Health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	loans := routes.Loans
	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/schedule/preview", loans.PreviewSchedule).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/schedule", loans.GetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/transactions", loans.PostTransaction).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/transactions/batch", loans.ExecuteBatch).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/transactions/{txId}/chargeback", loans.Chargeback).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/transactions/{txId}/reverse", loans.ReverseTransaction).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/charges", loans.AddCharge).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/fraud", loans.SetFraud).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanId}/journal-entries", loans.ListJournalEntries).Methods(http.MethodGet)

	delinquency := routes.Delinquency
	api.HandleFunc("/loans/{loanId}/delinquency", delinquency.GetLoanDelinquency).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanId}/delinquency/actions", delinquency.AddAction).Methods(http.MethodPost)
	api.HandleFunc("/delinquency/buckets", delinquency.CreateBucket).Methods(http.MethodPost)
	api.HandleFunc("/delinquency/buckets/{bucketId}", delinquency.GetBucket).Methods(http.MethodGet)
	api.HandleFunc("/delinquency/cob", delinquency.RunCOB).Methods(http.MethodPost)

	return router
}
