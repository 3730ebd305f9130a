package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/pkg/response"
)

type LoanService interface {
	CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error)
	PreviewSchedule(ctx context.Context, request *domain.CreateLoanRequest) (*domain.RepaymentSchedule, error)
	GetLoan(ctx context.Context, loanID string) (*domain.LoanSummary, error)
	GetSchedule(ctx context.Context, loanID string) (*domain.RepaymentSchedule, error)
	PostTransaction(ctx context.Context, loanID string, request *domain.PostTransactionRequest) (*domain.Transaction, error)
	ExecuteBatch(ctx context.Context, loanID string, request *domain.BatchTransactionRequest) ([]*domain.Transaction, error)
	Chargeback(ctx context.Context, loanID string, txID uuid.UUID, request *domain.ChargebackRequest) (*domain.Transaction, error)
	ReverseTransaction(ctx context.Context, loanID string, txID uuid.UUID) (*domain.Transaction, error)
	AddCharge(ctx context.Context, loanID string, request *domain.AddChargeRequest) (*domain.Charge, error)
	SetFraud(ctx context.Context, loanID string, fraud bool) (*domain.Loan, error)
	ListJournalEntries(ctx context.Context, loanID string) ([]*domain.JournalEntry, error)
}

type LoanHandler struct {
	service   LoanService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewLoanHandler(service LoanService, validate *validator.Validate, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validate,
		logger:    logger,
	}
}

// CreateLoan approves a loan and returns it with its expected schedule.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	created, err := h.service.CreateLoan(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, created)
}

func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoanRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	schedule, err := h.service.PreviewSchedule(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, schedule)
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, summary)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, schedule)
}

func (h *LoanHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.PostTransactionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	tx, err := h.service.PostTransaction(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, tx)
}

// ExecuteBatch posts several transactions atomically. Nothing is stored when one fails.
func (h *LoanHandler) ExecuteBatch(w http.ResponseWriter, r *http.Request) {
	var req domain.BatchTransactionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	txs, err := h.service.ExecuteBatch(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, txs)
}

func (h *LoanHandler) Chargeback(w http.ResponseWriter, r *http.Request) {
	txID, ok := pathUUID(w, r, "txId")
	if !ok {
		return
	}
	var req domain.ChargebackRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	tx, err := h.service.Chargeback(r.Context(), mux.Vars(r)["loanId"], txID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, tx)
}

func (h *LoanHandler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	txID, ok := pathUUID(w, r, "txId")
	if !ok {
		return
	}

	tx, err := h.service.ReverseTransaction(r.Context(), mux.Vars(r)["loanId"], txID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, tx)
}

func (h *LoanHandler) AddCharge(w http.ResponseWriter, r *http.Request) {
	var req domain.AddChargeRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	charge, err := h.service.AddCharge(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, charge)
}

func (h *LoanHandler) SetFraud(w http.ResponseWriter, r *http.Request) {
	var req domain.FraudRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.SetFraud(r.Context(), mux.Vars(r)["loanId"], req.Fraud)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, loan)
}

func (h *LoanHandler) ListJournalEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListJournalEntries(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, entries)
}
