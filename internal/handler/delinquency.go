package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/service"
	"github.com/segyhp/loan-engine/pkg/response"
)

type DelinquencyService interface {
	CreateBucket(ctx context.Context, request *domain.CreateBucketRequest) (*domain.DelinquencyBucket, error)
	GetBucket(ctx context.Context, id uuid.UUID) (*domain.DelinquencyBucket, error)
	GetLoanDelinquency(ctx context.Context, loanID string) (*domain.LoanDelinquency, error)
	AddAction(ctx context.Context, loanID string, request *domain.DelinquencyActionRequest) (*domain.DelinquencyAction, error)
	RunCOB(ctx context.Context) (*service.COBReport, error)
}

type DelinquencyHandler struct {
	service   DelinquencyService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewDelinquencyHandler(service DelinquencyService, validate *validator.Validate, logger *slog.Logger) *DelinquencyHandler {
	return &DelinquencyHandler{
		service:   service,
		validator: validate,
		logger:    logger,
	}
}

func (h *DelinquencyHandler) CreateBucket(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateBucketRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	bucket, err := h.service.CreateBucket(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, bucket)
}

func (h *DelinquencyHandler) GetBucket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "bucketId")
	if !ok {
		return
	}

	bucket, err := h.service.GetBucket(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, bucket)
}

func (h *DelinquencyHandler) GetLoanDelinquency(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetLoanDelinquency(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, result)
}

func (h *DelinquencyHandler) AddAction(w http.ResponseWriter, r *http.Request) {
	var req domain.DelinquencyActionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	action, err := h.service.AddAction(r.Context(), mux.Vars(r)["loanId"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Created(w, action)
}

// RunCOB runs the close-of-business job on demand, outside the scheduler.
func (h *DelinquencyHandler) RunCOB(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RunCOB(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	response.Success(w, report)
}
