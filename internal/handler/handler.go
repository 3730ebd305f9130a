package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/loan-engine/internal/retry"
	pkgerrors "github.com/segyhp/loan-engine/pkg/errors"
	"github.com/segyhp/loan-engine/pkg/response"
)

const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeValidation     = "VALIDATION_ERROR"
	codeInternal       = "INTERNAL_ERROR"
)

type decimalRule func(value, bound decimal.Decimal) bool

var decimalRules = map[string]decimalRule{
	"decimal_gt":  decimal.Decimal.GreaterThan,
	"decimal_gte": decimal.Decimal.GreaterThanOrEqual,
}

// NewValidator returns a validator that understands decimal.Decimal fields through the
// decimal_gt and decimal_gte tags.
func NewValidator() (*validator.Validate, error) {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	if err := registerDecimalRules(v, decimalRules); err != nil {
		return nil, err
	}
	return v, nil
}

func registerDecimalRules(v *validator.Validate, rules map[string]decimalRule) error {
	for tag, rule := range rules {
		if err := v.RegisterValidation(tag, compareDecimal(rule)); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

func compareDecimal(ok decimalRule) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(value, bound)
	}
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// decode reads a JSON body into dst and validates it. It writes the error response
// itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Problem(w, http.StatusBadRequest, codeInvalidRequest, "Invalid request body", err.Error())
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			response.Problem(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
			return false
		}
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()})
		}
		response.Problem(w, http.StatusBadRequest, codeValidation, "Request validation failed", fields)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.Problem(w, http.StatusBadRequest, codeInvalidRequest, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto status codes. Failed batch commands report their
// position in the batch.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := pkgerrors.HTTPStatus(err)

	var details interface{}
	var batchErr *retry.BatchError
	if errors.As(err, &batchErr) {
		details = map[string]int{"index": batchErr.Index}
	}

	code, message := codeInternal, "Internal server error"
	var be *pkgerrors.BusinessError
	switch {
	case errors.As(err, &be):
		code, message = be.Code, be.Message
	case errors.Is(err, pkgerrors.ErrLoanLocked):
		code, message = pkgerrors.ErrCodeLoanLocked, pkgerrors.ErrLoanLocked.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "error", err)
	}
	response.Problem(w, status, code, message, details)
}
