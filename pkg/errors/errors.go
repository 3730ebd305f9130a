package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrLoanNotFound                    = errors.New("loan not found")
	ErrLoanAlreadyExists               = errors.New("loan already exists")
	ErrInvalidLoanTerms                = errors.New("invalid loan terms")
	ErrInvalidAmount                   = errors.New("invalid amount")
	ErrLoanNotActive                   = errors.New("loan is not active")
	ErrLoanNotDisbursed                = errors.New("loan is not disbursed")
	ErrTransactionNotFound             = errors.New("transaction not found")
	ErrDuplicateExternalID             = errors.New("transaction external id already used")
	ErrTransactionAlreadyReversed      = errors.New("transaction is already reversed")
	ErrTransactionInFuture             = errors.New("transaction date is in the future")
	ErrDisbursementExceedsApproved     = errors.New("disbursement exceeds approved principal")
	ErrMinDaysBetweenDisbursalAndFirst = errors.New("first repayment is too close to disbursement")
	ErrLoanNotOverpaid                 = errors.New("loan is not overpaid")
	ErrRefundExceedsOverpaid           = errors.New("refund exceeds overpaid amount")
	ErrChargebackNotAllowed            = errors.New("chargeback not allowed for transaction")
	ErrChargebackExceedsAmount         = errors.New("chargeback exceeds remaining transaction amount")
	ErrLoanChargedOff                  = errors.New("loan is charged off")
	ErrBeforeChargeOff                 = errors.New("transaction is dated before the charge-off")
	ErrBucketNotFound                  = errors.New("delinquency bucket not found")
	ErrInvalidDelinquencyAction        = errors.New("invalid delinquency action")
	ErrConcurrentModification          = errors.New("loan was modified concurrently")
	ErrLoanLocked                      = errors.New("loan is locked by another command")
	ErrInvalidDate                     = errors.New("invalid date")
	ErrReversalNotAllowed              = errors.New("transaction cannot be reversed")
	ErrInvalidBucket                   = errors.New("invalid delinquency bucket")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound             = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists        = "LOAN_ALREADY_EXISTS"
	ErrCodeInvalidLoanTerms         = "INVALID_LOAN_TERMS"
	ErrCodeInvalidAmount            = "INVALID_AMOUNT"
	ErrCodeLoanNotActive            = "LOAN_NOT_ACTIVE"
	ErrCodeTransactionNotFound      = "TRANSACTION_NOT_FOUND"
	ErrCodeTransactionRejected      = "TRANSACTION_REJECTED"
	ErrCodeDuplicateExternalID      = "DUPLICATE_EXTERNAL_ID"
	ErrCodeBucketNotFound           = "DELINQUENCY_BUCKET_NOT_FOUND"
	ErrCodeInvalidDelinquencyAction = "INVALID_DELINQUENCY_ACTION"
	ErrCodeConcurrentModification   = "CONCURRENT_MODIFICATION"
	ErrCodeDatabaseError            = "DATABASE_ERROR"
	ErrCodeCacheError               = "CACHE_ERROR"
	ErrCodeInvalidDate              = "INVALID_DATE"
	ErrCodeInvalidBucket            = "INVALID_DELINQUENCY_BUCKET"
	ErrCodeLoanLocked               = "LOAN_LOCKED"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapInvalidLoanTerms(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerms,
		err.Error(),
		fmt.Errorf("%w: %w", ErrInvalidLoanTerms, err),
	)
}

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapInvalidDate(field, value string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDate,
		fmt.Sprintf("Invalid %s: %q, expected YYYY-MM-DD", field, value),
		ErrInvalidDate,
	)
}

func WrapLoanNotActive(loanID, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotActive,
		fmt.Sprintf("Loan with ID %s is %s", loanID, status),
		ErrLoanNotActive,
	)
}

func WrapTransactionNotFound(txID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTransactionNotFound,
		fmt.Sprintf("Transaction with ID %s not found", txID),
		ErrTransactionNotFound,
	)
}

func WrapDuplicateExternalID(externalID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateExternalID,
		fmt.Sprintf("Transaction external ID %s already used on this loan", externalID),
		ErrDuplicateExternalID,
	)
}

// WrapTransactionRejected reports a transaction refused by a posting rule.
func WrapTransactionRejected(reason error, detail string) *BusinessError {
	return NewBusinessError(ErrCodeTransactionRejected, detail, reason)
}

func WrapBucketNotFound(bucketID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBucketNotFound,
		fmt.Sprintf("Delinquency bucket with ID %s not found", bucketID),
		ErrBucketNotFound,
	)
}

func WrapInvalidBucket(detail string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidBucket, detail, ErrInvalidBucket)
}

func WrapInvalidDelinquencyAction(detail string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidDelinquencyAction, detail, ErrInvalidDelinquencyAction)
}

func WrapConcurrentModification(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("Loan with ID %s was modified by another command", loanID),
		ErrConcurrentModification,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsRetryable reports whether a command failing with err may succeed on another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrLoanLocked)
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrLoanLocked) {
		return http.StatusConflict
	}
	var be *BusinessError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	switch be.Code {
	case ErrCodeLoanNotFound, ErrCodeTransactionNotFound, ErrCodeBucketNotFound:
		return http.StatusNotFound
	case ErrCodeLoanAlreadyExists, ErrCodeDuplicateExternalID, ErrCodeConcurrentModification:
		return http.StatusConflict
	case ErrCodeInvalidLoanTerms, ErrCodeInvalidAmount, ErrCodeInvalidDelinquencyAction,
		ErrCodeInvalidDate, ErrCodeInvalidBucket:
		return http.StatusBadRequest
	case ErrCodeLoanNotActive, ErrCodeTransactionRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
