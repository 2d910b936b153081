package errors

import (
	"errors"
	"fmt"
)

const (
	ErrFailedReconcileTransactions    = "Failed to reconcile stale transactions"
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToConnectToTheQueue    = "Failed to connect to the queue"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrFailedProcessLegacyRequest     = "Failed to process legacy transaction request"
	ErrFailedGetTransaction           = "Failed to get transaction"
	ErrFspiopSourceRequired           = "FSPIOP-Source is required"
	ErrTransactionCorrupt             = "Transaction is missing a party record"
)

// ValidationError is returned when a request is missing or carries an invalid field.
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError is returned when a lookup matches no record.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// CorruptStateError is returned when a transaction row exists without both of its party rows.
type CorruptStateError struct {
	TransactionRequestID string
	MissingParty         string
}

func NewCorruptStateError(transactionRequestID, missingParty string) *CorruptStateError {
	return &CorruptStateError{TransactionRequestID: transactionRequestID, MissingParty: missingParty}
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("transaction %s has no %s party", e.TransactionRequestID, e.MissingParty)
}

// UpstreamError wraps a failed call to the scheme or the queue.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func NewUpstreamError(service string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode, Err: err}
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s responded with status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TransactionDuplicateError is returned when an incomplete transaction already exists for an lps key.
type TransactionDuplicateError struct {
	LpsKey string
}

func NewTransactionDuplicateError(lpsKey string) *TransactionDuplicateError {
	return &TransactionDuplicateError{LpsKey: lpsKey}
}

func (e *TransactionDuplicateError) Error() string {
	return fmt.Sprintf("incomplete transaction already exists for lps key %s", e.LpsKey)
}

// InvalidStateTransitionError is returned when a state write would break the lifecycle order.
type InvalidStateTransitionError struct {
	From string
	To   string
}

func NewInvalidStateTransitionError(from, to string) *InvalidStateTransitionError {
	return &InvalidStateTransitionError{From: from, To: to}
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("illegal state transition from %s to %s", e.From, e.To)
}

// IsNotFound reports whether err means the record is unavailable, including corrupt records.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	var cs *CorruptStateError
	return errors.As(err, &nf) || errors.As(err, &cs)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
