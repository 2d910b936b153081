package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// HandleHTTPError handles http errors
func HandleHTTPError(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	switch e := appError(err).(type) {
	case *ValidationError:
		httpErr = &HTTPError{
			Code:    http.StatusBadRequest,
			Message: e.Error(),
		}
	case *NotFoundError:
		httpErr = &HTTPError{
			Code:    http.StatusNotFound,
			Message: e.Error(),
		}
	case *CorruptStateError:
		// a half-written transaction is reported like a missing one
		httpErr = &HTTPError{
			Code:    http.StatusNotFound,
			Message: NewNotFoundError("transaction", e.TransactionRequestID).Error(),
		}
	case *TransactionDuplicateError:
		httpErr = &HTTPError{
			Code:    http.StatusConflict,
			Message: e.Error(),
		}
	case *InvalidStateTransitionError:
		httpErr = &HTTPError{
			Code:    http.StatusConflict,
			Message: e.Error(),
		}
	case *UpstreamError:
		httpErr = &HTTPError{
			Code:    http.StatusBadGateway,
			Message: e.Error(),
		}
	default:
		httpErr = &HTTPError{
			Code:    http.StatusInternalServerError,
			Message: "Internal server error",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	json.NewEncoder(w).Encode(httpErr)
}

// appError returns the first typed application error in err's chain, or err itself.
func appError(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case *ValidationError, *NotFoundError, *CorruptStateError, *TransactionDuplicateError,
			*InvalidStateTransitionError, *UpstreamError:
			return e
		}
	}
	return err
}
