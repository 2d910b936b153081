package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	http2 "github.com/mufasadev/lps-adaptor/internal/infrastructure/api/http"
	"github.com/mufasadev/lps-adaptor/internal/usecases/interactor"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// TransactionHandler serves read-only transaction lookups to operators and legacy switches.
type TransactionHandler struct {
	interactor *interactor.TransactionInteractor
	logger     *zerolog.Logger
}

func NewTransactionHandler(interactor *interactor.TransactionInteractor) *TransactionHandler {
	logger := log.Component("api")
	return &TransactionHandler{interactor: interactor, logger: &logger}
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	idType := models.IDType(r.URL.Query().Get(http2.IDTypeQuery))
	if idType == "" {
		idType = models.IDTypeTransactionRequestID
	}
	if !idType.Valid() {
		errors.HandleHTTPError(w, errors.NewValidationError(fmt.Sprintf("unknown id type %q", idType)))
		return
	}

	transaction, err := h.interactor.Get(r.Context(), chi.URLParam(r, http2.IDParam), idType)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) GetByLpsKeyAndState(w http.ResponseWriter, r *http.Request) {
	state, err := parseState(r.URL.Query().Get(http2.StateQuery))
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}

	transaction, err := h.interactor.GetByLpsKeyAndState(r.Context(), chi.URLParam(r, http2.LpsKeyParam), state)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) FindIncomplete(w http.ResponseWriter, r *http.Request) {
	lpsKey := chi.URLParam(r, http2.LpsKeyParam)
	transaction, err := h.interactor.FindIncomplete(r.Context(), lpsKey)
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	if transaction == nil {
		errors.HandleHTTPError(w, errors.NewNotFoundError("incomplete transaction", lpsKey))
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) GetReceivedByPayer(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.interactor.GetByPayerIdentifier(r.Context(), chi.URLParam(r, http2.PayerIdentifierParam))
	if err != nil {
		errors.HandleHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// parseState accepts a state name ("quoteResponded") or its stored code ("05").
func parseState(value string) (models.State, error) {
	if value == "" {
		return models.StateUnknown, errors.NewValidationError("state is required")
	}
	if s, err := models.ParseStateName(value); err == nil {
		return s, nil
	}
	s, err := models.ParseStateCode(value)
	if err != nil {
		return models.StateUnknown, errors.NewValidationError(fmt.Sprintf("unknown state %q", value))
	}
	return s, nil
}
