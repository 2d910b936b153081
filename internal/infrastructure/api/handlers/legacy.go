package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/internal/usecases/dtos"
	"github.com/mufasadev/lps-adaptor/internal/usecases/interactor"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

type LegacyHandler struct {
	interactor *interactor.LegacyInteractor
	logger     *zerolog.Logger
}

func NewLegacyHandler(interactor *interactor.LegacyInteractor) *LegacyHandler {
	logger := log.Component("api")
	return &LegacyHandler{interactor: interactor, logger: &logger}
}

type acceptedResponse struct {
	TransactionRequestID string `json:"transactionRequestId"`
	LpsKey               string `json:"lpsKey"`
}

// ProcessTransactionRequest accepts a decoded ISO 8583 request from a legacy switch.
func (h *LegacyHandler) ProcessTransactionRequest(w http.ResponseWriter, r *http.Request) {
	var dto dtos.LegacyTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewValidationError(errors.ErrInvalidRequestBody))
		return
	}

	transaction, err := h.interactor.Process(r.Context(), &dto)
	if err != nil {
		h.logger.Error().Err(err).Str("lpsId", dto.LpsID).Msg(errors.ErrFailedProcessLegacyRequest)
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, acceptedResponse{
		TransactionRequestID: transaction.TransactionRequestID,
		LpsKey:               transaction.LpsKey,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
