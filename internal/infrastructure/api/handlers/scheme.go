package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	http2 "github.com/mufasadev/lps-adaptor/internal/infrastructure/api/http"
	"github.com/mufasadev/lps-adaptor/internal/usecases/interactor"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// SchemeHandler receives the scheme's requests and callbacks. Each one is acknowledged as soon as its
// body decodes; the work runs on the dispatcher and its outcome is only visible in logs and state.
type SchemeHandler struct {
	parties          *interactor.PartiesInteractor
	responses        *interactor.TransactionRequestResponseInteractor
	quotes           *interactor.QuoteInteractor
	transfers        *interactor.TransferInteractor
	transferResponse *interactor.TransferResponseInteractor
	dispatcher       *Dispatcher
	logger           *zerolog.Logger
}

func NewSchemeHandler(
	parties *interactor.PartiesInteractor,
	responses *interactor.TransactionRequestResponseInteractor,
	quotes *interactor.QuoteInteractor,
	transfers *interactor.TransferInteractor,
	transferResponse *interactor.TransferResponseInteractor,
	dispatcher *Dispatcher,
) *SchemeHandler {
	logger := log.Component("api")
	return &SchemeHandler{
		parties:          parties,
		responses:        responses,
		quotes:           quotes,
		transfers:        transfers,
		transferResponse: transferResponse,
		dispatcher:       dispatcher,
		logger:           &logger,
	}
}

func (h *SchemeHandler) PutParties(w http.ResponseWriter, r *http.Request) {
	var body mojaloop.PartiesTypeIDPutResponse
	if !h.decode(w, r, &body) {
		return
	}

	partyIdentifier := chi.URLParam(r, http2.PartyIdentifierParam)
	h.dispatcher.Go(r.Context(), "parties", func(ctx context.Context) {
		h.parties.Handle(ctx, partyIdentifier, body)
	})
	w.WriteHeader(http.StatusOK)
}

func (h *SchemeHandler) PutTransactionRequest(w http.ResponseWriter, r *http.Request) {
	var body mojaloop.TransactionRequestsIDPutResponse
	if !h.decode(w, r, &body) {
		return
	}

	transactionRequestID := chi.URLParam(r, http2.IDParam)
	h.dispatcher.Go(r.Context(), "transactionRequests", func(ctx context.Context) {
		h.responses.Handle(ctx, transactionRequestID, body)
	})
	w.WriteHeader(http.StatusOK)
}

func (h *SchemeHandler) PostQuote(w http.ResponseWriter, r *http.Request) {
	var body mojaloop.QuotesPostRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.QuoteID == "" || body.TransactionID == "" {
		errors.HandleHTTPError(w, errors.NewValidationError("quoteId and transactionId are required"))
		return
	}

	headers := inboundHeaders(r)
	h.dispatcher.Go(r.Context(), "quotes", func(ctx context.Context) {
		h.quotes.Handle(ctx, body, headers)
	})
	w.WriteHeader(http.StatusAccepted)
}

func (h *SchemeHandler) PostTransfer(w http.ResponseWriter, r *http.Request) {
	var body mojaloop.TransfersPostRequest
	if !h.decode(w, r, &body) {
		return
	}
	if body.TransferID == "" || body.Condition == "" {
		errors.HandleHTTPError(w, errors.NewValidationError("transferId and condition are required"))
		return
	}

	headers := inboundHeaders(r)
	h.dispatcher.Go(r.Context(), "transfers", func(ctx context.Context) {
		h.transfers.Handle(ctx, body, headers)
	})
	w.WriteHeader(http.StatusAccepted)
}

func (h *SchemeHandler) PutTransfer(w http.ResponseWriter, r *http.Request) {
	var body mojaloop.TransfersIDPutResponse
	if !h.decode(w, r, &body) {
		return
	}

	transferID := chi.URLParam(r, http2.IDParam)
	headers := inboundHeaders(r)
	h.dispatcher.Go(r.Context(), "transferResponses", func(ctx context.Context) {
		h.transferResponse.Handle(ctx, transferID, body, headers)
	})
	w.WriteHeader(http.StatusOK)
}

func (h *SchemeHandler) decode(w http.ResponseWriter, r *http.Request, body interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Str("fspiop-source", r.Header.Get(mojaloop.HeaderSource)).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewValidationError(errors.ErrInvalidRequestBody))
		return false
	}
	return true
}

func inboundHeaders(r *http.Request) mojaloop.Headers {
	return mojaloop.Headers{
		Source:      r.Header.Get(mojaloop.HeaderSource),
		Destination: r.Header.Get(mojaloop.HeaderDestination),
	}
}
