package interactor

import (
	"context"
	"fmt"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// TransferInteractor reserves transfers for quotes the adaptor issued by releasing the fulfilment.
type TransferInteractor struct {
	transactions       *TransactionInteractor
	quoteRepository    repositories.QuoteRepository
	transferRepository repositories.TransferRepository
	scheme             gateways.SchemeClient
	ilp                gateways.ILP
	logger             *zerolog.Logger
	now                func() time.Time
}

func NewTransferInteractor(
	transactions *TransactionInteractor,
	quoteRepository repositories.QuoteRepository,
	transferRepository repositories.TransferRepository,
	scheme gateways.SchemeClient,
	ilp gateways.ILP,
) *TransferInteractor {
	l := log.Component("transfers")
	return &TransferInteractor{
		transactions:       transactions,
		quoteRepository:    quoteRepository,
		transferRepository: transferRepository,
		scheme:             scheme,
		ilp:                ilp,
		logger:             &l,
		now:                time.Now,
	}
}

// Handle checks the transfer against its quote and answers with the fulfilment. Failures are reported
// to the scheme on the transfer error endpoint.
func (i *TransferInteractor) Handle(ctx context.Context, request mojaloop.TransfersPostRequest, headers mojaloop.Headers) {
	logger := i.logger.With().
		Str("transferId", request.TransferID).
		Str("fspiop-source", headers.Source).
		Logger()

	if err := i.handle(ctx, request, headers); err != nil {
		logger.Error().Err(err).Msg("could not process transfer request")

		reply := mojaloop.Headers{Source: i.transactions.FspID(), Destination: headers.Source}
		if putErr := i.scheme.PutTransferError(ctx, request.TransferID, errorInformation(err), reply); putErr != nil {
			logger.Error().Err(putErr).Msg("failed to report transfer error")
		}
	}
}

func (i *TransferInteractor) handle(ctx context.Context, request mojaloop.TransfersPostRequest, headers mojaloop.Headers) error {
	quote, err := i.quoteRepository.GetByCondition(ctx, request.Condition)
	if err != nil {
		return err
	}

	if !request.Amount.Equal(quote.TransferAmount) {
		return errors.NewValidationError(fmt.Sprintf("transfer amount %s does not match quoted %s", request.Amount, quote.TransferAmount))
	}

	fulfilment, err := i.ilp.CalculateFulfil(request.IlpPacket)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	condition, err := i.ilp.CalculateCondition(fulfilment)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if condition != request.Condition {
		return errors.NewValidationError("ilp packet does not match the condition")
	}

	transaction, err := i.transactions.Get(ctx, quote.TransactionRequestID, models.IDTypeTransactionRequestID)
	if err != nil {
		return err
	}

	transfer, stored, err := i.transferFor(ctx, request, quote, fulfilment)
	if err != nil {
		return err
	}

	reply := mojaloop.Headers{Source: i.transactions.FspID(), Destination: headers.Source}
	response := mojaloop.TransfersIDPutResponse{
		Fulfilment:         fulfilment,
		CompletedTimestamp: i.now().UTC().Format(ExpirationLayout),
		TransferState:      models.TransferStateReserved,
	}

	// a redelivered request for a transfer already answered gets the same answer again
	if stored && transaction.State.ReachedOrPassed(models.StateFulfillmentSent) && !transaction.State.IsTerminal() {
		return i.scheme.PutTransfer(ctx, transfer.ID, response, reply)
	}
	if stored && transaction.State == models.StateFinancialResponse && transfer.State == models.TransferStateCommitted {
		response.TransferState = models.TransferStateCommitted
		return i.scheme.PutTransfer(ctx, transfer.ID, response, reply)
	}

	if transaction.State != models.StateTransferReceived {
		if _, err = i.transactions.UpdateState(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransferReceived); err != nil {
			return err
		}
	}

	_, err = i.transactions.UpdateStateWith(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateFulfillmentSent,
		func(ctx context.Context, _ *models.Transaction) error {
			return i.scheme.PutTransfer(ctx, transfer.ID, response, reply)
		})
	if err != nil {
		return err
	}

	if _, err = i.transferRepository.UpdateState(ctx, transfer.ID, models.TransferStateReserved); err != nil {
		// the fulfilment is already out, so the scheme must not receive an error for this transfer
		i.logger.Error().Err(err).Str("transferId", transfer.ID).Msg("failed to mark transfer reserved")
	}
	return nil
}

// transferFor returns the stored transfer when the request was seen before, or stores a new one.
// stored reports which of the two happened.
func (i *TransferInteractor) transferFor(ctx context.Context, request mojaloop.TransfersPostRequest, quote *models.Quote, fulfilment string) (*models.Transfer, bool, error) {
	existing, err := i.transferRepository.Get(ctx, request.TransferID)
	switch {
	case err == nil:
		if existing.QuoteID != quote.ID {
			return nil, false, errors.NewValidationError(fmt.Sprintf("transfer %s belongs to another quote", request.TransferID))
		}
		i.logger.Info().Str("transferId", existing.ID).Msg("transfer request redelivered, reusing stored transfer")
		return existing, true, nil
	case !errors.IsNotFound(err):
		return nil, false, err
	}

	transfer, err := i.transferRepository.Create(ctx, &models.Transfer{
		ID:                   request.TransferID,
		QuoteID:              quote.ID,
		TransactionRequestID: quote.TransactionRequestID,
		Amount:               request.Amount,
		Fulfilment:           fulfilment,
		State:                models.TransferStateReceived,
	})
	return transfer, false, err
}
