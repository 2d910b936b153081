package interactor

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	"github.com/mufasadev/lps-adaptor/internal/usecases/dtos"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// TransferResponseInteractor relays committed transfers to the legacy switch that started them.
type TransferResponseInteractor struct {
	transactions       *TransactionInteractor
	transferRepository repositories.TransferRepository
	queue              gateways.QueueService
	logger             *zerolog.Logger
}

func NewTransferResponseInteractor(
	transactions *TransactionInteractor,
	transferRepository repositories.TransferRepository,
	queue gateways.QueueService,
) *TransferResponseInteractor {
	l := log.Component("transfer-responses")
	return &TransferResponseInteractor{
		transactions:       transactions,
		transferRepository: transferRepository,
		queue:              queue,
		logger:             &l,
	}
}

// Handle queues the financial response and moves the transaction to financialResponse in one step.
// A redelivered commit finds the transaction terminal and queues nothing. Only COMMITTED callbacks
// are acted on; errors are logged, never returned.
func (i *TransferResponseInteractor) Handle(ctx context.Context, transferID string, response mojaloop.TransfersIDPutResponse, headers mojaloop.Headers) {
	logger := i.logger.With().
		Str("transferId", transferID).
		Str("fspiop-source", headers.Source).
		Logger()

	if response.TransferState != models.TransferStateCommitted {
		logger.Debug().Str("transferState", string(response.TransferState)).Msg("ignoring transfer response")
		return
	}

	if err := i.handle(ctx, transferID); err != nil {
		logger.Error().Err(err).Msgf("Could not process transfer response for transferId=%s from %s", transferID, headers.Source)
	}
}

func (i *TransferResponseInteractor) handle(ctx context.Context, transferID string) error {
	transfer, err := i.transferRepository.Get(ctx, transferID)
	if err != nil {
		return err
	}

	transaction, err := i.transactions.UpdateStateWith(ctx, transfer.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateFinancialResponse,
		func(ctx context.Context, current *models.Transaction) error {
			return i.queue.AddToQueue(ctx, dtos.FinancialResponseQueue(current.LpsID), dtos.NewFinancialResponse(current, transfer.ID))
		})
	if err != nil {
		return err
	}

	if _, err = i.transferRepository.UpdateState(ctx, transfer.ID, models.TransferStateCommitted); err != nil {
		return err
	}

	i.logger.Info().
		Str("transferId", transfer.ID).
		Str("lpsKey", transaction.LpsKey).
		Msg("financial response queued")
	return nil
}
