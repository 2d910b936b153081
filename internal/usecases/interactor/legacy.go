package interactor

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/internal/usecases/dtos"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// LegacyInteractor accepts transaction requests relayed by a legacy switch.
type LegacyInteractor struct {
	transactions *TransactionInteractor
	scheme       gateways.SchemeClient
	logger       *zerolog.Logger
}

func NewLegacyInteractor(transactions *TransactionInteractor, scheme gateways.SchemeClient) *LegacyInteractor {
	l := log.Component("legacy")
	return &LegacyInteractor{
		transactions: transactions,
		scheme:       scheme,
		logger:       &l,
	}
}

// Process stores the request and starts the payer party lookup. The rest of the flow is driven by
// scheme callbacks. When the lookup cannot be sent the transaction is declined.
func (i *LegacyInteractor) Process(ctx context.Context, request *dtos.LegacyTransactionRequest) (*models.Transaction, error) {
	transactionRequest, err := request.ToTransactionRequest(i.transactions.FspID())
	if err != nil {
		i.logger.Warn().Err(err).Str("lpsId", request.LpsID).Msg(errors.ErrFailedProcessLegacyRequest)
		return nil, err
	}

	transaction, err := i.transactions.Create(ctx, transactionRequest)
	if err != nil {
		return nil, err
	}

	headers := mojaloop.Headers{Source: i.transactions.FspID()}
	err = i.scheme.GetParties(ctx, transaction.Payer.PartyIdType, transaction.Payer.PartyIdentifier, headers)
	if err == nil {
		return transaction, nil
	}

	i.logger.Error().Err(err).Str("transactionRequestId", transaction.TransactionRequestID).Msg("failed to request payer party lookup")
	if _, declineErr := i.transactions.UpdateState(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined); declineErr != nil {
		i.logger.Error().Err(declineErr).Str("transactionRequestId", transaction.TransactionRequestID).Msg("failed to decline transaction")
	}

	var upstream *errors.UpstreamError
	if errors.As(err, &upstream) {
		return nil, err
	}
	return nil, errors.NewUpstreamError("scheme", 0, err)
}
