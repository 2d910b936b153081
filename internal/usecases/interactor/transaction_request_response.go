package interactor

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// TransactionRequestResponseInteractor handles the payer FSP's answer to a forwarded transaction request.
type TransactionRequestResponseInteractor struct {
	transactions *TransactionInteractor
	logger       *zerolog.Logger
}

func NewTransactionRequestResponseInteractor(transactions *TransactionInteractor) *TransactionRequestResponseInteractor {
	l := log.Component("transaction-request-responses")
	return &TransactionRequestResponseInteractor{
		transactions: transactions,
		logger:       &l,
	}
}

// Handle moves the transaction to transactionResponded when the payer FSP accepted it and to
// transactionDeclined when it was rejected.
func (i *TransactionRequestResponseInteractor) Handle(ctx context.Context, transactionRequestID string, response mojaloop.TransactionRequestsIDPutResponse) {
	logger := i.logger.With().
		Str("transactionRequestId", transactionRequestID).
		Str("transactionRequestState", response.TransactionRequestState).
		Logger()

	switch response.TransactionRequestState {
	case mojaloop.TransactionRequestStateReceived, mojaloop.TransactionRequestStateAccepted:
		if response.TransactionID == "" {
			logger.Warn().Msg("transaction request response carries no transactionId")
			return
		}
		if _, err := i.transactions.UpdateTransactionID(ctx, transactionRequestID, response.TransactionID); err != nil {
			logger.Warn().Err(err).Str("transactionId", response.TransactionID).Msg("could not record transactionId")
			return
		}
		_, _ = i.transactions.UpdateState(ctx, transactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionResponded)
	case mojaloop.TransactionRequestStateRejected:
		_, _ = i.transactions.UpdateState(ctx, transactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined)
	default:
		logger.Warn().Msg("unknown transaction request state")
	}
}
