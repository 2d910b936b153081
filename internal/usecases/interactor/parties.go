package interactor

import (
	"context"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/mufasadev/lps-adaptor/pkg/util/repeat"
	"github.com/rs/zerolog"
)

// PartiesInteractor handles the scheme's answer to a payer party lookup.
type PartiesInteractor struct {
	transactions *TransactionInteractor
	attempts     int
	delay        time.Duration
	logger       *zerolog.Logger
}

func NewPartiesInteractor(transactions *TransactionInteractor, attempts int, delay time.Duration) *PartiesInteractor {
	l := log.Component("parties")
	return &PartiesInteractor{
		transactions: transactions,
		attempts:     attempts,
		delay:        delay,
		logger:       &l,
	}
}

// Handle records the payer FSP and forwards the transaction request to it, retrying the send.
// A transaction that cannot be forwarded is declined. Errors are logged, never returned, since the
// scheme does not expect a reply beyond the acknowledgement.
func (i *PartiesInteractor) Handle(ctx context.Context, partyIdentifier string, response mojaloop.PartiesTypeIDPutResponse) {
	transaction, err := i.transactions.GetByPayerIdentifier(ctx, partyIdentifier)
	if err != nil {
		i.logger.Error().Err(err).Str("partyIdentifier", partyIdentifier).Msg("no transaction awaiting this payer")
		return
	}
	logger := i.logger.With().Str("transactionRequestId", transaction.TransactionRequestID).Logger()

	fspID := response.Party.PartyIdInfo.FspID
	if fspID == "" {
		logger.Warn().Msg("party lookup returned no fsp")
		i.decline(ctx, transaction.TransactionRequestID)
		return
	}

	transaction, err = i.transactions.UpdatePayerFspID(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID, fspID)
	if err != nil {
		return
	}

	_, err = i.transactions.UpdateStateWith(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionSent,
		func(ctx context.Context, current *models.Transaction) error {
			request := current.ToRequest()
			return repeat.Repeat(ctx, func(ctx context.Context) error {
				return i.transactions.SendToScheme(ctx, &request)
			}, i.attempts, i.delay)
		})
	if err == nil {
		return
	}

	var invalid *errors.InvalidStateTransitionError
	if errors.As(err, &invalid) {
		logger.Warn().Err(err).Msg("transaction already moved on, ignoring party callback")
		return
	}
	logger.Error().Err(err).Int("attempts", i.attempts).Msg("failed to forward transaction request")
	i.decline(ctx, transaction.TransactionRequestID)
}

func (i *PartiesInteractor) decline(ctx context.Context, transactionRequestID string) {
	// UpdateStateWith already logs failures
	_, _ = i.transactions.UpdateState(ctx, transactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined)
}
