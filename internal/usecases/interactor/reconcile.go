package interactor

import (
	"context"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

type ReconcileInteractor struct {
	transactions       *TransactionInteractor
	transferRepository repositories.TransferRepository
	scheme             gateways.SchemeClient
	staleAfter         time.Duration
	batchSize          int
	timeout            time.Duration
	logger             *zerolog.Logger
	sync.Mutex
	now func() time.Time
}

// NewReconcileInteractor creates a new ReconcileInteractor
func NewReconcileInteractor(
	transactions *TransactionInteractor,
	transferRepository repositories.TransferRepository,
	scheme gateways.SchemeClient,
	staleAfter time.Duration,
	batchSize int,
) *ReconcileInteractor {
	l := log.Component("reconcile")
	return &ReconcileInteractor{
		transactions:       transactions,
		transferRepository: transferRepository,
		scheme:             scheme,
		staleAfter:         staleAfter,
		batchSize:          batchSize,
		timeout:            time.Minute,
		logger:             &l,
		now:                time.Now,
	}
}

// Execute lists incomplete transactions untouched for longer than staleAfter. Transactions waiting for
// a transfer commit get the transfer state re-requested from the scheme; the rest are logged for manual
// reconciliation. It never changes a transaction. It returns the number of stale transactions found.
func (r *ReconcileInteractor) Execute(ctx context.Context) (int, error) {
	// overlapping cron runs would solicit the same transfers twice
	r.Lock()
	defer r.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stale, err := r.transactions.FindStale(ctx, r.now().Add(-r.staleAfter), r.batchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg(errors.ErrFailedReconcileTransactions)
		return 0, err
	}

	for _, t := range stale {
		logger := r.logger.With().
			Str("transactionRequestId", t.TransactionRequestID).
			Str("lpsKey", t.LpsKey).
			Stringer("state", t.State).
			Time("updatedAt", t.UpdatedAt).
			Logger()

		if t.State != models.StateFulfillmentSent {
			logger.Warn().Msg("stale transaction needs manual reconciliation")
			continue
		}

		if err := r.solicitTransfer(ctx, t); err != nil {
			logger.Error().Err(err).Msg("failed to re-request transfer state")
			continue
		}
		logger.Info().Msg("transfer state re-requested")
	}

	return len(stale), nil
}

func (r *ReconcileInteractor) solicitTransfer(ctx context.Context, t *models.Transaction) error {
	transfer, err := r.transferRepository.GetByTransactionRequestID(ctx, t.TransactionRequestID)
	if err != nil {
		return err
	}
	return r.scheme.GetTransfer(ctx, transfer.ID, mojaloop.Headers{Source: r.transactions.FspID()})
}
