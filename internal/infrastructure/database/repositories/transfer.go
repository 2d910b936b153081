package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/postgresql"
)

type TransferRepositoryImpl struct {
	db postgresql.Client
}

func NewTransferRepositoryImpl(db postgresql.Client) repositories.TransferRepository {
	return &TransferRepositoryImpl{
		db: db,
	}
}

const selectTransfer = `
SELECT id, quote_id, transaction_request_id, amount, currency, fulfilment, state, created_at
FROM transfers`

func (r *TransferRepositoryImpl) Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO transfers (id, quote_id, transaction_request_id, amount, currency, fulfilment, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		transfer.ID,
		transfer.QuoteID,
		transfer.TransactionRequestID,
		transfer.Amount.Amount,
		transfer.Amount.Currency,
		transfer.Fulfilment,
		string(transfer.State),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transfer %s already exists", transfer.ID))
		}
		return nil, fmt.Errorf("insert transfer: %w", err)
	}

	return r.Get(ctx, transfer.ID)
}

func (r *TransferRepositoryImpl) Get(ctx context.Context, id string) (*models.Transfer, error) {
	return r.getOne(ctx, selectTransfer+" WHERE id = $1", id)
}

// GetByTransactionRequestID returns the latest transfer made for a transaction.
func (r *TransferRepositoryImpl) GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Transfer, error) {
	return r.getOne(ctx, selectTransfer+" WHERE transaction_request_id = $1 ORDER BY created_at DESC LIMIT 1", transactionRequestID)
}

func (r *TransferRepositoryImpl) UpdateState(ctx context.Context, id string, state models.TransferState) (*models.Transfer, error) {
	tag, err := r.db.Exec(ctx, "UPDATE transfers SET state = $1 WHERE id = $2", string(state), id)
	if err != nil {
		return nil, fmt.Errorf("update transfer state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.NewNotFoundError("transfer", id)
	}

	return r.Get(ctx, id)
}

func (r *TransferRepositoryImpl) getOne(ctx context.Context, query, key string) (*models.Transfer, error) {
	var (
		t     models.Transfer
		state string
	)
	err := r.db.QueryRow(ctx, query, key).Scan(
		&t.ID, &t.QuoteID, &t.TransactionRequestID, &t.Amount.Amount, &t.Amount.Currency, &t.Fulfilment, &state, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transfer", key)
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}

	t.State = models.TransferState(state)
	return &t, nil
}
