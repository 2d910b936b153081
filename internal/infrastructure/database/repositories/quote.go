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

type QuoteRepositoryImpl struct {
	db postgresql.Client
}

func NewQuoteRepositoryImpl(db postgresql.Client) repositories.QuoteRepository {
	return &QuoteRepositoryImpl{
		db: db,
	}
}

const selectQuote = `
SELECT id, transaction_id, transaction_request_id, amount, fees, commission, transfer_amount, currency,
       ilp_packet, condition, expiration, created_at
FROM quotes`

// Create stores a quote. Every amount of a quote shares the transaction currency.
func (r *QuoteRepositoryImpl) Create(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO quotes (id, transaction_id, transaction_request_id, amount, fees, commission, transfer_amount, currency, ilp_packet, condition, expiration)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		quote.ID,
		quote.TransactionID,
		quote.TransactionRequestID,
		quote.Amount.Amount,
		quote.Fees.Amount,
		quote.Commission.Amount,
		quote.TransferAmount.Amount,
		quote.Amount.Currency,
		quote.IlpPacket,
		quote.Condition,
		quote.Expiration,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("quote %s already exists", quote.ID))
		}
		return nil, fmt.Errorf("insert quote: %w", err)
	}

	return r.Get(ctx, quote.ID)
}

func (r *QuoteRepositoryImpl) Get(ctx context.Context, id string) (*models.Quote, error) {
	return r.getOne(ctx, selectQuote+" WHERE id = $1", id)
}

// GetByCondition finds the quote a transfer refers to through its ILP condition.
func (r *QuoteRepositoryImpl) GetByCondition(ctx context.Context, condition string) (*models.Quote, error) {
	return r.getOne(ctx, selectQuote+" WHERE condition = $1", condition)
}

func (r *QuoteRepositoryImpl) getOne(ctx context.Context, query, key string) (*models.Quote, error) {
	var (
		q        models.Quote
		currency string
	)
	err := r.db.QueryRow(ctx, query, key).Scan(
		&q.ID, &q.TransactionID, &q.TransactionRequestID, &q.Amount.Amount, &q.Fees.Amount, &q.Commission.Amount,
		&q.TransferAmount.Amount, &currency, &q.IlpPacket, &q.Condition, &q.Expiration, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("quote", key)
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}

	q.Amount.Currency = currency
	q.Fees.Currency = currency
	q.Commission.Currency = currency
	q.TransferAmount.Currency = currency
	return &q, nil
}
