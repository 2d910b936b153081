package repositories

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
)

type TransferRepository interface {
	Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error)
	Get(ctx context.Context, id string) (*models.Transfer, error)
	GetByTransactionRequestID(ctx context.Context, transactionRequestID string) (*models.Transfer, error)
	UpdateState(ctx context.Context, id string, state models.TransferState) (*models.Transfer, error)
}
