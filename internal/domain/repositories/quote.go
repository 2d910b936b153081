package repositories

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
)

type QuoteRepository interface {
	Create(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	Get(ctx context.Context, id string) (*models.Quote, error)
	GetByCondition(ctx context.Context, condition string) (*models.Quote, error)
}
