package repositories

import (
	"context"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
)

const UniqueViolationError = "23505"

// SideEffect runs while the transaction's state row is locked. A non-nil error aborts the state write.
type SideEffect func(ctx context.Context, transaction *models.Transaction) error

type TransactionRepository interface {
	Get(ctx context.Context, id string, idType models.IDType) (*models.Transaction, error)
	GetByLpsKeyAndState(ctx context.Context, lpsKey string, state models.State) (*models.Transaction, error)
	GetByPayerIdentifier(ctx context.Context, identifierValue string) (*models.Transaction, error)
	// FindIncomplete returns nil, nil when every transaction for lpsKey is terminal.
	FindIncomplete(ctx context.Context, lpsKey string) (*models.Transaction, error)
	FindStale(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error)
	Create(ctx context.Context, request *models.TransactionRequest) (*models.Transaction, error)
	UpdateState(ctx context.Context, id string, idType models.IDType, state models.State) (*models.Transaction, error)
	UpdateStateWith(ctx context.Context, id string, idType models.IDType, state models.State, effect SideEffect) (*models.Transaction, error)
	UpdatePayerFspID(ctx context.Context, id string, idType models.IDType, fspID string) (*models.Transaction, error)
	UpdateTransactionID(ctx context.Context, transactionRequestID, transactionID string) (*models.Transaction, error)
}
