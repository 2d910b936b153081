package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
)

type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]models.Quote
}

func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[string]models.Quote)}
}

var _ repositories.QuoteRepository = (*QuoteStore)(nil)

func (s *QuoteStore) Create(_ context.Context, quote *models.Quote) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.quotes[quote.ID]; exists {
		return nil, apperrors.NewValidationError(fmt.Sprintf("quote %s already exists", quote.ID))
	}
	for _, q := range s.quotes {
		if q.Condition == quote.Condition {
			return nil, apperrors.NewValidationError(fmt.Sprintf("quote with condition %s already exists", quote.Condition))
		}
	}

	q := *quote
	q.CreatedAt = time.Now().UTC()
	s.quotes[q.ID] = q
	return &q, nil
}

func (s *QuoteStore) Get(_ context.Context, id string) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("quote", id)
	}
	return &q, nil
}

func (s *QuoteStore) GetByCondition(_ context.Context, condition string) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, q := range s.quotes {
		if q.Condition == condition {
			found := q
			return &found, nil
		}
	}
	return nil, apperrors.NewNotFoundError("quote", condition)
}

type TransferStore struct {
	mu        sync.RWMutex
	transfers map[string]models.Transfer
}

func NewTransferStore() *TransferStore {
	return &TransferStore{transfers: make(map[string]models.Transfer)}
}

var _ repositories.TransferRepository = (*TransferStore)(nil)

func (s *TransferStore) Create(_ context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transfers[transfer.ID]; exists {
		return nil, apperrors.NewValidationError(fmt.Sprintf("transfer %s already exists", transfer.ID))
	}

	t := *transfer
	t.CreatedAt = time.Now().UTC()
	s.transfers[t.ID] = t
	return &t, nil
}

func (s *TransferStore) Get(_ context.Context, id string) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transfers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("transfer", id)
	}
	return &t, nil
}

func (s *TransferStore) GetByTransactionRequestID(_ context.Context, transactionRequestID string) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.Transfer
	for _, t := range s.transfers {
		if t.TransactionRequestID == transactionRequestID && (found == nil || t.CreatedAt.After(found.CreatedAt)) {
			c := t
			found = &c
		}
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("transfer", transactionRequestID)
	}
	return found, nil
}

func (s *TransferStore) UpdateState(_ context.Context, id string, state models.TransferState) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transfers[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("transfer", id)
	}
	t.State = state
	s.transfers[id] = t
	return &t, nil
}
