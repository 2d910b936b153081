// Package memory implements the repositories in process memory. It is used by tests and by
// STORE_BACKEND=memory deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
)

type record struct {
	transaction models.Transaction
	seq         uint64
}

// TransactionStore keeps transactions in maps guarded by mu. State writers additionally hold a
// per-transaction lock, so a side effect only blocks writers of its own transaction.
type TransactionStore struct {
	mu              sync.RWMutex
	records         map[string]*record
	byTransactionID map[string]string
	seq             uint64

	transactionLocks *keyedMutex
	lpsKeyLocks      *keyedMutex

	sideEffectTimeout time.Duration
	now               func() time.Time
}

func NewTransactionStore(sideEffectTimeout time.Duration) *TransactionStore {
	return &TransactionStore{
		records:           make(map[string]*record),
		byTransactionID:   make(map[string]string),
		transactionLocks:  newKeyedMutex(),
		lpsKeyLocks:       newKeyedMutex(),
		sideEffectTimeout: sideEffectTimeout,
		now:               time.Now,
	}
}

var _ repositories.TransactionRepository = (*TransactionStore)(nil)

func (s *TransactionStore) Get(_ context.Context, id string, idType models.IDType) (*models.Transaction, error) {
	trID, err := s.resolve(id, idType)
	if err != nil {
		return nil, err
	}
	return s.load(trID)
}

func (s *TransactionStore) GetByLpsKeyAndState(_ context.Context, lpsKey string, state models.State) (*models.Transaction, error) {
	t := s.latest(func(t *models.Transaction) bool {
		return t.LpsKey == lpsKey && t.State == state
	})
	if t == nil {
		return nil, apperrors.NewNotFoundError("transaction", lpsKey)
	}
	return t, nil
}

func (s *TransactionStore) GetByPayerIdentifier(_ context.Context, identifierValue string) (*models.Transaction, error) {
	t := s.latest(func(t *models.Transaction) bool {
		return t.Payer.PartyIdentifier == identifierValue && t.State == models.StateTransactionReceived
	})
	if t == nil {
		return nil, apperrors.NewNotFoundError("transaction", identifierValue)
	}
	return t, nil
}

func (s *TransactionStore) FindIncomplete(_ context.Context, lpsKey string) (*models.Transaction, error) {
	return s.findIncomplete(lpsKey), nil
}

func (s *TransactionStore) findIncomplete(lpsKey string) *models.Transaction {
	return s.latest(func(t *models.Transaction) bool {
		return t.LpsKey == lpsKey && !t.State.IsTerminal()
	})
}

func (s *TransactionStore) FindStale(_ context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error) {
	s.mu.RLock()
	stale := make([]*models.Transaction, 0)
	for _, r := range s.records {
		if !r.transaction.State.IsTerminal() && r.transaction.UpdatedAt.Before(olderThan) {
			stale = append(stale, clone(&r.transaction))
		}
	}
	s.mu.RUnlock()

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].UpdatedAt.Before(stale[j].UpdatedAt)
	})
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (s *TransactionStore) Create(_ context.Context, request *models.TransactionRequest) (*models.Transaction, error) {
	unlock := s.lpsKeyLocks.Lock(request.LpsKey)
	defer unlock()

	if s.findIncomplete(request.LpsKey) != nil {
		return nil, apperrors.NewTransactionDuplicateError(request.LpsKey)
	}

	now := s.now().UTC()
	t := models.Transaction{
		TransactionRequestID: request.TransactionRequestID,
		LpsID:                request.LpsID,
		LpsKey:               request.LpsKey,
		Payee:                request.Payee,
		Payer:                request.Payer,
		LpsFee:               request.LpsFee,
		Amount:               request.Amount,
		State:                models.StateTransactionReceived,
		TransactionType:      request.TransactionType,
		AuthenticationType:   request.AuthenticationType,
		Expiration:           request.Expiration,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if t.LpsFee.Currency == "" {
		t.LpsFee.Currency = t.Amount.Currency
	}

	s.mu.Lock()
	if _, exists := s.records[t.TransactionRequestID]; exists {
		s.mu.Unlock()
		return nil, apperrors.NewValidationError(fmt.Sprintf("transactionRequestId %s already exists", t.TransactionRequestID))
	}
	s.seq++
	s.records[t.TransactionRequestID] = &record{transaction: *clone(&t), seq: s.seq}
	s.mu.Unlock()

	return s.load(t.TransactionRequestID)
}

func (s *TransactionStore) UpdateState(ctx context.Context, id string, idType models.IDType, state models.State) (*models.Transaction, error) {
	return s.UpdateStateWith(ctx, id, idType, state, nil)
}

func (s *TransactionStore) UpdateStateWith(ctx context.Context, id string, idType models.IDType, state models.State, effect repositories.SideEffect) (*models.Transaction, error) {
	if !state.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown state %s", state))
	}

	return s.mutate(id, idType, func(current *models.Transaction) error {
		if !current.State.CanTransitionTo(state) {
			return apperrors.NewInvalidStateTransitionError(current.State.String(), state.String())
		}

		if effect != nil {
			effectCtx, cancel := ctx, context.CancelFunc(func() {})
			if s.sideEffectTimeout > 0 {
				effectCtx, cancel = context.WithTimeout(ctx, s.sideEffectTimeout)
			}
			err := effect(effectCtx, clone(current))
			cancel()
			if err != nil {
				return err
			}
		}

		previous := current.State
		current.PreviousState = &previous
		current.State = state
		return nil
	})
}

func (s *TransactionStore) UpdatePayerFspID(_ context.Context, id string, idType models.IDType, fspID string) (*models.Transaction, error) {
	return s.mutate(id, idType, func(current *models.Transaction) error {
		current.Payer.FspID = fspID
		return nil
	})
}

func (s *TransactionStore) UpdateTransactionID(_ context.Context, transactionRequestID, transactionID string) (*models.Transaction, error) {
	return s.mutate(transactionRequestID, models.IDTypeTransactionRequestID, func(current *models.Transaction) error {
		if current.TransactionID == transactionID {
			return nil
		}
		if current.TransactionID != "" {
			return apperrors.NewValidationError(fmt.Sprintf("transaction %s already has transactionId %s", transactionRequestID, current.TransactionID))
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, taken := s.byTransactionID[transactionID]; taken {
			return apperrors.NewValidationError(fmt.Sprintf("transactionId %s is already in use", transactionID))
		}
		s.byTransactionID[transactionID] = transactionRequestID
		current.TransactionID = transactionID
		return nil
	})
}

// mutate applies change to a copy of the transaction under its lock and stores the copy when change succeeds.
func (s *TransactionStore) mutate(id string, idType models.IDType, change func(current *models.Transaction) error) (*models.Transaction, error) {
	trID, err := s.resolve(id, idType)
	if err != nil {
		return nil, err
	}

	unlock := s.transactionLocks.Lock(trID)
	defer unlock()

	current, err := s.load(trID)
	if err != nil {
		return nil, err
	}

	before := *current
	if err = change(current); err != nil {
		return nil, err
	}
	if equalMutable(&before, current) {
		return current, nil
	}

	current.Version++
	current.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	s.records[trID].transaction = *clone(current)
	s.mu.Unlock()

	return current, nil
}

func (s *TransactionStore) resolve(id string, idType models.IDType) (string, error) {
	switch idType {
	case models.IDTypeTransactionRequestID:
		return id, nil
	case models.IDTypeTransactionID:
		s.mu.RLock()
		trID, ok := s.byTransactionID[id]
		s.mu.RUnlock()
		if !ok {
			return "", apperrors.NewNotFoundError("transaction", id)
		}
		return trID, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown id type %q", idType))
	}
}

func (s *TransactionStore) load(trID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[trID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction", trID)
	}
	return clone(&r.transaction), nil
}

// latest returns a copy of the most recently created transaction matching match.
func (s *TransactionStore) latest(match func(t *models.Transaction) bool) *models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *record
	for _, r := range s.records {
		if match(&r.transaction) && (found == nil || r.seq > found.seq) {
			found = r
		}
	}
	if found == nil {
		return nil
	}
	return clone(&found.transaction)
}

func clone(t *models.Transaction) *models.Transaction {
	c := *t
	if t.PreviousState != nil {
		previous := *t.PreviousState
		c.PreviousState = &previous
	}
	if t.TransactionType.RefundInfo != nil {
		info := *t.TransactionType.RefundInfo
		c.TransactionType.RefundInfo = &info
	}
	return &c
}

func equalMutable(a, b *models.Transaction) bool {
	return a.State == b.State && a.PreviousState == b.PreviousState &&
		a.TransactionID == b.TransactionID && a.Payer.FspID == b.Payer.FspID
}
