package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/mufasadev/lps-adaptor/pkg/postgresql"
	"github.com/rs/zerolog"
)

type TransactionRepositoryImpl struct {
	db                postgresql.Client
	logger            *zerolog.Logger
	sideEffectTimeout time.Duration
}

// NewTransactionRepositoryImpl creates new instance of TransactionRepositoryImpl.
// Side effects passed to UpdateStateWith are cancelled after sideEffectTimeout.
func NewTransactionRepositoryImpl(db postgresql.Client, sideEffectTimeout time.Duration) repositories.TransactionRepository {
	l := log.Component("transaction_repository")
	return &TransactionRepositoryImpl{
		db:                db,
		logger:            &l,
		sideEffectTimeout: sideEffectTimeout,
	}
}

// querier is satisfied by both the pool and an open pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var writeTx = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

const selectTransaction = `
SELECT t.transaction_request_id, COALESCE(t.transaction_id, ''), t.lps_id, t.lps_key, t.state,
       COALESCE(t.previous_state, ''), t.version, t.amount, t.currency, t.lps_fee_amount, t.lps_fee_currency,
       t.expiration, t.initiator, t.initiator_type, t.scenario, COALESCE(t.original_transaction_id, ''),
       COALESCE(t.refund_reason, ''), t.authentication_type, t.created_at, t.updated_at
FROM transactions t`

const selectParties = `
SELECT type, fsp_id, identifier_type, identifier_value, sub_id_or_type, name
FROM transaction_parties
WHERE transaction_request_id = $1`

// Get returns the transaction identified by id, read together with both of its parties.
func (r *TransactionRepositoryImpl) Get(ctx context.Context, id string, idType models.IDType) (*models.Transaction, error) {
	return r.get(ctx, r.db, id, idType, false)
}

func (r *TransactionRepositoryImpl) get(ctx context.Context, q querier, id string, idType models.IDType, forUpdate bool) (*models.Transaction, error) {
	column, err := idColumn(idType)
	if err != nil {
		return nil, err
	}

	query := selectTransaction + " WHERE t." + column + " = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}

	t, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", id)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if err = r.loadParties(ctx, q, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByLpsKeyAndState returns the most recently created transaction matching both lpsKey and state.
func (r *TransactionRepositoryImpl) GetByLpsKeyAndState(ctx context.Context, lpsKey string, state models.State) (*models.Transaction, error) {
	query := selectTransaction + `
WHERE t.lps_key = $1 AND t.state = $2
ORDER BY t.created_at DESC
LIMIT 1`

	return r.getOne(ctx, query, lpsKey, lpsKey, state.Code())
}

// GetByPayerIdentifier returns the most recent transaction still in transactionReceived whose payer matches.
func (r *TransactionRepositoryImpl) GetByPayerIdentifier(ctx context.Context, identifierValue string) (*models.Transaction, error) {
	query := selectTransaction + `
JOIN transaction_parties p ON p.transaction_request_id = t.transaction_request_id AND p.type = $2
WHERE p.identifier_value = $1 AND t.state = $3
ORDER BY t.created_at DESC
LIMIT 1`

	return r.getOne(ctx, query, identifierValue, identifierValue, models.PartyTypePayer, models.StateTransactionReceived.Code())
}

func (r *TransactionRepositoryImpl) getOne(ctx context.Context, query, key string, args ...interface{}) (*models.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction", key)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	if err = r.loadParties(ctx, r.db, t); err != nil {
		return nil, err
	}
	return t, nil
}

const selectIncomplete = selectTransaction + `
WHERE t.lps_key = $1 AND t.state NOT IN ($2, $3, $4)
ORDER BY t.created_at DESC
LIMIT 1`

// FindIncomplete returns the most recent non-terminal transaction for lpsKey, or nil when there is none.
func (r *TransactionRepositoryImpl) FindIncomplete(ctx context.Context, lpsKey string) (*models.Transaction, error) {
	return r.findIncomplete(ctx, r.db, lpsKey)
}

func (r *TransactionRepositoryImpl) findIncomplete(ctx context.Context, q querier, lpsKey string) (*models.Transaction, error) {
	args := append([]interface{}{lpsKey}, terminalCodes()...)

	t, err := scanTransaction(q.QueryRow(ctx, selectIncomplete, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find incomplete transaction: %w", err)
	}

	if err = r.loadParties(ctx, q, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindStale returns up to limit non-terminal transactions not updated since olderThan, oldest first.
// Transactions with a missing party row are logged and left out.
func (r *TransactionRepositoryImpl) FindStale(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error) {
	query := selectTransaction + `
WHERE t.state NOT IN ($2, $3, $4) AND t.updated_at < $1
ORDER BY t.updated_at
LIMIT $5`

	args := append([]interface{}{olderThan}, terminalCodes()...)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find stale transactions: %w", err)
	}

	stale := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stale transaction: %w", err)
		}
		stale = append(stale, t)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("find stale transactions: %w", err)
	}

	result := stale[:0]
	for _, t := range stale {
		if err = r.loadParties(ctx, r.db, t); err != nil {
			r.logger.Error().Err(err).Str("transactionRequestId", t.TransactionRequestID).Msg(apperrors.ErrTransactionCorrupt)
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

const insertTransaction = `
INSERT INTO transactions (
  transaction_request_id, lps_id, lps_key, state, amount, currency, lps_fee_amount, lps_fee_currency,
  expiration, initiator, initiator_type, scenario, original_transaction_id, refund_reason, authentication_type
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const insertParty = `
INSERT INTO transaction_parties (transaction_request_id, type, fsp_id, identifier_type, identifier_value, sub_id_or_type, name)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Create inserts the transaction in state transactionReceived with its payer and payee rows.
// Creations for the same lpsKey are serialized with an advisory lock so two incomplete
// transactions can never coexist for one key.
func (r *TransactionRepositoryImpl) Create(ctx context.Context, request *models.TransactionRequest) (*models.Transaction, error) {
	lpsFee := request.LpsFee
	if lpsFee.Currency == "" {
		lpsFee.Currency = request.Amount.Currency
	}

	var originalTransactionID, refundReason interface{}
	if info := request.TransactionType.RefundInfo; info != nil {
		originalTransactionID = info.OriginalTransactionID
		refundReason = info.RefundReason
	}

	args := []interface{}{
		request.TransactionRequestID,
		request.LpsID,
		request.LpsKey,
		models.StateTransactionReceived.Code(),
		request.Amount.Amount,
		request.Amount.Currency,
		lpsFee.Amount,
		lpsFee.Currency,
		request.Expiration,
		request.TransactionType.Initiator,
		request.TransactionType.InitiatorType,
		request.TransactionType.Scenario,
		originalTransactionID,
		refundReason,
		string(request.AuthenticationType),
	}

	parties := []models.TransactionParty{
		models.PartyFromIdInfo(request.TransactionRequestID, models.PartyTypePayer, request.Payer),
		models.PayeeFromParty(request.TransactionRequestID, request.Payee),
	}

	var created *models.Transaction
	err := postgresql.InTx(ctx, r.db, writeTx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", request.LpsKey); err != nil {
			return fmt.Errorf("lock lps key: %w", err)
		}

		incomplete, err := r.findIncomplete(ctx, tx, request.LpsKey)
		if err != nil {
			return err
		}
		if incomplete != nil {
			return apperrors.NewTransactionDuplicateError(request.LpsKey)
		}

		if _, err = tx.Exec(ctx, insertTransaction, args...); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		for _, p := range parties {
			_, err = tx.Exec(ctx, insertParty, p.TransactionRequestID, p.Type, p.FspID, p.IdentifierType, p.IdentifierValue, p.SubIdOrType, p.Name)
			if err != nil {
				return fmt.Errorf("insert %s party: %w", p.Type, err)
			}
		}

		created, err = r.get(ctx, tx, request.TransactionRequestID, models.IDTypeTransactionRequestID, false)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transactionRequestId %s already exists", request.TransactionRequestID))
		}
		return nil, err
	}
	return created, nil
}

// UpdateState moves the transaction to state, recording the outgoing state as previousState.
func (r *TransactionRepositoryImpl) UpdateState(ctx context.Context, id string, idType models.IDType, state models.State) (*models.Transaction, error) {
	return r.UpdateStateWith(ctx, id, idType, state, nil)
}

const updateState = `
UPDATE transactions
SET previous_state = state, state = $1, version = version + 1, updated_at = now()
WHERE transaction_request_id = $2 AND version = $3`

// UpdateStateWith locks the transaction row, runs effect and writes the new state only if effect succeeds.
// The row lock serializes every writer of the same transaction; the version check guards the write itself.
func (r *TransactionRepositoryImpl) UpdateStateWith(ctx context.Context, id string, idType models.IDType, state models.State, effect repositories.SideEffect) (*models.Transaction, error) {
	if !state.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown state %s", state))
	}

	var updated *models.Transaction
	err := postgresql.InTx(ctx, r.db, writeTx, func(tx pgx.Tx) error {
		current, err := r.get(ctx, tx, id, idType, true)
		if err != nil {
			return err
		}

		if !current.State.CanTransitionTo(state) {
			return apperrors.NewInvalidStateTransitionError(current.State.String(), state.String())
		}

		if effect != nil {
			if err = runSideEffect(ctx, r.sideEffectTimeout, current, effect); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, updateState, state.Code(), current.TransactionRequestID, current.Version)
		if err != nil {
			return fmt.Errorf("update state: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("transaction %s changed while locked", current.TransactionRequestID)
		}

		updated, err = r.get(ctx, tx, current.TransactionRequestID, models.IDTypeTransactionRequestID, false)
		return err
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePayerFspID sets the payer's fspId once the owning FSP is resolved.
func (r *TransactionRepositoryImpl) UpdatePayerFspID(ctx context.Context, id string, idType models.IDType, fspID string) (*models.Transaction, error) {
	var updated *models.Transaction
	err := postgresql.InTx(ctx, r.db, writeTx, func(tx pgx.Tx) error {
		current, err := r.get(ctx, tx, id, idType, true)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE transaction_parties SET fsp_id = $1 WHERE transaction_request_id = $2 AND type = $3",
			fspID, current.TransactionRequestID, models.PartyTypePayer,
		)
		if err != nil {
			return fmt.Errorf("update payer fsp id: %w", err)
		}

		if err = touch(ctx, tx, current); err != nil {
			return err
		}

		updated, err = r.get(ctx, tx, current.TransactionRequestID, models.IDTypeTransactionRequestID, false)
		return err
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateTransactionID records the scheme-assigned transactionId. It can be set once; setting the same value again is a no-op.
func (r *TransactionRepositoryImpl) UpdateTransactionID(ctx context.Context, transactionRequestID, transactionID string) (*models.Transaction, error) {
	var updated *models.Transaction
	err := postgresql.InTx(ctx, r.db, writeTx, func(tx pgx.Tx) error {
		current, err := r.get(ctx, tx, transactionRequestID, models.IDTypeTransactionRequestID, true)
		if err != nil {
			return err
		}

		if current.TransactionID == transactionID {
			updated = current
			return nil
		}
		if current.TransactionID != "" {
			return apperrors.NewValidationError(fmt.Sprintf("transaction %s already has transactionId %s", transactionRequestID, current.TransactionID))
		}

		_, err = tx.Exec(ctx,
			"UPDATE transactions SET transaction_id = $1, version = version + 1, updated_at = now() WHERE transaction_request_id = $2",
			transactionID, transactionRequestID,
		)
		if err != nil {
			return fmt.Errorf("update transaction id: %w", err)
		}

		updated, err = r.get(ctx, tx, transactionRequestID, models.IDTypeTransactionRequestID, false)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("transactionId %s is already in use", transactionID))
		}
		return nil, err
	}
	return updated, nil
}

func (r *TransactionRepositoryImpl) loadParties(ctx context.Context, q querier, t *models.Transaction) error {
	rows, err := q.Query(ctx, selectParties, t.TransactionRequestID)
	if err != nil {
		return fmt.Errorf("get transaction parties: %w", err)
	}
	defer rows.Close()

	var hasPayer, hasPayee bool
	for rows.Next() {
		p := models.TransactionParty{TransactionRequestID: t.TransactionRequestID}
		if err = rows.Scan(&p.Type, &p.FspID, &p.IdentifierType, &p.IdentifierValue, &p.SubIdOrType, &p.Name); err != nil {
			return fmt.Errorf("scan transaction party: %w", err)
		}

		switch p.Type {
		case models.PartyTypePayer:
			t.Payer = p.IdInfo()
			hasPayer = true
		case models.PartyTypePayee:
			t.Payee = p.AsParty()
			hasPayee = true
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("get transaction parties: %w", err)
	}

	if !hasPayer {
		return apperrors.NewCorruptStateError(t.TransactionRequestID, models.PartyTypePayer)
	}
	if !hasPayee {
		return apperrors.NewCorruptStateError(t.TransactionRequestID, models.PartyTypePayee)
	}
	return nil
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var (
		t                     models.Transaction
		stateCode             string
		previousCode          string
		originalTransactionID string
		refundReason          string
		authenticationType    string
	)

	err := row.Scan(
		&t.TransactionRequestID, &t.TransactionID, &t.LpsID, &t.LpsKey, &stateCode,
		&previousCode, &t.Version, &t.Amount.Amount, &t.Amount.Currency, &t.LpsFee.Amount, &t.LpsFee.Currency,
		&t.Expiration, &t.TransactionType.Initiator, &t.TransactionType.InitiatorType, &t.TransactionType.Scenario, &originalTransactionID,
		&refundReason, &authenticationType, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.State, err = models.ParseStateCode(stateCode); err != nil {
		return nil, err
	}
	if previousCode != "" {
		previous, err := models.ParseStateCode(previousCode)
		if err != nil {
			return nil, err
		}
		t.PreviousState = &previous
	}
	if originalTransactionID != "" {
		t.TransactionType.RefundInfo = &models.RefundInfo{OriginalTransactionID: originalTransactionID, RefundReason: refundReason}
	}
	t.AuthenticationType = models.AuthenticationType(authenticationType)

	return &t, nil
}

func touch(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	_, err := tx.Exec(ctx,
		"UPDATE transactions SET version = version + 1, updated_at = now() WHERE transaction_request_id = $1",
		t.TransactionRequestID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func idColumn(idType models.IDType) (string, error) {
	switch idType {
	case models.IDTypeTransactionRequestID:
		return "transaction_request_id", nil
	case models.IDTypeTransactionID:
		return "transaction_id", nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown id type %q", idType))
	}
}

func terminalCodes() []interface{} {
	codes := make([]interface{}, 0, len(models.TerminalStates))
	for _, s := range models.TerminalStates {
		codes = append(codes, s.Code())
	}
	return codes
}

// runSideEffect bounds effect by timeout. The caller holds the transaction's lock for the whole call.
func runSideEffect(ctx context.Context, timeout time.Duration, t *models.Transaction, effect repositories.SideEffect) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return effect(ctx, t)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError
}
