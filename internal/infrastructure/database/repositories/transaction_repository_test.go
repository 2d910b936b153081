package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	apperr "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/db_client"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func newRequest(lpsKey, msisdn string) *models.TransactionRequest {
	return &models.TransactionRequest{
		TransactionRequestID: uuid.New().String(),
		LpsID:                "postillion",
		LpsKey:               lpsKey,
		Payer:                models.PartyIdInfo{PartyIdType: "MSISDN", PartyIdentifier: msisdn},
		Payee: models.Party{
			PartyIdInfo: models.PartyIdInfo{PartyIdType: "DEVICE", PartyIdentifier: "41", PartySubIdOrType: "42", FspID: "adaptor"},
			Name:        "ATM 41",
		},
		Amount:          models.Money{Amount: decimal.RequireFromString("100.00"), Currency: "USD"},
		LpsFee:          models.Money{Amount: decimal.RequireFromString("1.00"), Currency: "USD"},
		TransactionType: models.TransactionType{Initiator: "PAYEE", InitiatorType: "DEVICE", Scenario: "WITHDRAWAL"},
		Expiration:      "2026-10-15T12:00:00.000Z",
	}
}

func TestTransactionRepository(t *testing.T) {
	setupDB(t)
	defer db.Close()

	require.NoError(t, truncateTables(db))

	repo := NewTransactionRepositoryImpl(db, time.Second)
	ctx := context.Background()

	t.Run("create_round_trips_parties", func(t *testing.T) {
		request := newRequest("postillion-41-42", "0821234567")
		request.Payer.PartySubIdOrType = "wallet"

		created, err := repo.Create(ctx, request)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID)
		require.NoError(t, err)

		assert.Equal(t, models.StateTransactionReceived, got.State)
		assert.Nil(t, got.PreviousState)
		assert.Equal(t, request.Payer, got.Payer)
		assert.Equal(t, request.Payee, got.Payee)
		assert.True(t, request.Amount.Equal(got.Amount))
		assert.True(t, request.LpsFee.Equal(got.LpsFee))
	})

	t.Run("duplicate_incomplete_lps_key", func(t *testing.T) {
		_, err := repo.Create(ctx, newRequest("postillion-41-42", "0821234567"))

		var dup *apperr.TransactionDuplicateError
		assert.True(t, apperr.As(err, &dup))
	})

	t.Run("missing_transaction", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New().String(), models.IDTypeTransactionRequestID)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("state_monotonicity", func(t *testing.T) {
		created, err := repo.Create(ctx, newRequest("monotonic", "0820000001"))
		require.NoError(t, err)

		steps := []models.State{
			models.StateTransactionSent,
			models.StateTransactionResponded,
			models.StateQuoteResponded,
			models.StateFinancialResponse,
		}
		before := created.State
		for _, s := range steps {
			updated, err := repo.UpdateState(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID, s)
			require.NoError(t, err)
			require.NotNil(t, updated.PreviousState)
			assert.Equal(t, before, *updated.PreviousState)
			assert.Equal(t, s, updated.State)
			before = s
		}

		_, err = repo.UpdateState(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined)
		var invalid *apperr.InvalidStateTransitionError
		assert.True(t, apperr.As(err, &invalid))

		incomplete, err := repo.FindIncomplete(ctx, "monotonic")
		require.NoError(t, err)
		assert.Nil(t, incomplete)
	})

	t.Run("transaction_id_lookup", func(t *testing.T) {
		created, err := repo.Create(ctx, newRequest("by-transaction-id", "0820000002"))
		require.NoError(t, err)

		transactionID := uuid.New().String()
		_, err = repo.UpdateTransactionID(ctx, created.TransactionRequestID, transactionID)
		require.NoError(t, err)

		got, err := repo.Get(ctx, transactionID, models.IDTypeTransactionID)
		require.NoError(t, err)
		assert.Equal(t, created.TransactionRequestID, got.TransactionRequestID)

		_, err = repo.UpdateTransactionID(ctx, created.TransactionRequestID, uuid.New().String())
		var validation *apperr.ValidationError
		assert.True(t, apperr.As(err, &validation))
	})

	t.Run("payer_lookup_and_fsp_id", func(t *testing.T) {
		created, err := repo.Create(ctx, newRequest("payer-lookup", "0820000003"))
		require.NoError(t, err)

		got, err := repo.GetByPayerIdentifier(ctx, "0820000003")
		require.NoError(t, err)
		assert.Equal(t, created.TransactionRequestID, got.TransactionRequestID)

		updated, err := repo.UpdatePayerFspID(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID, "payerfsp")
		require.NoError(t, err)
		assert.Equal(t, "payerfsp", updated.Payer.FspID)
		assert.Equal(t, "adaptor", updated.Payee.PartyIdInfo.FspID)
	})

	t.Run("concurrent_state_updates", func(t *testing.T) {
		created, err := repo.Create(ctx, newRequest("concurrent", "0820000004"))
		require.NoError(t, err)

		n := 20
		var effects int32
		var wg sync.WaitGroup
		errCh := make(chan error, n)
		wg.Add(n)

		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				_, err := repo.UpdateStateWith(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionSent,
					func(ctx context.Context, _ *models.Transaction) error {
						atomic.AddInt32(&effects, 1)
						return nil
					})
				errCh <- err
			}()
		}

		wg.Wait()
		close(errCh)

		successCount := 0
		for err := range errCh {
			if err == nil {
				successCount++
				continue
			}
			var invalid *apperr.InvalidStateTransitionError
			assert.True(t, apperr.As(err, &invalid), err)
		}

		assert.Equal(t, 1, successCount)
		assert.Equal(t, int32(1), atomic.LoadInt32(&effects))

		got, err := repo.Get(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID)
		require.NoError(t, err)
		assert.Equal(t, models.StateTransactionSent, got.State)
		assert.Equal(t, models.StateTransactionReceived, *got.PreviousState)
	})

	t.Run("missing_party_row", func(t *testing.T) {
		created, err := repo.Create(ctx, newRequest("corrupt", "0820000007"))
		require.NoError(t, err)

		_, err = db.Exec(ctx, "DELETE FROM transaction_parties WHERE transaction_request_id = $1 AND type = $2",
			created.TransactionRequestID, models.PartyTypePayee)
		require.NoError(t, err)

		_, err = repo.Get(ctx, created.TransactionRequestID, models.IDTypeTransactionRequestID)
		var corrupt *apperr.CorruptStateError
		require.True(t, apperr.As(err, &corrupt), err)
		assert.Equal(t, models.PartyTypePayee, corrupt.MissingParty)
		assert.True(t, apperr.IsNotFound(err))

		rec := httptest.NewRecorder()
		apperr.HandleHTTPError(rec, err)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		_, err = repo.FindIncomplete(ctx, "corrupt")
		assert.True(t, apperr.As(err, &corrupt), err)
	})

	t.Run("lps_key_lookups", func(t *testing.T) {
		first, err := repo.Create(ctx, newRequest("reused-key", "0820000008"))
		require.NoError(t, err)
		_, err = repo.UpdateState(ctx, first.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined)
		require.NoError(t, err)

		incomplete, err := repo.FindIncomplete(ctx, "reused-key")
		require.NoError(t, err)
		assert.Nil(t, incomplete)

		second, err := repo.Create(ctx, newRequest("reused-key", "0820000008"))
		require.NoError(t, err)
		_, err = repo.UpdateState(ctx, second.TransactionRequestID, models.IDTypeTransactionRequestID, models.StateTransactionDeclined)
		require.NoError(t, err)
		third, err := repo.Create(ctx, newRequest("reused-key", "0820000008"))
		require.NoError(t, err)

		latest, err := repo.GetByLpsKeyAndState(ctx, "reused-key", models.StateTransactionDeclined)
		require.NoError(t, err)
		assert.Equal(t, second.TransactionRequestID, latest.TransactionRequestID)

		incomplete, err = repo.FindIncomplete(ctx, "reused-key")
		require.NoError(t, err)
		require.NotNil(t, incomplete)
		assert.Equal(t, third.TransactionRequestID, incomplete.TransactionRequestID)

		_, err = repo.GetByLpsKeyAndState(ctx, "reused-key", models.StateQuoteResponded)
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("concurrent_creates_same_key", func(t *testing.T) {
		n := 10
		var wg sync.WaitGroup
		var created int32
		wg.Add(n)

		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				if _, err := repo.Create(ctx, newRequest("racing-key", "0820000005")); err == nil {
					atomic.AddInt32(&created, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&created))
	})
}

func TestQuoteAndTransferRepositories(t *testing.T) {
	setupDB(t)
	defer db.Close()

	require.NoError(t, truncateTables(db))

	ctx := context.Background()
	transactions := NewTransactionRepositoryImpl(db, time.Second)
	quotes := NewQuoteRepositoryImpl(db)
	transfers := NewTransferRepositoryImpl(db)

	transaction, err := transactions.Create(ctx, newRequest("quote-transfer", "0820000006"))
	require.NoError(t, err)

	usd := func(v string) models.Money {
		return models.Money{Amount: decimal.RequireFromString(v), Currency: "USD"}
	}

	quote, err := quotes.Create(ctx, &models.Quote{
		ID:                   uuid.New().String(),
		TransactionID:        uuid.New().String(),
		TransactionRequestID: transaction.TransactionRequestID,
		Amount:               usd("100"),
		Fees:                 usd("1"),
		Commission:           usd("2"),
		TransferAmount:       usd("103"),
		IlpPacket:            "packet",
		Condition:            "condition",
		Expiration:           "2026-10-15T12:00:00.000Z",
	})
	require.NoError(t, err)

	byCondition, err := quotes.GetByCondition(ctx, "condition")
	require.NoError(t, err)
	assert.Equal(t, quote.ID, byCondition.ID)
	assert.True(t, usd("103").Equal(byCondition.TransferAmount))

	transfer, err := transfers.Create(ctx, &models.Transfer{
		ID:                   uuid.New().String(),
		QuoteID:              quote.ID,
		TransactionRequestID: transaction.TransactionRequestID,
		Amount:               usd("103"),
		Fulfilment:           "fulfilment",
		State:                models.TransferStateReserved,
	})
	require.NoError(t, err)

	committed, err := transfers.UpdateState(ctx, transfer.ID, models.TransferStateCommitted)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStateCommitted, committed.State)

	latest, err := transfers.GetByTransactionRequestID(ctx, transaction.TransactionRequestID)
	require.NoError(t, err)
	assert.Equal(t, transfer.ID, latest.ID)

	_, err = transfers.Get(ctx, uuid.New().String())
	assert.True(t, apperr.IsNotFound(err))
}

// Test helpers and setup functions
// =================================
// setupDB connects to LPS_ADAPTOR_TEST_DSN and applies the schema. Tests are skipped without it.
func setupDB(t *testing.T) {
	dsn := os.Getenv("LPS_ADAPTOR_TEST_DSN")
	if dsn == "" {
		t.Skip("LPS_ADAPTOR_TEST_DSN is not set")
	}

	var err error
	db, err = db_client.ConnectDSN(dsn, "3")
	require.NoError(t, err)
	require.NoError(t, db_client.Migrate(context.Background(), db))
}

func truncateTables(db *pgxpool.Pool) error {
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE transfers, quotes, transaction_parties, transactions")
	return err
}
