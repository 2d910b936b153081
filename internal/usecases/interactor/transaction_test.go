package interactor

import (
	"context"
	"testing"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	apperr "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *models.TransactionRequest {
	return &models.TransactionRequest{
		LpsID:  "postillion",
		LpsKey: "postillion-41-42",
		Payer:  models.PartyIdInfo{PartyIdType: "MSISDN", PartyIdentifier: "0821234567"},
		Payee: models.Party{
			PartyIdInfo: models.PartyIdInfo{PartyIdType: "DEVICE", PartyIdentifier: "41", PartySubIdOrType: "42", FspID: "adaptor"},
		},
		Amount:          models.Money{Amount: decimal.NewFromInt(100), Currency: "USD"},
		LpsFee:          models.Money{Amount: decimal.NewFromInt(1), Currency: "USD"},
		TransactionType: models.TransactionType{Initiator: "PAYEE", InitiatorType: "DEVICE", Scenario: "WITHDRAWAL"},
	}
}

func TestTransactionInteractor_Create(t *testing.T) {
	a := newAdaptor()
	a.transactions.now = func() time.Time { return time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC) }

	transaction, err := a.transactions.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, transaction.TransactionRequestID)
	assert.Equal(t, models.StateTransactionReceived, transaction.State)
	assert.Equal(t, "2026-10-15T10:40:00.000Z", transaction.Expiration)
}

func TestTransactionInteractor_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *models.TransactionRequest)
	}{
		{"missing_lps_key", func(r *models.TransactionRequest) { r.LpsKey = "" }},
		{"missing_payer_id", func(r *models.TransactionRequest) { r.Payer.PartyIdentifier = "" }},
		{"missing_payee_type", func(r *models.TransactionRequest) { r.Payee.PartyIdInfo.PartyIdType = "" }},
		{"missing_currency", func(r *models.TransactionRequest) { r.Amount.Currency = "" }},
		{"zero_amount", func(r *models.TransactionRequest) { r.Amount.Amount = decimal.Zero }},
		{"fee_currency_mismatch", func(r *models.TransactionRequest) { r.LpsFee.Currency = "EUR" }},
		{"missing_scenario", func(r *models.TransactionRequest) { r.TransactionType.Scenario = "" }},
		{"refund_without_info", func(r *models.TransactionRequest) { r.TransactionType.Scenario = models.ScenarioRefund }},
		{"unknown_authentication", func(r *models.TransactionRequest) { r.AuthenticationType = "PIN" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdaptor()
			request := validRequest()
			tt.modify(request)

			_, err := a.transactions.Create(context.Background(), request)
			var validation *apperr.ValidationError
			assert.True(t, apperr.As(err, &validation), err)
		})
	}
}

func TestTransactionInteractor_CreateDefaultsFeeCurrency(t *testing.T) {
	a := newAdaptor()
	request := validRequest()
	request.LpsFee = models.Money{Amount: decimal.Zero}

	transaction, err := a.transactions.Create(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "USD", transaction.LpsFee.Currency)
}

func TestTransactionInteractor_SendToScheme(t *testing.T) {
	a := newAdaptor()
	ctx := context.Background()

	transaction, err := a.transactions.Create(ctx, validRequest())
	require.NoError(t, err)

	request := transaction.ToRequest()
	err = a.transactions.SendToScheme(ctx, &request)
	var validation *apperr.ValidationError
	require.True(t, apperr.As(err, &validation), "payer fsp must be resolved first")

	request.Payer.FspID = "payerfsp"
	require.NoError(t, a.transactions.SendToScheme(ctx, &request))

	calls := a.scheme.called("PostTransactionRequest")
	require.Len(t, calls, 1)
	assert.Equal(t, mojaloop.Headers{Source: "adaptor", Destination: "payerfsp"}, calls[0].headers)

	body := calls[0].body.(mojaloop.TransactionRequestsPostRequest)
	assert.Equal(t, transaction.TransactionRequestID, body.TransactionRequestID)
	assert.Equal(t, "0821234567", body.Payer.PartyIdentifier)
	assert.Equal(t, "WITHDRAWAL", body.TransactionType.Scenario)

	got, err := a.transactions.Get(ctx, transaction.TransactionRequestID, models.IDTypeTransactionRequestID)
	require.NoError(t, err)
	assert.Equal(t, models.StateTransactionReceived, got.State)
}
