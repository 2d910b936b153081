package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyAdd(t *testing.T) {
	amount, err := NewMoney("100.00", "USD")
	require.NoError(t, err)
	fee, err := NewMoney("1", "USD")
	require.NoError(t, err)

	sum, err := amount.Add(fee)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("101")))
	assert.Equal(t, "USD", sum.Currency)

	_, err = amount.Add(Money{Amount: decimal.NewFromInt(1), Currency: "EUR"})
	var mismatch *CurrencyMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = NewMoney("1,00", "USD")
	assert.Error(t, err)
}

func TestMoneyDecimalPrecision(t *testing.T) {
	a, err := NewMoney("0.1", "USD")
	require.NoError(t, err)
	b, err := NewMoney("0.2", "USD")
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "0.3", sum.Amount.String())
}

func TestTransactionTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		tt      TransactionType
		wantErr bool
	}{
		{"payment", TransactionType{Initiator: "PAYEE", InitiatorType: "DEVICE", Scenario: "PAYMENT"}, false},
		{"missing_scenario", TransactionType{Initiator: "PAYEE", InitiatorType: "DEVICE"}, true},
		{"refund", TransactionType{Scenario: ScenarioRefund, RefundInfo: &RefundInfo{OriginalTransactionID: "123"}}, false},
		{"refund_without_info", TransactionType{Scenario: ScenarioRefund}, true},
		{"refund_info_on_withdrawal", TransactionType{Scenario: "WITHDRAWAL", RefundInfo: &RefundInfo{OriginalTransactionID: "123"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tt.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPartyStorageRoundTrip(t *testing.T) {
	payee := Party{
		PartyIdInfo: PartyIdInfo{PartyIdType: "DEVICE", PartyIdentifier: "41", PartySubIdOrType: "42", FspID: "adaptor"},
		Name:        "ATM 41",
	}

	stored := PayeeFromParty("tr-1", payee)
	assert.Equal(t, PartyTypePayee, stored.Type)
	assert.Equal(t, payee, stored.AsParty())

	payer := PartyIdInfo{PartyIdType: "MSISDN", PartyIdentifier: "0821234567"}
	assert.Equal(t, payer, PartyFromIdInfo("tr-1", PartyTypePayer, payer).IdInfo())
}
