package ilp

import (
	"strings"
	"testing"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transaction() mojaloop.IlpTransaction {
	return mojaloop.IlpTransaction{
		TransactionID: "456",
		QuoteID:       "quote-1",
		Payee:         models.Party{PartyIdInfo: models.PartyIdInfo{PartyIdType: "DEVICE", PartyIdentifier: "41", FspID: "adaptor"}},
		Payer:         models.Party{PartyIdInfo: models.PartyIdInfo{PartyIdType: "MSISDN", PartyIdentifier: "0821234567", FspID: "payerfsp"}},
		Amount:        models.Money{Amount: decimal.RequireFromString("100"), Currency: "USD"},
		TransactionType: models.TransactionType{
			Initiator: "PAYEE", InitiatorType: "DEVICE", Scenario: "WITHDRAWAL",
		},
	}
}

func TestGetQuoteResponseIlp(t *testing.T) {
	i := New("secret")
	transferAmount := models.Money{Amount: decimal.RequireFromString("103"), Currency: "USD"}

	packet, condition, err := i.GetQuoteResponseIlp(transaction(), transferAmount)
	require.NoError(t, err)
	assert.NotEmpty(t, packet)
	assert.False(t, strings.ContainsAny(packet, "+/="))

	fulfilment, err := i.CalculateFulfil(packet)
	require.NoError(t, err)
	derived, err := i.CalculateCondition(fulfilment)
	require.NoError(t, err)
	assert.Equal(t, condition, derived)

	decoded, err := DecodeTransaction(packet)
	require.NoError(t, err)
	assert.Equal(t, "456", decoded.TransactionID)
	assert.Equal(t, "quote-1", decoded.QuoteID)
	assert.True(t, decoded.Amount.Amount.Equal(decimal.NewFromInt(100)))
}

func TestFulfilmentDependsOnSecret(t *testing.T) {
	packet, _, err := New("secret").GetQuoteResponseIlp(transaction(), models.Money{Amount: decimal.NewFromInt(103), Currency: "USD"})
	require.NoError(t, err)

	a, err := New("secret").CalculateFulfil(packet)
	require.NoError(t, err)
	b, err := New("other").CalculateFulfil(packet)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCalculateConditionRejectsShortFulfilment(t *testing.T) {
	_, err := New("secret").CalculateCondition("c2hvcnQ")
	assert.Error(t, err)
}

func TestVarOctetsLongForm(t *testing.T) {
	data := []byte(strings.Repeat("x", 300))
	packet := encodePayment(1, "g.adaptor", data)
	assert.Equal(t, byte(typePayment), packet[0])
	assert.Equal(t, byte(0x82), packet[1])
}

func TestScaledAmount(t *testing.T) {
	v, err := scaledAmount(decimal.RequireFromString("103.25"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1032500), v)

	_, err = scaledAmount(decimal.RequireFromString("0.00001"))
	assert.Error(t, err)
}
