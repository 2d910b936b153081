package dtos

import (
	"fmt"
	"strings"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/shopspring/decimal"
)

const (
	PayerIdType = "MSISDN"
	PayeeIdType = "DEVICE"

	initiator     = "PAYEE"
	initiatorType = "DEVICE"
)

// scenarios maps the transaction type digits of the processing code (field 3).
var scenarios = map[string]string{
	"00": "PAYMENT",
	"01": "WITHDRAWAL",
}

type currency struct {
	code     string
	exponent int32
}

// currencies maps ISO 4217 numeric codes (field 49) to alphabetic codes and minor unit exponents.
var currencies = map[string]currency{
	"404": {"KES", 2},
	"566": {"NGN", 2},
	"710": {"ZAR", 2},
	"800": {"UGX", 0},
	"826": {"GBP", 2},
	"834": {"TZS", 2},
	"840": {"USD", 2},
	"894": {"ZMW", 2},
	"978": {"EUR", 2},
}

// LegacyTransactionRequest is a decoded ISO 8583 0100 message relayed by a legacy switch,
// keyed by field number.
type LegacyTransactionRequest struct {
	LpsKey                   string `json:"lpsKey"`
	LpsID                    string `json:"lpsId"`
	ProcessingCode           string `json:"3"`
	Amount                   string `json:"4"`
	TransmissionDateTime     string `json:"7"`
	SystemTraceAuditNumber   string `json:"11"`
	TransactionFee           string `json:"28"`
	RetrievalReferenceNumber string `json:"37"`
	CardAcceptorTerminalID   string `json:"41"`
	CardAcceptorID           string `json:"42"`
	CurrencyCode             string `json:"49"`
	PayerAccount             string `json:"102"`
	PayeeAccount             string `json:"103"`
}

func (r *LegacyTransactionRequest) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"lpsId", r.LpsID},
		{"3", r.ProcessingCode},
		{"4", r.Amount},
		{"41", r.CardAcceptorTerminalID},
		{"42", r.CardAcceptorID},
		{"49", r.CurrencyCode},
		{"102", r.PayerAccount},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return apperrors.NewValidationError(fmt.Sprintf("field %s is required", f.field))
		}
	}
	return nil
}

// Key returns the lpsKey, derived from the switch id and terminal fields when the switch sent none.
func (r *LegacyTransactionRequest) Key() string {
	if r.LpsKey != "" {
		return r.LpsKey
	}
	return fmt.Sprintf("%s-%s-%s", r.LpsID, r.CardAcceptorTerminalID, r.CardAcceptorID)
}

// ToTransactionRequest maps the message onto a transaction request. The payee is the terminal,
// owned by payeeFspID; the payer is resolved later by a party lookup on field 102.
func (r *LegacyTransactionRequest) ToTransactionRequest(payeeFspID string) (*models.TransactionRequest, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	cur, ok := currencies[r.CurrencyCode]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported currency code %s", r.CurrencyCode))
	}

	minor, err := decimal.NewFromString(r.Amount)
	if err != nil || minor.IsNegative() || !minor.Equal(minor.Truncate(0)) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid amount %q", r.Amount))
	}

	fee, err := parseFee(r.TransactionFee)
	if err != nil {
		return nil, err
	}

	if len(r.ProcessingCode) < 2 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid processing code %q", r.ProcessingCode))
	}
	scenario, ok := scenarios[r.ProcessingCode[:2]]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported processing code %s", r.ProcessingCode))
	}

	return &models.TransactionRequest{
		LpsID:  r.LpsID,
		LpsKey: r.Key(),
		Payer: models.PartyIdInfo{
			PartyIdType:     PayerIdType,
			PartyIdentifier: r.PayerAccount,
		},
		Payee: models.Party{
			PartyIdInfo: models.PartyIdInfo{
				PartyIdType:      PayeeIdType,
				PartyIdentifier:  r.CardAcceptorTerminalID,
				PartySubIdOrType: r.CardAcceptorID,
				FspID:            payeeFspID,
			},
		},
		Amount: models.Money{Amount: minor.Shift(-cur.exponent), Currency: cur.code},
		LpsFee: models.Money{Amount: fee, Currency: cur.code},
		TransactionType: models.TransactionType{
			Initiator:     initiator,
			InitiatorType: initiatorType,
			Scenario:      scenario,
		},
	}, nil
}

// parseFee reads field 28: an optional C (credit) or D (debit) indicator followed by digits in major units.
// Only the magnitude is kept.
func parseFee(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, nil
	}
	if c := value[0]; c == 'C' || c == 'D' {
		value = value[1:]
	}

	fee, err := decimal.NewFromString(value)
	if err != nil || fee.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError(fmt.Sprintf("invalid transaction fee %q", raw))
	}
	return fee, nil
}
