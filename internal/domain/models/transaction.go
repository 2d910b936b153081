package models

import (
	"fmt"
	"time"
)

const ScenarioRefund = "REFUND"

type AuthenticationType string

const (
	AuthenticationOTP    AuthenticationType = "OTP"
	AuthenticationQRCode AuthenticationType = "QRCODE"
)

func (a AuthenticationType) Valid() bool {
	return a == "" || a == AuthenticationOTP || a == AuthenticationQRCode
}

// RefundInfo is only carried by REFUND transactions.
type RefundInfo struct {
	OriginalTransactionID string `json:"originalTransactionId"`
	RefundReason          string `json:"refundReason,omitempty"`
}

type TransactionType struct {
	Initiator     string      `json:"initiator"`
	InitiatorType string      `json:"initiatorType"`
	Scenario      string      `json:"scenario"`
	RefundInfo    *RefundInfo `json:"refundInfo,omitempty"`
}

// Validate checks that refund info is present exactly when the scenario is a refund.
func (t TransactionType) Validate() error {
	if t.Scenario == "" {
		return fmt.Errorf("transaction type scenario is required")
	}
	if t.Scenario == ScenarioRefund {
		if t.RefundInfo == nil || t.RefundInfo.OriginalTransactionID == "" {
			return fmt.Errorf("refund scenario requires refund info with an original transaction id")
		}
		return nil
	}
	if t.RefundInfo != nil {
		return fmt.Errorf("refund info is only allowed for the %s scenario", ScenarioRefund)
	}
	return nil
}

// TransactionRequest is what the lifecycle service needs to open a transaction.
type TransactionRequest struct {
	TransactionRequestID string             `json:"transactionRequestId"`
	LpsID                string             `json:"lpsId"`
	LpsKey               string             `json:"lpsKey"`
	Payee                Party              `json:"payee"`
	Payer                PartyIdInfo        `json:"payer"`
	LpsFee               Money              `json:"lpsFee"`
	Amount               Money              `json:"amount"`
	TransactionType      TransactionType    `json:"transactionType"`
	AuthenticationType   AuthenticationType `json:"authenticationType,omitempty"`
	Expiration           string             `json:"expiration,omitempty"`
}

type Transaction struct {
	TransactionRequestID string             `json:"transactionRequestId"`
	TransactionID        string             `json:"transactionId,omitempty"`
	LpsID                string             `json:"lpsId"`
	LpsKey               string             `json:"lpsKey"`
	Payee                Party              `json:"payee"`
	Payer                PartyIdInfo        `json:"payer"`
	LpsFee               Money              `json:"lpsFee"`
	Amount               Money              `json:"amount"`
	State                State              `json:"state"`
	PreviousState        *State             `json:"previousState,omitempty"`
	TransactionType      TransactionType    `json:"transactionType"`
	AuthenticationType   AuthenticationType `json:"authenticationType,omitempty"`
	Expiration           string             `json:"expiration,omitempty"`
	Version              int                `json:"-"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// ToRequest returns the request shape of the transaction, used when forwarding it to the scheme.
func (t *Transaction) ToRequest() TransactionRequest {
	return TransactionRequest{
		TransactionRequestID: t.TransactionRequestID,
		LpsID:                t.LpsID,
		LpsKey:               t.LpsKey,
		Payee:                t.Payee,
		Payer:                t.Payer,
		LpsFee:               t.LpsFee,
		Amount:               t.Amount,
		TransactionType:      t.TransactionType,
		AuthenticationType:   t.AuthenticationType,
		Expiration:           t.Expiration,
	}
}

// IDType selects which identifier a transaction lookup uses.
type IDType string

const (
	IDTypeTransactionID        IDType = "transactionId"
	IDTypeTransactionRequestID IDType = "transactionRequestId"
)

func (t IDType) Valid() bool {
	return t == IDTypeTransactionID || t == IDTypeTransactionRequestID
}
