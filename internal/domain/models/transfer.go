package models

import "time"

// TransferState is the scheme's transfer state as sent on transfer callbacks.
type TransferState string

const (
	TransferStateReceived  TransferState = "RECEIVED"
	TransferStateReserved  TransferState = "RESERVED"
	TransferStateCommitted TransferState = "COMMITTED"
	TransferStateAborted   TransferState = "ABORTED"
)

type Transfer struct {
	ID                   string        `json:"transferId"`
	QuoteID              string        `json:"quoteId"`
	TransactionRequestID string        `json:"transactionRequestId"`
	Amount               Money         `json:"amount"`
	Fulfilment           string        `json:"fulfilment"`
	State                TransferState `json:"transferState"`
	CreatedAt            time.Time     `json:"createdAt"`
}
