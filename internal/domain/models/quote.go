package models

import "time"

type Quote struct {
	ID                   string    `json:"quoteId"`
	TransactionID        string    `json:"transactionId"`
	TransactionRequestID string    `json:"transactionRequestId"`
	Amount               Money     `json:"amount"`
	Fees                 Money     `json:"fees"`
	Commission           Money     `json:"commission"`
	TransferAmount       Money     `json:"transferAmount"`
	IlpPacket            string    `json:"ilpPacket"`
	Condition            string    `json:"condition"`
	Expiration           string    `json:"expiration"`
	CreatedAt            time.Time `json:"createdAt"`
}
