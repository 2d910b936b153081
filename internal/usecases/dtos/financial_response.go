package dtos

import (
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
)

const (
	ResponseCodeApproved   = "00"
	financialResponseQueue = "FinancialResponses"
)

// FinancialResponse is the message queued to the legacy switch once a transfer is committed.
type FinancialResponse struct {
	LpsKey               string       `json:"lpsKey"`
	LpsID                string       `json:"lpsId"`
	TransactionRequestID string       `json:"transactionRequestId"`
	TransactionID        string       `json:"transactionId"`
	TransferID           string       `json:"transferId"`
	Amount               models.Money `json:"amount"`
	LpsFee               models.Money `json:"lpsFee"`
	ResponseCode         string       `json:"responseCode"`
}

func NewFinancialResponse(transaction *models.Transaction, transferID string) FinancialResponse {
	return FinancialResponse{
		LpsKey:               transaction.LpsKey,
		LpsID:                transaction.LpsID,
		TransactionRequestID: transaction.TransactionRequestID,
		TransactionID:        transaction.TransactionID,
		TransferID:           transferID,
		Amount:               transaction.Amount,
		LpsFee:               transaction.LpsFee,
		ResponseCode:         ResponseCodeApproved,
	}
}

// FinancialResponseQueue names the queue a legacy switch reads its financial responses from.
func FinancialResponseQueue(lpsID string) string {
	return lpsID + financialResponseQueue
}
