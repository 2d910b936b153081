// Package gateways declares the external collaborators the adaptor core calls out to.
package gateways

import (
	"context"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
)

// SchemeClient issues outbound calls to the interoperability scheme. Every call is asynchronous on the
// scheme side: a nil error only means the request was accepted.
type SchemeClient interface {
	GetParties(ctx context.Context, partyIdType, partyIdentifier string, headers mojaloop.Headers) error
	PostTransactionRequest(ctx context.Context, request mojaloop.TransactionRequestsPostRequest, headers mojaloop.Headers) error
	PutQuote(ctx context.Context, quoteID string, response mojaloop.QuotesIDPutResponse, headers mojaloop.Headers) error
	PutQuoteError(ctx context.Context, quoteID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error
	GetTransfer(ctx context.Context, transferID string, headers mojaloop.Headers) error
	PutTransfer(ctx context.Context, transferID string, response mojaloop.TransfersIDPutResponse, headers mojaloop.Headers) error
	PutTransferError(ctx context.Context, transferID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error
}

// QueueService delivers messages to the legacy switch.
type QueueService interface {
	AddToQueue(ctx context.Context, queueName string, message interface{}) error
}

// FeeCalculator computes the adaptor commission for an amount. The result must be in the same currency.
type FeeCalculator interface {
	CalculateFee(ctx context.Context, amount models.Money) (models.Money, error)
}

// FeeCalculatorFunc adapts a plain function to FeeCalculator.
type FeeCalculatorFunc func(ctx context.Context, amount models.Money) (models.Money, error)

func (f FeeCalculatorFunc) CalculateFee(ctx context.Context, amount models.Money) (models.Money, error) {
	return f(ctx, amount)
}

// ILP builds packets and the condition/fulfilment pair for quotes and transfers.
type ILP interface {
	GetQuoteResponseIlp(transaction mojaloop.IlpTransaction, transferAmount models.Money) (packet, condition string, err error)
	CalculateFulfil(packet string) (string, error)
	CalculateCondition(fulfilment string) (string, error)
}
