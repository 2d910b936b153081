// Package mojaloop holds the JSON bodies exchanged with the interoperability scheme.
package mojaloop

import "github.com/mufasadev/lps-adaptor/internal/domain/models"

const (
	HeaderAccept      = "Accept"
	HeaderContentType = "Content-Type"
	HeaderDate        = "Date"
	HeaderSource      = "FSPIOP-Source"
	HeaderDestination = "FSPIOP-Destination"

	TransactionRequestStateReceived = "RECEIVED"
	TransactionRequestStateAccepted = "ACCEPTED"
	TransactionRequestStateRejected = "REJECTED"
)

// Headers carries the routing identities of a scheme call.
type Headers struct {
	Source      string
	Destination string
}

type TransactionRequestsPostRequest struct {
	TransactionRequestID string                    `json:"transactionRequestId"`
	Payee                models.Party              `json:"payee"`
	Payer                models.PartyIdInfo        `json:"payer"`
	Amount               models.Money              `json:"amount"`
	TransactionType      models.TransactionType    `json:"transactionType"`
	AuthenticationType   models.AuthenticationType `json:"authenticationType,omitempty"`
	Expiration           string                    `json:"expiration,omitempty"`
}

type TransactionRequestsIDPutResponse struct {
	TransactionID           string `json:"transactionId,omitempty"`
	TransactionRequestState string `json:"transactionRequestState"`
}

type PartiesTypeIDPutResponse struct {
	Party models.Party `json:"party"`
}

type QuotesPostRequest struct {
	QuoteID              string                 `json:"quoteId"`
	TransactionID        string                 `json:"transactionId"`
	TransactionRequestID string                 `json:"transactionRequestId,omitempty"`
	Payee                models.Party           `json:"payee"`
	Payer                models.Party           `json:"payer"`
	AmountType           string                 `json:"amountType"`
	Amount               models.Money           `json:"amount"`
	Fees                 *models.Money          `json:"fees,omitempty"`
	TransactionType      models.TransactionType `json:"transactionType"`
	Note                 string                 `json:"note,omitempty"`
	Expiration           string                 `json:"expiration,omitempty"`
}

type QuotesIDPutResponse struct {
	TransferAmount     models.Money  `json:"transferAmount"`
	PayeeReceiveAmount *models.Money `json:"payeeReceiveAmount,omitempty"`
	PayeeFspFee        *models.Money `json:"payeeFspFee,omitempty"`
	PayeeFspCommission *models.Money `json:"payeeFspCommission,omitempty"`
	Expiration         string        `json:"expiration"`
	IlpPacket          string        `json:"ilpPacket"`
	Condition          string        `json:"condition"`
}

type TransfersPostRequest struct {
	TransferID string       `json:"transferId"`
	PayeeFsp   string       `json:"payeeFsp"`
	PayerFsp   string       `json:"payerFsp"`
	Amount     models.Money `json:"amount"`
	IlpPacket  string       `json:"ilpPacket"`
	Condition  string       `json:"condition"`
	Expiration string       `json:"expiration"`
}

type TransfersIDPutResponse struct {
	Fulfilment         string               `json:"fulfilment,omitempty"`
	CompletedTimestamp string               `json:"completedTimestamp,omitempty"`
	TransferState      models.TransferState `json:"transferState"`
}

// IlpTransaction is the transaction object encoded into an ILP packet.
type IlpTransaction struct {
	TransactionID   string                 `json:"transactionId"`
	QuoteID         string                 `json:"quoteId"`
	Payee           models.Party           `json:"payee"`
	Payer           models.Party           `json:"payer"`
	Amount          models.Money           `json:"amount"`
	TransactionType models.TransactionType `json:"transactionType"`
}

type ErrorInformation struct {
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

type ErrorInformationObject struct {
	ErrorInformation ErrorInformation `json:"errorInformation"`
}

const (
	ErrorCodeInternalServer = "2001"
	ErrorCodeValidation     = "3100"
	ErrorCodeNotFound       = "3200"
)

func NewErrorInformation(code, description string) ErrorInformationObject {
	return ErrorInformationObject{ErrorInformation: ErrorInformation{ErrorCode: code, ErrorDescription: description}}
}
