package interactor

import (
	"context"
	"fmt"

	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	"github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
)

// QuoteInteractor answers quote requests for transactions the adaptor initiated.
type QuoteInteractor struct {
	transactions    *TransactionInteractor
	quoteRepository repositories.QuoteRepository
	scheme          gateways.SchemeClient
	fees            gateways.FeeCalculator
	ilp             gateways.ILP
	logger          *zerolog.Logger
}

func NewQuoteInteractor(
	transactions *TransactionInteractor,
	quoteRepository repositories.QuoteRepository,
	scheme gateways.SchemeClient,
	fees gateways.FeeCalculator,
	ilp gateways.ILP,
) *QuoteInteractor {
	l := log.Component("quotes")
	return &QuoteInteractor{
		transactions:    transactions,
		quoteRepository: quoteRepository,
		scheme:          scheme,
		fees:            fees,
		ilp:             ilp,
		logger:          &l,
	}
}

// Handle prices the quote, persists it and sends it back to the requesting FSP, moving the transaction
// to quoteResponded. The quote fee is the lps fee and the commission is the adaptor fee, both carried
// in the transfer amount. Failures are reported to the scheme on the quote error endpoint.
func (i *QuoteInteractor) Handle(ctx context.Context, request mojaloop.QuotesPostRequest, headers mojaloop.Headers) {
	logger := i.logger.With().
		Str("quoteId", request.QuoteID).
		Str("transactionId", request.TransactionID).
		Str("fspiop-source", headers.Source).
		Logger()

	if err := i.handle(ctx, request, headers); err != nil {
		logger.Error().Err(err).Msg("could not process quote request")

		reply := mojaloop.Headers{Source: i.transactions.FspID(), Destination: headers.Source}
		if putErr := i.scheme.PutQuoteError(ctx, request.QuoteID, errorInformation(err), reply); putErr != nil {
			logger.Error().Err(putErr).Msg("failed to report quote error")
		}
	}
}

func (i *QuoteInteractor) handle(ctx context.Context, request mojaloop.QuotesPostRequest, headers mojaloop.Headers) error {
	transaction, err := i.transactions.Get(ctx, request.TransactionID, models.IDTypeTransactionID)
	if err != nil {
		return err
	}

	if request.Amount.Currency != transaction.Amount.Currency {
		return errors.NewValidationError(fmt.Sprintf("quote currency %s does not match transaction currency %s",
			request.Amount.Currency, transaction.Amount.Currency))
	}

	quote, stored, err := i.quoteFor(ctx, request, transaction)
	if err != nil {
		return err
	}

	response := mojaloop.QuotesIDPutResponse{
		TransferAmount:     quote.TransferAmount,
		PayeeFspFee:        &quote.Fees,
		PayeeFspCommission: &quote.Commission,
		Expiration:         quote.Expiration,
		IlpPacket:          quote.IlpPacket,
		Condition:          quote.Condition,
	}
	reply := mojaloop.Headers{Source: i.transactions.FspID(), Destination: headers.Source}

	// a redelivered request for a quote already answered gets the same answer again
	if stored && transaction.State.ReachedOrPassed(models.StateQuoteResponded) && !transaction.State.IsTerminal() {
		return i.scheme.PutQuote(ctx, quote.ID, response, reply)
	}

	_, err = i.transactions.UpdateStateWith(ctx, request.TransactionID, models.IDTypeTransactionID, models.StateQuoteResponded,
		func(ctx context.Context, _ *models.Transaction) error {
			return i.scheme.PutQuote(ctx, quote.ID, response, reply)
		})
	return err
}

// quoteFor returns the stored quote when the request was seen before, or prices and stores a new one.
// stored reports which of the two happened.
func (i *QuoteInteractor) quoteFor(ctx context.Context, request mojaloop.QuotesPostRequest, transaction *models.Transaction) (quote *models.Quote, stored bool, err error) {
	existing, err := i.quoteRepository.Get(ctx, request.QuoteID)
	switch {
	case err == nil:
		if existing.TransactionRequestID != transaction.TransactionRequestID {
			return nil, false, errors.NewValidationError(fmt.Sprintf("quote %s belongs to another transaction", request.QuoteID))
		}
		i.logger.Info().Str("quoteId", existing.ID).Msg("quote request redelivered, reusing stored quote")
		return existing, true, nil
	case !errors.IsNotFound(err):
		return nil, false, err
	}

	commission, err := i.fees.CalculateFee(ctx, request.Amount)
	if err != nil {
		return nil, false, err
	}

	transferAmount, err := request.Amount.Add(transaction.LpsFee)
	if err != nil {
		return nil, false, errors.NewValidationError(err.Error())
	}
	if transferAmount, err = transferAmount.Add(commission); err != nil {
		return nil, false, errors.NewValidationError(err.Error())
	}

	packet, condition, err := i.ilp.GetQuoteResponseIlp(mojaloop.IlpTransaction{
		TransactionID:   request.TransactionID,
		QuoteID:         request.QuoteID,
		Payee:           request.Payee,
		Payer:           request.Payer,
		Amount:          request.Amount,
		TransactionType: request.TransactionType,
	}, transferAmount)
	if err != nil {
		return nil, false, err
	}

	quote, err = i.quoteRepository.Create(ctx, &models.Quote{
		ID:                   request.QuoteID,
		TransactionID:        request.TransactionID,
		TransactionRequestID: transaction.TransactionRequestID,
		Amount:               request.Amount,
		Fees:                 transaction.LpsFee,
		Commission:           commission,
		TransferAmount:       transferAmount,
		IlpPacket:            packet,
		Condition:            condition,
		Expiration:           i.transactions.Expiration(),
	})
	return quote, false, err
}

// errorInformation maps an error onto the scheme's error codes.
func errorInformation(err error) mojaloop.ErrorInformationObject {
	var validation *errors.ValidationError
	var transition *errors.InvalidStateTransitionError
	switch {
	case errors.IsNotFound(err):
		return mojaloop.NewErrorInformation(mojaloop.ErrorCodeNotFound, err.Error())
	case errors.As(err, &validation), errors.As(err, &transition):
		return mojaloop.NewErrorInformation(mojaloop.ErrorCodeValidation, err.Error())
	default:
		return mojaloop.NewErrorInformation(mojaloop.ErrorCodeInternalServer, "Internal server error")
	}
}
