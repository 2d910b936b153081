package interactor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/mufasadev/lps-adaptor/internal/domain/repositories"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ExpirationLayout is the timestamp layout the scheme expects for expirations.
const ExpirationLayout = "2006-01-02T15:04:05.000Z"

// TransactionInteractor is the single entry point for creating transactions, forwarding them to the
// scheme and moving them through their lifecycle. Every mutation is logged here.
type TransactionInteractor struct {
	transactionRepository repositories.TransactionRepository
	scheme                gateways.SchemeClient
	fspID                 string
	expirationWindow      time.Duration
	logger                *zerolog.Logger
	now                   func() time.Time
}

func NewTransactionInteractor(transactionRepository repositories.TransactionRepository, scheme gateways.SchemeClient, cfg config.Scheme) *TransactionInteractor {
	l := log.Component("transactions")
	return &TransactionInteractor{
		transactionRepository: transactionRepository,
		scheme:                scheme,
		fspID:                 cfg.FspID,
		expirationWindow:      cfg.ExpirationWindowDuration(),
		logger:                &l,
		now:                   time.Now,
	}
}

// FspID is the identity the adaptor uses as FSPIOP-Source.
func (i *TransactionInteractor) FspID() string {
	return i.fspID
}

// Expiration returns the expiration timestamp for a message created now.
func (i *TransactionInteractor) Expiration() string {
	return i.now().UTC().Add(i.expirationWindow).Format(ExpirationLayout)
}

// Create validates request and stores it as a new transaction in state transactionReceived.
// A transactionRequestId and an expiration are assigned when the request carries none.
func (i *TransactionInteractor) Create(ctx context.Context, request *models.TransactionRequest) (*models.Transaction, error) {
	if err := validateRequest(request); err != nil {
		i.logger.Warn().Err(err).Str("lpsKey", request.LpsKey).Msg("rejected transaction request")
		return nil, err
	}

	if request.TransactionRequestID == "" {
		request.TransactionRequestID = uuid.NewString()
	}
	if request.Expiration == "" {
		request.Expiration = i.Expiration()
	}
	if request.LpsFee.Currency == "" {
		request.LpsFee = models.Money{Amount: request.LpsFee.Amount, Currency: request.Amount.Currency}
	}

	transaction, err := i.transactionRepository.Create(ctx, request)
	if err != nil {
		i.logger.Error().Err(err).Str("transactionRequestId", request.TransactionRequestID).Str("lpsKey", request.LpsKey).Msg("failed to create transaction")
		return nil, err
	}

	i.logger.Info().
		Str("transactionRequestId", transaction.TransactionRequestID).
		Str("lpsKey", transaction.LpsKey).
		Stringer("amount", transaction.Amount).
		Msg("transaction created")
	return transaction, nil
}

func validateRequest(r *models.TransactionRequest) error {
	switch {
	case r.LpsID == "":
		return apperrors.NewValidationError("lpsId is required")
	case r.LpsKey == "":
		return apperrors.NewValidationError("lpsKey is required")
	case r.Payer.PartyIdType == "" || r.Payer.PartyIdentifier == "":
		return apperrors.NewValidationError("payer identifier is required")
	case r.Payee.PartyIdInfo.PartyIdType == "" || r.Payee.PartyIdInfo.PartyIdentifier == "":
		return apperrors.NewValidationError("payee identifier is required")
	case r.Amount.Currency == "":
		return apperrors.NewValidationError("currency is required")
	case !r.Amount.Amount.GreaterThan(decimal.Zero):
		return apperrors.NewValidationError("amount must be positive")
	case r.LpsFee.Amount.IsNegative():
		return apperrors.NewValidationError("lpsFee must not be negative")
	case r.LpsFee.Currency != "" && r.LpsFee.Currency != r.Amount.Currency:
		return apperrors.NewValidationError(fmt.Sprintf("lpsFee currency %s does not match amount currency %s", r.LpsFee.Currency, r.Amount.Currency))
	case !r.AuthenticationType.Valid():
		return apperrors.NewValidationError(fmt.Sprintf("unknown authentication type %s", r.AuthenticationType))
	}

	if err := r.TransactionType.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

func (i *TransactionInteractor) Get(ctx context.Context, id string, idType models.IDType) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.Get(ctx, id, idType)
	if err != nil {
		i.logLookupError(err, string(idType), id)
		return nil, err
	}
	return transaction, nil
}

func (i *TransactionInteractor) GetByLpsKeyAndState(ctx context.Context, lpsKey string, state models.State) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.GetByLpsKeyAndState(ctx, lpsKey, state)
	if err != nil {
		i.logLookupError(err, "lpsKey", lpsKey)
		return nil, err
	}
	return transaction, nil
}

func (i *TransactionInteractor) GetByPayerIdentifier(ctx context.Context, identifierValue string) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.GetByPayerIdentifier(ctx, identifierValue)
	if err != nil {
		i.logLookupError(err, "payerIdentifier", identifierValue)
		return nil, err
	}
	return transaction, nil
}

// FindIncomplete returns nil, nil when every transaction for lpsKey has finished.
func (i *TransactionInteractor) FindIncomplete(ctx context.Context, lpsKey string) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.FindIncomplete(ctx, lpsKey)
	if err != nil {
		i.logLookupError(err, "lpsKey", lpsKey)
		return nil, err
	}
	return transaction, nil
}

func (i *TransactionInteractor) FindStale(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error) {
	return i.transactionRepository.FindStale(ctx, olderThan, limit)
}

func (i *TransactionInteractor) UpdateState(ctx context.Context, id string, idType models.IDType, state models.State) (*models.Transaction, error) {
	return i.UpdateStateWith(ctx, id, idType, state, nil)
}

// UpdateStateWith advances the transaction to state once effect has succeeded. Effect runs while the
// transaction is locked against other state writers.
func (i *TransactionInteractor) UpdateStateWith(ctx context.Context, id string, idType models.IDType, state models.State, effect repositories.SideEffect) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.UpdateStateWith(ctx, id, idType, state, effect)
	if err != nil {
		i.logger.Error().Err(err).Str(string(idType), id).Stringer("state", state).Msg("failed to update transaction state")
		return nil, err
	}

	event := i.logger.Info().Str("transactionRequestId", transaction.TransactionRequestID).Stringer("state", transaction.State)
	if transaction.PreviousState != nil {
		event = event.Stringer("previousState", *transaction.PreviousState)
	}
	event.Msg("transaction state updated")
	return transaction, nil
}

func (i *TransactionInteractor) UpdatePayerFspID(ctx context.Context, id string, idType models.IDType, fspID string) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.UpdatePayerFspID(ctx, id, idType, fspID)
	if err != nil {
		i.logger.Error().Err(err).Str(string(idType), id).Str("fspId", fspID).Msg("failed to update payer fsp id")
		return nil, err
	}

	i.logger.Info().Str("transactionRequestId", transaction.TransactionRequestID).Str("fspId", fspID).Msg("payer fsp id updated")
	return transaction, nil
}

func (i *TransactionInteractor) UpdateTransactionID(ctx context.Context, transactionRequestID, transactionID string) (*models.Transaction, error) {
	transaction, err := i.transactionRepository.UpdateTransactionID(ctx, transactionRequestID, transactionID)
	if err != nil {
		i.logger.Error().Err(err).Str("transactionRequestId", transactionRequestID).Str("transactionId", transactionID).Msg("failed to update transaction id")
		return nil, err
	}

	i.logger.Info().Str("transactionRequestId", transactionRequestID).Str("transactionId", transactionID).Msg("transaction id updated")
	return transaction, nil
}

// SendToScheme posts the transaction request to the scheme, addressed to the payer's FSP.
// It does not change the transaction state.
func (i *TransactionInteractor) SendToScheme(ctx context.Context, request *models.TransactionRequest) error {
	if request.Payer.FspID == "" {
		return apperrors.NewValidationError(fmt.Sprintf("payer fsp of transaction %s is not resolved", request.TransactionRequestID))
	}

	body := mojaloop.TransactionRequestsPostRequest{
		TransactionRequestID: request.TransactionRequestID,
		Payee:                request.Payee,
		Payer:                request.Payer,
		Amount:               request.Amount,
		TransactionType:      request.TransactionType,
		AuthenticationType:   request.AuthenticationType,
		Expiration:           request.Expiration,
	}
	headers := mojaloop.Headers{Source: i.fspID, Destination: request.Payer.FspID}

	i.logger.Debug().Str("transactionRequestId", request.TransactionRequestID).Str("destination", headers.Destination).Msg("sending transaction request to scheme")
	if err := i.scheme.PostTransactionRequest(ctx, body, headers); err != nil {
		i.logger.Error().Err(err).Str("transactionRequestId", request.TransactionRequestID).Msg("failed to send transaction request")
		return err
	}
	return nil
}

func (i *TransactionInteractor) logLookupError(err error, key, value string) {
	var corrupt *apperrors.CorruptStateError
	if apperrors.As(err, &corrupt) {
		i.logger.Error().Err(err).Str(key, value).Msg(apperrors.ErrTransactionCorrupt)
		return
	}
	if apperrors.IsNotFound(err) {
		i.logger.Debug().Err(err).Str(key, value).Msg("transaction not found")
		return
	}
	i.logger.Error().Err(err).Str(key, value).Msg(apperrors.ErrFailedGetTransaction)
}
