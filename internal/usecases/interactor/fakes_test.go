package interactor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	apperr "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/database/memory"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/fees"
	"github.com/mufasadev/lps-adaptor/internal/infrastructure/ilp"
	"github.com/shopspring/decimal"
)

type schemeCall struct {
	method  string
	id      string
	body    interface{}
	headers mojaloop.Headers
}

// fakeScheme records every call. failures holds how many times a method fails before succeeding;
// a negative count fails forever.
type fakeScheme struct {
	mu       sync.Mutex
	calls    []schemeCall
	failures map[string]int
}

func newFakeScheme() *fakeScheme {
	return &fakeScheme{failures: make(map[string]int)}
}

func (f *fakeScheme) record(method, id string, body interface{}, headers mojaloop.Headers) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, schemeCall{method: method, id: id, body: body, headers: headers})
	if n := f.failures[method]; n != 0 {
		if n > 0 {
			f.failures[method] = n - 1
		}
		return apperr.NewUpstreamError("scheme", 503, errors.New("scheme unavailable"))
	}
	return nil
}

func (f *fakeScheme) called(method string) []schemeCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	found := make([]schemeCall, 0)
	for _, c := range f.calls {
		if c.method == method {
			found = append(found, c)
		}
	}
	return found
}

func (f *fakeScheme) GetParties(_ context.Context, partyIdType, partyIdentifier string, headers mojaloop.Headers) error {
	return f.record("GetParties", partyIdType+"/"+partyIdentifier, nil, headers)
}

func (f *fakeScheme) PostTransactionRequest(_ context.Context, request mojaloop.TransactionRequestsPostRequest, headers mojaloop.Headers) error {
	return f.record("PostTransactionRequest", request.TransactionRequestID, request, headers)
}

func (f *fakeScheme) PutQuote(_ context.Context, quoteID string, response mojaloop.QuotesIDPutResponse, headers mojaloop.Headers) error {
	return f.record("PutQuote", quoteID, response, headers)
}

func (f *fakeScheme) PutQuoteError(_ context.Context, quoteID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error {
	return f.record("PutQuoteError", quoteID, errInfo, headers)
}

func (f *fakeScheme) GetTransfer(_ context.Context, transferID string, headers mojaloop.Headers) error {
	return f.record("GetTransfer", transferID, nil, headers)
}

func (f *fakeScheme) PutTransfer(_ context.Context, transferID string, response mojaloop.TransfersIDPutResponse, headers mojaloop.Headers) error {
	return f.record("PutTransfer", transferID, response, headers)
}

func (f *fakeScheme) PutTransferError(_ context.Context, transferID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error {
	return f.record("PutTransferError", transferID, errInfo, headers)
}

type queued struct {
	queue   string
	message interface{}
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []queued
	err      error
}

func (q *fakeQueue) AddToQueue(_ context.Context, queueName string, message interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, queued{queue: queueName, message: message})
	return nil
}

func (q *fakeQueue) sent() []queued {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queued(nil), q.messages...)
}

// adaptor wires every interactor over the memory stores, the real ILP and a fee of 2 per transaction.
type adaptor struct {
	scheme       *fakeScheme
	queue        *fakeQueue
	store        *memory.TransactionStore
	quotes       *memory.QuoteStore
	transfers    *memory.TransferStore
	ilp          *ilp.ILP
	transactions *TransactionInteractor
	legacy       *LegacyInteractor
	parties      *PartiesInteractor
	responses    *TransactionRequestResponseInteractor
	quote        *QuoteInteractor
	transfer     *TransferInteractor
	committed    *TransferResponseInteractor
	reconcile    *ReconcileInteractor
}

func newAdaptor() *adaptor {
	a := &adaptor{
		scheme:    newFakeScheme(),
		queue:     &fakeQueue{},
		store:     memory.NewTransactionStore(time.Second),
		quotes:    memory.NewQuoteStore(),
		transfers: memory.NewTransferStore(),
		ilp:       ilp.New("secret"),
	}

	a.transactions = NewTransactionInteractor(a.store, a.scheme, config.Scheme{FspID: "adaptor", ExpirationWindow: "10m"})
	a.legacy = NewLegacyInteractor(a.transactions, a.scheme)
	a.parties = NewPartiesInteractor(a.transactions, 3, time.Millisecond)
	a.responses = NewTransactionRequestResponseInteractor(a.transactions)
	a.quote = NewQuoteInteractor(a.transactions, a.quotes, a.scheme, fees.NewCalculator(decimal.NewFromInt(2), decimal.Zero), a.ilp)
	a.transfer = NewTransferInteractor(a.transactions, a.quotes, a.transfers, a.scheme, a.ilp)
	a.committed = NewTransferResponseInteractor(a.transactions, a.transfers, a.queue)
	a.reconcile = NewReconcileInteractor(a.transactions, a.transfers, a.scheme, 15*time.Minute, 100)
	return a
}
