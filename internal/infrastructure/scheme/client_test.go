package scheme

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	apperr "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	c := NewClient(config.Scheme{BaseURL: url, Timeout: "2s"})
	c.now = func() time.Time { return time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC) }
	return c
}

func TestPostTransactionRequest(t *testing.T) {
	var got *http.Request
	var body mojaloop.TransactionRequestsPostRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	request := mojaloop.TransactionRequestsPostRequest{
		TransactionRequestID: "123",
		Payer:                models.PartyIdInfo{PartyIdType: "MSISDN", PartyIdentifier: "0821234567"},
		Amount:               models.Money{Amount: decimal.RequireFromString("100"), Currency: "USD"},
		TransactionType:      models.TransactionType{Initiator: "PAYEE", InitiatorType: "DEVICE", Scenario: "WITHDRAWAL"},
	}

	err := newTestClient(server.URL).PostTransactionRequest(context.Background(), request, mojaloop.Headers{Source: "adaptor", Destination: "payerfsp"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/transactionRequests", got.URL.Path)
	assert.Equal(t, "application/vnd.interoperability.transactionRequests+json;version=1.0", got.Header.Get("Content-Type"))
	assert.Equal(t, "application/vnd.interoperability.transactionRequests+json;version=1.0", got.Header.Get("Accept"))
	assert.Equal(t, "Thu, 15 Oct 2026 10:30:00 GMT", got.Header.Get("Date"))
	assert.Equal(t, "adaptor", got.Header.Get("FSPIOP-Source"))
	assert.Equal(t, "payerfsp", got.Header.Get("FSPIOP-Destination"))
	assert.Equal(t, "123", body.TransactionRequestID)
	assert.True(t, body.Amount.Amount.Equal(decimal.NewFromInt(100)))
}

func TestPaths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()
	h := mojaloop.Headers{Source: "adaptor"}

	require.NoError(t, c.GetParties(ctx, "MSISDN", "0821234567", h))
	require.NoError(t, c.PutQuote(ctx, "q1", mojaloop.QuotesIDPutResponse{}, h))
	require.NoError(t, c.PutQuoteError(ctx, "q1", mojaloop.NewErrorInformation(mojaloop.ErrorCodeValidation, "bad"), h))
	require.NoError(t, c.GetTransfer(ctx, "t 1", h))
	require.NoError(t, c.PutTransfer(ctx, "t1", mojaloop.TransfersIDPutResponse{TransferState: models.TransferStateReserved}, h))
	require.NoError(t, c.PutTransferError(ctx, "t1", mojaloop.NewErrorInformation(mojaloop.ErrorCodeInternalServer, "boom"), h))

	assert.Equal(t, []string{
		"GET /parties/MSISDN/0821234567",
		"PUT /quotes/q1",
		"PUT /quotes/q1/error",
		"GET /transfers/t%201",
		"PUT /transfers/t1",
		"PUT /transfers/t1/error",
	}, paths)
}

func TestErrorStatusIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(mojaloop.NewErrorInformation("3100", "Generic validation error"))
	}))
	defer server.Close()

	err := newTestClient(server.URL).GetTransfer(context.Background(), "t1", mojaloop.Headers{Source: "adaptor"})

	var upstream *apperr.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Contains(t, upstream.Error(), "Generic validation error")
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < consecutiveFailures+3; i++ {
		err := c.GetTransfer(context.Background(), "t1", mojaloop.Headers{Source: "adaptor"})
		assert.Error(t, err)
	}

	assert.Equal(t, int32(consecutiveFailures), atomic.LoadInt32(&calls))
}

func TestClientErrorsDoNotOpenBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < consecutiveFailures+3; i++ {
		_ = c.GetTransfer(context.Background(), "t1", mojaloop.Headers{Source: "adaptor"})
	}

	assert.Equal(t, int32(consecutiveFailures+3), atomic.LoadInt32(&calls))
}
