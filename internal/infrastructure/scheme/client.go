// Package scheme is the HTTP client for the interoperability scheme's FSPIOP API.
package scheme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mufasadev/lps-adaptor/internal/config"
	"github.com/mufasadev/lps-adaptor/internal/domain/gateways"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	apperrors "github.com/mufasadev/lps-adaptor/internal/errors"
	"github.com/mufasadev/lps-adaptor/pkg/log"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const (
	serviceName = "scheme"

	// consecutiveFailures opens the breaker; openTimeout is how long it stays open.
	consecutiveFailures = 5
	openTimeout         = 30 * time.Second
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
	now        func() time.Time
}

var _ gateways.SchemeClient = (*Client)(nil)

func NewClient(cfg config.Scheme) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger: log.Component("scheme_client"),
		now:    time.Now,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return c
}

func (c *Client) GetParties(ctx context.Context, partyIdType, partyIdentifier string, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodGet, path("parties", partyIdType, partyIdentifier), nil, headers)
}

func (c *Client) PostTransactionRequest(ctx context.Context, request mojaloop.TransactionRequestsPostRequest, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodPost, path("transactionRequests"), request, headers)
}

func (c *Client) PutQuote(ctx context.Context, quoteID string, response mojaloop.QuotesIDPutResponse, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodPut, path("quotes", quoteID), response, headers)
}

func (c *Client) PutQuoteError(ctx context.Context, quoteID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodPut, path("quotes", quoteID, "error"), errInfo, headers)
}

func (c *Client) GetTransfer(ctx context.Context, transferID string, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodGet, path("transfers", transferID), nil, headers)
}

func (c *Client) PutTransfer(ctx context.Context, transferID string, response mojaloop.TransfersIDPutResponse, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodPut, path("transfers", transferID), response, headers)
}

func (c *Client) PutTransferError(ctx context.Context, transferID string, errInfo mojaloop.ErrorInformationObject, headers mojaloop.Headers) error {
	return c.do(ctx, http.MethodPut, path("transfers", transferID, "error"), errInfo, headers)
}

// statusError is a non-2xx reply. Only 5xx replies count against the breaker.
type statusError struct {
	code int
	body mojaloop.ErrorInformationObject
}

func (e *statusError) Error() string {
	if e.body.ErrorInformation.ErrorCode != "" {
		return fmt.Sprintf("%s %s", e.body.ErrorInformation.ErrorCode, e.body.ErrorInformation.ErrorDescription)
	}
	return http.StatusText(e.code)
}

func (c *Client) do(ctx context.Context, method, resourcePath string, body interface{}, headers mojaloop.Headers) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s body: %w", resourcePath, err)
		}
	}

	var clientErr *statusError
	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := c.send(ctx, method, resourcePath, payload, headers)

		var se *statusError
		if errors.As(err, &se) && se.code < http.StatusInternalServerError {
			clientErr = se
			return nil, nil
		}
		return nil, err
	})

	if clientErr != nil {
		err = clientErr
	}
	if err != nil {
		status := 0
		var se *statusError
		if errors.As(err, &se) {
			status = se.code
		}
		c.logger.Error().Err(err).Str("method", method).Str("path", resourcePath).Int("status", status).Msg("scheme request failed")
		return apperrors.NewUpstreamError(serviceName, status, err)
	}

	c.logger.Debug().Str("method", method).Str("path", resourcePath).Msg("scheme request accepted")
	return nil
}

func (c *Client) send(ctx context.Context, method, resourcePath string, payload []byte, headers mojaloop.Headers) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+resourcePath, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	contentType := mediaType(resourcePath)
	req.Header.Set(mojaloop.HeaderAccept, contentType)
	req.Header.Set(mojaloop.HeaderContentType, contentType)
	req.Header.Set(mojaloop.HeaderDate, c.now().UTC().Format(http.TimeFormat))
	req.Header.Set(mojaloop.HeaderSource, headers.Source)
	if headers.Destination != "" {
		req.Header.Set(mojaloop.HeaderDestination, headers.Destination)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	se := &statusError{code: resp.StatusCode}
	_ = json.NewDecoder(resp.Body).Decode(&se.body)
	return se
}

// mediaType is the versioned FSPIOP media type of the resource addressed by resourcePath.
func mediaType(resourcePath string) string {
	resource := strings.SplitN(strings.TrimPrefix(resourcePath, "/"), "/", 2)[0]
	return fmt.Sprintf("application/vnd.interoperability.%s+json;version=1.0", resource)
}

func path(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
