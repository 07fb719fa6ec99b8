package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/commands"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrProviderRejected = errs.New("payment provider rejected the request")
	ErrProviderDown     = errs.New("payment provider unavailable")
)

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client opens hosted checkout sessions with the payment provider.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*commands.PaymentSession]
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: gobreaker.NewCircuitBreaker[*commands.PaymentSession](gobreaker.Settings{
			Name:        "payment-gateway",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// A rejected request says nothing about provider health.
				return err == nil || errs.Is(err, ErrProviderRejected)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

type sessionResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) CreateSession(ctx context.Context, req commands.PaymentSessionRequest) (*commands.PaymentSession, error) {
	return c.breaker.Execute(func() (*commands.PaymentSession, error) {
		return c.createSession(ctx, req)
	})
}

func (c *Client) createSession(ctx context.Context, req commands.PaymentSessionRequest) (*commands.PaymentSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", req.CheckoutSessionID.String())
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Amount.Currency().String()))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount.MinorUnits(), 10))
	form.Set("line_items[0][price_data][product_data][name]", "Order "+req.CheckoutSessionID.String())
	form.Set("metadata[checkout_session_id]", req.CheckoutSessionID.String())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(err, "failed to build payment session request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", req.CheckoutSessionID.String())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "payment provider request failed"), ErrProviderDown)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "failed to read payment provider response"), ErrProviderDown)
	}

	var parsed sessionResponse
	decodeErr := json.Unmarshal(body, &parsed)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.Wrap(ErrProviderDown, fmt.Sprintf("status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg += ": " + parsed.Error.Message
		}
		return nil, errs.Wrap(ErrProviderRejected, msg)
	}

	if decodeErr != nil {
		return nil, errs.Mark(errs.Wrap(decodeErr, "failed to decode payment provider response"), ErrProviderDown)
	}
	if parsed.ID == "" {
		return nil, errs.Wrap(ErrProviderDown, "response carried no session id")
	}
	return &commands.PaymentSession{ID: parsed.ID, RedirectURL: parsed.URL}, nil
}
