// Package quoteapi talks to the external quote and order service. Calls are
// made once; there is no retry.
package quoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://voipshop-quote-api.vercel.app"
	DefaultOrderTimeout = 15 * time.Second
	DefaultQuoteTimeout = 20 * time.Second

	completeOrderPath = "/api/complete-order"
	sendQuotePath     = "/api/send-quote"
)

// APIError is a non-2xx reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quote api: status=%d: %s", e.Status, e.Message)
}

type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	OrderTimeout time.Duration
	QuoteTimeout time.Duration
	Logger       *zap.Logger
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	orderTimeout time.Duration
	quoteTimeout time.Duration
	logger       *zap.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	orderTimeout := opts.OrderTimeout
	if orderTimeout <= 0 {
		orderTimeout = DefaultOrderTimeout
	}
	quoteTimeout := opts.QuoteTimeout
	if quoteTimeout <= 0 {
		quoteTimeout = DefaultQuoteTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		orderTimeout: orderTimeout,
		quoteTimeout: quoteTimeout,
		logger:       logger,
	}
}

// CompleteOrder submits an order for invoicing, SLA and porting paperwork.
func (c *Client) CompleteOrder(ctx context.Context, p OrderPayload) (json.RawMessage, error) {
	return c.postJSON(ctx, completeOrderPath, p, c.orderTimeout)
}

// SendQuote asks the service to email a PDF quote to the client.
func (c *Client) SendQuote(ctx context.Context, p QuotePayload) (json.RawMessage, error) {
	return c.postJSON(ctx, sendQuotePath, p, c.quoteTimeout)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, timeout time.Duration) (json.RawMessage, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("quote api request failed", zap.String("path", path), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	c.logger.Info("quote api call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data, isJSON)}
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return json.RawMessage(`{"ok":true}`), nil
	case isJSON && json.Valid(trimmed):
		return json.RawMessage(trimmed), nil
	default:
		wrapped, _ := json.Marshal(map[string]any{"ok": true, "message": string(trimmed)})
		return wrapped, nil
	}
}

func errorMessage(status int, data []byte, isJSON bool) string {
	if isJSON {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &body) == nil {
			if body.Error != "" {
				return body.Error
			}
			if body.Message != "" {
				return body.Message
			}
		}
	} else if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
