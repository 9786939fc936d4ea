package razorpay

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
)

// DefaultBaseURL is the Razorpay REST API root.
const DefaultBaseURL = "https://api.razorpay.com/v1"

// ErrMissingCredentials is returned by NewClient when the key id or key
// secret is empty.
var ErrMissingCredentials = errors.New("razorpay: key id and key secret are required")

// httpClient is the concrete Client backed by the Razorpay REST API.
// Construct it with NewClient.
type httpClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client that authenticates with HTTP basic auth using
// keyID and keySecret. baseURL defaults to DefaultBaseURL when empty. Every
// call is bounded by timeout in addition to the caller's context.
func NewClient(keyID, keySecret, baseURL string, timeout time.Duration) (Client, error) {
	if keyID == "" || keySecret == "" {
		return nil, ErrMissingCredentials
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ─── RAZORPAY API SHAPES ──────────────────────────────────────────────────────

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type errorEnvelope struct {
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Field       string `json:"field"`
	} `json:"error"`
}

// ─── CLIENT IMPLEMENTATION ────────────────────────────────────────────────────

// CreateOrder POSTs to /orders.
func (c *httpClient) CreateOrder(ctx context.Context, p CreateOrderParams) (Order, error) {
	if p.AmountMinor <= 0 {
		return Order{}, ErrInvalidAmount
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:   p.AmountMinor,
		Currency: p.Currency,
		Receipt:  p.Receipt,
		Notes:    p.Notes,
	})
	if err != nil {
		return Order{}, fmt.Errorf("razorpay: marshal order request: %w", err)
	}

	order, err := c.do(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay: create order: %w", err)
	}
	return order, nil
}

// FetchOrder GETs /orders/{id}.
func (c *httpClient) FetchOrder(ctx context.Context, orderID string) (Order, error) {
	if orderID == "" {
		return Order{}, errors.New("razorpay: fetch order: order id is empty")
	}

	order, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay: fetch order %s: %w", orderID, err)
	}
	return order, nil
}

// ─── HTTP ─────────────────────────────────────────────────────────────────────

func (c *httpClient) do(ctx context.Context, method, path string, body []byte) (Order, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Order{}, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return Order{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env errorEnvelope
		if jsonErr := json.Unmarshal(respBytes, &env); jsonErr == nil && env.Error != nil {
			return Order{}, &APIError{
				StatusCode:  resp.StatusCode,
				Code:        env.Error.Code,
				Description: env.Error.Description,
				Field:       env.Error.Field,
			}
		}
		return Order{}, fmt.Errorf("unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	var order Order
	if err := json.Unmarshal(respBytes, &order); err != nil {
		return Order{}, fmt.Errorf("unmarshal order (status %d): %w", resp.StatusCode, err)
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("order id is empty in response: %.200s", string(respBytes))
	}
	order.Raw = json.RawMessage(respBytes)

	return order, nil
}
