package razorpay_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nyashahama/wallet-topup-backend/internal/razorpay"
)

const orderJSON = `{"id":"order_EKwxwAgItmmXdp","entity":"order","amount":2550,"amount_paid":0,"amount_due":2550,"currency":"INR","receipt":"rcpt_1700000000123","offer_id":null,"status":"created","attempts":0,"notes":[],"created_at":1582628071}`

func newTestClient(t *testing.T, h http.HandlerFunc) razorpay.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := razorpay.NewClient("rzp_test_key", "rzp_test_secret", srv.URL, 2*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// ─── NewClient ────────────────────────────────────────────────────────────────

func TestNewClient_MissingCredentialsFailsFast(t *testing.T) {
	for _, creds := range [][2]string{{"", "secret"}, {"key", ""}, {"", ""}} {
		_, err := razorpay.NewClient(creds[0], creds[1], "", time.Second)
		if !errors.Is(err, razorpay.ErrMissingCredentials) {
			t.Errorf("%v: expected ErrMissingCredentials, got %v", creds, err)
		}
	}
}

// ─── CreateOrder ──────────────────────────────────────────────────────────────

func TestCreateOrder_SendsMinorUnitsWithBasicAuth(t *testing.T) {
	var got struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_test_secret" {
			t.Errorf("basic auth: got %q/%q ok=%v", user, pass, ok)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, orderJSON)
	})

	order, err := c.CreateOrder(context.Background(), razorpay.CreateOrderParams{
		AmountMinor: 2550,
		Currency:    "INR",
		Receipt:     "rcpt_1700000000123",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if got.Amount != 2550 || got.Currency != "INR" || got.Receipt != "rcpt_1700000000123" {
		t.Errorf("request body: %+v", got)
	}
	if order.ID != "order_EKwxwAgItmmXdp" || order.Amount != 2550 || order.Status != "created" {
		t.Errorf("parsed order: %+v", order)
	}
	if string(order.Raw) != orderJSON {
		t.Errorf("Raw must be the verbatim gateway body, got %s", order.Raw)
	}
}

func TestCreateOrder_GatewayErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Order amount less than minimum amount allowed","field":"amount"}}`)
	})

	_, err := c.CreateOrder(context.Background(), razorpay.CreateOrderParams{AmountMinor: 1, Currency: "INR", Receipt: "rcpt_1"})
	var apiErr *razorpay.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError in chain, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "BAD_REQUEST_ERROR" || apiErr.Field != "amount" {
		t.Errorf("APIError: %+v", apiErr)
	}
}

func TestCreateOrder_AuthFailureWithoutEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.CreateOrder(context.Background(), razorpay.CreateOrderParams{AmountMinor: 100, Currency: "INR", Receipt: "rcpt_1"})
	if err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestCreateOrder_NonPositiveAmountNeverCallsGateway(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.CreateOrder(context.Background(), razorpay.CreateOrderParams{AmountMinor: 0, Currency: "INR"})
	if !errors.Is(err, razorpay.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if called {
		t.Error("gateway should not be called")
	}
}

func TestCreateOrder_ContextDeadlineIsHonoured(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.CreateOrder(ctx, razorpay.CreateOrderParams{AmountMinor: 100, Currency: "INR", Receipt: "rcpt_1"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Errorf("call was not bounded by the context deadline")
	}
}

func TestCreateOrder_MalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	})

	if _, err := c.CreateOrder(context.Background(), razorpay.CreateOrderParams{AmountMinor: 100, Currency: "INR"}); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

// ─── FetchOrder ───────────────────────────────────────────────────────────────

func TestFetchOrder_GetsByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/orders/order_EKwxwAgItmmXdp" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, orderJSON)
	})

	order, err := c.FetchOrder(context.Background(), "order_EKwxwAgItmmXdp")
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if order.Amount != 2550 {
		t.Errorf("amount: got %d", order.Amount)
	}
}

func TestFetchOrder_EmptyIDReturnsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})
	if _, err := c.FetchOrder(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}
