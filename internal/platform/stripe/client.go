package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("stripe: secret key not configured")

type ClientOptions struct {
	SecretKey  string
	APIBase    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is the minimal REST surface the service needs.
type Client struct {
	secretKey string
	apiBase   string
	http      *http.Client
}

func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(opts.APIBase, "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	return &Client{secretKey: opts.SecretKey, apiBase: base, http: hc}
}

type PaymentIntent struct {
	ID           string   `json:"id"`
	Amount       int64    `json:"amount"`
	Currency     string   `json:"currency"`
	Status       string   `json:"status"`
	ReceiptEmail string   `json:"receipt_email"`
	Metadata     Metadata `json:"metadata"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutLineItem struct {
	Name      string
	Quantity  int64
	UnitPrice int64
}

type CheckoutSessionParams struct {
	CustomerEmail string
	Currency      string
	SuccessURL    string
	CancelURL     string
	LineItems     []CheckoutLineItem
	// Metadata is copied onto both the session and its payment intent
	Metadata map[string]string
}

// APIError is the provider's error body.
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe api error: status=%d type=%s code=%s message=%s", e.StatusCode, e.Type, e.Code, e.Message)
}

func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("stripe: payment intent id is empty")
	}
	var pi PaymentIntent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &pi); err != nil {
		return nil, err
	}
	pi.Currency = strings.ToUpper(pi.Currency)
	return &pi, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p *CheckoutSessionParams) (*CheckoutSession, error) {
	if p == nil || len(p.LineItems) == 0 {
		return nil, errors.New("stripe: checkout session needs at least one line item")
	}
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}
	currency := strings.ToLower(p.Currency)
	for i, item := range p.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitPrice, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}
	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
		form.Set("payment_intent_data[metadata]["+k+"]", v)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if c.secretKey == "" {
		return ErrNotConfigured
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stripe %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("stripe read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var env struct {
			Error APIError `json:"error"`
		}
		_ = json.Unmarshal(raw, &env)
		env.Error.StatusCode = resp.StatusCode
		return &env.Error
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("stripe decode response: %w", err)
	}
	return nil
}
