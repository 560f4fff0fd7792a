package stripe

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	EventTypeCheckoutSessionCompleted = "checkout.session.completed"
	EventTypePaymentIntentSucceeded   = "payment_intent.succeeded"
)

var ErrInvalidPayload = errors.New("stripe: invalid event payload")

// metadata keys carrying the order reference
var orderRefKeys = []string{"order_id", "orderId"}

// Event is one of CheckoutCompleted, PaymentIntentSucceeded or Unknown.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

type Envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
}

func (e Envelope) EventID() string   { return e.ID }
func (e Envelope) EventType() string { return e.Type }

type Metadata map[string]string

// OrderRef returns the order reference attached when the order was placed.
func (m Metadata) OrderRef() string {
	for _, k := range orderRefKeys {
		if v := strings.TrimSpace(m[k]); v != "" {
			return v
		}
	}
	return ""
}

type CheckoutCompleted struct {
	Envelope
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	PaymentStatus   string
	CustomerEmail   string
	CustomerName    string
	Metadata        Metadata
}

type PaymentIntentSucceeded struct {
	Envelope
	PaymentIntentID string
	Amount          int64
	Currency        string
	Status          string
	ReceiptEmail    string
	Metadata        Metadata
}

// Unknown is any event type the reconciler does not act on.
type Unknown struct {
	Envelope
}

func (CheckoutCompleted) isEvent()      {}
func (PaymentIntentSucceeded) isEvent() {}
func (Unknown) isEvent()                {}

type rawEvent struct {
	Envelope
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type rawCheckoutSession struct {
	ID              string   `json:"id"`
	PaymentIntent   string   `json:"payment_intent"`
	AmountTotal     int64    `json:"amount_total"`
	Currency        string   `json:"currency"`
	PaymentStatus   string   `json:"payment_status"`
	CustomerEmail   string   `json:"customer_email"`
	Metadata        Metadata `json:"metadata"`
	CustomerDetails *struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
}

type rawPaymentIntent struct {
	ID             string   `json:"id"`
	Amount         int64    `json:"amount"`
	AmountReceived int64    `json:"amount_received"`
	Currency       string   `json:"currency"`
	Status         string   `json:"status"`
	ReceiptEmail   string   `json:"receipt_email"`
	Metadata       Metadata `json:"metadata"`
}

// ParseEvent decodes a webhook body into a typed event.
func ParseEvent(payload []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	raw.ID = strings.TrimSpace(raw.ID)
	raw.Type = strings.TrimSpace(raw.Type)
	if raw.ID == "" || raw.Type == "" {
		return nil, ErrInvalidPayload
	}

	switch raw.Type {
	case EventTypeCheckoutSessionCompleted:
		var s rawCheckoutSession
		if err := json.Unmarshal(raw.Data.Object, &s); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		ev := CheckoutCompleted{
			Envelope:        raw.Envelope,
			SessionID:       s.ID,
			PaymentIntentID: s.PaymentIntent,
			AmountTotal:     s.AmountTotal,
			Currency:        strings.ToUpper(s.Currency),
			PaymentStatus:   s.PaymentStatus,
			CustomerEmail:   s.CustomerEmail,
			Metadata:        s.Metadata,
		}
		if s.CustomerDetails != nil {
			if ev.CustomerEmail == "" {
				ev.CustomerEmail = s.CustomerDetails.Email
			}
			ev.CustomerName = s.CustomerDetails.Name
		}
		return ev, nil
	case EventTypePaymentIntentSucceeded:
		var pi rawPaymentIntent
		if err := json.Unmarshal(raw.Data.Object, &pi); err != nil {
			return nil, errors.Join(ErrInvalidPayload, err)
		}
		amount := pi.AmountReceived
		if amount <= 0 {
			amount = pi.Amount
		}
		return PaymentIntentSucceeded{
			Envelope:        raw.Envelope,
			PaymentIntentID: pi.ID,
			Amount:          amount,
			Currency:        strings.ToUpper(pi.Currency),
			Status:          pi.Status,
			ReceiptEmail:    pi.ReceiptEmail,
			Metadata:        pi.Metadata,
		}, nil
	default:
		return Unknown{Envelope: raw.Envelope}, nil
	}
}
