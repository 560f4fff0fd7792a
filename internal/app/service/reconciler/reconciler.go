package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fuelflow/fuelflow/internal/app/service/eventstore"
	"github.com/fuelflow/fuelflow/internal/app/service/invoice"
	notificationlog "github.com/fuelflow/fuelflow/internal/app/service/notification_log"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/app/service/payment"
	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/stripe"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/metrics"
)

const defaultNotifyTimeout = 20 * time.Second

var (
	// ErrInvalidSignature and ErrInvalidPayload reject the delivery before any write.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	// ErrEventStore means duplicate status could not be determined.
	ErrEventStore = errors.New("event store unavailable")
	// ErrOrderUpdate is the only post-verification failure surfaced to the provider.
	ErrOrderUpdate = errors.New("order update failed")
)

type SignatureVerifier interface {
	Verify(payload []byte, header string) error
}

type OrderLedger interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}

type IntentFetcher interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// Result is the outcome of one delivery; it doubles as the acknowledgement body.
type Result struct {
	EventID         string `json:"event_id"`
	EventType       string `json:"event_type"`
	Duplicate       bool   `json:"duplicate"`
	Retried         bool   `json:"retried,omitempty"`
	Ignored         bool   `json:"ignored,omitempty"`
	Orphan          bool   `json:"orphan,omitempty"`
	AwaitingPayment bool   `json:"awaiting_payment,omitempty"`
	OrderID         string `json:"order_id,omitempty"`
	PaymentRecorded bool   `json:"payment_recorded"`
	Notified        bool   `json:"notified"`
}

type Reconciler struct {
	verifier      SignatureVerifier
	events        eventstore.Store
	orders        OrderLedger
	payments      payment.Ledger
	intents       IntentFetcher
	notifier      invoice.Notifier
	audit         notificationlog.Recorder
	log           *zap.SugaredLogger
	now           func() time.Time
	notifyTimeout time.Duration
}

type Params struct {
	Verifier SignatureVerifier
	Events   eventstore.Store
	Orders   OrderLedger
	Payments payment.Ledger
	Intents  IntentFetcher
	Notifier invoice.Notifier
	Audit    notificationlog.Recorder
	Log      *zap.SugaredLogger
}

func New(p Params) *Reconciler {
	return &Reconciler{
		verifier:      p.Verifier,
		events:        p.Events,
		orders:        p.Orders,
		payments:      p.Payments,
		intents:       p.Intents,
		notifier:      p.Notifier,
		audit:         p.Audit,
		log:           p.Log,
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// checkout session payment_status values that mean the money has cleared
var settledCheckoutStatuses = []string{"paid", "no_payment_required"}

// paymentFacts is what both meaningful event shapes reduce to.
type paymentFacts struct {
	// settled is false for checkouts completed with a delayed payment method
	settled         bool
	orderRef        string
	paymentIntentID string
	sessionID       string
	amount          int64
	currency        string
	status          string
	email           string
	name            string
	metadata        stripe.Metadata
}

func factsFrom(ev stripe.Event) (*paymentFacts, bool) {
	switch e := ev.(type) {
	case stripe.CheckoutCompleted:
		return &paymentFacts{
			settled:         lo.Contains(settledCheckoutStatuses, e.PaymentStatus),
			orderRef:        e.Metadata.OrderRef(),
			paymentIntentID: e.PaymentIntentID,
			sessionID:       e.SessionID,
			amount:          e.AmountTotal,
			currency:        e.Currency,
			status:          e.PaymentStatus,
			email:           e.CustomerEmail,
			name:            lo.CoalesceOrEmpty(e.CustomerName, e.Metadata["customer_name"]),
			metadata:        e.Metadata,
		}, true
	case stripe.PaymentIntentSucceeded:
		return &paymentFacts{
			settled:         true,
			orderRef:        e.Metadata.OrderRef(),
			paymentIntentID: e.PaymentIntentID,
			amount:          e.Amount,
			currency:        e.Currency,
			status:          e.Status,
			email:           lo.CoalesceOrEmpty(e.ReceiptEmail, e.Metadata["customer_email"]),
			name:            e.Metadata["customer_name"],
			metadata:        e.Metadata,
		}, true
	default:
		return nil, false
	}
}

// Reconcile verifies, records and applies one webhook delivery. A nil error
// means the delivery must be acknowledged.
func (r *Reconciler) Reconcile(ctx context.Context, payload []byte, signatureHeader string) (*Result, error) {
	start := time.Now()
	defer metrics.ObserveBusinessProcess("webhook", "stripe", start)
	l := logctx.FromCtx(ctx, r.log)

	if err := r.verifier.Verify(payload, signatureHeader); err != nil {
		l.Warnw("webhook_signature_rejected", "err", err)
		metrics.IncWebhookEvent("unverified", "invalid_signature")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	ev, err := stripe.ParseEvent(payload)
	if err != nil {
		l.Warnw("webhook_payload_rejected", "err", err)
		metrics.IncWebhookEvent("unverified", "invalid_payload")
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	res := &Result{EventID: ev.EventID(), EventType: ev.EventType()}
	l = l.With("event_id", res.EventID, "event_type", res.EventType)

	if err := r.events.Insert(ctx, res.EventID, res.EventType, payload); err != nil {
		if !errors.Is(err, eventstore.ErrDuplicateEvent) {
			l.Errorw("webhook_event_store_failed", "err", err)
			metrics.IncWebhookEvent(res.EventType, "store_error")
			return res, fmt.Errorf("%w: %v", ErrEventStore, err)
		}
		claimed, err := r.events.Claim(ctx, res.EventID)
		if err != nil {
			l.Errorw("webhook_event_claim_failed", "err", err)
			metrics.IncWebhookEvent(res.EventType, "store_error")
			return res, fmt.Errorf("%w: %v", ErrEventStore, err)
		}
		if !claimed {
			res.Duplicate = true
			l.Infow("webhook_duplicate_event")
			r.record(ctx, res, models.WebhookLogStepDuplicate, models.WebhookLogStatusOK, nil)
			metrics.IncWebhookEvent(res.EventType, "duplicate")
			return res, nil
		}
		res.Retried = true
	}
	r.record(ctx, res, models.WebhookLogStepReceived, models.WebhookLogStatusOK, datatypes.JSONMap{"retried": res.Retried})

	facts, ok := factsFrom(ev)
	if !ok {
		res.Ignored = true
		r.record(ctx, res, models.WebhookLogStepIgnored, models.WebhookLogStatusOK, nil)
		r.finish(ctx, res, "ignored")
		return res, nil
	}

	r.resolveFromIntent(ctx, facts)

	if !facts.settled {
		// payment_intent.succeeded completes the order once the funds clear
		res.AwaitingPayment = true
		l.Infow("webhook_payment_not_settled", "payment_status", facts.status, "order_ref", facts.orderRef)
		r.record(ctx, res, models.WebhookLogStepAwaitingPayment, models.WebhookLogStatusOK, datatypes.JSONMap{
			"payment_status":    facts.status,
			"order_ref":         facts.orderRef,
			"payment_intent_id": facts.paymentIntentID,
		})
		r.recordPayment(ctx, res, facts, facts.orderRef)
		r.finish(ctx, res, "awaiting_payment")
		return res, nil
	}

	if err := r.transition(ctx, res, facts); err != nil {
		return res, err
	}
	r.recordPayment(ctx, res, facts, res.OrderID)
	if res.OrderID != "" {
		r.notify(ctx, res, facts)
	}
	r.finish(ctx, res, lo.Ternary(res.Orphan, "orphan", "paid"))
	return res, nil
}

// resolveFromIntent fills the order reference and email from the linked
// payment intent when the event itself does not carry them.
func (r *Reconciler) resolveFromIntent(ctx context.Context, f *paymentFacts) {
	if f.orderRef != "" || f.paymentIntentID == "" || r.intents == nil {
		return
	}
	pi, err := r.intents.GetPaymentIntent(ctx, f.paymentIntentID)
	if err != nil {
		logctx.FromCtx(ctx, r.log).Warnw("webhook_intent_fetch_failed", "payment_intent_id", f.paymentIntentID, "err", err)
		return
	}
	f.orderRef = pi.Metadata.OrderRef()
	f.email = lo.CoalesceOrEmpty(f.email, pi.ReceiptEmail)
	if f.metadata == nil {
		f.metadata = stripe.Metadata{}
	}
	for k, v := range pi.Metadata {
		if _, ok := f.metadata[k]; !ok {
			f.metadata[k] = v
		}
	}
}

func (r *Reconciler) transition(ctx context.Context, res *Result, f *paymentFacts) error {
	if f.orderRef == "" {
		res.Orphan = true
		logctx.FromCtx(ctx, r.log).Warnw("webhook_orphan_event", "event_id", res.EventID, "reason", "no_order_reference")
		r.record(ctx, res, models.WebhookLogStepOrphan, models.WebhookLogStatusReview, datatypes.JSONMap{
			"reason":            "no_order_reference",
			"payment_intent_id": f.paymentIntentID,
		})
		return nil
	}

	err := r.orders.MarkPaid(ctx, f.orderRef, r.now())
	switch {
	case err == nil:
		res.OrderID = f.orderRef
		r.record(ctx, res, models.WebhookLogStepOrderPaid, models.WebhookLogStatusOK, nil)
		return nil
	case errors.Is(err, order.ErrOrderNotFound):
		res.Orphan = true
		logctx.FromCtx(ctx, r.log).Warnw("webhook_orphan_event", "event_id", res.EventID, "reason", "order_not_found", "order_ref", f.orderRef)
		r.record(ctx, res, models.WebhookLogStepOrphan, models.WebhookLogStatusReview, datatypes.JSONMap{
			"reason":    "order_not_found",
			"order_ref": f.orderRef,
		})
		return nil
	default:
		logctx.FromCtx(ctx, r.log).Errorw("webhook_order_update_failed", "event_id", res.EventID, "order_ref", f.orderRef, "err", err)
		r.record(ctx, res, models.WebhookLogStepOrderUpdateFailed, models.WebhookLogStatusFailed, datatypes.JSONMap{
			"order_ref": f.orderRef,
			"error":     err.Error(),
		})
		// leave the event claimable so the provider's redelivery is processed
		if merr := r.events.MarkFailed(ctx, res.EventID, err.Error()); merr != nil {
			// still processing: redeliveries will be acked as duplicates until an operator steps in
			logctx.FromCtx(ctx, r.log).Errorw("webhook_event_mark_failed_failed", "event_id", res.EventID, "err", merr)
			r.record(ctx, res, models.WebhookLogStepEventStuck, models.WebhookLogStatusReview, datatypes.JSONMap{
				"order_ref":    f.orderRef,
				"order_error":  err.Error(),
				"status_error": merr.Error(),
			})
		}
		metrics.IncWebhookEvent(res.EventType, "order_update_failed")
		return fmt.Errorf("%w: %v", ErrOrderUpdate, err)
	}
}

func (r *Reconciler) recordPayment(ctx context.Context, res *Result, f *paymentFacts, orderID string) {
	p := &models.Payment{
		PaymentIntentID:   lo.EmptyableToPtr(f.paymentIntentID),
		CheckoutSessionID: lo.EmptyableToPtr(f.sessionID),
		OrderID:           lo.EmptyableToPtr(orderID),
		Amount:            f.amount,
		Currency:          f.currency,
		Status:            f.status,
		CustomerEmail:     f.email,
		Metadata:          lo.MapValues(f.metadata, func(v string, _ string) any { return v }),
		EventID:           res.EventID,
	}
	if err := r.payments.Upsert(ctx, p); err != nil {
		// payment ledger is bookkeeping only; the order transition already stands
		logctx.FromCtx(ctx, r.log).Errorw("webhook_payment_record_failed", "event_id", res.EventID, "err", err)
		r.record(ctx, res, models.WebhookLogStepPaymentRecordFailed, models.WebhookLogStatusFailed, datatypes.JSONMap{"error": err.Error()})
		return
	}
	res.PaymentRecorded = true
	r.record(ctx, res, models.WebhookLogStepPaymentRecorded, models.WebhookLogStatusOK, datatypes.JSONMap{"payment_intent_id": f.paymentIntentID})
}

func (r *Reconciler) invoiceRequest(ctx context.Context, res *Result, f *paymentFacts) *invoice.InvoiceRequest {
	req := &invoice.InvoiceRequest{
		OrderID:  res.OrderID,
		Customer: invoice.Customer{Name: f.name, Email: f.email},
		Currency: f.currency,
	}
	o, err := r.orders.Get(ctx, res.OrderID)
	if err != nil {
		logctx.FromCtx(ctx, r.log).Warnw("webhook_order_reload_failed", "order_id", res.OrderID, "err", err)
		req.Items = []invoice.Item{{Description: "Fuel order " + res.OrderID, Quantity: 1, UnitPrice: f.amount}}
		return req
	}
	req.Customer.Name = lo.CoalesceOrEmpty(o.CustomerName, f.name)
	req.Customer.Email = lo.CoalesceOrEmpty(o.CustomerEmail, f.email)
	req.Customer.Address = strings.Join(lo.Compact([]string{o.AddressLine1, o.AddressLine2, o.City, o.Postcode}), ", ")
	req.Currency = lo.CoalesceOrEmpty(o.Currency, f.currency)
	req.Items = []invoice.Item{{
		Description: fmt.Sprintf("%s delivery on %s", o.FuelType.Label(), o.DeliveryDate.Format(time.DateOnly)),
		Quantity:    o.QuantityLitres,
		UnitPrice:   o.UnitPrice,
	}}
	return req
}

func (r *Reconciler) notify(ctx context.Context, res *Result, f *paymentFacts) {
	if r.notifier == nil {
		return
	}
	req := r.invoiceRequest(ctx, res, f)

	nctx, cancel := context.WithTimeout(ctx, r.notifyTimeout)
	defer cancel()
	if err := r.notifier.Notify(nctx, req); err != nil {
		// the payment is reconciled; a redelivery would not help the email
		logctx.FromCtx(ctx, r.log).Warnw("webhook_notify_failed", "event_id", res.EventID, "order_id", res.OrderID, "err", err)
		r.record(ctx, res, models.WebhookLogStepNotifyFailed, models.WebhookLogStatusFailed, datatypes.JSONMap{"error": err.Error()})
		return
	}
	res.Notified = true
	r.record(ctx, res, models.WebhookLogStepNotified, models.WebhookLogStatusOK, nil)
}

func (r *Reconciler) finish(ctx context.Context, res *Result, outcome string) {
	if err := r.events.MarkProcessed(ctx, res.EventID); err != nil {
		logctx.FromCtx(ctx, r.log).Errorw("webhook_event_mark_processed_failed", "event_id", res.EventID, "err", err)
	}
	r.record(ctx, res, models.WebhookLogStepHandled, models.WebhookLogStatusOK, datatypes.JSONMap{"outcome": outcome})
	metrics.IncWebhookEvent(res.EventType, outcome)
	logctx.FromCtx(ctx, r.log).Infow("webhook_event_handled", "event_id", res.EventID, "outcome", outcome, "order_id", res.OrderID)
}

// record appends an audit row. Audit failures are logged by the recorder and
// never change the delivery outcome.
func (r *Reconciler) record(ctx context.Context, res *Result, step models.WebhookLogStep, status models.WebhookLogStatus, detail datatypes.JSONMap) {
	if r.audit == nil {
		return
	}
	_ = r.audit.Record(ctx, &models.WebhookLog{
		EventID:   res.EventID,
		EventType: res.EventType,
		OrderID:   lo.EmptyableToPtr(res.OrderID),
		Step:      step,
		Status:    status,
		Detail:    detail,
	})
}
