package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookLogStep string

const (
	WebhookLogStepReceived            WebhookLogStep = "received"
	WebhookLogStepDuplicate           WebhookLogStep = "duplicate"
	WebhookLogStepIgnored             WebhookLogStep = "ignored"
	WebhookLogStepOrphan              WebhookLogStep = "orphan"
	WebhookLogStepOrderPaid           WebhookLogStep = "order_paid"
	WebhookLogStepOrderUpdateFailed   WebhookLogStep = "order_update_failed"
	WebhookLogStepPaymentRecorded     WebhookLogStep = "payment_recorded"
	WebhookLogStepPaymentRecordFailed WebhookLogStep = "payment_record_failed"
	WebhookLogStepNotified            WebhookLogStep = "notified"
	WebhookLogStepNotifyFailed        WebhookLogStep = "notify_failed"
	WebhookLogStepHandled             WebhookLogStep = "handled"
	WebhookLogStepAwaitingPayment     WebhookLogStep = "awaiting_payment"
	// WebhookLogStepEventStuck marks an event that could not be released for redelivery
	WebhookLogStepEventStuck          WebhookLogStep = "event_stuck"
)

type WebhookLogStatus string

const (
	WebhookLogStatusOK     WebhookLogStatus = "ok"
	WebhookLogStatusFailed WebhookLogStatus = "failed"
	// WebhookLogStatusReview flags a row for manual operator review
	WebhookLogStatusReview WebhookLogStatus = "review"
)

// WebhookLog is the append-only audit trail of webhook processing, one row per step outcome.
type WebhookLog struct {
	ID        string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TraceID   string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	EventID   string            `gorm:"column:event_id;type:varchar(255);index" json:"event_id"`
	EventType string            `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	OrderID   *string           `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	Step      WebhookLogStep    `gorm:"column:step;type:varchar(64);not null" json:"step"`
	Status    WebhookLogStatus  `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	Detail    datatypes.JSONMap `gorm:"column:detail;type:jsonb" json:"detail"`
	CreatedAt time.Time         `json:"created_at"`
}

func (WebhookLog) TableName() string { return "webhook_logs" }
