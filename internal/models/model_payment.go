package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment is the reconciliation record of a provider payment attempt.
// PaymentIntentID is the upsert key; rows without one are insert-only.
type Payment struct {
	ID                string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	PaymentIntentID   *string           `gorm:"column:payment_intent_id;type:varchar(255);uniqueIndex:ux_payments_payment_intent_id" json:"payment_intent_id"`
	CheckoutSessionID *string           `gorm:"column:checkout_session_id;type:varchar(255);index" json:"checkout_session_id"`
	OrderID           *string           `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	Amount            int64             `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency          string            `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Status            string            `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CustomerEmail     string            `gorm:"column:customer_email;type:varchar(320)" json:"customer_email"`
	Metadata          datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`
	EventID           string            `gorm:"column:event_id;type:varchar(255)" json:"event_id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
