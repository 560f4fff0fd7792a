package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProviderEventStatus string

const (
	ProviderEventStatusProcessing ProviderEventStatus = "processing"
	ProviderEventStatusProcessed  ProviderEventStatus = "processed"
	ProviderEventStatusFailed     ProviderEventStatus = "failed"
)

// ProviderEvent is the idempotency record of an inbound provider event. The
// primary key on EventID is the duplicate-delivery guard.
type ProviderEvent struct {
	EventID     string              `gorm:"column:event_id;type:varchar(255);primary_key" json:"event_id"`
	Provider    string              `gorm:"column:provider;type:varchar(64);not null" json:"provider"`
	EventType   string              `gorm:"column:event_type;type:varchar(128);not null;index" json:"event_type"`
	Payload     datatypes.JSON      `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	Status      ProviderEventStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	LastError   *string             `gorm:"column:last_error;type:text" json:"last_error"`
	ReceivedAt  time.Time           `gorm:"column:received_at;not null" json:"received_at"`
	ProcessedAt *time.Time          `gorm:"column:processed_at;default:null" json:"processed_at"`
}

func (ProviderEvent) TableName() string { return "provider_events" }
