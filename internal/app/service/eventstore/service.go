package eventstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/types"
)

// ErrDuplicateEvent is returned by Insert when the event id was already recorded.
var ErrDuplicateEvent = errors.New("duplicate provider event")

// Store records every inbound provider event exactly once.
type Store interface {
	Has(ctx context.Context, eventID string) (bool, error)
	Insert(ctx context.Context, eventID, eventType string, payload []byte) error
	Claim(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID, reason string) error
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

func (s *Service) Has(ctx context.Context, eventID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ProviderEvent{}).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up provider event: %w", err)
	}
	return n > 0, nil
}

// Insert atomically records the event in status processing. The primary key
// is the duplicate signal: a conflicting insert affects no rows.
func (s *Service) Insert(ctx context.Context, eventID, eventType string, payload []byte) error {
	if eventID == "" {
		return errors.New("event id is empty")
	}
	ev := &models.ProviderEvent{
		EventID:    eventID,
		Provider:   string(types.PaymentProviderStripe),
		EventType:  eventType,
		Payload:    datatypes.JSON(payload),
		Status:     models.ProviderEventStatusProcessing,
		ReceivedAt: s.now(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
	if res.Error != nil {
		return fmt.Errorf("failed to insert provider event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicateEvent
	}
	return nil
}

// Claim moves a failed event back to processing. Only one concurrent caller wins.
func (s *Service) Claim(ctx context.Context, eventID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ProviderEvent{}).
		Where("event_id = ? AND status = ?", eventID, models.ProviderEventStatusFailed).
		Updates(map[string]any{
			"status":     models.ProviderEventStatusProcessing,
			"last_error": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim provider event: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logctx.FromCtx(ctx, s.log).Infow("provider_event_reclaimed", "event_id", eventID)
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) MarkProcessed(ctx context.Context, eventID string) error {
	return s.setStatus(ctx, eventID, map[string]any{
		"status":       models.ProviderEventStatusProcessed,
		"processed_at": s.now(),
		"last_error":   nil,
	})
}

func (s *Service) MarkFailed(ctx context.Context, eventID, reason string) error {
	return s.setStatus(ctx, eventID, map[string]any{
		"status":     models.ProviderEventStatusFailed,
		"last_error": reason,
	})
}

func (s *Service) setStatus(ctx context.Context, eventID string, values map[string]any) error {
	err := s.db.WithContext(ctx).Model(&models.ProviderEvent{}).Where("event_id = ?", eventID).Updates(values).Error
	if err != nil {
		return fmt.Errorf("failed to update provider event %s: %w", eventID, err)
	}
	return nil
}

var _ Store = (*Service)(nil)
