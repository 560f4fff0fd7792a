package notification_log

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/tool"
	"github.com/fuelflow/fuelflow/pkg/types"
)

// Recorder appends webhook audit rows.
type Recorder interface {
	Record(ctx context.Context, entry *models.WebhookLog) error
}

type ScanWebhookLogsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortOrder string                `json:"sort_order"`
}

type ScanWebhookLogsResponse struct {
	Items []*models.WebhookLog `json:"items"`
	Total int64                `json:"total"`
}

var ScanFields = []string{"event_id", "event_type", "order_id", "step", "status", "trace_id", "created_at"}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Record persists one audit row synchronously so the caller sees the outcome.
// The trace id is taken from ctx when the entry has none.
func (s *Service) Record(ctx context.Context, entry *models.WebhookLog) error {
	if entry == nil {
		return errors.New("nil webhook log")
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	if entry.TraceID == "" {
		entry.TraceID = logctx.TraceID(ctx)
	}
	if entry.Status == "" {
		entry.Status = models.WebhookLogStatusOK
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("webhook_log_save_failed", "event_id", entry.EventID, "step", entry.Step, "err", err)
		return fmt.Errorf("failed to save webhook log: %w", err)
	}
	return nil
}

// Scan lists audit rows newest first unless sort_order is asc.
func (s *Service) Scan(ctx context.Context, req *ScanWebhookLogsRequest) (*ScanWebhookLogsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(req.Filters, ScanFields); err != nil {
		return nil, err
	}
	req.Size = types.ClampPageSize(req.Size, 20)
	req.From = max(req.From, 0)

	tx := s.db.WithContext(ctx).Model(&models.WebhookLog{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count webhook logs: %w", err)
	}
	var rows []*models.WebhookLog
	err := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "created_at"}, Desc: req.SortOrder != "asc"},
			{Column: clause.Column{Name: "id"}, Desc: req.SortOrder != "asc"},
		}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook logs: %w", err)
	}
	return &ScanWebhookLogsResponse{Items: rows, Total: total}, nil
}

var _ Recorder = (*Service)(nil)
