package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/tool"
	"github.com/fuelflow/fuelflow/pkg/types"
)

// Ledger records observed payment attempts.
type Ledger interface {
	Upsert(ctx context.Context, p *models.Payment) error
}

type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

var ScanFields = []string{"payment_intent_id", "checkout_session_id", "order_id", "status", "currency", "customer_email", "created_at", "amount"}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Upsert writes the payment keyed on payment_intent_id. Rows without an
// intent id are plain inserts. Linkage columns are never cleared by a later
// event that lacks them.
func (s *Service) Upsert(ctx context.Context, p *models.Payment) error {
	if p == nil {
		return errors.New("nil payment")
	}
	if p.ID == "" {
		p.ID = tool.GenerateUUIDV7()
	}
	p.Currency = strings.ToUpper(p.Currency)
	p.CustomerEmail = types.NormalizeEmail(p.CustomerEmail)
	if p.PaymentIntentID != nil && *p.PaymentIntentID == "" {
		p.PaymentIntentID = nil
	}

	db := s.db.WithContext(ctx)
	if p.PaymentIntentID == nil {
		if err := db.Create(p).Error; err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return nil
	}

	set := clause.AssignmentColumns([]string{"amount", "currency", "status", "metadata", "event_id", "updated_at"})
	set = append(set, clause.Assignments(map[string]any{
		"order_id":            gorm.Expr("COALESCE(excluded.order_id, payments.order_id)"),
		"checkout_session_id": gorm.Expr("COALESCE(excluded.checkout_session_id, payments.checkout_session_id)"),
		"customer_email":      gorm.Expr("COALESCE(NULLIF(excluded.customer_email, ''), payments.customer_email)"),
	})...)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_intent_id"}},
		DoUpdates: set,
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment %s: %w", *p.PaymentIntentID, err)
	}
	return nil
}

func (s *Service) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).Where("payment_intent_id = ?", paymentIntentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Scan implements paginated/admin listing with filters
func (s *Service) Scan(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := types.ValidateFilters(req.Filters, ScanFields); err != nil {
		return nil, err
	}
	if req.SortBy != "" && !lo.Contains(ScanFields, req.SortBy) {
		return nil, fmt.Errorf("sort on field %q is not allowed", req.SortBy)
	}
	req.Size = types.ClampPageSize(req.Size, 10)
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	sortBy := lo.Ternary(req.SortBy == "", "created_at", req.SortBy)
	var rows []*models.Payment
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}

var _ Ledger = (*Service)(nil)
