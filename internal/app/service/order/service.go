package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/stripe"
	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/tool"
	"github.com/fuelflow/fuelflow/pkg/types"
)

const maxQuantityLitres = 100_000

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidOrder        = errors.New("invalid order")
	ErrCheckoutUnavailable = errors.New("checkout session could not be created")
)

// CheckoutCreator opens a hosted checkout for an order.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.SugaredLogger
	checkout CheckoutCreator
	now      func() time.Time
}

func New(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, checkout CheckoutCreator) *Service {
	return &Service{cfg: cfg, db: db, log: log, checkout: checkout, now: time.Now}
}

func (s *Service) validate(req *CreateOrderRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidOrder)
	}
	switch {
	case req.CustomerEmail == "":
		return fmt.Errorf("%w: customer email is required", ErrInvalidOrder)
	case !req.FuelType.Valid():
		return fmt.Errorf("%w: unsupported fuel type %q", ErrInvalidOrder, req.FuelType)
	case req.QuantityLitres <= 0 || req.QuantityLitres > maxQuantityLitres:
		return fmt.Errorf("%w: quantity must be between 1 and %d litres", ErrInvalidOrder, maxQuantityLitres)
	case strings.TrimSpace(req.AddressLine1) == "" || strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.Postcode) == "":
		return fmt.Errorf("%w: delivery address is incomplete", ErrInvalidOrder)
	case req.DeliveryDate.IsZero():
		return fmt.Errorf("%w: delivery date is required", ErrInvalidOrder)
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if req.DeliveryDate.UTC().Before(today) {
		return fmt.Errorf("%w: delivery date is in the past", ErrInvalidOrder)
	}
	return nil
}

// Create persists a pending order. The total is fixed here and never rewritten.
func (s *Service) Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	price, err := s.cfg.GetFuelPrice(req.FuelType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	o := &models.Order{
		ID:             tool.GenerateUUIDV7(),
		CustomerEmail:  types.NormalizeEmail(req.CustomerEmail),
		CustomerName:   strings.TrimSpace(req.CustomerName),
		FuelType:       req.FuelType,
		QuantityLitres: req.QuantityLitres,
		UnitPrice:      price.UnitPrice,
		TotalPrice:     price.UnitPrice * req.QuantityLitres,
		Currency:       s.cfg.Currency,
		AddressLine1:   strings.TrimSpace(req.AddressLine1),
		AddressLine2:   strings.TrimSpace(req.AddressLine2),
		City:           strings.TrimSpace(req.City),
		Postcode:       strings.ToUpper(strings.TrimSpace(req.Postcode)),
		DeliveryDate:   req.DeliveryDate.UTC(),
		Status:         types.OrderStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

// Place creates the order and its hosted checkout session. When the session
// cannot be created the pending order is still returned with ErrCheckoutUnavailable.
func (s *Service) Place(ctx context.Context, req *CreateOrderRequest) (*PlaceOrderResult, error) {
	o, err := s.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &PlaceOrderResult{Order: o}

	session, err := s.checkout.CreateCheckoutSession(ctx, &stripe.CheckoutSessionParams{
		CustomerEmail: o.CustomerEmail,
		Currency:      o.Currency,
		SuccessURL:    s.cfg.Stripe.SuccessURL,
		CancelURL:     s.cfg.Stripe.CancelURL,
		LineItems: []stripe.CheckoutLineItem{{
			Name:      fmt.Sprintf("%s delivery (%d L)", o.FuelType.Label(), o.QuantityLitres),
			Quantity:  1,
			UnitPrice: o.TotalPrice,
		}},
		Metadata: map[string]string{
			"order_id":       o.ID,
			"customer_email": o.CustomerEmail,
			"customer_name":  o.CustomerName,
			"fuel_type":      string(o.FuelType),
		},
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("checkout_session_create_failed", "order_id", o.ID, "err", err)
		return result, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	if err := s.AttachCheckoutSession(ctx, o.ID, session.ID); err != nil {
		return result, err
	}
	o.CheckoutSessionID = &session.ID
	o.Status = types.OrderStatusOrdered
	result.CheckoutURL = session.URL
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// AttachCheckoutSession records the session and moves a pending order to ordered.
func (s *Service) AttachCheckoutSession(ctx context.Context, id, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, types.OrderStatusPaid).
		Updates(map[string]any{
			"checkout_session_id": sessionID,
			"status":              types.OrderStatusOrdered,
			"updated_at":          s.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to attach checkout session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkPaid is an unconditional last-write-wins transition to paid. Only the
// status columns are written so totals stay untouched.
func (s *Service) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     types.OrderStatusPaid,
			"paid_at":    paidAt,
			"updated_at": s.now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Scan implements paginated/admin listing with filters
func (s *Service) Scan(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error) {
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

	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	var rows []*models.Order
	q := tx.Limit(req.Size).Offset(req.From).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &ScanOrdersResponse{Items: rows, Total: total}, nil
}
