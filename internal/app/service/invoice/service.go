package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/internal/platform/mailer"
	"github.com/fuelflow/fuelflow/internal/platform/pdf"
	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/metrics"
	"github.com/fuelflow/fuelflow/pkg/tool"
	"github.com/fuelflow/fuelflow/pkg/types"
)

var (
	ErrMailerDisabled = errors.New("invoice email is not configured")
	ErrInvalidRequest = errors.New("invalid invoice request")
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

type Item struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

type InvoiceRequest struct {
	OrderID  string   `json:"order_id"`
	Customer Customer `json:"customer"`
	Items    []Item   `json:"items"`
	Currency string   `json:"currency"`
}

// Notifier is the downstream "create invoice and email it" collaborator. The
// returned error is informational; callers decide whether to ignore it.
type Notifier interface {
	Notify(ctx context.Context, req *InvoiceRequest) error
}

type mailSender interface {
	mailer.Sender
	Enabled() bool
}

type Service struct {
	cfg      *config.Config
	db       *gorm.DB
	log      *zap.SugaredLogger
	renderer pdf.Renderer
	mail     mailSender
	now      func() time.Time
}

func New(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, renderer pdf.Renderer, mail *mailer.SMTPMailer) *Service {
	return &Service{cfg: cfg, db: db, log: log, renderer: renderer, mail: mail, now: time.Now}
}

func validate(req *InvoiceRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if req.OrderID == "" || strings.TrimSpace(req.Customer.Email) == "" {
		return fmt.Errorf("%w: order id and customer email are required", ErrInvalidRequest)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: no line items", ErrInvalidRequest)
	}
	return nil
}

// Notify issues the order's invoice and emails it. It is idempotent per order:
// an invoice already emailed is not sent again.
func (s *Service) Notify(ctx context.Context, req *InvoiceRequest) error {
	start := time.Now()
	defer metrics.ObserveBusinessProcess("invoice", "notify", start)

	if err := validate(req); err != nil {
		return err
	}
	inv, err := s.issue(ctx, req)
	if err != nil {
		return err
	}
	if inv.EmailedAt != nil {
		logctx.FromCtx(ctx, s.log).Infow("invoice_already_emailed", "order_id", inv.OrderID, "number", inv.Number)
		return nil
	}
	if !s.mail.Enabled() {
		return ErrMailerDisabled
	}

	items := inv.Items.Data()
	doc, err := s.renderer.RenderInvoice(&pdf.InvoiceData{
		Number:        inv.Number,
		IssueDate:     inv.CreatedAt.UTC().Format(time.DateOnly),
		SellerName:    s.cfg.Invoice.CompanyName,
		SellerAddress: s.cfg.Invoice.CompanyAddress,
		SellerEmail:   s.cfg.Invoice.CompanyEmail,
		BillToName:    inv.CustomerName,
		BillToEmail:   inv.CustomerEmail,
		BillToAddress: req.Customer.Address,
		Currency:      inv.Currency,
		Items: lo.Map(items, func(it models.InvoiceItem, _ int) pdf.InvoiceLine {
			return pdf.InvoiceLine{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		}),
		Total: inv.Total,
	})
	if err != nil {
		return fmt.Errorf("failed to render invoice %s: %w", inv.Number, err)
	}

	err = s.mail.Send(ctx, &mailer.Message{
		To:      inv.CustomerEmail,
		Subject: fmt.Sprintf("Your %s invoice %s", s.cfg.Invoice.CompanyName, inv.Number),
		TextBody: fmt.Sprintf("Hello %s,\n\nThank you for your payment of %s. Your invoice %s is attached.\n",
			lo.CoalesceOrEmpty(inv.CustomerName, "there"), pdf.FormatMinor(inv.Total, inv.Currency), inv.Number),
		Attachments: []mailer.Attachment{{Filename: inv.Number + ".pdf", ContentType: "application/pdf", Data: doc}},
	})
	if err != nil {
		if errors.Is(err, mailer.ErrDisabled) {
			return ErrMailerDisabled
		}
		return fmt.Errorf("failed to email invoice %s: %w", inv.Number, err)
	}

	emailedAt := s.now()
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("emailed_at", emailedAt).Error; err != nil {
		return fmt.Errorf("failed to stamp invoice %s emailed: %w", inv.Number, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("invoice_emailed", "order_id", inv.OrderID, "number", inv.Number)
	return nil
}

// issue creates the order's invoice or returns the existing one.
func (s *Service) issue(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error) {
	items := lo.Map(req.Items, func(it Item, _ int) models.InvoiceItem {
		return models.InvoiceItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	})
	now := s.now()
	id := tool.GenerateUUIDV7()
	inv := &models.Invoice{
		ID:            id,
		Number:        tool.InvoiceNumber(now, id),
		OrderID:       req.OrderID,
		CustomerEmail: types.NormalizeEmail(req.Customer.Email),
		CustomerName:  strings.TrimSpace(req.Customer.Name),
		Currency:      strings.ToUpper(lo.CoalesceOrEmpty(req.Currency, s.cfg.Currency)),
		Total:         lo.SumBy(items, func(it models.InvoiceItem) int64 { return it.Amount() }),
		Items:         datatypes.NewJSONType(items),
		CreatedAt:     now,
	}
	db := s.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).Create(inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	var stored models.Invoice
	if err := db.Where("order_id = ?", req.OrderID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return &stored, nil
}

// GetByOrder returns the invoice issued for an order.
func (s *Service) GetByOrder(ctx context.Context, orderID string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

var _ Notifier = (*Service)(nil)
