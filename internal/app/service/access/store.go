package access

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fuelflow/fuelflow/internal/models"
)

// Membership answers the three independent gate lookups. Emails are already normalized.
type Membership interface {
	IsBlocked(ctx context.Context, email string) (bool, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	IsAllowed(ctx context.Context, email string) (bool, error)
}

// Store is Membership plus the idempotent set-membership toggles.
type Store interface {
	Membership
	SetAllowed(ctx context.Context, email, actor string, on bool) error
	SetBlocked(ctx context.Context, email, reason, actor string, on bool) error
	SetAdmin(ctx context.Context, email, actor string, on bool) error
}

type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db, now: time.Now} }

func (s *GormStore) exists(ctx context.Context, model any, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(model).Where("email = ?", email).Limit(1).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("membership lookup: %w", err)
	}
	return n > 0, nil
}

func (s *GormStore) IsBlocked(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, &models.BlockedUser{}, email)
}

func (s *GormStore) IsAdmin(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, &models.AdminUser{}, email)
}

func (s *GormStore) IsAllowed(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, &models.AllowedUser{}, email)
}

func (s *GormStore) toggle(ctx context.Context, row any, model any, email string, on bool) error {
	db := s.db.WithContext(ctx)
	if on {
		return db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	}
	return db.Where("email = ?", email).Delete(model).Error
}

func (s *GormStore) SetAllowed(ctx context.Context, email, actor string, on bool) error {
	row := &models.AllowedUser{Email: email, CreatedBy: actor, CreatedAt: s.now()}
	return s.toggle(ctx, row, &models.AllowedUser{}, email, on)
}

func (s *GormStore) SetBlocked(ctx context.Context, email, reason, actor string, on bool) error {
	row := &models.BlockedUser{Email: email, Reason: reason, CreatedBy: actor, CreatedAt: s.now()}
	return s.toggle(ctx, row, &models.BlockedUser{}, email, on)
}

func (s *GormStore) SetAdmin(ctx context.Context, email, actor string, on bool) error {
	row := &models.AdminUser{Email: email, CreatedBy: actor, CreatedAt: s.now()}
	return s.toggle(ctx, row, &models.AdminUser{}, email, on)
}

var _ Store = (*GormStore)(nil)
