package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/types"
)

var ErrInvalidEmail = errors.New("access: invalid email")

type MembershipStatus struct {
	Email   string `json:"email"`
	Allowed bool   `json:"allowed"`
	Blocked bool   `json:"blocked"`
	Admin   bool   `json:"admin"`
}

// Service administers the allow-list, block-list and admin table.
type Service struct {
	store Store
	log   *zap.SugaredLogger
}

func NewService(store Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

func normalize(email string) (string, error) {
	e := types.NormalizeEmail(email)
	if e == "" || !strings.Contains(e, "@") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return e, nil
}

func (s *Service) apply(ctx context.Context, action, email, actor string, fn func(email, actor string) error) error {
	e, err := normalize(email)
	if err != nil {
		return err
	}
	actor = types.NormalizeEmail(actor)
	if err := fn(e, actor); err != nil {
		return fmt.Errorf("access %s %s: %w", action, e, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("access_membership_changed", "action", action, "email", e, "actor", actor)
	return nil
}

func (s *Service) Approve(ctx context.Context, email, actor string) error {
	return s.apply(ctx, "approve", email, actor, func(e, a string) error { return s.store.SetAllowed(ctx, e, a, true) })
}

func (s *Service) Revoke(ctx context.Context, email, actor string) error {
	return s.apply(ctx, "revoke", email, actor, func(e, a string) error { return s.store.SetAllowed(ctx, e, a, false) })
}

func (s *Service) Block(ctx context.Context, email, reason, actor string) error {
	return s.apply(ctx, "block", email, actor, func(e, a string) error { return s.store.SetBlocked(ctx, e, reason, a, true) })
}

func (s *Service) Unblock(ctx context.Context, email, actor string) error {
	return s.apply(ctx, "unblock", email, actor, func(e, a string) error { return s.store.SetBlocked(ctx, e, "", a, false) })
}

func (s *Service) GrantAdmin(ctx context.Context, email, actor string) error {
	return s.apply(ctx, "grant_admin", email, actor, func(e, a string) error { return s.store.SetAdmin(ctx, e, a, true) })
}

func (s *Service) RevokeAdmin(ctx context.Context, email, actor string) error {
	return s.apply(ctx, "revoke_admin", email, actor, func(e, a string) error { return s.store.SetAdmin(ctx, e, a, false) })
}

func (s *Service) Status(ctx context.Context, email string) (*MembershipStatus, error) {
	e, err := normalize(email)
	if err != nil {
		return nil, err
	}
	st := &MembershipStatus{Email: e}
	if st.Allowed, err = s.store.IsAllowed(ctx, e); err != nil {
		return nil, err
	}
	if st.Blocked, err = s.store.IsBlocked(ctx, e); err != nil {
		return nil, err
	}
	if st.Admin, err = s.store.IsAdmin(ctx, e); err != nil {
		return nil, err
	}
	return st, nil
}
