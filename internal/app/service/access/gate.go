package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/metrics"
	"github.com/fuelflow/fuelflow/pkg/types"
)

// ErrLookup wraps membership lookup failures; the gate fails closed on it.
var ErrLookup = errors.New("access: membership lookup failed")

type RouteKind string

const (
	RoutePublic   RouteKind = "public"
	RouteAdmin    RouteKind = "admin"
	RouteCustomer RouteKind = "customer"
)

type Outcome string

const (
	OutcomePublic          Outcome = "public"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeBlocked         Outcome = "blocked"
	OutcomeAdminOK         Outcome = "admin_ok"
	OutcomeForbidden       Outcome = "forbidden"
	OutcomeApproved        Outcome = "approved"
	OutcomePending         Outcome = "pending"
	OutcomeError           Outcome = "error"
)

// Allowed reports whether the request may proceed.
func (o Outcome) Allowed() bool {
	return o == OutcomePublic || o == OutcomeAdminOK || o == OutcomeApproved
}

type Decision struct {
	Email      string    `json:"email,omitempty"`
	Path       string    `json:"path"`
	Route      RouteKind `json:"route"`
	Outcome    Outcome   `json:"outcome"`
	Allowed    bool      `json:"allowed"`
	RedirectTo string    `json:"redirect_to,omitempty"`
	// SignOut asks the caller to end the session
	SignOut bool `json:"sign_out"`
}

type Gate struct {
	cfg     config.AccessConfig
	members Membership
	log     *zap.SugaredLogger
}

func NewGate(cfg *config.Config, members Membership, log *zap.SugaredLogger) *Gate {
	return &Gate{cfg: cfg.Access, members: members, log: log}
}

func matchPrefix(path, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Classify maps a request path onto a route kind. Admin prefixes win over customer ones.
func (g *Gate) Classify(path string) RouteKind {
	for _, p := range g.cfg.AdminPrefixes {
		if matchPrefix(path, p) {
			return RouteAdmin
		}
	}
	for _, p := range g.cfg.CustomerPrefixes {
		if matchPrefix(path, p) {
			return RouteCustomer
		}
	}
	return RoutePublic
}

// Decide runs the per-request state machine: unauthenticated, then block-list,
// then the admin list for admin routes or the allow-list for customer routes.
// A lookup error yields OutcomeError together with the error.
func (g *Gate) Decide(ctx context.Context, email, path string) (*Decision, error) {
	return g.DecideRoute(ctx, email, path, g.Classify(path))
}

// DecideRoute decides for a route whose kind is fixed where it is mounted,
// so the configured prefixes cannot turn a protected API group public.
func (g *Gate) DecideRoute(ctx context.Context, email, path string, route RouteKind) (*Decision, error) {
	d := &Decision{Email: types.NormalizeEmail(email), Path: path, Route: route}
	err := g.decide(ctx, d)
	d.Allowed = d.Outcome.Allowed()
	metrics.IncGateDecision(string(d.Route), string(d.Outcome))
	if err != nil {
		logctx.FromCtx(ctx, g.log).Errorw("gate_lookup_failed", "email", d.Email, "path", path, "err", err)
		return d, err
	}
	logctx.FromCtx(ctx, g.log).Debugw("gate_decision", "email", d.Email, "path", path, "route", d.Route, "outcome", d.Outcome)
	return d, nil
}

func (g *Gate) decide(ctx context.Context, d *Decision) error {
	if d.Route == RoutePublic {
		d.Outcome = OutcomePublic
		return nil
	}
	if d.Email == "" {
		d.Outcome, d.RedirectTo = OutcomeUnauthenticated, g.cfg.SignInPath
		return nil
	}

	fail := func(err error) error {
		d.Outcome, d.RedirectTo = OutcomeError, g.cfg.ErrorPath
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}

	blocked, err := g.members.IsBlocked(ctx, d.Email)
	if err != nil {
		return fail(err)
	}
	if blocked {
		d.Outcome, d.RedirectTo, d.SignOut = OutcomeBlocked, g.cfg.BlockedPath, true
		return nil
	}

	if d.Route == RouteAdmin {
		admin, err := g.members.IsAdmin(ctx, d.Email)
		if err != nil {
			return fail(err)
		}
		if admin {
			d.Outcome = OutcomeAdminOK
		} else {
			d.Outcome, d.RedirectTo = OutcomeForbidden, g.cfg.ForbiddenPath
		}
		return nil
	}

	// admin membership does not imply customer approval
	allowed, err := g.members.IsAllowed(ctx, d.Email)
	if err != nil {
		return fail(err)
	}
	if allowed {
		d.Outcome = OutcomeApproved
	} else {
		d.Outcome, d.RedirectTo = OutcomePending, g.cfg.PendingPath
	}
	return nil
}
