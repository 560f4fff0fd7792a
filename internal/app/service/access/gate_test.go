package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/pkg/config"
)

type memberSets struct {
	blocked, admin, allowed map[string]bool
	err                     error
	calls                   []string
}

func (m *memberSets) IsBlocked(_ context.Context, email string) (bool, error) {
	m.calls = append(m.calls, "blocked")
	return m.blocked[email], m.err
}

func (m *memberSets) IsAdmin(_ context.Context, email string) (bool, error) {
	m.calls = append(m.calls, "admin")
	return m.admin[email], m.err
}

func (m *memberSets) IsAllowed(_ context.Context, email string) (bool, error) {
	m.calls = append(m.calls, "allowed")
	return m.allowed[email], m.err
}

func testAccessConfig() *config.Config {
	return &config.Config{Access: config.AccessConfig{
		AdminPrefixes:    []string{"/admin-dashboard", "/api/v1/admin"},
		CustomerPrefixes: []string{"/client-dashboard", "/api/v1/orders"},
		SignInPath:       "/sign-in",
		BlockedPath:      "/blocked",
		PendingPath:      "/pending-approval",
		ForbiddenPath:    "/",
		ErrorPath:        "/error",
	}}
}

func newTestGate(m Membership) *Gate {
	return NewGate(testAccessConfig(), m, zap.NewNop().Sugar())
}

func TestClassify(t *testing.T) {
	g := newTestGate(&memberSets{})
	require.Equal(t, RouteAdmin, g.Classify("/admin-dashboard"))
	require.Equal(t, RouteAdmin, g.Classify("/api/v1/admin/list_orders"))
	require.Equal(t, RouteCustomer, g.Classify("/client-dashboard/orders/1"))
	require.Equal(t, RoutePublic, g.Classify("/client-dashboardx"))
	require.Equal(t, RoutePublic, g.Classify("/"))
}

func TestDecide_BlockListWinsOverAllowList(t *testing.T) {
	m := &memberSets{
		blocked: map[string]bool{"blocked@x.com": true},
		allowed: map[string]bool{"blocked@x.com": true},
		admin:   map[string]bool{"blocked@x.com": true},
	}
	g := newTestGate(m)

	for _, path := range []string{"/client-dashboard", "/admin-dashboard"} {
		d, err := g.Decide(context.Background(), "Blocked@X.com", path)
		require.NoError(t, err)
		require.Equal(t, OutcomeBlocked, d.Outcome, path)
		require.False(t, d.Allowed)
		require.True(t, d.SignOut)
		require.Equal(t, "/blocked", d.RedirectTo)
	}
}

func TestDecide_AdminOnly(t *testing.T) {
	g := newTestGate(&memberSets{admin: map[string]bool{"admin@x.com": true}})

	d, err := g.Decide(context.Background(), "admin@x.com", "/admin-dashboard")
	require.NoError(t, err)
	require.Equal(t, OutcomeAdminOK, d.Outcome)
	require.True(t, d.Allowed)

	// admin membership does not approve customer routes
	d, err = g.Decide(context.Background(), "admin@x.com", "/client-dashboard")
	require.NoError(t, err)
	require.Equal(t, OutcomePending, d.Outcome)
	require.Equal(t, "/pending-approval", d.RedirectTo)
}

func TestDecide_CustomerRoutes(t *testing.T) {
	m := &memberSets{allowed: map[string]bool{"jo@x.com": true}}
	g := newTestGate(m)

	d, err := g.Decide(context.Background(), "jo@x.com", "/client-dashboard")
	require.NoError(t, err)
	require.Equal(t, OutcomeApproved, d.Outcome)
	require.Equal(t, []string{"blocked", "allowed"}, m.calls)

	d, err = g.Decide(context.Background(), "jo@x.com", "/admin-dashboard")
	require.NoError(t, err)
	require.Equal(t, OutcomeForbidden, d.Outcome)
	require.Equal(t, "/", d.RedirectTo)
}

func TestDecide_UnauthenticatedAndPublic(t *testing.T) {
	m := &memberSets{}
	g := newTestGate(m)

	d, err := g.Decide(context.Background(), "", "/client-dashboard")
	require.NoError(t, err)
	require.Equal(t, OutcomeUnauthenticated, d.Outcome)
	require.Equal(t, "/sign-in", d.RedirectTo)

	d, err = g.Decide(context.Background(), "", "/pricing")
	require.NoError(t, err)
	require.Equal(t, OutcomePublic, d.Outcome)
	require.True(t, d.Allowed)
	require.Empty(t, m.calls, "no lookups for anonymous or public requests")
}

func TestDecide_FailsClosed(t *testing.T) {
	g := newTestGate(&memberSets{err: errors.New("connection refused"), allowed: map[string]bool{"jo@x.com": true}})

	for _, path := range []string{"/client-dashboard", "/admin-dashboard"} {
		d, err := g.Decide(context.Background(), "jo@x.com", path)
		require.ErrorIs(t, err, ErrLookup)
		require.Equal(t, OutcomeError, d.Outcome)
		require.False(t, d.Allowed)
		require.Equal(t, "/error", d.RedirectTo)
	}
}

func TestDecideRoute_KindDoesNotDependOnPrefixes(t *testing.T) {
	cfg := testAccessConfig()
	cfg.Access.AdminPrefixes = []string{"/admin-dashboard"}
	cfg.Access.CustomerPrefixes = []string{"/client-dashboard"}
	m := &memberSets{admin: map[string]bool{"boss@x.com": true}, allowed: map[string]bool{"jo@x.com": true}}
	g := NewGate(cfg, m, zap.NewNop().Sugar())
	ctx := context.Background()

	d, err := g.Decide(ctx, "", "/api/v1/admin/users/approve")
	require.NoError(t, err)
	require.Equal(t, OutcomePublic, d.Outcome, "path-based classification follows config")

	d, err = g.DecideRoute(ctx, "", "/api/v1/admin/users/approve", RouteAdmin)
	require.NoError(t, err)
	require.Equal(t, OutcomeUnauthenticated, d.Outcome)
	require.False(t, d.Allowed)

	d, err = g.DecideRoute(ctx, "jo@x.com", "/api/v1/admin/users/approve", RouteAdmin)
	require.NoError(t, err)
	require.Equal(t, OutcomeForbidden, d.Outcome)

	d, err = g.DecideRoute(ctx, "boss@x.com", "/api/v1/admin/users/approve", RouteAdmin)
	require.NoError(t, err)
	require.Equal(t, OutcomeAdminOK, d.Outcome)

	d, err = g.DecideRoute(ctx, "jo@x.com", "/api/v1/orders", RouteCustomer)
	require.NoError(t, err)
	require.Equal(t, OutcomeApproved, d.Outcome)
}
