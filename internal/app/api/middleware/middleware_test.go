package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/internal/app/service/access"
	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/response"
)

func init() { gin.SetMode(gin.TestMode) }

func newSessions(secret string) *Sessions {
	return NewSessions(&config.Config{Session: config.SessionConfig{JWTSecret: secret, CookieName: "fuelflow_session"}}, zap.NewNop().Sugar())
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(zap.NewNop().Sugar()))
	var fromCtx string
	r.GET("/x", func(c *gin.Context) {
		fromCtx = logctx.TraceID(c.Request.Context())
		require.NotNil(t, logctx.FromGin(c, nil))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	r.ServeHTTP(w, req)
	require.Equal(t, "req-123", fromCtx)
	require.Equal(t, "req-123", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, fromCtx)
	require.NotEqual(t, "req-123", fromCtx)
}

func TestSessions_IssueAndParse(t *testing.T) {
	s := newSessions("s3cret")
	token, err := s.Issue(" Jo@Example.com ", time.Hour, time.Now())
	require.NoError(t, err)

	email, err := s.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "jo@example.com", email)

	_, err = newSessions("other").Parse(token)
	require.ErrorIs(t, err, ErrInvalidSession)

	expired, err := s.Issue("jo@example.com", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = s.Parse(expired)
	require.ErrorIs(t, err, ErrInvalidSession)

	_, err = newSessions("").Parse(token)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionMiddleware(t *testing.T) {
	s := newSessions("s3cret")
	token, err := s.Issue("jo@example.com", time.Hour, time.Now())
	require.NoError(t, err)

	r := gin.New()
	r.Use(SessionMiddleware(s))
	var got string
	r.GET("/me", func(c *gin.Context) { got = UserEmail(c) })

	cases := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "jo@example.com"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "fuelflow_session", Value: token}) }, "jo@example.com"},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"anonymous", func(*http.Request) {}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = "unset"
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			r.ServeHTTP(httptest.NewRecorder(), req)
			require.Equal(t, tc.want, got)
		})
	}
}

type stubDecider struct {
	d   *access.Decision
	err error
}

func (s stubDecider) DecideRoute(context.Context, string, string, access.RouteKind) (*access.Decision, error) {
	return s.d, s.err
}

func TestGateMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		decider    stubDecider
		wantStatus int
		wantCode   response.APIResponseCode
		wantCookie bool
	}{
		{"approved", stubDecider{d: &access.Decision{Outcome: access.OutcomeApproved, Allowed: true}}, http.StatusOK, response.APIResponseCodeOK, false},
		{"unauthenticated", stubDecider{d: &access.Decision{Outcome: access.OutcomeUnauthenticated, RedirectTo: "/sign-in"}}, http.StatusUnauthorized, response.APIResponseCodeUnauthorized, false},
		{"pending", stubDecider{d: &access.Decision{Outcome: access.OutcomePending, RedirectTo: "/pending-approval"}}, http.StatusForbidden, response.APIResponseCodeForbidden, false},
		{"blocked", stubDecider{d: &access.Decision{Outcome: access.OutcomeBlocked, RedirectTo: "/blocked", SignOut: true}}, http.StatusForbidden, response.APIResponseCodeForbidden, true},
		{"lookup error", stubDecider{d: &access.Decision{Outcome: access.OutcomeError, RedirectTo: "/error"}, err: errors.New("db down")}, http.StatusServiceUnavailable, response.APIResponseCodeUnavailable, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(GateMiddleware(tc.decider, newSessions("s3cret"), access.RouteCustomer))
			r.GET("/client-dashboard", func(c *gin.Context) {
				c.JSON(http.StatusOK, response.OKT("in"))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/client-dashboard", nil))
			require.Equal(t, tc.wantStatus, w.Code)

			var body response.APIResponse[json.RawMessage]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tc.wantCode, body.Code)
			if !tc.decider.d.Allowed {
				var d access.Decision
				require.NoError(t, json.Unmarshal(body.Data, &d))
				require.Equal(t, tc.decider.d.RedirectTo, d.RedirectTo)
			}

			cleared := false
			for _, ck := range w.Result().Cookies() {
				if ck.Name == "fuelflow_session" && ck.MaxAge < 0 {
					cleared = true
				}
			}
			require.Equal(t, tc.wantCookie, cleared)
		})
	}
}

type adminSet map[string]bool

func (adminSet) IsBlocked(context.Context, string) (bool, error) { return false, nil }
func (a adminSet) IsAdmin(_ context.Context, e string) (bool, error) { return a[e], nil }
func (adminSet) IsAllowed(context.Context, string) (bool, error) { return false, nil }

func TestGateMiddleware_MountedKindIgnoresPrefixes(t *testing.T) {
	// prefixes list page routes only; the admin API must stay protected
	cfg := &config.Config{Access: config.AccessConfig{
		AdminPrefixes:    []string{"/admin-dashboard"},
		CustomerPrefixes: []string{"/client-dashboard"},
		SignInPath:       "/sign-in",
		ForbiddenPath:    "/",
	}}
	gate := access.NewGate(cfg, adminSet{"boss@x.com": true}, zap.NewNop().Sugar())
	require.Equal(t, access.RoutePublic, gate.Classify("/api/v1/admin/users/approve"))

	s := newSessions("s3cret")
	r := gin.New()
	r.Use(SessionMiddleware(s))
	admin := r.Group("/api/v1/admin")
	admin.Use(GateMiddleware(gate, s, access.RouteAdmin))
	admin.POST("/users/approve", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT("approved"))
	})

	call := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/approve", nil)
		if email != "" {
			token, err := s.Issue(email, time.Hour, time.Now())
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusUnauthorized, call(""))
	require.Equal(t, http.StatusForbidden, call("jo@x.com"))
	require.Equal(t, http.StatusOK, call("boss@x.com"))
}
