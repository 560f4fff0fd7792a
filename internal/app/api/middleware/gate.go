package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelflow/fuelflow/internal/app/service/access"
	"github.com/fuelflow/fuelflow/pkg/response"
)

const KeyDecision = "accessDecision"

type Decider interface {
	Decide(ctx context.Context, email, path string) (*access.Decision, error)
}

var outcomeStatus = map[access.Outcome]struct {
	http int
	code response.APIResponseCode
}{
	access.OutcomeUnauthenticated: {http.StatusUnauthorized, response.APIResponseCodeUnauthorized},
	access.OutcomeBlocked:         {http.StatusForbidden, response.APIResponseCodeForbidden},
	access.OutcomeForbidden:       {http.StatusForbidden, response.APIResponseCodeForbidden},
	access.OutcomePending:         {http.StatusForbidden, response.APIResponseCodeForbidden},
	access.OutcomeError:           {http.StatusServiceUnavailable, response.APIResponseCodeUnavailable},
}

// RouteDecider decides for a route group whose kind is known at mount time.
type RouteDecider interface {
	DecideRoute(ctx context.Context, email, path string, route access.RouteKind) (*access.Decision, error)
}

// GateMiddleware enforces the approval gate for a group mounted as route.
// Denied requests are answered with the decision so clients can follow RedirectTo.
func GateMiddleware(gate RouteDecider, sessions *Sessions, route access.RouteKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := gate.DecideRoute(c.Request.Context(), UserEmail(c), c.Request.URL.Path, route)
		if err != nil {
			_ = c.Error(err)
		}
		if d == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeUnavailable, nil))
			return
		}
		if d.Allowed {
			c.Set(KeyDecision, d)
			c.Next()
			return
		}
		if d.SignOut {
			sessions.ClearCookie(c)
		}
		st, ok := outcomeStatus[d.Outcome]
		if !ok {
			st = outcomeStatus[access.OutcomeError]
		}
		c.AbortWithStatusJSON(st.http, response.ErrorT(st.code, d))
	}
}
