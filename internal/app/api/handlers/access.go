package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fuelflow/fuelflow/internal/app/api/middleware"
	"github.com/fuelflow/fuelflow/pkg/response"
)

// @Summary      Access decision
// @Description  Runs the approval gate for a page path on behalf of the signed-in user.
// @Description  Page middleware follows redirect_to when allowed is false; a blocked decision also clears the session cookie.
// @Tags         Access
// @Produce      json
// @Param        path query string true "Requested page path"
// @Success      200  {object}  handlers.RespAccessDecision
// @Router       /api/v1/access/decision [get]
func ApiAccessDecision(gate mw.Decider, sessions *mw.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		if path == "" || path[0] != '/' {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "path must be absolute"))
			return
		}
		d, err := gate.Decide(c.Request.Context(), mw.UserEmail(c), path)
		if d != nil && d.SignOut {
			sessions.ClearCookie(c)
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeUnavailable, d))
			return
		}
		c.JSON(http.StatusOK, response.OKT(d))
	}
}

func RegisterAccessRoutes(r gin.IRouter, gate mw.Decider, sessions *mw.Sessions) {
	r.GET("/decision", ApiAccessDecision(gate, sessions))
}
