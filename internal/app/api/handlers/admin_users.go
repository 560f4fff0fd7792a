package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/fuelflow/fuelflow/internal/app/api/middleware"
	"github.com/fuelflow/fuelflow/internal/app/service/access"
	"github.com/fuelflow/fuelflow/pkg/response"
)

type MembershipAdmin interface {
	Approve(ctx context.Context, email, actor string) error
	Revoke(ctx context.Context, email, actor string) error
	Block(ctx context.Context, email, reason, actor string) error
	Unblock(ctx context.Context, email, actor string) error
	GrantAdmin(ctx context.Context, email, actor string) error
	RevokeAdmin(ctx context.Context, email, actor string) error
	Status(ctx context.Context, email string) (*access.MembershipStatus, error)
}

type MembershipRequest struct {
	Email  string `json:"email" binding:"required"`
	Reason string `json:"reason"`
}

func membershipAction(members MembershipAdmin, fn func(ctx context.Context, req *MembershipRequest, actor string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MembershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := fn(c.Request.Context(), &req, mw.UserEmail(c)); err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, access.ErrInvalidEmail) {
				code = response.APIResponseCodeBadRequest
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		status, err := members.Status(c.Request.Context(), req.Email)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(status))
	}
}

// @Summary      Manage Users (Admin)
// @Description  Toggles allow-list, block-list or admin membership for an email. Responds with the resulting status.
// @Description  Actions: approve, revoke, block, unblock, grant_admin, revoke_admin.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        action path string true "Membership action" Enums(approve, revoke, block, unblock, grant_admin, revoke_admin)
// @Param        request body handlers.MembershipRequest true "Target email and optional block reason"
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/admin/users/{action} [post]
func RegisterAdminUserRoutes(r gin.IRouter, members MembershipAdmin) {
	r.POST("/approve", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.Approve(ctx, req.Email, actor)
	}))
	r.POST("/revoke", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.Revoke(ctx, req.Email, actor)
	}))
	r.POST("/block", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.Block(ctx, req.Email, req.Reason, actor)
	}))
	r.POST("/unblock", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.Unblock(ctx, req.Email, actor)
	}))
	r.POST("/grant_admin", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.GrantAdmin(ctx, req.Email, actor)
	}))
	r.POST("/revoke_admin", membershipAction(members, func(ctx context.Context, req *MembershipRequest, actor string) error {
		return members.RevokeAdmin(ctx, req.Email, actor)
	}))
	r.GET("/status", ApiMembershipStatus(members))
}

// @Summary      User Membership Status (Admin)
// @Tags         Admin
// @Produce      json
// @Param        email query string true "User email"
// @Success      200  {object}  handlers.RespMembershipStatus
// @Router       /api/v1/admin/users/status [get]
func ApiMembershipStatus(members MembershipAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := members.Status(c.Request.Context(), c.Query("email"))
		if err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, access.ErrInvalidEmail) {
				code = response.APIResponseCodeBadRequest
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(status))
	}
}
