package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/internal/app/service/reconciler"
	"github.com/fuelflow/fuelflow/internal/platform/stripe"
	"github.com/fuelflow/fuelflow/pkg/logctx"
	"github.com/fuelflow/fuelflow/pkg/response"
)

const maxWebhookBody = 1 << 20

type Reconciler interface {
	Reconcile(ctx context.Context, payload []byte, signatureHeader string) (*reconciler.Result, error)
}

// @Summary      Stripe Webhook
// @Description  Receives Stripe events. The raw body is verified against the Stripe-Signature header.
// @Description  Unlike the rest of the API this endpoint answers with real HTTP status codes: 2xx acknowledges, 400 rejects, 500 asks Stripe to retry.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe signature header"
// @Param        payload body object true "Stripe event"
// @Success      200  {object}  handlers.RespWebhookResult
// @Failure      400  {object}  handlers.RespOK
// @Failure      500  {object}  handlers.RespOK
// @Router       /api/v1/payment/webhook/stripe [post]
func ApiStripeWebhook(rec Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logctx.FromGin(c, log)
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
		payload, err := c.GetRawData()
		if err != nil {
			l.Warnw("webhook_stripe_body_unreadable", "err", err)
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "unreadable body"))
			return
		}
		l.Infow("webhook_stripe_received", "bytes", len(payload))

		res, err := rec.Reconcile(c.Request.Context(), payload, c.GetHeader(stripe.SignatureHeader))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, response.OKT(res))
		case errors.Is(err, reconciler.ErrInvalidSignature), errors.Is(err, reconciler.ErrInvalidPayload):
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		default:
			l.Errorw("webhook_stripe_handle_error", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, res))
		}
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, rec Reconciler, log *zap.SugaredLogger) {
	r.POST("/stripe", ApiStripeWebhook(rec, log))
}
