package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	notificationlog "github.com/fuelflow/fuelflow/internal/app/service/notification_log"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/app/service/payment"
	"github.com/fuelflow/fuelflow/internal/app/service/statistics"
	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/response"
)

type OrderScanner interface {
	Scan(ctx context.Context, req *order.ScanOrdersRequest) (*order.ScanOrdersResponse, error)
}

type PaymentScanner interface {
	Scan(ctx context.Context, req *payment.ScanPaymentsRequest) (*payment.ScanPaymentsResponse, error)
}

type WebhookLogScanner interface {
	Scan(ctx context.Context, req *notificationlog.ScanWebhookLogsRequest) (*notificationlog.ScanWebhookLogsResponse, error)
}

type OrderStatistics interface {
	GetOrderStatistic(ctx context.Context, req *statistics.StatisticRequest) (*statistics.StatisticResponse, error)
}

type ListOrdersResponse struct {
	Items []*OrderItem `json:"items"`
	Total int64        `json:"total"`
}

// bindAndRun is the shape shared by every admin POST listing: bind, call, envelope.
func bindAndRun[Req any, Res any](fn func(ctx context.Context, req *Req) (Res, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := fn(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Orders (Admin)
// @Description  Retrieves a paginated and filterable list of orders.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body order.ScanOrdersRequest true "Filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListOrders
// @Router       /api/v1/admin/list_orders [post]
func ApiListOrders(svc OrderScanner) gin.HandlerFunc {
	return bindAndRun(func(ctx context.Context, req *order.ScanOrdersRequest) (*ListOrdersResponse, error) {
		res, err := svc.Scan(ctx, req)
		if err != nil {
			return nil, err
		}
		return &ListOrdersResponse{
			Items: lo.Map(res.Items, func(o *models.Order, _ int) *OrderItem { return toOrderItem(o) }),
			Total: res.Total,
		}, nil
	})
}

// @Summary      List Payments (Admin)
// @Description  Retrieves the payment ledger, including orphaned payments without an order.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body payment.ScanPaymentsRequest true "Filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Router       /api/v1/admin/list_payments [post]
func ApiListPayments(svc PaymentScanner) gin.HandlerFunc {
	return bindAndRun(svc.Scan)
}

// @Summary      List Webhook Logs (Admin)
// @Description  Retrieves the webhook audit trail. Filter on status=review to find orphaned events.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body notificationlog.ScanWebhookLogsRequest true "Filters and pagination"
// @Success      200  {object}  handlers.RespListWebhookLogs
// @Router       /api/v1/admin/list_webhook_logs [post]
func ApiListWebhookLogs(svc WebhookLogScanner) gin.HandlerFunc {
	return bindAndRun(svc.Scan)
}

// @Summary      Get Order Statistics (Admin)
// @Description  Retrieves daily order counts, paid revenue and webhook outcomes.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespOrderStatistic
// @Router       /api/v1/admin/get_order_statistic [post]
func ApiGetOrderStatistic(svc OrderStatistics) gin.HandlerFunc {
	return bindAndRun(svc.GetOrderStatistic)
}

func RegisterAdminRoutes(r gin.IRouter, orders OrderScanner, payments PaymentScanner, logs WebhookLogScanner, stats OrderStatistics, members MembershipAdmin) {
	r.POST("/list_orders", ApiListOrders(orders))
	r.POST("/list_payments", ApiListPayments(payments))
	r.POST("/list_webhook_logs", ApiListWebhookLogs(logs))
	r.POST("/get_order_statistic", ApiGetOrderStatistic(stats))
	RegisterAdminUserRoutes(r.Group("/users"), members)
}
