package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/fuelflow/fuelflow/internal/app/api/middleware"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/response"
	"github.com/fuelflow/fuelflow/pkg/types"
)

type OrderService interface {
	Place(ctx context.Context, req *order.CreateOrderRequest) (*order.PlaceOrderResult, error)
	Get(ctx context.Context, id string) (*models.Order, error)
}

type CreateOrderRequest struct {
	CustomerName   string         `json:"customer_name"`
	FuelType       types.FuelType `json:"fuel_type" binding:"required"`
	QuantityLitres int64          `json:"quantity_litres" binding:"required"`
	AddressLine1   string         `json:"address_line1" binding:"required"`
	AddressLine2   string         `json:"address_line2"`
	City           string         `json:"city" binding:"required"`
	Postcode       string         `json:"postcode" binding:"required"`
	// DeliveryDate is YYYY-MM-DD
	DeliveryDate string `json:"delivery_date" binding:"required"`
}

type OrderItem struct {
	ID                string            `json:"id"`
	CustomerEmail     string            `json:"customer_email"`
	CustomerName      string            `json:"customer_name"`
	FuelType          types.FuelType    `json:"fuel_type"`
	QuantityLitres    int64             `json:"quantity_litres"`
	UnitPrice         int64             `json:"unit_price"`
	TotalPrice        int64             `json:"total_price"`
	Currency          string            `json:"currency"`
	AddressLine1      string            `json:"address_line1"`
	AddressLine2      string            `json:"address_line2,omitempty"`
	City              string            `json:"city"`
	Postcode          string            `json:"postcode"`
	DeliveryDate      string            `json:"delivery_date"`
	Status            types.OrderStatus `json:"status"`
	CheckoutSessionID *string           `json:"checkout_session_id,omitempty"`
	PaidAt            *time.Time        `json:"paid_at"`
	CreatedAt         time.Time         `json:"created_at"`
}

func toOrderItem(o *models.Order) *OrderItem {
	return &OrderItem{
		ID:                o.ID,
		CustomerEmail:     o.CustomerEmail,
		CustomerName:      o.CustomerName,
		FuelType:          o.FuelType,
		QuantityLitres:    o.QuantityLitres,
		UnitPrice:         o.UnitPrice,
		TotalPrice:        o.TotalPrice,
		Currency:          o.Currency,
		AddressLine1:      o.AddressLine1,
		AddressLine2:      o.AddressLine2,
		City:              o.City,
		Postcode:          o.Postcode,
		DeliveryDate:      o.DeliveryDate.Format(time.DateOnly),
		Status:            o.Status,
		CheckoutSessionID: o.CheckoutSessionID,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
	}
}

type CreateOrderResponse struct {
	Order       *OrderItem `json:"order"`
	CheckoutURL string     `json:"checkout_url,omitempty"`
}

// @Summary      Place Order
// @Description  Creates a fuel order for the signed-in customer and opens a Stripe checkout session.
// @Description  When checkout is unavailable the pending order is returned with code 50300.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        request body handlers.CreateOrderRequest true "Order details"
// @Success      200  {object}  handlers.RespCreateOrder
// @Router       /api/v1/orders [post]
func ApiCreateOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		delivery, err := time.Parse(time.DateOnly, req.DeliveryDate)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "delivery_date must be YYYY-MM-DD"))
			return
		}
		res, err := svc.Place(c.Request.Context(), &order.CreateOrderRequest{
			CustomerEmail:  mw.UserEmail(c),
			CustomerName:   req.CustomerName,
			FuelType:       req.FuelType,
			QuantityLitres: req.QuantityLitres,
			AddressLine1:   req.AddressLine1,
			AddressLine2:   req.AddressLine2,
			City:           req.City,
			Postcode:       req.Postcode,
			DeliveryDate:   delivery,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, response.OKT(&CreateOrderResponse{Order: toOrderItem(res.Order), CheckoutURL: res.CheckoutURL}))
		case errors.Is(err, order.ErrInvalidOrder):
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		case errors.Is(err, order.ErrCheckoutUnavailable) && res != nil:
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeUnavailable, &CreateOrderResponse{Order: toOrderItem(res.Order)}))
		default:
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
		}
	}
}

// @Summary      Get Order
// @Description  Returns one of the signed-in customer's orders.
// @Tags         Orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200  {object}  handlers.RespOrder
// @Router       /api/v1/orders/{id} [get]
func ApiGetOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		// another customer's order is reported as missing
		if errors.Is(err, order.ErrOrderNotFound) || (err == nil && o.CustomerEmail != mw.UserEmail(c)) {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, nil))
			return
		}
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(toOrderItem(o)))
	}
}

func RegisterOrderRoutes(r gin.IRouter, svc OrderService) {
	r.POST("", ApiCreateOrder(svc))
	r.GET("/:id", ApiGetOrder(svc))
}
