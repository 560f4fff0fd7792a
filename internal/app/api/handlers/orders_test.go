package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/response"
	"github.com/fuelflow/fuelflow/pkg/types"
)

type stubOrders struct {
	placed *order.CreateOrderRequest
	result *order.PlaceOrderResult
	err    error
	orders map[string]*models.Order
}

func (s *stubOrders) Place(_ context.Context, req *order.CreateOrderRequest) (*order.PlaceOrderResult, error) {
	s.placed = req
	return s.result, s.err
}

func (s *stubOrders) Get(_ context.Context, id string) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, order.ErrOrderNotFound
}

func sampleOrder(id, email string) *models.Order {
	return &models.Order{
		ID:             id,
		CustomerEmail:  email,
		FuelType:       types.FuelTypeDiesel,
		QuantityLitres: 20,
		UnitPrice:      152,
		TotalPrice:     3040,
		Currency:       "GBP",
		DeliveryDate:   time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		Status:         types.OrderStatusOrdered,
	}
}

func orderRouter(svc OrderService, email string) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1/orders")
	g.Use(asUser(email))
	RegisterOrderRoutes(g, svc)
	return r
}

var validOrderBody = map[string]any{
	"fuel_type":       "diesel",
	"quantity_litres": 20,
	"address_line1":   "1 Depot Road",
	"city":            "Leeds",
	"postcode":        "LS1 1AA",
	"delivery_date":   "2030-01-02",
}

func TestApiCreateOrder(t *testing.T) {
	svc := &stubOrders{result: &order.PlaceOrderResult{Order: sampleOrder("ord_1", "jo@example.com"), CheckoutURL: "https://checkout.stripe.com/c/cs_1"}}
	r := orderRouter(svc, "jo@example.com")

	w := do(t, r, http.MethodPost, "/api/v1/orders", validOrderBody)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[CreateOrderResponse](t, w)
	require.Equal(t, response.APIResponseCodeOK, res.Code)
	require.Equal(t, "https://checkout.stripe.com/c/cs_1", res.Data.CheckoutURL)
	require.Equal(t, "2024-05-03", res.Data.Order.DeliveryDate)

	// the order belongs to the session, not to anything in the body
	require.Equal(t, "jo@example.com", svc.placed.CustomerEmail)
	require.Equal(t, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), svc.placed.DeliveryDate)
}

func TestApiCreateOrder_Errors(t *testing.T) {
	t.Run("bad date", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range validOrderBody {
			body[k] = v
		}
		body["delivery_date"] = "02/01/2030"
		w := do(t, orderRouter(&stubOrders{}, "jo@example.com"), http.MethodPost, "/api/v1/orders", body)
		require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)
	})
	t.Run("missing fields", func(t *testing.T) {
		w := do(t, orderRouter(&stubOrders{}, "jo@example.com"), http.MethodPost, "/api/v1/orders", map[string]any{"fuel_type": "diesel"})
		require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)
	})
	t.Run("invalid order", func(t *testing.T) {
		svc := &stubOrders{err: errors.Join(order.ErrInvalidOrder, errors.New("quantity"))}
		w := do(t, orderRouter(svc, "jo@example.com"), http.MethodPost, "/api/v1/orders", validOrderBody)
		require.Equal(t, response.APIResponseCodeBadRequest, decode[any](t, w).Code)
	})
	t.Run("checkout unavailable keeps the order", func(t *testing.T) {
		svc := &stubOrders{
			result: &order.PlaceOrderResult{Order: sampleOrder("ord_2", "jo@example.com")},
			err:    order.ErrCheckoutUnavailable,
		}
		w := do(t, orderRouter(svc, "jo@example.com"), http.MethodPost, "/api/v1/orders", validOrderBody)
		res := decode[CreateOrderResponse](t, w)
		require.Equal(t, response.APIResponseCodeUnavailable, res.Code)
		require.Equal(t, "ord_2", res.Data.Order.ID)
	})
}

func TestApiGetOrder_OwnerOnly(t *testing.T) {
	svc := &stubOrders{orders: map[string]*models.Order{"ord_1": sampleOrder("ord_1", "jo@example.com")}}

	w := do(t, orderRouter(svc, "jo@example.com"), http.MethodGet, "/api/v1/orders/ord_1", nil)
	res := decode[OrderItem](t, w)
	require.Equal(t, response.APIResponseCodeOK, res.Code)
	require.Equal(t, int64(3040), res.Data.TotalPrice)

	w = do(t, orderRouter(svc, "sam@example.com"), http.MethodGet, "/api/v1/orders/ord_1", nil)
	require.Equal(t, response.APIResponseCodeNotFound, decode[any](t, w).Code)

	w = do(t, orderRouter(svc, "jo@example.com"), http.MethodGet, "/api/v1/orders/ord_missing", nil)
	require.Equal(t, response.APIResponseCodeNotFound, decode[any](t, w).Code)
}
