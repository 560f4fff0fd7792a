package order

import (
	"time"

	"github.com/fuelflow/fuelflow/internal/models"
	"github.com/fuelflow/fuelflow/pkg/types"
)

type CreateOrderRequest struct {
	CustomerEmail  string
	CustomerName   string
	FuelType       types.FuelType
	QuantityLitres int64
	AddressLine1   string
	AddressLine2   string
	City           string
	Postcode       string
	DeliveryDate   time.Time
}

type PlaceOrderResult struct {
	Order       *models.Order `json:"order"`
	CheckoutURL string        `json:"checkout_url"`
}

type ScanOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanOrdersResponse struct {
	Items []*models.Order `json:"items"`
	Total int64           `json:"total"`
}

// ScanFields are the columns admin listings may filter and sort on.
var ScanFields = []string{"id", "customer_email", "fuel_type", "status", "city", "postcode", "delivery_date", "paid_at", "created_at", "total_price"}
