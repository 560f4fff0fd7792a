package models

import (
	"time"

	"github.com/fuelflow/fuelflow/pkg/types"
)

// Order is a customer fuel order. TotalPrice is fixed at creation; the
// reconciler only ever writes Status, PaidAt and UpdatedAt.
type Order struct {
	ID             string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CustomerEmail  string            `gorm:"column:customer_email;type:varchar(320);not null;index" json:"customer_email"`
	CustomerName   string            `gorm:"column:customer_name;type:varchar(255)" json:"customer_name"`
	FuelType       types.FuelType    `gorm:"column:fuel_type;type:varchar(32);not null" json:"fuel_type"`
	QuantityLitres int64             `gorm:"column:quantity_litres;not null" json:"quantity_litres"`
	UnitPrice      int64             `gorm:"column:unit_price;type:bigint;not null" json:"unit_price"`
	TotalPrice     int64             `gorm:"column:total_price;type:bigint;not null" json:"total_price"`
	Currency       string            `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	AddressLine1   string            `gorm:"column:address_line1;type:varchar(255);not null" json:"address_line1"`
	AddressLine2   string            `gorm:"column:address_line2;type:varchar(255)" json:"address_line2"`
	City           string            `gorm:"column:city;type:varchar(128);not null" json:"city"`
	Postcode       string            `gorm:"column:postcode;type:varchar(32);not null" json:"postcode"`
	DeliveryDate   time.Time         `gorm:"column:delivery_date;not null" json:"delivery_date"`
	Status         types.OrderStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	// CheckoutSessionID is the provider checkout session created for this order
	CheckoutSessionID *string    `gorm:"column:checkout_session_id;type:varchar(255)" json:"checkout_session_id"`
	PaidAt            *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) IsPaid() bool {
	return o != nil && o.Status == types.OrderStatusPaid
}
