package models

import (
	"time"

	"gorm.io/datatypes"
)

type InvoiceItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}

func (i InvoiceItem) Amount() int64 { return i.Quantity * i.UnitPrice }

// Invoice is issued at most once per order.
type Invoice struct {
	ID            string                            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Number        string                            `gorm:"column:number;type:varchar(64);not null;uniqueIndex" json:"number"`
	OrderID       string                            `gorm:"column:order_id;type:varchar(64);not null;uniqueIndex" json:"order_id"`
	CustomerEmail string                            `gorm:"column:customer_email;type:varchar(320);not null" json:"customer_email"`
	CustomerName  string                            `gorm:"column:customer_name;type:varchar(255)" json:"customer_name"`
	Currency      string                            `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Total         int64                             `gorm:"column:total;type:bigint;not null" json:"total"`
	Items         datatypes.JSONType[[]InvoiceItem] `gorm:"column:items;type:jsonb" json:"items"`
	EmailedAt     *time.Time                        `gorm:"column:emailed_at;default:null" json:"emailed_at"`
	CreatedAt     time.Time                         `json:"created_at"`
}

func (Invoice) TableName() string { return "invoices" }
