package types

type FuelType string

const (
	FuelTypePetrol FuelType = "petrol"
	FuelTypeDiesel FuelType = "diesel"
)

func (t FuelType) Valid() bool {
	return t == FuelTypePetrol || t == FuelTypeDiesel
}

// Label is the customer-facing name used on invoices.
func (t FuelType) Label() string {
	switch t {
	case FuelTypePetrol:
		return "Petrol"
	case FuelTypeDiesel:
		return "Diesel"
	default:
		return string(t)
	}
}

type FuelPrice struct {
	FuelType FuelType `json:"fuel_type" mapstructure:"fuel_type"`
	// UnitPrice per litre, in minor currency units
	UnitPrice int64 `json:"unit_price" mapstructure:"unit_price"`
}

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusOrdered OrderStatus = "ordered"
	OrderStatusPaid    OrderStatus = "paid"
)
