package order

import (
	"go.uber.org/fx"

	"github.com/fuelflow/fuelflow/internal/platform/stripe"
)

var Module = fx.Options(
	fx.Provide(func(c *stripe.Client) CheckoutCreator { return c }),
	fx.Provide(New),
)
