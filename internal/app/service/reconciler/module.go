package reconciler

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fuelflow/fuelflow/internal/app/service/eventstore"
	"github.com/fuelflow/fuelflow/internal/app/service/invoice"
	notificationlog "github.com/fuelflow/fuelflow/internal/app/service/notification_log"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/app/service/payment"
	"github.com/fuelflow/fuelflow/internal/platform/stripe"
)

type moduleParams struct {
	fx.In

	Verifier *stripe.Verifier
	Client   *stripe.Client
	Events   eventstore.Store
	Orders   *order.Service
	Payments payment.Ledger
	Notifier invoice.Notifier
	Audit    notificationlog.Recorder
	Log      *zap.SugaredLogger
}

func newFromModule(p moduleParams) *Reconciler {
	return New(Params{
		Verifier: p.Verifier,
		Events:   p.Events,
		Orders:   p.Orders,
		Payments: p.Payments,
		Intents:  p.Client,
		Notifier: p.Notifier,
		Audit:    p.Audit,
		Log:      p.Log,
	})
}

var Module = fx.Options(
	fx.Provide(newFromModule),
)
