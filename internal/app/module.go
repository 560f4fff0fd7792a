package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fuelflow/fuelflow/internal/app/api/server"
	"github.com/fuelflow/fuelflow/internal/app/service/access"
	"github.com/fuelflow/fuelflow/internal/app/service/eventstore"
	"github.com/fuelflow/fuelflow/internal/app/service/invoice"
	notificationlog "github.com/fuelflow/fuelflow/internal/app/service/notification_log"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/app/service/payment"
	"github.com/fuelflow/fuelflow/internal/app/service/reconciler"
	"github.com/fuelflow/fuelflow/internal/app/service/statistics"
	"github.com/fuelflow/fuelflow/internal/platform/cache"
	"github.com/fuelflow/fuelflow/internal/platform/db"
	"github.com/fuelflow/fuelflow/internal/platform/mailer"
	"github.com/fuelflow/fuelflow/internal/platform/pdf"
	"github.com/fuelflow/fuelflow/internal/platform/stripe"
	"github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	stripe.Module,
	mailer.Module,
	pdf.Module,
	eventstore.Module,
	order.Module,
	payment.Module,
	notificationlog.Module,
	invoice.Module,
	access.Module,
	reconciler.Module,
	statistics.Module,
	server.Module,
)
