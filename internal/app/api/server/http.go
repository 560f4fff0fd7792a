package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fuelflow/fuelflow/docs"
	"github.com/fuelflow/fuelflow/internal/app/api/handlers"
	mw "github.com/fuelflow/fuelflow/internal/app/api/middleware"
	"github.com/fuelflow/fuelflow/internal/app/service/access"
	notificationlog "github.com/fuelflow/fuelflow/internal/app/service/notification_log"
	"github.com/fuelflow/fuelflow/internal/app/service/order"
	"github.com/fuelflow/fuelflow/internal/app/service/payment"
	"github.com/fuelflow/fuelflow/internal/app/service/reconciler"
	"github.com/fuelflow/fuelflow/internal/app/service/statistics"
	cfgpkg "github.com/fuelflow/fuelflow/pkg/config"
	"github.com/fuelflow/fuelflow/pkg/metrics"
)

func newEngine(log *zap.SugaredLogger, sessions *mw.Sessions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.TraceMiddleware(), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	r.Use(mw.SessionMiddleware(sessions))
	return r
}

// newPrometheus mounts the request metrics middleware. The dedicated listener
// is started and stopped with the app.
func newPrometheus(lc fx.Lifecycle, r *gin.Engine, cfg *cfgpkg.Config, log *zap.SugaredLogger) *metrics.Prometheus {
	metrics.RegisterBusinessMetrics(log)
	p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		},
		Logger:    log,
		Subsystem: metrics.Subsystem,
	})
	p.Use(r, cfg.MetricsAddr)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start()
			log.Infow("metrics started", "addr", cfg.MetricsAddr)
			return nil
		},
		OnStop: p.Stop,
	})
	return p
}

type routeParams struct {
	fx.In

	Log        *zap.SugaredLogger
	Engine     *gin.Engine
	Prometheus *metrics.Prometheus
	DB         *gorm.DB
	Sessions   *mw.Sessions
	Gate       *access.Gate
	Members    *access.Service
	Reconciler *reconciler.Reconciler
	Orders     *order.Service
	Payments   *payment.Service
	Logs       *notificationlog.Service
	Stats      *statistics.Service
}

func registerRoutes(p routeParams) error {
	r := p.Engine
	sqlDB, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	handlers.RegisterHealthRoutes(r, sqlDB)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	// the webhook authenticates by signature, not by session
	handlers.RegisterPaymentWebhookRoutes(apiV1.Group("/payment/webhook"), p.Reconciler, p.Log)
	handlers.RegisterAccessRoutes(apiV1.Group("/access"), p.Gate, p.Sessions)

	orders := apiV1.Group("/orders")
	orders.Use(mw.GateMiddleware(p.Gate, p.Sessions, access.RouteCustomer))
	handlers.RegisterOrderRoutes(orders, p.Orders)

	admin := apiV1.Group("/admin")
	admin.Use(mw.GateMiddleware(p.Gate, p.Sessions, access.RouteAdmin))
	handlers.RegisterAdminRoutes(admin, p.Orders, p.Payments, p.Logs, p.Stats, p.Members)
	return nil
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(mw.NewSessions),
	fx.Provide(newEngine),
	fx.Provide(newPrometheus),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
