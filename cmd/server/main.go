package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/auto-insurance/internal/config"
	"github.com/iliyamo/auto-insurance/internal/database"
	"github.com/iliyamo/auto-insurance/internal/handler"
	"github.com/iliyamo/auto-insurance/internal/middleware"
	"github.com/iliyamo/auto-insurance/internal/queue"
	"github.com/iliyamo/auto-insurance/internal/repository"
	"github.com/iliyamo/auto-insurance/internal/router"
	"github.com/iliyamo/auto-insurance/internal/service"
)

func main() {
	cfg := config.Load()
	log.SetLevel(cfg.LogLevel)
	log.SetPrefix("auto-insurance")

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable: settings cache, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events service.EventPublisher
	qcfg := config.LoadQueueConfig()
	if qcfg.Enabled {
		events = queue.NewPublisher(qcfg.URL)
		if qcfg.ConsumerEnabled {
			go func() {
				if err := queue.NewConsumer(qcfg.URL, qcfg.LogDir).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Errorf("event consumer stopped: %v", err)
				}
			}()
		}
	}

	ids := repository.NewSequenceRepo(db)
	users := repository.NewUserRepo(db)
	claims := repository.NewClaimRepo(db)
	policies := repository.NewPolicyRepo(db)
	payments := repository.NewPaymentRepo(db)
	telemetry := repository.NewTelemetryRepo(db)
	audit := repository.NewAuditRepo(db)
	settings := repository.NewCachedSettingsRepo(repository.NewSettingsRepo(db), rdb, cfg.SettingsTTL, "settings")

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.LogLevel)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, router.Handlers{
		Health:    handler.Health(db),
		Claims:    handler.NewClaimHandler(service.NewClaimService(claims, policies, users, ids, events)),
		Policies:  handler.NewPolicyHandler(service.NewPolicyService(policies, payments, settings, ids), service.NewPaymentService(payments, policies, ids)),
		Telemetry: handler.NewTelemetryHandler(service.NewTelemetryService(telemetry, settings, ids)),
		Users:     handler.NewUserHandler(service.NewUserService(users, ids, cfg.BcryptCost)),
		Admin:     handler.NewAdminHandler(service.NewAdminService(users, settings, audit, events)),
	}, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	go func() {
		addr := ":" + cfg.Port
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}
