package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/travel-booking-core/internal/booking"
	"github.com/iliyamo/travel-booking-core/internal/config"
	"github.com/iliyamo/travel-booking-core/internal/database"
	"github.com/iliyamo/travel-booking-core/internal/handler"
	"github.com/iliyamo/travel-booking-core/internal/middleware"
	"github.com/iliyamo/travel-booking-core/internal/pricing"
	"github.com/iliyamo/travel-booking-core/internal/queue"
	"github.com/iliyamo/travel-booking-core/internal/repository"
	"github.com/iliyamo/travel-booking-core/internal/router"
	"github.com/iliyamo/travel-booking-core/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment
	cfg := config.Load()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	db, dialect, err := database.Open(database.Options{
		Driver: cfg.DBDriver,
		User:   cfg.DBUser,
		Pass:   cfg.DBPass,
		Host:   cfg.DBHost,
		Port:   cfg.DBPort,
		Name:   cfg.DBName,
	})
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("schema bootstrap failed")
		}
	}

	// Store layer: every round trip is bounded by StoreTimeout.
	conn := repository.NewConn(db, dialect, cfg.StoreTimeout)
	quotes := repository.NewQuoteRepo(conn)
	services := repository.NewServiceRepo(conn)
	reservations := repository.NewReservationRepo(conn)
	resolver := pricing.NewResolver(repository.NewCatalogRepo(conn))

	// Booking core.
	mat := booking.NewMaterializer(resolver, booking.DefaultShuttleRules)
	var hooks []booking.Hook
	if cfg.NotifyEnabled {
		hooks = append(hooks, service.NewPublisher(cfg.RabbitURL, log).Hook())
	}
	quoteSvc := booking.NewQuoteService(quotes, services, resolver, mat, log)
	writer := booking.NewReservationWriter(reservations, quotes, mat, log, hooks...)

	// Redis only backs the rate limiter; without it the limiter fails open.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	limiter := middleware.WriteLimiter(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}).Info("request")
			return nil
		},
	}))

	reservationHandler := handler.NewReservationHandler(writer)
	router.RegisterRoutes(e, handler.NewHealthHandler(db, rdb))
	router.RegisterCatalog(e, handler.NewCatalogHandler(resolver))
	router.RegisterCustomer(e, handler.NewQuoteHandler(quoteSvc), reservationHandler, cfg.JWTSecret, limiter)
	router.RegisterStaff(e, reservationHandler, cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.NotifyEnabled {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Dir: envOr("RESERVATION_LOG_DIR", "logs"), Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("reservation consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "driver": dialect.Name}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
