package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rowanvale/souk/internal"
	"github.com/rowanvale/souk/internal/billing"
	"github.com/rowanvale/souk/internal/email"
	"github.com/rowanvale/souk/internal/events"
	"github.com/rowanvale/souk/internal/handler"
	"github.com/rowanvale/souk/internal/middleware"
	"github.com/rowanvale/souk/internal/repository"
	"github.com/rowanvale/souk/internal/service"
	"github.com/rowanvale/souk/internal/shipping"
	"github.com/rowanvale/souk/internal/telemetry"
	"github.com/rowanvale/souk/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Migrations run over database/sql; the application itself uses the
	// pgx pool below.
	logger.Info("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)

	telemetry.InitBusinessMetrics("souk")

	billingProvider := billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	var publisher events.Publisher = events.NoopPublisher{}
	var natsPublisher *events.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = events.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("nats connection failed: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("connected to nats", "url", cfg.NATS.URL)
	} else {
		logger.Info("event publishing disabled, using no-op publisher")
	}

	shippingCalc := shipping.NewDefaultCalculator()

	couponService := service.NewCouponService(store, logger)
	orderService := service.NewOrderService(service.OrderServiceConfig{
		Store:          store,
		Billing:        billingProvider,
		Shipping:       shippingCalc,
		Coupons:        couponService,
		Events:         publisher,
		Logger:         logger,
		SuccessURL:     cfg.Checkout.SuccessURL,
		CancelURL:      cfg.Checkout.CancelURL,
		ReservationTTL: cfg.Checkout.ReservationTTL,
	})
	productService := service.NewProductService(store, logger)
	reviewService := service.NewReviewService(store, logger)
	shopService := service.NewShopService(store, logger)

	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
	}, logger)
	emailService, err := email.NewService(sender, cfg.Email.From, cfg.Email.FromName)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	// Background worker: order notifications plus the reservation
	// sweeper. Runs without a broker too, sweeping only.
	var workerConn *nats.Conn
	if natsPublisher != nil {
		workerConn = natsPublisher.Conn()
	}
	w := worker.NewWorker(store, orderService, emailService, workerConn, worker.Config{}, logger)
	workerDone := make(chan error, 1)
	go func() {
		workerDone <- w.Start(ctx)
	}()

	h := handler.New(handler.Config{
		Orders:   orderService,
		Products: productService,
		Coupons:  couponService,
		Reviews:  reviewService,
		Shops:    shopService,
		Billing:  billingProvider,
		Logger:   logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	metrics := middleware.NewMetrics("souk")
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	h.Register(e, middleware.Authenticate(cfg.JWTSecret))

	addr := fmt.Sprintf(":%d", cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "address", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
	}
	<-workerDone

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
