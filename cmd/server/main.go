package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dsolovyev/neonwear/internal/config"
	"github.com/dsolovyev/neonwear/internal/es"
	"github.com/dsolovyev/neonwear/internal/handlers"
	"github.com/dsolovyev/neonwear/internal/handlers/admin"
	"github.com/dsolovyev/neonwear/internal/handlers/cart"
	"github.com/dsolovyev/neonwear/internal/handlers/checkout"
	"github.com/dsolovyev/neonwear/internal/handlers/orders"
	"github.com/dsolovyev/neonwear/internal/logging"
	"github.com/dsolovyev/neonwear/internal/mykafka"
	"github.com/dsolovyev/neonwear/internal/payment"
	"github.com/dsolovyev/neonwear/internal/service/token"
	httpserver "github.com/dsolovyev/neonwear/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		prod, err = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
		if err != nil {
			log.Fatalf("kafka producer error: %v", err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch error: %v", err)
		}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: configuration.ES_INDEX}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	var provider payment.Provider
	if configuration.PAYMENT_MODE == "gateway" {
		provider = payment.NewGatewayClient(configuration.PAYMENT_GATEWAY_URL, configuration.PAYMENT_API_KEY)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		Tokens:         tokens,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db},
		SearchHandler:  searchHandler,
		CartHandler:    &cart.CartHandler{DB: db, Producer: prod},
		CheckoutHandler: &checkout.CheckoutHandler{
			DB:            db,
			Producer:      prod,
			Provider:      provider,
			WebhookSecret: []byte(configuration.PAYMENT_WEBHOOK_SECRET),
		},
		OrderHandler: &orders.OrderHandler{DB: db},
		AdminHandler: &admin.AdminHandler{DB: db, Producer: prod},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", configuration.HTTP_ADDR, "payment_mode", configuration.PAYMENT_MODE)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "err", err)
	}

	logger.Info("shutdown complete")
}
