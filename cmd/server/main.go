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

	"github.com/pedidosapp/pedidos/internal/auth"
	"github.com/pedidosapp/pedidos/internal/cart"
	"github.com/pedidosapp/pedidos/internal/catalog"
	"github.com/pedidosapp/pedidos/internal/cep"
	"github.com/pedidosapp/pedidos/internal/checkout"
	"github.com/pedidosapp/pedidos/internal/config"
	"github.com/pedidosapp/pedidos/internal/es"
	"github.com/pedidosapp/pedidos/internal/events"
	"github.com/pedidosapp/pedidos/internal/httpserver"
	"github.com/pedidosapp/pedidos/internal/logging"
	loggingmw "github.com/pedidosapp/pedidos/internal/middleware/logging"
	"github.com/pedidosapp/pedidos/internal/order"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
		defer producer.Close()
	} else {
		logger.Warn("KAFKA_ADDRESS not set, event publishing disabled")
	}

	var searcher catalog.Searcher
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init: %v", err)
		}
		searcher = catalog.NewESIndex(esClient)
	} else {
		logger.Warn("ES_URL not set, menu search falls back to the database")
	}

	catalogSvc := &catalog.Service{Repo: &catalog.GormRepo{DB: db}, Search: searcher}
	authSvc := &auth.Service{Repo: &auth.GormRepo{DB: db}, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	cartStore := cart.NewStore(logger)
	orderSvc := order.NewService(&order.GormRepo{DB: db}, producerOrNil(producer))
	if producer != nil {
		catalogSvc.Producer = producer
	}
	checkoutSvc := &checkout.Service{Cart: cartStore, Orders: orderSvc}
	cepClient := cep.NewClient(configuration.VIACEP_URL)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		DishHandler:     &httpserver.DishHTTP{Svc: catalogSvc, UploadDir: configuration.UPLOAD_DIR},
		CartHandler:     &httpserver.CartHTTP{Cart: cartStore, Catalog: catalogSvc},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkoutSvc, Auth: authSvc, CEP: cepClient},
		OrderHandler:    &httpserver.OrderHTTP{Svc: orderSvc},
		JWTSecret:       jwtSecret,
		UploadDir:       configuration.UPLOAD_DIR,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:        ":" + configuration.SERVER_PORT,
		Handler:     e,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: the order feeds are long-lived SSE streams
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", configuration.SERVER_PORT)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// producerOrNil keeps the untyped-nil interface pitfall out of the order
// service: a nil *events.Producer must arrive as a nil Publisher.
func producerOrNil(p *events.Producer) order.Publisher {
	if p == nil {
		return nil
	}
	return p
}
