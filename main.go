package main

// POST /orders – Create or modify an order (stock adjusts as a side effect).
// GET /orders/{id} - Fetch one order with its lines
// GET /orders/list - List orders, optionally filtered by customer
// DELETE /orders/{id} - Delete an order and restore its stock
// GET /products/list - List the product catalog

import (
	"context"
	_ "embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"order-management/config"
	"order-management/handler"
	"order-management/service"
	"order-management/store"
)

//go:embed migrations.sql
var migrationSQL string

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// --- Store ---
	st, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer st.Close()

	// --- RUN MIGRATIONS ---
	if _, err := st.DB.Exec(migrationSQL); err != nil {
		logger.Fatal("failed running migrations", zap.Error(err))
	}
	logger.Info("database migrations executed")

	// --- Service ---
	svc := service.NewService(st)
	var serviceInterface service.ServiceInterface = svc

	// --- Handlers ---
	h := handler.NewHandler(serviceInterface, logger)

	// --- Router ---
	r := mux.NewRouter()
	r.Use(handler.WithRequestID, handler.RequestLogger(logger))
	h.RegisterRoutes(r)

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
