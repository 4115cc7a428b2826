package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ptdat/roomledger/internal/auth"
	"github.com/ptdat/roomledger/internal/cache"
	"github.com/ptdat/roomledger/internal/config"
	"github.com/ptdat/roomledger/internal/httpapi"
	"github.com/ptdat/roomledger/internal/notify"
	"github.com/ptdat/roomledger/internal/service"
	"github.com/ptdat/roomledger/internal/storage/sqlite"
	"github.com/ptdat/roomledger/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	views := cache.New(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
	defer views.Close()

	hub := notify.NewHub()
	defer hub.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)

	authSvc := service.NewAuthService(authenticator, jwtManager, store, slog.Default())
	rooms := service.NewRoomService(store, views)
	invoices := service.NewInvoiceService(store, views, hub)
	presence := service.NewPresenceService(store, views, hub)

	server := httpapi.NewServer(authSvc, rooms, invoices, presence, hub)
	router := server.Router(jwtManager, cfg.CORSOrigin)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}
