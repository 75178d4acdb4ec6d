// Package main запускает HTTP-сервер сервиса доставки.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/delivery-system/internal/adscost"
	"github.com/mmeshcher/delivery-system/internal/config"
	"github.com/mmeshcher/delivery-system/internal/handler"
	"github.com/mmeshcher/delivery-system/internal/lock"
	"github.com/mmeshcher/delivery-system/internal/middleware"
	"github.com/mmeshcher/delivery-system/internal/repository"
	"github.com/mmeshcher/delivery-system/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	loc, err := time.LoadLocation(cfg.SettlementTimezone)
	if err != nil {
		sugar.Fatalw("settlement timezone error", "error", err.Error(), "timezone", cfg.SettlementTimezone)
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	var adsClient *adscost.Client
	if cfg.AdsServiceAddress != "" {
		adsClient = adscost.NewClient(cfg.AdsServiceAddress)
	}

	var locker *lock.Locker
	if cfg.RedisAddress != "" {
		locker = lock.New(redis.NewClient(&redis.Options{Addr: cfg.RedisAddress}))
	}

	svc := service.NewService(repo, adsClient, locker, logger, loc, cfg.ReferralBonus)
	defer svc.Close()

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновый процесс истечения реферальных связей
	svc.StartReferralExpiry(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting delivery server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
