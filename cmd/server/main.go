package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dindin/internal/auth"
	"dindin/internal/cache"
	"dindin/internal/config"
	"dindin/internal/database"
	"dindin/internal/game"
	"dindin/internal/logger"
	"dindin/internal/metrics"
	"dindin/internal/server"
	"dindin/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.New(ctx, cfg.DSN())
	cancel()
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	cacheSvc, err := cache.New(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}

	st := store.New(db.Pool(), log)
	tokens := auth.NewTokenService(cfg.JWTSecret, 24*time.Hour)

	hub := game.NewHub(log)
	go hub.Run()

	engineCfg := game.DefaultConfig()
	engineCfg.HouseProfit = cfg.HouseProfit
	engine := game.NewEngine(hub, st, cacheSvc, log, engineCfg)
	engine.Start()

	srv := server.New(cfg, log, db, cacheSvc, st, hub, engine, tokens)
	srv.RegisterFiberRoutes()

	metricsSrv := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return db.Pool().Ping(ctx)
	})

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}

	log.Info("bye")
}
