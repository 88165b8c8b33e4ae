package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/bot"
	"github.com/eliseohh/planbot/internal/catalog"
	"github.com/eliseohh/planbot/internal/config"
	"github.com/eliseohh/planbot/internal/dispatch"
	"github.com/eliseohh/planbot/internal/httpserver"
	"github.com/eliseohh/planbot/internal/logger"
	"github.com/eliseohh/planbot/internal/menu"
	"github.com/eliseohh/planbot/internal/stats"
	"github.com/eliseohh/planbot/internal/visits"
)

func main() {
	fmt.Println("PlanBot: service menu and visit tracker")
	started := time.Now()

	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		zl.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Catalog
	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			zl.Fatal("cannot load catalog", zap.String("path", cfg.CatalogFile), zap.Error(err))
		}
	}
	zl.Info("catalog loaded", zap.Int("services", cat.Len()))

	// 2. Visit store
	store, err := visits.New(ctx, visits.Options{
		Backend:    cfg.Visits.Backend,
		File:       cfg.Visits.File,
		SQLitePath: cfg.Visits.SQLitePath,
		Redis: visits.RedisOptions{
			Addr:     cfg.Visits.RedisAddr,
			Password: cfg.Visits.RedisPassword,
			DB:       cfg.Visits.RedisDB,
			Key:      cfg.Visits.RedisKey,
		},
	}, zl)
	if err != nil {
		zl.Fatal("visit store init failed", zap.String("backend", cfg.Visits.Backend), zap.Error(err))
	}
	defer store.Close()

	// 3. Core
	policy, err := dispatch.NewPolicy(cfg.StatsAccess, cfg.StatsAdminIDs)
	if err != nil {
		zl.Fatal("invalid stats access policy", zap.Error(err))
	}
	if _, public := policy.(dispatch.Public); public {
		zl.Warn("stats and debug commands are readable by every user")
	}
	core := dispatch.NewCore(store, menu.NewController(cat), stats.NewAggregator(store, zl), policy, zl)

	// 4. Health endpoints
	if cfg.HTTPAddr != "" {
		srv := httpserver.New(cfg.HTTPAddr, httpserver.Deps{
			StartTime: started,
			Ready: func(ctx context.Context) error {
				if cat.Len() == 0 {
					return errors.New("catalog is empty")
				}
				_, err := store.Inspect(ctx)
				return err
			},
		}, zl)
		go func() {
			if err := srv.Start(); err != nil {
				zl.Error("HTTP server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	// 5. Start Bot
	if cfg.Token == "" {
		zl.Warn("no TELEGRAM_TOKEN found, bot will not start")
		<-ctx.Done()
		return
	}

	b, err := bot.New(bot.Config{Token: cfg.Token, PollTimeout: cfg.PollTimeout}, core, zl)
	if err != nil {
		zl.Fatal("bot init failed", zap.Error(err))
	}

	fmt.Println("🤖 Bot Online. Listening...")
	b.Start(ctx)
}
