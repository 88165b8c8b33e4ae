// Command visitstats prints visit statistics for the configured store
// without starting the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/config"
	"github.com/eliseohh/planbot/internal/logger"
	"github.com/eliseohh/planbot/internal/stats"
	"github.com/eliseohh/planbot/internal/visits"
)

func main() {
	cfg := config.Load()

	backend := flag.String("backend", cfg.Visits.Backend, "visit store: file, sqlite or redis")
	file := flag.String("file", cfg.Visits.File, "visit log path for the file backend")
	sample := flag.Bool("sample", false, "print the first records of the store")
	flag.Parse()

	zl, err := logger.New("warn", false)
	if err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	store, err := openStore(ctx, *backend, *file, cfg.Visits, zl)
	if err != nil {
		fmt.Printf("❌ Cannot open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	snap := stats.NewAggregator(store, zl).Compute(ctx)
	info, err := store.Inspect(ctx)
	if err != nil {
		fmt.Printf("⚠ Inspect failed: %v\n", err)
	}

	fmt.Printf("Store:           %s (%s)\n", info.Location, info.Backend)
	fmt.Printf("Total visits:    %d\n", snap.TotalVisits)
	fmt.Printf("Unique visitors: %d\n", snap.UniqueVisitors)
	if snap.Degraded {
		fmt.Println("⚠ Store unreadable, counts shown as zero")
	}

	if *sample {
		for i, line := range info.Sample {
			fmt.Printf("  %d: %s\n", i+1, line)
		}
	}
}

// openStore opens the backend for reading only. The file log is used as is
// so a wrong path is reported empty instead of being created.
func openStore(ctx context.Context, backend, file string, vc config.VisitsConfig, log *zap.Logger) (visits.Store, error) {
	if backend == "" || backend == config.BackendFile {
		return visits.NewFileLog(file, log), nil
	}
	return visits.New(ctx, visits.Options{
		Backend:    backend,
		SQLitePath: vc.SQLitePath,
		Redis: visits.RedisOptions{
			Addr:     vc.RedisAddr,
			Password: vc.RedisPassword,
			DB:       vc.RedisDB,
			Key:      vc.RedisKey,
		},
	}, log)
}
