package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/config"
	"github.com/eliseohh/planbot/internal/stats"
)

func TestOpenStoreDoesNotCreateFileLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "typo")
	path := filepath.Join(dir, "visitors.txt")

	store, err := openStore(context.Background(), config.BackendFile, path, config.VisitsConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer store.Close()

	snap := stats.NewAggregator(store, zap.NewNop()).Compute(context.Background())
	if snap.TotalVisits != 0 || snap.Degraded {
		t.Errorf("snapshot = %+v, want empty", snap)
	}
	info, err := store.Inspect(context.Background())
	if err != nil || info.Exists {
		t.Errorf("Inspect() = %+v, %v", info, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("stats tool created %s (stat err = %v)", dir, err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	if _, err := openStore(context.Background(), "mongo", "", config.VisitsConfig{}, zap.NewNop()); err == nil {
		t.Error("openStore() with unknown backend should fail")
	}
}
