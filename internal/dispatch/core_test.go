package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eliseohh/planbot/internal/catalog"
	"github.com/eliseohh/planbot/internal/menu"
	"github.com/eliseohh/planbot/internal/stats"
	"github.com/eliseohh/planbot/internal/visits"
)

func newTestCore(t *testing.T, p Policy) (*Core, *visits.FileLog) {
	t.Helper()
	log := zap.NewNop()
	store := visits.NewFileLog(filepath.Join(t.TempDir(), "visitors.txt"), log)
	core := NewCore(store, menu.NewController(catalog.Default()), stats.NewAggregator(store, log), p, log)
	return core, store
}

func TestSessionStartAndResetRecordVisits(t *testing.T) {
	core, store := newTestCore(t, nil)
	ctx := context.Background()

	resp := core.OnSessionStart(ctx, "1")
	if resp.View != ViewTopLevel || len(resp.Top.Items) != 1 {
		t.Errorf("OnSessionStart() = %+v", resp)
	}
	resp = core.OnReset(ctx, "1")
	if resp.View != ViewReset || resp.Top.Items[0].Label != "Cricket VIP Tips" {
		t.Errorf("OnReset() = %+v", resp)
	}

	records, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("recorded %d visits, want 2", len(records))
	}
}

func TestNavigation(t *testing.T) {
	core, store := newTestCore(t, nil)
	ctx := context.Background()

	resp, err := core.Handle(ctx, Request{Kind: SelectService, Selector: 0})
	if err != nil {
		t.Fatalf("Handle(select 0) error = %v", err)
	}
	if resp.View != ViewPlans || len(resp.Plans.Plans) != 4 || !resp.Plans.Back {
		t.Errorf("Handle(select 0) = %+v", resp)
	}

	if _, err := core.Handle(ctx, Request{Kind: SelectService, Selector: 5}); !errors.Is(err, menu.ErrNotFound) {
		t.Errorf("Handle(select 5) error = %v, want ErrNotFound", err)
	}

	resp, err = core.Handle(ctx, Request{Kind: Back})
	if err != nil || resp.View != ViewTopLevel {
		t.Errorf("Handle(back) = %+v, %v", resp, err)
	}

	// navigation is not a visit
	if records, _ := store.ReadAll(ctx); len(records) != 0 {
		t.Errorf("navigation recorded %d visits", len(records))
	}

	if _, err := core.Handle(ctx, Request{Kind: Kind(99)}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Handle(unknown) error = %v, want ErrUnknownAction", err)
	}
}

func TestStatsRequested(t *testing.T) {
	core, _ := newTestCore(t, NewAllowList("admin"))
	ctx := context.Background()

	for _, id := range []string{"A", "A", "B", "A", "C"} {
		core.OnSessionStart(ctx, id)
	}

	resp, err := core.Handle(ctx, Request{Kind: StatsRequest, VisitorID: "admin"})
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if resp.View != ViewStats || resp.Stats.TotalVisits != 5 || resp.Stats.UniqueVisitors != 3 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if !resp.Store.Exists || resp.Store.Backend != "file" {
		t.Errorf("store info = %+v", resp.Store)
	}

	if _, err := core.OnStatsRequested(ctx, "A"); !errors.Is(err, ErrForbidden) {
		t.Errorf("stats for non-admin error = %v, want ErrForbidden", err)
	}
	if _, err := core.OnDebugRequested(ctx, "A"); !errors.Is(err, ErrForbidden) {
		t.Errorf("debug for non-admin error = %v, want ErrForbidden", err)
	}

	resp, err = core.Handle(ctx, Request{Kind: DebugRequest, VisitorID: "admin"})
	if err != nil || resp.View != ViewDebug || resp.Store.Lines != 5 {
		t.Errorf("debug = %+v, %v", resp, err)
	}
}

type brokenStore struct{}

func (brokenStore) Record(context.Context, string) error {
	return visits.ErrWrite
}

func (brokenStore) Inspect(context.Context) (visits.Info, error) {
	return visits.Info{Backend: "file", Location: "/broken"}, visits.ErrRead
}

func (brokenStore) Each(context.Context, func(visits.Record) error) error {
	return visits.ErrRead
}

func TestBrokenStoreKeepsMenusWorking(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	c := NewCore(brokenStore{}, menu.NewController(catalog.Default()), stats.NewAggregator(brokenStore{}, log), Public{}, log)
	ctx := context.Background()

	resp := c.OnSessionStart(ctx, "1")
	if len(resp.Top.Items) != 1 {
		t.Errorf("OnSessionStart() with broken store = %+v", resp)
	}
	if logs.FilterMessage("visit not counted").Len() != 1 {
		t.Error("write failure was not logged")
	}

	resp, err := c.OnStatsRequested(ctx, "1")
	if err != nil {
		t.Fatalf("OnStatsRequested() error = %v", err)
	}
	if !resp.Stats.Degraded || resp.Stats.TotalVisits != 0 {
		t.Errorf("stats = %+v, want degraded zeros", resp.Stats)
	}
	if resp.Store.Location != "/broken" {
		t.Errorf("store info = %+v", resp.Store)
	}
}
