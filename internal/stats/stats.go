// Package stats derives visit counts from the visit log on demand.
package stats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/logger"
	"github.com/eliseohh/planbot/internal/visits"
)

// Snapshot is recomputed on every request and never stored.
type Snapshot struct {
	TotalVisits    int
	UniqueVisitors int
	ComputedAt     time.Time
	// Degraded is set when the log could not be read and the counts
	// fell back to zero.
	Degraded bool
}

// Source streams visit records in append order.
type Source interface {
	Each(ctx context.Context, fn func(visits.Record) error) error
}

type Aggregator struct {
	src Source
	log *zap.Logger
	now func() time.Time
}

func NewAggregator(src Source, log *zap.Logger) *Aggregator {
	return &Aggregator{src: src, log: log, now: time.Now}
}

// Compute folds over the whole log. A read failure is logged and reported
// as an empty log.
func (a *Aggregator) Compute(ctx context.Context) Snapshot {
	total := 0
	seen := make(map[string]struct{})

	err := a.src.Each(ctx, func(r visits.Record) error {
		total++
		seen[r.VisitorID] = struct{}{}
		return nil
	})

	log := logger.FromContext(ctx, a.log)
	snap := Snapshot{ComputedAt: a.now()}
	if err != nil {
		log.Error("failed to read visit log, reporting zero stats", zap.String("op", "stats"), zap.Error(err))
		snap.Degraded = true
		return snap
	}

	snap.TotalVisits = total
	snap.UniqueVisitors = len(seen)
	log.Info("stats computed",
		zap.Int("total_visits", snap.TotalVisits),
		zap.Int("unique_visitors", snap.UniqueVisitors))
	return snap
}
