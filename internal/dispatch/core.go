// Package dispatch is the boundary between the chat platform and the bot
// core. Platform adapters decode inbound events into a Request, call Core
// and render the returned Response; Core never talks to the platform.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliseohh/planbot/internal/logger"
	"github.com/eliseohh/planbot/internal/menu"
	"github.com/eliseohh/planbot/internal/stats"
	"github.com/eliseohh/planbot/internal/visits"
)

var ErrForbidden = errors.New("dispatch: forbidden")

type View int

const (
	ViewTopLevel View = iota + 1
	ViewReset         // top-level menu after an explicit reset
	ViewPlans
	ViewStats
	ViewDebug
)

type Response struct {
	View  View
	Top   menu.TopMenu
	Plans menu.PlanMenu
	Stats stats.Snapshot
	Store visits.Info // ViewStats and ViewDebug
}

type VisitStore interface {
	Record(ctx context.Context, visitorID string) error
	Inspect(ctx context.Context) (visits.Info, error)
}

type StatsComputer interface {
	Compute(ctx context.Context) stats.Snapshot
}

type Core struct {
	visits VisitStore
	menus  *menu.Controller
	stats  StatsComputer
	policy Policy
	log    *zap.Logger
}

func NewCore(v VisitStore, m *menu.Controller, s StatsComputer, p Policy, log *zap.Logger) *Core {
	if p == nil {
		p = Public{}
	}
	return &Core{visits: v, menus: m, stats: s, policy: p, log: log}
}

// Handle routes a decoded request to its entry point.
func (c *Core) Handle(ctx context.Context, req Request) (Response, error) {
	switch req.Kind {
	case SessionStart:
		return c.OnSessionStart(ctx, req.VisitorID), nil
	case Reset:
		return c.OnReset(ctx, req.VisitorID), nil
	case SelectService:
		return c.OnServiceSelected(ctx, req.Selector)
	case Back:
		return c.OnBackToTopLevel(), nil
	case StatsRequest:
		return c.OnStatsRequested(ctx, req.VisitorID)
	case DebugRequest:
		return c.OnDebugRequested(ctx, req.VisitorID)
	default:
		return Response{}, fmt.Errorf("%w: kind %d", ErrUnknownAction, req.Kind)
	}
}

// OnSessionStart counts a visit and shows the service list. A failed write
// only loses the count.
func (c *Core) OnSessionStart(ctx context.Context, visitorID string) Response {
	c.track(ctx, visitorID)
	return Response{View: ViewTopLevel, Top: c.menus.TopLevel()}
}

func (c *Core) OnReset(ctx context.Context, visitorID string) Response {
	c.track(ctx, visitorID)
	return Response{View: ViewReset, Top: c.menus.TopLevel()}
}

// OnServiceSelected returns menu.ErrNotFound for selectors outside the
// catalog.
func (c *Core) OnServiceSelected(ctx context.Context, selector int) (Response, error) {
	plans, err := c.menus.Plans(selector)
	if err != nil {
		logger.FromContext(ctx, c.log).Debug("service selector not in catalog", zap.Int("selector", selector))
		return Response{}, err
	}
	return Response{View: ViewPlans, Plans: plans}, nil
}

func (c *Core) OnBackToTopLevel() Response {
	return Response{View: ViewTopLevel, Top: c.menus.TopLevel()}
}

func (c *Core) OnStatsRequested(ctx context.Context, requesterID string) (Response, error) {
	if err := c.authorize(ctx, "stats", requesterID); err != nil {
		return Response{}, err
	}
	return Response{View: ViewStats, Stats: c.stats.Compute(ctx), Store: c.inspect(ctx)}, nil
}

// OnDebugRequested describes the visit store.
func (c *Core) OnDebugRequested(ctx context.Context, requesterID string) (Response, error) {
	if err := c.authorize(ctx, "debug", requesterID); err != nil {
		return Response{}, err
	}
	return Response{View: ViewDebug, Store: c.inspect(ctx)}, nil
}

func (c *Core) track(ctx context.Context, visitorID string) {
	if err := c.visits.Record(ctx, visitorID); err != nil {
		logger.FromContext(ctx, c.log).Warn("visit not counted", zap.String("visitor_id", visitorID), zap.Error(err))
	}
}

func (c *Core) authorize(ctx context.Context, op, requesterID string) error {
	allowed := c.policy.Allowed(requesterID)
	logger.FromContext(ctx, c.log).Info("access check", zap.String("op", op), zap.String("visitor_id", requesterID), zap.Bool("allowed", allowed))
	if !allowed {
		return ErrForbidden
	}
	return nil
}

func (c *Core) inspect(ctx context.Context) visits.Info {
	info, err := c.visits.Inspect(ctx)
	if err != nil {
		logger.FromContext(ctx, c.log).Error("failed to inspect visit store", zap.String("op", "inspect"), zap.String("location", info.Location), zap.Error(err))
	}
	return info
}
