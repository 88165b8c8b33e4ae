package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/eliseohh/planbot/internal/dispatch"
	"github.com/eliseohh/planbot/internal/logger"
	"github.com/eliseohh/planbot/internal/menu"
)

const (
	promptTopLevel = "Please choose a service:"
	promptReset    = "Resetting to main menu. Please choose a service:"
	backLabel      = "Back to Services"

	requestLogKey = "log"
)

type Bot struct {
	api  *tele.Bot
	core *dispatch.Core
	cfg  Config
	log  *zap.Logger
	ctx  context.Context
}

type Config struct {
	Token       string
	PollTimeout time.Duration
}

func New(cfg Config, core *dispatch.Core, log *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			log.Error("handler failed", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{api: b, core: core, cfg: cfg, log: log}
	bot.register()
	return bot, nil
}

// Start polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	b.ctx = ctx
	go func() {
		<-ctx.Done()
		b.log.Info("stopping bot")
		b.api.Stop()
	}()

	b.log.Info("bot started", zap.String("username", b.api.Me.Username))
	b.api.Start()
	b.log.Info("bot has shut down")
}

func (b *Bot) register() {
	b.api.Use(b.trace)

	b.api.Handle("/start", b.handleStart)
	b.api.Handle("/reset", b.handleReset)

	// Inline buttons
	b.api.Handle(tele.OnCallback, b.handleCallback)

	b.registerAdmin()
}

// trace tags each update with a request id and logs how it went.
func (b *Bot) trace(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		l := logger.WithRequestID(b.log, uuid.NewString())
		c.Set(requestLogKey, l)

		err := next(c)

		fields := []zap.Field{
			zap.Int("update_id", c.Update().ID),
			zap.String("visitor_id", visitorID(c)),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			l.Error("update failed", append(fields, zap.Error(err))...)
		} else {
			l.Info("update handled", fields...)
		}
		return err
	}
}

func (b *Bot) handleStart(c tele.Context) error {
	resp := b.core.OnSessionStart(b.requestContext(c), visitorID(c))
	return c.Send(prompt(resp.View), topMarkup(resp.Top))
}

func (b *Bot) handleReset(c tele.Context) error {
	resp := b.core.OnReset(b.requestContext(c), visitorID(c))
	return c.Send(prompt(resp.View), topMarkup(resp.Top))
}

// handleCallback serves menu navigation. Unknown, malformed and stale
// buttons are acknowledged and otherwise ignored.
func (b *Bot) handleCallback(c tele.Context) error {
	ctx := b.requestContext(c)
	log := logger.FromContext(ctx, b.log)

	if err := c.Respond(); err != nil {
		log.Warn("failed to answer callback", zap.Error(err))
	}

	cb := c.Callback()
	if cb == nil {
		return nil
	}
	req, err := dispatch.DecodeCallback(cb.Data)
	if err != nil {
		log.Debug("ignoring callback", zap.String("data", cb.Data), zap.Error(err))
		return nil
	}
	req.VisitorID = visitorID(c)

	resp, err := b.core.Handle(ctx, req)
	if errors.Is(err, menu.ErrNotFound) {
		log.Debug("ignoring callback for unknown service", zap.Int("selector", req.Selector))
		return nil
	}
	if err != nil {
		return err
	}

	switch resp.View {
	case dispatch.ViewPlans:
		return c.Edit(fmt.Sprintf("Plans for %s:", resp.Plans.Service), plansMarkup(resp.Plans))
	default:
		return c.Edit(prompt(resp.View), topMarkup(resp.Top))
	}
}

// Helpers

func (b *Bot) context() context.Context {
	if b.ctx == nil {
		return context.Background()
	}
	return b.ctx
}

// requestContext carries the logger trace attached to this update.
func (b *Bot) requestContext(c tele.Context) context.Context {
	ctx := b.context()
	if l, ok := c.Get(requestLogKey).(*zap.Logger); ok {
		ctx = logger.WithContext(ctx, l)
	}
	return ctx
}

func visitorID(c tele.Context) string {
	u := c.Sender()
	if u == nil {
		return ""
	}
	return strconv.FormatInt(u.ID, 10)
}

func prompt(v dispatch.View) string {
	if v == dispatch.ViewReset {
		return promptReset
	}
	return promptTopLevel
}

func topMarkup(top menu.TopMenu) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(top.Items))
	for _, item := range top.Items {
		data, _ := dispatch.EncodeCallback(dispatch.Request{Kind: dispatch.SelectService, Selector: item.Selector})
		rows = append(rows, []tele.InlineButton{{Text: item.Label, Data: data}})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func plansMarkup(pm menu.PlanMenu) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(pm.Plans)+1)
	for _, p := range pm.Plans {
		rows = append(rows, []tele.InlineButton{{Text: strings.TrimSpace(p.Label + " " + p.Tier), URL: p.URL}})
	}
	if pm.Back {
		data, _ := dispatch.EncodeCallback(dispatch.Request{Kind: dispatch.Back})
		rows = append(rows, []tele.InlineButton{{Text: backLabel, Data: data}})
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
