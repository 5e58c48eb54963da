// Package app wires configuration, storage, the language model and the
// Telegram runtime into the vocabulary bot.
package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/wordbot/core/bootstrap"
	"github.com/m3rciful/wordbot/core/logger"
	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"github.com/m3rciful/wordbot/core/telegram/router"
	tgsender "github.com/m3rciful/wordbot/core/telegram/sender"
	"github.com/m3rciful/wordbot/core/telegram/state"
	"github.com/m3rciful/wordbot/internal/access"
	"github.com/m3rciful/wordbot/internal/bot"
	"github.com/m3rciful/wordbot/internal/config"
	"github.com/m3rciful/wordbot/internal/jobs"
	"github.com/m3rciful/wordbot/internal/knowledge"
	"github.com/m3rciful/wordbot/internal/notify"
	"github.com/m3rciful/wordbot/internal/render"
	"github.com/m3rciful/wordbot/internal/words"
	"github.com/m3rciful/wordbot/internal/words/sqlstore"

	tele "gopkg.in/telebot.v4"
)

// Job endpoint paths.
const (
	MorningPath = "/api/morning"
	EveningPath = "/api/evening"
)

var errNotReady = errors.New("app: bot not started")

// App holds the long-lived components shared by chat handlers and jobs.
type App struct {
	cfg       *config.Config
	db        *sqlx.DB
	store     words.Store
	knowledge *knowledge.Provider
	gate      *access.List
	sessions  state.Store[bot.Session]
	render    render.Renderer

	bot  *bot.Dispatcher
	jobs *jobs.Runner
}

// New builds the application on top of the bootstrapped database.
func New(cfg *config.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil || infra == nil || infra.DB == nil {
		return nil, errors.New("app: config and database are required")
	}
	provider, err := knowledge.New(cfg.Knowledge)
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:       cfg,
		db:        infra.DB,
		store:     sqlstore.New(infra.DB, infra.Driver),
		knowledge: provider,
		gate:      access.NewList(cfg.UserIDs()),
		sessions:  state.NewMemoryStore[bot.Session](),
		render:    render.New(cfg.Location()),
	}, nil
}

// TelegramRunOptions describes the bot runtime: routes, middlewares and the
// job endpoints.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	for _, e := range bot.Catalogue() {
		reg.RegisterCommand(e.Name, e.Command)
	}

	routes := router.TextRoutes(reg, router.TextOptions{})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:   a.cfg.CoreConfig(),
		Registry: reg,
		// failed sends are logged, never retried
		DispatcherOptions: tgsender.Options{MaxRetries: 0},
		Middlewares:       tg.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:            routes,
		HTTPRoutes:        a.httpRoutes(),
		HTTPListen:        a.cfg.Jobs.Listen,
		Setup:             a.setup,
		OnStop:            a.stop,
	}, nil
}

func (a *App) setup(ctx context.Context, rt tg.Runtime) error {
	notifier := notify.NewTelegram(rt.Bot)
	a.bot = bot.New(bot.Deps{
		Store:     a.store,
		Knowledge: a.knowledge,
		Notifier:  notifier,
		Sessions:  a.sessions,
		Gate:      a.gate,
		Render:    a.render,
	})
	a.jobs = jobs.NewRunner(jobs.Options{
		Store:       a.store,
		Tips:        a.knowledge,
		Broadcaster: notify.NewBroadcaster(notifier, rt.Dispatcher),
		Users:       a.gate.IDs(),
		Render:      a.render,
		Location:    a.cfg.Location(),
		Suggestions: a.cfg.Jobs.Suggestions,
	})

	rt.Registry.SetTextHandler(a.onText)
	if err := rt.Registry.RegisterCallback(bot.WordCallback, a.onWord); err != nil {
		return err
	}
	logger.Info(ctx, "app", "app.wired",
		slog.Int("users", len(a.gate.IDs())),
		slog.String("timezone", a.cfg.Bot.Timezone),
		slog.String("db_driver", a.cfg.Database.Driver),
		slog.String("knowledge", a.cfg.Knowledge.Provider),
		slog.String("callbacks", logger.Preview(rt.Registry.ListCallbacks(), 5)),
	)
	return nil
}

func (a *App) stop(context.Context, tg.Runtime) error {
	return a.db.Close()
}

func (a *App) onText(c tele.Context) error {
	return a.bot.Handle(tghelpers.BuildContext(c), requestFrom(c))
}

func (a *App) onWord(c tele.Context) error {
	return a.bot.ShowWord(tghelpers.BuildContext(c), requestFrom(c), callbacks.CallbackPayload(c))
}

func (a *App) httpRoutes() []tg.HTTPRoute {
	secret := a.cfg.Jobs.Secret
	return []tg.HTTPRoute{
		{Pattern: MorningPath, Handler: jobs.Handler("morning", secret, func(ctx context.Context) (notify.Report, error) {
			if a.jobs == nil {
				return notify.Report{}, errNotReady
			}
			return a.jobs.Morning(ctx)
		})},
		{Pattern: EveningPath, Handler: jobs.Handler("evening", secret, func(ctx context.Context) (notify.Report, error) {
			if a.jobs == nil {
				return notify.Report{}, errNotReady
			}
			return a.jobs.Evening(ctx)
		})},
	}
}

func requestFrom(c tele.Context) bot.Request {
	req := bot.Request{Text: c.Text()}
	if chat := c.Chat(); chat != nil {
		req.ChatID = chat.ID
	}
	if u := c.Sender(); u != nil {
		req.UserID = u.ID
		req.UserName = strings.TrimSpace(u.FirstName)
		if req.ChatID == 0 {
			req.ChatID = u.ID
		}
	}
	return req
}
