package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/wordbot/core/config"
	"github.com/m3rciful/wordbot/core/logger"
	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/wordbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollSeconds = 10

// Middleware is a named global middleware passed to bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint such as tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Dispatcher is created from DispatcherOptions when nil.
	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// HTTPRoutes share the webhook listener in webhook mode. In long-poll
	// mode they are served on HTTPListen when it is set.
	HTTPRoutes []HTTPRoute
	HTTPListen string

	DisableWebhookCleanup bool

	// Setup runs after the bot is built and before routes are registered.
	Setup   func(ctx context.Context, rt Runtime) error
	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to work with.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
	Mode       string
}

// RunTelegram builds the bot, runs the hooks and serves updates until ctx
// is cancelled.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	poller := buildPoller(cfg, opts)
	started := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(cfg.Telegram.HTTPRetries),
		OnError: logUpdateError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, cfg, poller, logger.Took(started))

	rt := Runtime{
		Bot:        bot,
		Dispatcher: opts.Dispatcher,
		Registry:   opts.Registry,
		Mode:       cfg.Telegram.RunMode,
	}
	if rt.Dispatcher == nil {
		rt.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	defer rt.Dispatcher.Close()

	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.DisableWebhookCleanup {
		// a leftover webhook makes getUpdates fail
		if err := bot.RemoveWebhook(false); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook", slog.String("status", "fail"), logger.Err(err))
		}
	}

	if opts.Setup != nil {
		if err := opts.Setup(ctx, rt); err != nil {
			return fmt.Errorf("telegram: setup failed: %w", err)
		}
	}
	wire(bot, opts)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)
	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func buildPoller(cfg *coreconfig.Config, opts RunOptions) tele.Poller {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen:      cfg.Webhook.Listen,
			Port:        cfg.Webhook.Port,
			URL:         cfg.Webhook.URL,
			Path:        cfg.Webhook.Path,
			SecretToken: cfg.Webhook.SecretToken,
		},
		Routes: opts.HTTPRoutes,
	})
	if _, ok := poller.(*WebhookPoller); ok || opts.HTTPListen == "" || len(opts.HTTPRoutes) == 0 {
		return poller
	}
	return &RoutePoller{Poller: poller, Listen: opts.HTTPListen, Routes: opts.HTTPRoutes}
}

// wire installs middlewares, routes and the command menu.
func wire(bot *tele.Bot, opts RunOptions) {
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	SetupCommands(bot, opts.Registry)
}

// serve runs the bot until ctx is done or the poller stops by itself.
func serve(ctx context.Context, bot *tele.Bot) error {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		bot.Stop()
		<-stopped
		return ctx.Err()
	}
}

func logUpdateError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "tg.error", logger.Err(err))
}

func logMode(ctx context.Context, cfg *coreconfig.Config, poller tele.Poller, took time.Duration) {
	attrs := []slog.Attr{slog.Duration("duration", took)}
	switch p := poller.(type) {
	case *WebhookPoller:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.PublicURL),
			slog.Bool("secret", p.SecretToken != ""),
		)
	case *RoutePoller:
		attrs = append(attrs, slog.String("mode", "polling"), slog.String("listen", p.Listen))
	default:
		attrs = append(attrs, slog.String("mode", "polling"))
	}
	if cfg.Telegram.RunMode != coreconfig.RunModeWebhook {
		timeout := cfg.Telegram.LongPollTimeoutSeconds
		if timeout <= 0 {
			timeout = defaultLongPollSeconds
		}
		attrs = append(attrs, slog.Int("timeout_seconds", timeout))
	}
	logger.Info(ctx, "tg", "mode", attrs...)
}
