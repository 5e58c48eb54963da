package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/m3rciful/wordbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SecretHeader carries the webhook secret set via setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// HTTPRoute is an extra endpoint served by the bot's HTTP listener.
type HTTPRoute struct {
	Pattern string
	Handler http.Handler
}

// WebhookPoller receives updates over HTTP. Unlike tele.Webhook it answers
// with explicit status codes and shares its listener with extra routes.
type WebhookPoller struct {
	Listen      string
	PublicURL   string
	Path        string
	SecretToken string
	Routes      []HTTPRoute
	// Register calls setWebhook with PublicURL when polling starts.
	Register bool

	mu   sync.RWMutex
	dest chan tele.Update
}

// Handler returns the mux serving the webhook path and extra routes.
func (p *WebhookPoller) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(p.Path, p.serveUpdate)
	for _, r := range p.Routes {
		if r.Pattern == "" || r.Handler == nil {
			continue
		}
		mux.Handle(r.Pattern, r.Handler)
	}
	return mux
}

// Poll registers the webhook, serves HTTP until stop is closed and forwards
// decoded updates to dest.
func (p *WebhookPoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	if p.Register && b != nil {
		err := b.SetWebhook(&tele.Webhook{
			Endpoint:    &tele.WebhookEndpoint{PublicURL: p.PublicURL},
			SecretToken: p.SecretToken,
		})
		if err != nil {
			logger.TG.Error("set webhook failed",
				slog.String("event", "webhook.set"),
				slog.String("public_url", p.PublicURL),
				logger.Err(err),
			)
		}
	}

	p.mu.Lock()
	p.dest = dest
	p.mu.Unlock()

	srv := &http.Server{
		Addr:              p.Listen,
		Handler:           p.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveUntil(srv, stop)
}

// serveUntil runs srv until stop is closed, then shuts it down gracefully.
func serveUntil(srv *http.Server, stop <-chan struct{}) {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	logger.HTTP.Info("http listening",
		slog.String("event", "http.listen"),
		slog.String("listen", srv.Addr),
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("http server failed",
				slog.String("event", "http.listen"),
				slog.String("listen", srv.Addr),
				logger.Err(err),
			)
		}
		<-stop
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func (p *WebhookPoller) serveUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if p.SecretToken != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(p.SecretToken)) != 1 {
			logger.HTTP.Warn("webhook secret mismatch",
				slog.String("event", "webhook.reject"),
				slog.String("status", "unauthorized"),
			)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
	}

	var upd tele.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
		// Telegram retries non-2xx responses; a malformed body would loop forever.
		logger.HTTP.Warn("webhook body ignored",
			slog.String("event", "webhook.decode"),
			slog.String("status", "skip"),
			logger.Err(err),
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	p.mu.RLock()
	dest := p.dest
	p.mu.RUnlock()
	if dest == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	select {
	case dest <- upd:
		w.WriteHeader(http.StatusOK)
	case <-r.Context().Done():
	}
}

// RoutePoller wraps a poller and serves routes on a side listener for the
// poller's lifetime. It lets long-polling bots expose job endpoints.
type RoutePoller struct {
	tele.Poller
	Listen string
	Routes []HTTPRoute
}

// Poll starts the side listener and delegates to the wrapped poller.
func (p *RoutePoller) Poll(b *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	mux := http.NewServeMux()
	for _, r := range p.Routes {
		if r.Pattern == "" || r.Handler == nil {
			continue
		}
		mux.Handle(r.Pattern, r.Handler)
	}
	srv := &http.Server{Addr: p.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	innerStop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		serveUntil(srv, innerStop)
	}()

	p.Poller.Poll(b, dest, stop)
	close(innerStop)
	<-done
}
