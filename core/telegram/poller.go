package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/wordbot/core/config"

	tele "gopkg.in/telebot.v4"
)

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen      string
	Port        int
	URL         string
	Path        string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	// Routes are served next to the webhook endpoint in webhook mode.
	Routes []HTTPRoute
}

// BuildPoller returns the update source for the configured run mode.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		path := opts.Webhook.Path
		if path == "" {
			path = coreconfig.DefaultWebhookPath
		}
		return &WebhookPoller{
			Listen:      fmt.Sprintf("%s:%d", opts.Webhook.Listen, opts.Webhook.Port),
			PublicURL:   publicURL(opts.Webhook.URL, path),
			Path:        path,
			SecretToken: opts.Webhook.SecretToken,
			Routes:      opts.Routes,
			Register:    true,
		}
	}

	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = defaultLongPollSeconds
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}

// publicURL joins the configured base with the webhook path unless the base
// already points at it.
func publicURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || strings.HasSuffix(base, path) {
		return base
	}
	return base + path
}
