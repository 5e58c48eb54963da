package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/netutil"
)

// Client tuning for the Bot API.
const (
	dialTimeout          = 5 * time.Second
	keepAlive            = 30 * time.Second
	tlsHandshakeTimeout  = 5 * time.Second
	responseHeaderWait   = 5 * time.Second
	idleConnTimeout      = 30 * time.Second
	clientTimeout        = 30 * time.Second
	defaultRetryAttempts = 3
	retryStep            = 2 * time.Second
)

// BuildHTTPClient returns the client handed to telebot. Transient network
// errors are retried up to retries times; a negative value picks the
// default.
func BuildHTTPClient(retries int) *http.Client {
	if retries < 0 {
		retries = defaultRetryAttempts
	}
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderWait,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: &retryTransport{base: base, maxRetries: retries, backoff: retryStep},
	}
}

// retryTransport repeats a round trip on transient network errors with a
// linear backoff. Requests whose body cannot be replayed are tried once.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.maxRetries; attempt++ {
		if !netutil.ShouldRetry(err) {
			break
		}
		next, ok := rewind(req)
		if !ok {
			break
		}
		if werr := t.wait(req, attempt); werr != nil {
			return nil, werr
		}
		logger.TG.Debug("http retry",
			slog.String("event", "http.retry"),
			slog.Int("attempt", attempt),
			slog.String("path", redactPath(req.URL.Path)),
		)
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

func (t *retryTransport) wait(req *http.Request, attempt int) error {
	delay := t.backoff * time.Duration(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// rewind clones req with a fresh body.
func rewind(req *http.Request) (*http.Request, bool) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	next.Body = body
	return next, true
}

// redactPath drops the token segment from /bot<token>/method paths.
func redactPath(path string) string {
	const prefix = "/bot"
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return path
	}
	for i := len(prefix); i < len(path); i++ {
		if path[i] == '/' {
			return prefix + "<redacted>" + path[i:]
		}
	}
	return prefix + "<redacted>"
}
