// Package sender runs outbound Telegram calls on a bounded worker pool with
// retries for transient failures.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned by Submit after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job could not be queued without blocking.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

const (
	defaultQueueSize   = 256
	defaultWorkers     = 4
	defaultBackoff     = 2 * time.Second
	defaultMaxDuration = 12 * time.Second
	component          = "tg.sender"
)

// Options tunes the dispatcher. Zero values pick defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds one job including all retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultBackoff
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = defaultMaxDuration
	}
	return o
}

type task struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
	done     func(error)
}

func (t task) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", t.action)}
	if t.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", t.endpoint))
	}
	return attrs
}

// Dispatcher executes queued sends on a fixed set of workers.
type Dispatcher struct {
	opts  Options
	queue chan task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:  opts,
		queue: make(chan task, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.work()
	}
	return d
}

// Submit queues run. done, if set, is called once from a worker with the
// final error. It is not called when Submit itself fails. run may be called
// more than once.
func (d *Dispatcher) Submit(ctx context.Context, action, endpoint string, run func() error, done func(error)) error {
	if run == nil {
		return errNilRun
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- task{ctx: ctx, action: action, endpoint: endpoint, run: run, done: done}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close rejects new jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.queue {
		err := d.execute(t)
		if t.done != nil {
			t.done(err)
		}
	}
}

// execute runs t until it succeeds, fails permanently, runs out of attempts
// or hits MaxDuration.
func (d *Dispatcher) execute(t task) error {
	ctx, cancel := context.WithTimeout(t.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	logger.Debug(t.ctx, component, "send.start", t.attrs()...)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = t.run(); err == nil {
			attrs := append(t.attrs(), slog.Int("attempt", attempt), slog.Duration("elapsed", logger.Took(start)))
			if attempt > 1 {
				logger.Info(t.ctx, component, "send.retry.success", attrs...)
			} else {
				logger.Debug(t.ctx, component, "send.success", attrs...)
			}
			return nil
		}
		if attempt == attempts {
			break
		}

		delay, ok := d.backoff(err, attempt)
		if !ok {
			break
		}
		logger.Debug(t.ctx, component, "send.retry.backoff",
			append(t.attrs(), slog.Int("attempt", attempt), slog.Duration("delay", delay))...)
		if werr := sleep(ctx, delay); werr != nil {
			err = werr
			break
		}
	}

	logger.Error(t.ctx, component, "send.fail", append(t.attrs(),
		slog.String("error", redact(err)),
		slog.String("error_kind", classifyError(err)),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", logger.Took(start)),
	)...)
	return err
}

// backoff returns the wait before the next attempt, or false when err is
// not worth retrying. Flood control replies carry their own wait.
func (d *Dispatcher) backoff(err error, attempt int) (time.Duration, bool) {
	if wait := floodWait(err); wait > 0 {
		return wait, true
	}
	if !netutil.ShouldRetry(err) {
		return 0, false
	}
	return d.opts.RetryBackoff * time.Duration(attempt), true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
