package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestSubmitReportsCompletion(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Options{Workers: 2, QueueSize: 8})
	defer d.Close()

	var wg sync.WaitGroup
	var ok, failed atomic.Int32
	for i := range 6 {
		wg.Add(1)
		err := d.Submit(context.Background(), "send", "chat", func() error {
			if i%3 == 0 {
				return errors.New("forbidden")
			}
			return nil
		}, func(err error) {
			defer wg.Done()
			if err != nil {
				failed.Add(1)
				return
			}
			ok.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()

	assert.EqualValues(t, 4, ok.Load())
	assert.EqualValues(t, 2, failed.Load())
}

func TestSubmitRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	defer d.Close()

	var attempts atomic.Int32
	done := make(chan error, 1)
	require.NoError(t, d.Submit(context.Background(), "send", "", func() error {
		if attempts.Add(1) < 3 {
			return timeoutErr{}
		}
		return nil
	}, func(err error) { done <- err }))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not complete")
	}
	assert.EqualValues(t, 3, attempts.Load())
}

func TestSubmitAfterClose(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Options{})
	d.Close()
	err := d.Submit(context.Background(), "send", "", func() error { return nil }, nil)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueFull(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, d.Submit(context.Background(), "block", "", func() error {
		close(started)
		<-block
		return nil
	}, nil))
	<-started
	require.NoError(t, d.Submit(context.Background(), "queued", "", func() error { return nil }, nil))
	err := d.Submit(context.Background(), "overflow", "", func() error { return nil }, nil)
	assert.ErrorIs(t, err, ErrQueueFull)
	close(block)
}

func TestClassifyAndRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "timeout", classifyError(timeoutErr{}))
	assert.Equal(t, "dial", classifyError(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.Equal(t, "http_4xx", classifyError(&tele.Error{Code: 403, Description: "Forbidden"}))
	assert.Equal(t, "http_5xx", classifyError(errors.New("telegram: internal (502)")))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
	assert.Equal(t, "post https://api.telegram.org/bot<redacted>/sendMessage",
		redact(errors.New("post https://api.telegram.org/bot123:ABC-def_9/sendMessage")))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	d := &Dispatcher{opts: Options{RetryBackoff: time.Second}.withDefaults()}

	wait, ok := d.backoff(tele.FloodError{RetryAfter: 3}, 1)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, wait)

	wait, ok = d.backoff(timeoutErr{}, 2)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, wait)

	_, ok = d.backoff(&tele.Error{Code: 403}, 1)
	assert.False(t, ok)
}

func TestMaxDurationStopsRetries(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Second, MaxDuration: 20 * time.Millisecond})
	defer d.Close()

	done := make(chan error, 1)
	require.NoError(t, d.Submit(context.Background(), "send", "", func() error {
		return timeoutErr{}
	}, func(err error) { done <- err }))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not stop")
	}
}
