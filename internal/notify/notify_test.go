package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tghelpers "github.com/m3rciful/wordbot/core/telegram/helpers"
	"github.com/m3rciful/wordbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/wordbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type sentCall struct {
	to   string
	what interface{}
	opts []interface{}
}

type fakeAPI struct {
	err   error
	calls []sentCall
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, sentCall{to: to.Recipient(), what: what, opts: opts})
	return &tele.Message{}, f.err
}

func TestTelegramSendPlain(t *testing.T) {
	api := &fakeAPI{}
	ctx, counters := tghelpers.WithCounters(context.Background())

	require.NoError(t, NewTelegram(api).Send(ctx, 42, "hello", Options{DisablePreview: true}))
	require.Len(t, api.calls, 1)
	call := api.calls[0]
	assert.Equal(t, "42", call.to)
	assert.Equal(t, "hello", call.what)
	require.Len(t, call.opts, 2)
	opts := call.opts[0].(*tele.SendOptions)
	assert.Empty(t, opts.ParseMode)
	assert.Nil(t, opts.ReplyMarkup)
	assert.Equal(t, tele.NoPreview, call.opts[1])

	n, kb := counters.Snapshot()
	assert.Equal(t, 1, n)
	assert.False(t, kb)
}

func TestTelegramSendRichWithButtons(t *testing.T) {
	api := &fakeAPI{}
	ctx, counters := tghelpers.WithCounters(context.Background())

	err := NewTelegram(api).Send(ctx, 7, "*hi*", Options{
		Rich:    true,
		Buttons: []keyboard.InlineBtn{{Text: "➕ Add Another", InlineQuery: "/sw "}},
	})
	require.NoError(t, err)
	opts := api.calls[0].opts[0].(*tele.SendOptions)
	assert.Equal(t, tele.ModeMarkdownV2, opts.ParseMode)
	require.NotNil(t, opts.ReplyMarkup)
	require.Len(t, opts.ReplyMarkup.InlineKeyboard, 1)
	assert.Equal(t, "/sw ", opts.ReplyMarkup.InlineKeyboard[0][0].InlineQueryChat)

	_, kb := counters.Snapshot()
	assert.True(t, kb)
}

func TestTelegramSendFailure(t *testing.T) {
	api := &fakeAPI{err: errors.New("Post https://api.telegram.org/bot123:ABC/sendMessage: timeout")}
	ctx, counters := tghelpers.WithCounters(context.Background())

	err := NewTelegram(api).Send(ctx, 1, "x", Options{})
	require.Error(t, err)
	n, _ := counters.Snapshot()
	assert.Zero(t, n)
}

type fakeNotifier struct {
	mu   sync.Mutex
	fail map[int64]bool
	got  map[int64]string
}

func (f *fakeNotifier) Send(_ context.Context, chatID int64, text string, _ Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[chatID] {
		return errors.New("blocked by user")
	}
	if f.got == nil {
		f.got = map[int64]string{}
	}
	f.got[chatID] = text
	return nil
}

func greet(_ context.Context, chatID int64) (string, Options) {
	if chatID == 0 {
		return "", Options{}
	}
	return "hi", Options{}
}

func TestBroadcastSequential(t *testing.T) {
	n := &fakeNotifier{fail: map[int64]bool{2: true}}
	rep := NewBroadcaster(n, nil).Broadcast(context.Background(), []int64{1, 2, 3, 0}, greet)

	assert.Equal(t, Report{Sent: 2, Failed: 1}, rep)
	assert.Equal(t, map[int64]string{1: "hi", 3: "hi"}, n.got)
}

func TestBroadcastThroughDispatcher(t *testing.T) {
	d := tgsender.NewDispatcher(tgsender.Options{Workers: 2})
	t.Cleanup(d.Close)

	n := &fakeNotifier{fail: map[int64]bool{5: true}}
	rep := NewBroadcaster(n, d).Broadcast(context.Background(), []int64{4, 5, 6}, greet)

	assert.Equal(t, Report{Sent: 2, Failed: 1}, rep)
	assert.Len(t, n.got, 2)
}

func TestBroadcastClosedDispatcher(t *testing.T) {
	d := tgsender.NewDispatcher(tgsender.Options{})
	d.Close()

	rep := NewBroadcaster(&fakeNotifier{}, d).Broadcast(context.Background(), []int64{1, 2}, greet)
	assert.Equal(t, Report{Sent: 0, Failed: 2}, rep)
}
