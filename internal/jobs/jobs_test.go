package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/internal/notify"
	"github.com/m3rciful/wordbot/internal/render"
	"github.com/m3rciful/wordbot/internal/words"
)

type stubStore struct {
	words.Store
	search  func(q words.Query) ([]words.Word, error)
	queries []words.Query
	mu      sync.Mutex
}

func (s *stubStore) Search(_ context.Context, q words.Query) ([]words.Word, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.search(q)
}

type stubTips struct{}

func (stubTips) DailyTip(context.Context) string { return "💡 Tip: read daily" }

func (stubTips) Suggestions(_ context.Context, n int) []string {
	return []string{"lucid", "brisk", "terse"}[:n]
}

type inbox struct {
	mu   sync.Mutex
	got  map[int64][]string
	opts []notify.Options
	fail map[int64]bool
}

func (b *inbox) Send(_ context.Context, chatID int64, text string, opts notify.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail[chatID] {
		return errors.New("bot was blocked by the user")
	}
	if b.got == nil {
		b.got = map[int64][]string{}
	}
	b.got[chatID] = append(b.got[chatID], text)
	b.opts = append(b.opts, opts)
	return nil
}

func newRunner(store *stubStore, box *inbox, now time.Time) *Runner {
	return NewRunner(Options{
		Store:       store,
		Tips:        stubTips{},
		Broadcaster: notify.NewBroadcaster(box, nil),
		Users:       []int64{1, 2},
		Render:      render.New(time.UTC),
		Suggestions: 2,
		Now:         func() time.Time { return now },
		Pick:        func(int) int { return 0 },
	})
}

func TestMorning(t *testing.T) {
	store := &stubStore{search: func(q words.Query) ([]words.Word, error) {
		if q.AddedBy == "1" {
			return []words.Word{{Word: "lucid"}}, nil
		}
		return nil, errors.New("db down")
	}}
	box := &inbox{}

	rep, err := newRunner(store, box, time.Now()).Morning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.Report{Sent: 2}, rep)

	first := box.got[1][0]
	assert.Contains(t, first, "Good Morning")
	assert.Contains(t, first, "*lucid*")
	assert.Contains(t, first, "Wittgenstein")
	assert.Contains(t, first, "lucid\n")
	assert.Contains(t, first, "brisk")
	assert.NotContains(t, first, "terse")
	assert.Contains(t, first, "read daily")

	second := box.got[2][0]
	assert.NotContains(t, second, "Yesterday")
	for _, o := range box.opts {
		assert.True(t, o.Rich)
	}
	for _, q := range store.queries {
		assert.Equal(t, 1, q.Limit)
	}
}

func TestEveningSinceLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2025, 3, 12, 1, 30, 0, 0, loc)
	store := &stubStore{search: func(words.Query) ([]words.Word, error) {
		return []words.Word{{Word: "lucid", Description: "clear", CreatedAt: now}}, nil
	}}
	box := &inbox{}
	r := newRunner(store, box, now)
	r.opts.Location = loc

	rep, err := r.Evening(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.Report{Sent: 2}, rep)
	require.Len(t, store.queries, 1)
	assert.True(t, store.queries[0].Since.Equal(time.Date(2025, 3, 12, 0, 0, 0, 0, loc)))

	msg := box.got[1][0]
	assert.True(t, strings.HasPrefix(msg, "✨ 🌙 Today's Vocabulary ✨"))
	assert.Contains(t, msg, "🔷 LUCID")
	assert.False(t, box.opts[0].Rich)
}

func TestEveningNoWords(t *testing.T) {
	store := &stubStore{search: func(words.Query) ([]words.Word, error) { return nil, nil }}
	box := &inbox{fail: map[int64]bool{2: true}}

	rep, err := newRunner(store, box, time.Now()).Evening(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.Report{Sent: 1, Failed: 1}, rep)
	assert.Equal(t, []string{recapEmpty}, box.got[1])
}

func TestEveningStoreFailure(t *testing.T) {
	store := &stubStore{search: func(words.Query) ([]words.Word, error) { return nil, errors.New("db down") }}
	box := &inbox{}

	_, err := newRunner(store, box, time.Now()).Evening(context.Background())
	require.Error(t, err)
	assert.Empty(t, box.got)
}

func TestHandler(t *testing.T) {
	var runID string
	h := Handler("morning", "s3cret", func(ctx context.Context) (notify.Report, error) {
		runID = logger.RunIDFrom(ctx)
		return notify.Report{Sent: 3, Failed: 1}, nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/morning", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/morning", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/morning", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "morning", body["job"])
	assert.Equal(t, float64(3), body["notified"])
	assert.Equal(t, float64(1), body["failed"])
	assert.Equal(t, runID, body["run_id"])
	assert.NotEmpty(t, runID)
}

func TestHandlerFailure(t *testing.T) {
	h := Handler("evening", "", func(context.Context) (notify.Report, error) {
		return notify.Report{}, errors.New("db down")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/evening", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"job failed"`)
}
