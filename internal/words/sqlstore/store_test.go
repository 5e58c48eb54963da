package sqlstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/internal/words"
	"github.com/m3rciful/wordbot/migrations"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	db, err := sqlx.Open(coredatabase.SQLiteDriverName, ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, coredatabase.RunMigrations(db, coredatabase.DriverSQLite, migrations.FS))

	c := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New(db, coredatabase.DriverSQLite, WithClock(c.Now)), c
}

func create(t *testing.T, s *Store, word, desc string) words.Word {
	t.Helper()
	res, err := s.Create(context.Background(), words.Word{Word: word, Description: desc, AddedByUserID: "42", AddedByName: "Ada"})
	require.NoError(t, err)
	require.Equal(t, words.Created, res.Status)
	return res.Word
}

func all(t *testing.T, s *Store) []words.Word {
	t.Helper()
	out, err := s.Search(context.Background(), words.Query{})
	require.NoError(t, err)
	return out
}

func TestCreateLowercasesKey(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	for _, w := range []string{"Ephemeral", "  LUCID ", "ñandú"} {
		create(t, s, w, "d")
		key, err := words.Normalize(w)
		require.NoError(t, err)

		got, ok, err := s.Lookup(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, w)
		assert.Equal(t, key, got.Word)
		assert.Equal(t, "Ada", got.AddedByName)
		assert.False(t, got.CreatedAt.IsZero())
	}
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	first := create(t, s, "serendipity", "happy accident")

	res, err := s.Create(ctx, words.Word{Word: "Serendipity", Description: "other", AddedByUserID: "7"})
	require.NoError(t, err)
	assert.Equal(t, words.Conflict, res.Status)

	stored := all(t, s)
	require.Len(t, stored, 1)
	assert.Equal(t, first.Description, stored[0].Description)
	assert.Equal(t, "42", stored[0].AddedByUserID)
}

func TestConcurrentCreatesOneWins(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	const n = 8
	results := make(chan words.CreateStatus, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Create(ctx, words.Word{Word: "race", Description: fmt.Sprint(i), AddedByUserID: "1"})
			assert.NoError(t, err)
			results <- res.Status
		}(i)
	}
	wg.Wait()
	close(results)

	created := 0
	for st := range results {
		if st == words.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Len(t, all(t, s), 1)
}

func TestCreateRejectsInvalid(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Create(context.Background(), words.Word{Word: "   "})
	assert.ErrorIs(t, err, words.ErrInvalidWord)
}

func TestDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	create(t, s, "lucid", "clear")

	assert.ErrorIs(t, s.Delete(ctx, "missing"), words.ErrNotFound)
	assert.Len(t, all(t, s), 1)

	require.NoError(t, s.Delete(ctx, "LUCID"))
	assert.Empty(t, all(t, s))
	assert.ErrorIs(t, s.Delete(ctx, "lucid"), words.ErrNotFound)
}

func TestSearchContains(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	create(t, s, "creative", "having imagination")
	create(t, s, "inventive", "CREATIVE and original")
	create(t, s, "recreation", "leisure")
	create(t, s, "dull", "lacking interest")
	create(t, s, "100%", "entirely")

	got, err := s.Search(ctx, words.Query{Contains: "Creat", Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"recreation", "inventive", "creative"}, keys(got))

	got, err = s.Search(ctx, words.Query{Contains: "creat", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"recreation", "inventive"}, keys(got))

	got, err = s.Search(ctx, words.Query{Contains: "%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100%"}, keys(got))
}

func TestSearchFoldsNonASCII(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	create(t, s, "bistro", "a small CAFÉ")
	create(t, s, "öffnen", "to open")
	create(t, s, "tea", "a drink")

	got, err := s.Search(ctx, words.Query{Contains: "café"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bistro"}, keys(got))

	got, err = s.Search(ctx, words.Query{Contains: "ÖFF"})
	require.NoError(t, err)
	assert.Equal(t, []string{"öffnen"}, keys(got))
}

func TestSearchSinceAndAuthor(t *testing.T) {
	s, c := newStore(t)
	ctx := context.Background()
	create(t, s, "old", "x")
	cut := c.Now()
	create(t, s, "new", "y")
	_, err := s.Create(ctx, words.Word{Word: "other", AddedByUserID: "99"})
	require.NoError(t, err)

	got, err := s.Search(ctx, words.Query{Since: cut})
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "new"}, keys(got))

	got, err = s.Search(ctx, words.Query{AddedBy: "42", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, keys(got))
}

func keys(ws []words.Word) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Word
	}
	return out
}
