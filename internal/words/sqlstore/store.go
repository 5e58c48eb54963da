// Package sqlstore implements words.Store on PostgreSQL or SQLite through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	coredatabase "github.com/m3rciful/wordbot/core/database"
	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/internal/words"
)

const table = "words"

var columns = []string{"word", "description", "added_by_user_id", "added_by_name", "category", "created_at"}

// Store is a words.Store over one sql database.
type Store struct {
	db  *sqlx.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock replaces time.Now for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store for db opened with driver ("postgres" or "sqlite3").
func New(db *sqlx.DB, driver string, opts ...Option) *Store {
	var ph sq.PlaceholderFormat = sq.Dollar
	if driver == coredatabase.DriverSQLite {
		ph = sq.Question
	}
	s := &Store{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(ph),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ words.Store = (*Store)(nil)

// Lookup returns the entry stored under the lowercase form of key.
func (s *Store) Lookup(ctx context.Context, key string) (words.Word, bool, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	query, args, err := s.sb.Select(columns...).From(table).Where(sq.Eq{"word": key}).ToSql()
	if err != nil {
		return words.Word{}, false, fmt.Errorf("build lookup: %w", err)
	}

	var w words.Word
	if err := s.db.GetContext(ctx, &w, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return words.Word{}, false, nil
		}
		return words.Word{}, false, fmt.Errorf("lookup %q: %w", key, err)
	}
	return w, true, nil
}

// Search returns entries matching q, newest first.
func (s *Store) Search(ctx context.Context, q words.Query) ([]words.Word, error) {
	b := s.sb.Select(columns...).From(table).OrderBy("created_at DESC", "word ASC")
	if term := strings.TrimSpace(q.Contains); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		b = b.Where(sq.Or{
			sq.Expr(`LOWER(word) LIKE ? ESCAPE '\'`, pattern),
			sq.Expr(`LOWER(description) LIKE ? ESCAPE '\'`, pattern),
		})
	}
	if !q.Since.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": q.Since.UTC()})
	}
	if q.AddedBy != "" {
		b = b.Where(sq.Eq{"added_by_user_id": q.AddedBy})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}
	var out []words.Word
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("search words: %w", err)
	}
	return out, nil
}

// Create inserts w under its normalized key. A duplicate key yields
// words.Conflict rather than an error.
func (s *Store) Create(ctx context.Context, w words.Word) (words.CreateResult, error) {
	key, err := words.Normalize(w.Word)
	if err != nil {
		return words.CreateResult{}, err
	}
	w.Word = key
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.now()
	}
	// SQLite compares timestamps as text, so every row is stored in UTC.
	w.CreatedAt = w.CreatedAt.UTC()

	query, args, err := s.sb.Insert(table).Columns(columns...).
		Values(w.Word, w.Description, w.AddedByUserID, w.AddedByName, w.Category, w.CreatedAt).
		ToSql()
	if err != nil {
		return words.CreateResult{}, fmt.Errorf("build create: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			logger.Info(ctx, "store.words", "word.create",
				slog.String("word", key),
				slog.String("status", "conflict"),
			)
			return words.CreateResult{Status: words.Conflict}, nil
		}
		return words.CreateResult{}, fmt.Errorf("create %q: %w", key, err)
	}

	logger.Info(ctx, "store.words", "word.create",
		slog.String("word", key),
		slog.String("status", "ok"),
		slog.String("category", w.Category),
	)
	return words.CreateResult{Status: words.Created, Word: w}, nil
}

// Delete removes the entry stored under key or returns words.ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	query, args, err := s.sb.Delete(table).Where(sq.Eq{"word": key}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if n == 0 {
		return words.ErrNotFound
	}
	logger.Info(ctx, "store.words", "word.delete",
		slog.String("word", key),
		slog.String("status", "ok"),
	)
	return nil
}

// isUniqueViolation recognises duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
