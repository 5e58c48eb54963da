// Package words defines vocabulary entries and the store contract.
package words

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxLen is the longest accepted word, in characters.
const MaxLen = 50

// CategorySearched tags entries saved from a model definition.
const CategorySearched = "searched"

var (
	// ErrNotFound is returned by Delete when no entry has the key.
	ErrNotFound = errors.New("word not found")
	// ErrInvalidWord is returned for empty or overlong words.
	ErrInvalidWord = errors.New("invalid word")
)

// Word is one stored vocabulary entry. Word is the lowercase primary key.
type Word struct {
	Word          string    `db:"word"`
	Description   string    `db:"description"`
	AddedByUserID string    `db:"added_by_user_id"`
	AddedByName   string    `db:"added_by_name"`
	Category      string    `db:"category"`
	CreatedAt     time.Time `db:"created_at"`
}

// CreateStatus tells whether Create stored the entry.
type CreateStatus int

const (
	// Created means the entry was inserted.
	Created CreateStatus = iota + 1
	// Conflict means an entry with the same key already existed; nothing changed.
	Conflict
)

func (s CreateStatus) String() string {
	switch s {
	case Created:
		return "created"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// CreateResult reports the outcome of Create. Word holds the stored entry
// when Status is Created.
type CreateResult struct {
	Status CreateStatus
	Word   Word
}

// Query filters Search. Zero fields do not filter. Results are always
// newest first.
type Query struct {
	// Contains matches case-insensitively against word and description.
	Contains string
	Since    time.Time
	AddedBy  string
	Limit    int
}

// Store persists words. Implementations must enforce key uniqueness so that
// exactly one of several racing creates for a key returns Created.
type Store interface {
	Lookup(ctx context.Context, key string) (Word, bool, error)
	Search(ctx context.Context, q Query) ([]Word, error)
	Create(ctx context.Context, w Word) (CreateResult, error)
	Delete(ctx context.Context, key string) error
}

// Normalize trims and lowercases w and checks its length.
func Normalize(w string) (string, error) {
	w = strings.ToLower(strings.TrimSpace(w))
	if w == "" || utf8.RuneCountInString(w) > MaxLen {
		return "", ErrInvalidWord
	}
	return w, nil
}
