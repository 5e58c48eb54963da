package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Status maps err to the log status value.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Err returns an "err" attribute, or an empty attr that the handler drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("err", err.Error())
}

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the nearest millisecond; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values and notes how many were left out,
// e.g. "a, b (+3 more)".
func Preview(values []string, limit int) string {
	if len(values) <= limit {
		return strings.Join(values, ", ")
	}
	limit = max(limit, 0)
	head := strings.Join(values[:limit], ", ")
	more := "(+" + strconv.Itoa(len(values)-limit) + " more)"
	if head == "" {
		return more
	}
	return head + " " + more
}
