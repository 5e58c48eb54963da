package jobs

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/internal/notify"
)

// Func runs one job.
type Func func(ctx context.Context) (notify.Report, error)

// Result is the JSON body returned by a job endpoint.
type Result struct {
	Job   string `json:"job"`
	RunID string `json:"run_id"`
	notify.Report
	Error string `json:"error,omitempty"`
}

// Handler exposes run as a GET endpoint. A non-empty secret must be sent as
// "Authorization: Bearer <secret>".
func Handler(name, secret string, run Func) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if secret != "" && !bearerMatches(r.Header.Get("Authorization"), secret) {
			logger.Warn(r.Context(), "jobs", "run.reject",
				slog.String("job", name),
				slog.String("status", "unauthorized"),
			)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		runID := uuid.NewString()
		ctx := logger.WithRunID(r.Context(), runID)
		start := time.Now()
		logger.Info(ctx, "jobs", "run.start", slog.String("job", name))

		rep, err := run(ctx)
		res := Result{Job: name, RunID: runID, Report: rep}
		status := http.StatusOK
		attrs := []slog.Attr{
			slog.String("job", name),
			slog.Int("notified", rep.Sent),
			slog.Int("failed", rep.Failed),
			slog.Duration("duration_ms", logger.Took(start)),
			slog.String("status", logger.Status(err)),
		}
		if err != nil {
			status = http.StatusInternalServerError
			res.Error = "job failed"
			attrs = append(attrs, logger.Err(err))
			logger.Error(ctx, "jobs", "run.done", attrs...)
		} else {
			logger.Info(ctx, "jobs", "run.done", attrs...)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(res)
	})
}

func bearerMatches(header, secret string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1
}
