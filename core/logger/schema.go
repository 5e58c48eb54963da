package logger

import "strings"

// The level, status and outcome fields only carry values from these sets.
var (
	allowedStatus  = setOf("ok fail skip retry conflict not_found unauthorized rate_limited cancelled")
	allowedOutcome = setOf("ok fail cancelled rate_limited")
)

// defaultKeyOrder is the field order of every line; other keys follow
// alphabetically.
var defaultKeyOrder = strings.Fields(`
	ts level component event status rid rid_full run_id ts_unix_nano
	update_id user_id chat_id chat_type handler command op cb_key outcome duration_ms
	word days matches chunks messages recipients sent failed kb count
	provider model username mode listen public_url path http_code
	db driver host
	err err_code cause retryable attempts backoff_ms rate_limited collapsed repeats pending_count
`)

func setOf(words string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// normalizeLevel maps slog level names, and the "warning" alias, to the
// four upper-case levels.
func normalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	default:
		return l
	}
}

// normalizeEnum lowercases v and reports whether it belongs to allowed.
func normalizeEnum(v string, allowed map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", false
	}
	_, ok := allowed[v]
	return v, ok
}
