// Package knowledge asks a language model for word definitions, free-form
// answers, daily tips and word suggestions.
//
// Every method degrades instead of failing: Define reports absence, the others
// return a fixed fallback. Errors are logged here and never reach callers.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
)

const (
	// AskFallback is returned by Ask when the model cannot answer.
	AskFallback = "Sorry, I couldn't process your query. Please try again later."
	// TipPrefix starts every daily tip.
	TipPrefix = "💡 Tip: "
	tipFallback = "Read, write, and use new words daily!"
)

var fallbackSuggestions = []string{"serendipity", "ephemeral", "lucid"}

// Completer sends one prompt to a language model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider wraps a Completer with prompts, timeouts and fallbacks.
type Provider struct {
	llm     Completer
	name    string
	timeout time.Duration
}

// NewProvider builds a Provider. name labels log lines; timeout bounds each
// call and is ignored when not positive.
func NewProvider(llm Completer, name string, timeout time.Duration) *Provider {
	return &Provider{llm: llm, name: name, timeout: timeout}
}

// Define returns a labelled definition of word, or false when the model
// failed or produced nothing usable.
func (p *Provider) Define(ctx context.Context, word string) (string, bool) {
	out, err := p.complete(ctx, "define", definePrompt(word))
	if err != nil {
		return "", false
	}
	out = cleanDefinition(out)
	if out == "" {
		return "", false
	}
	return out, true
}

// Ask answers a free-form query. It never returns an empty string.
func (p *Provider) Ask(ctx context.Context, query string) string {
	out, err := p.complete(ctx, "ask", query)
	if err != nil || strings.TrimSpace(out) == "" {
		return AskFallback
	}
	return strings.TrimSpace(out)
}

// DailyTip returns a one or two sentence vocabulary tip with TipPrefix.
func (p *Provider) DailyTip(ctx context.Context) string {
	out, err := p.complete(ctx, "tip", tipPrompt)
	out = strings.TrimSpace(stripEmphasis(out))
	if err != nil || out == "" {
		return TipPrefix + tipFallback
	}
	return TipPrefix + out
}

// Suggestions returns up to n uncommon English words.
func (p *Provider) Suggestions(ctx context.Context, n int) []string {
	if n <= 0 {
		return nil
	}
	out, err := p.complete(ctx, "suggest", suggestionsPrompt(n))
	if err == nil {
		if words := splitSuggestions(out, n); len(words) > 0 {
			return words
		}
	}
	return append([]string(nil), fallbackSuggestions[:min(n, len(fallbackSuggestions))]...)
}

func (p *Provider) complete(ctx context.Context, op, prompt string) (string, error) {
	if p == nil || p.llm == nil {
		return "", fmt.Errorf("knowledge: no completer configured")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := p.llm.Complete(ctx, prompt)
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("provider", p.name),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		logger.Warn(ctx, "knowledge", "knowledge.fail", append(attrs,
			slog.String("status", "fail"),
			logger.Err(err),
		)...)
		return "", err
	}
	logger.Debug(ctx, "knowledge", "knowledge.ok", append(attrs,
		slog.String("status", "ok"),
		slog.Int("chars", len(out)),
	)...)
	return out, nil
}

func definePrompt(word string) string {
	return fmt.Sprintf(`Provide concise dictionary information about the English word %q.
Answer in plain text without markdown, exactly in this format:

Pronunciation: <IPA>
Meaning: <one or two short sentences>
Examples: <one or two example sentences>
Synonyms: <comma-separated list>
Antonyms: <comma-separated list, or "none">

Keep each line brief.`, word)
}

const tipPrompt = `Give a short, practical tip (1-2 sentences) for improving English vocabulary or language skills. Plain text, no markdown.`

func suggestionsPrompt(n int) string {
	return fmt.Sprintf("Suggest %d interesting, uncommon English words (not proper nouns) at medium difficulty. Only list the words, comma-separated.", n)
}

var (
	emphasisRe = regexp.MustCompile(`\*{1,2}|__`)
	bulletRe   = regexp.MustCompile(`^[\s\-•·🔹]+`)
)

func stripEmphasis(s string) string {
	return emphasisRe.ReplaceAllString(s, "")
}

// cleanDefinition drops markdown emphasis and leading bullets so labelled
// lines can be parsed back into fields.
func cleanDefinition(s string) string {
	lines := strings.Split(stripEmphasis(s), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func splitSuggestions(s string, n int) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	words := make([]string, 0, n)
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(stripEmphasis(f)), ".-•0123456789) ")
		if f == "" {
			continue
		}
		words = append(words, f)
		if len(words) == n {
			break
		}
	}
	return words
}
