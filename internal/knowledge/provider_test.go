package knowledge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	complete func(ctx context.Context, prompt string) (string, error)
	prompts  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.complete(ctx, prompt)
}

func reply(text string, err error) *fakeCompleter {
	return &fakeCompleter{complete: func(context.Context, string) (string, error) { return text, err }}
}

func TestDefineCleansMarkdown(t *testing.T) {
	llm := reply("🔹 **Pronunciation**: /ɪˈfem(ə)rəl/\n\n🔹 *Meaning*: lasting a very short time\n- Synonyms: fleeting", nil)
	p := NewProvider(llm, "fake", time.Second)

	out, ok := p.Define(context.Background(), "ephemeral")
	require.True(t, ok)
	assert.Equal(t, "Pronunciation: /ɪˈfem(ə)rəl/\nMeaning: lasting a very short time\nSynonyms: fleeting", out)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], `"ephemeral"`)
}

func TestDefineAbsentOnFailure(t *testing.T) {
	for name, llm := range map[string]*fakeCompleter{
		"error": reply("", errors.New("boom")),
		"empty": reply(" \n** \n", nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := NewProvider(llm, "fake", 0).Define(context.Background(), "word")
			assert.False(t, ok)
		})
	}
}

func TestAskNeverEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "an answer", NewProvider(reply("  an answer\n", nil), "fake", 0).Ask(ctx, "q?"))
	assert.Equal(t, AskFallback, NewProvider(reply("", errors.New("down")), "fake", 0).Ask(ctx, "q?"))
	assert.Equal(t, AskFallback, NewProvider(reply("   ", nil), "fake", 0).Ask(ctx, "q?"))
	assert.Equal(t, AskFallback, NewProvider(nil, "none", 0).Ask(ctx, "q?"))
}

func TestAskAppliesTimeout(t *testing.T) {
	llm := &fakeCompleter{complete: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	got := NewProvider(llm, "fake", 10*time.Millisecond).Ask(context.Background(), "slow")
	assert.Equal(t, AskFallback, got)
}

func TestDailyTip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, TipPrefix+"Keep a word journal.", NewProvider(reply("**Keep a word journal.**", nil), "fake", 0).DailyTip(ctx))
	assert.Equal(t, TipPrefix+"Read, write, and use new words daily!", NewProvider(reply("", errors.New("x")), "fake", 0).DailyTip(ctx))
}

func TestSuggestions(t *testing.T) {
	ctx := context.Background()

	got := NewProvider(reply("1. Sonder, petrichor\nlimerence, apricity", nil), "fake", 0).Suggestions(ctx, 3)
	assert.Equal(t, []string{"Sonder", "petrichor", "limerence"}, got)

	assert.Equal(t, []string{"serendipity", "ephemeral"}, NewProvider(reply("", errors.New("x")), "fake", 0).Suggestions(ctx, 2))
	assert.Equal(t, []string{"serendipity", "ephemeral", "lucid"}, NewProvider(reply(",,", nil), "fake", 0).Suggestions(ctx, 5))
	assert.Nil(t, NewProvider(reply("a", nil), "fake", 0).Suggestions(ctx, 0))
}

func TestAnthropicComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Contains(t, string(body), "hello there")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",
			"content":[{"type":"text","text":"general "},{"type":"text","text":"kenobi"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{Provider: ProviderAnthropic, APIKey: "test"}
	require.NoError(t, cfg.Normalize())
	out, err := NewAnthropic(cfg, anthropicoption.WithBaseURL(srv.URL)).Complete(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, "general kenobi", out)
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Contains(t, string(body), "hello there")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi back"}}]}`)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{Provider: ProviderOpenAI, APIKey: "test"}
	require.NoError(t, cfg.Normalize())
	out, err := NewOpenAI(cfg, openaioption.WithBaseURL(srv.URL)).Complete(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, "hi back", out)
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Provider: " Claude "}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-haiku-4-5", cfg.Model)
	assert.EqualValues(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	cfg = Config{Provider: "openai", Model: "gpt-4.1"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "gpt-4.1", cfg.Model)

	cfg = Config{Provider: "gemini"}
	assert.Error(t, cfg.Normalize())
}
