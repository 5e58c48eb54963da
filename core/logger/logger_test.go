package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/wordbot/core/config"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterSurvivesBrokenSink(t *testing.T) {
	good := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{failingWriter{}, good}, 16)

	require.NoError(t, w.Write([]byte("one\n")))
	require.Error(t, w.Flush())
	require.NoError(t, w.Write([]byte("two\n")))
	err := w.Close()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log sink 0")
	assert.Equal(t, "one\ntwo\n", good.String())
}

func TestAsyncWriterAllSinksBroken(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 16)
	require.NoError(t, w.Write([]byte("x\n")))
	require.Error(t, w.Flush())

	assert.Error(t, w.Write([]byte("y\n")))
	assert.Error(t, w.Close())
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 2)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, true, false}, got)

	s.Set(0, 0)
	for range 5 {
		assert.True(t, s.Allow())
	}

	s.Set(3, 2)
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		" 20 ": {1, 20},
		"0/0":  {0, 0},
		"x/2":  {0, 0},
		"-3":   {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		assert.Equal(t, want, [2]int{num, den}, spec)
	}
}

func TestResolve(t *testing.T) {
	s := resolve(nil)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, slog.LevelInfo, s.level)

	cfg := &coreconfig.Config{}
	cfg.Logging.Profile = "dev"
	cfg.Logging.Level = "debug"
	cfg.Logging.KeysOrder = "level, event"
	cfg.Logging.DebugSample = "0/0"
	cfg.Logging.Dir = "logs"
	cfg.Logging.BotFile = "bot.log"

	s = resolve(cfg)
	assert.Equal(t, formatKV, s.format)
	assert.Equal(t, slog.LevelDebug, s.level)
	assert.Equal(t, []string{"level", "event"}, s.order)
	assert.Zero(t, s.den)
	assert.Equal(t, "logs/bot.log", s.file)

	cfg.Logging.Format = "json"
	assert.Equal(t, formatJSON, resolve(cfg).format)
}

func TestPreviewAndStatus(t *testing.T) {
	assert.Equal(t, "a, b (+1 more)", Preview([]string{"a", "b", "c"}, 2))
	assert.Equal(t, "a, b", Preview([]string{"a", "b"}, 5))
	assert.Equal(t, "(+2 more)", Preview([]string{"a", "b"}, 0))

	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "fail", Status(errors.New("x")))
	assert.Equal(t, "err", Err(errors.New("x")).Key)
	assert.Equal(t, "", Err(nil).Key)
}
