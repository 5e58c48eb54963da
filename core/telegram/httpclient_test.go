package telegram

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyTransport struct {
	fails  int
	calls  int
	bodies []string
}

type tempErr struct{}

func (tempErr) Error() string   { return "dial tcp: i/o timeout" }
func (tempErr) Timeout() bool   { return true }
func (tempErr) Temporary() bool { return true }

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if req.Body != nil {
		b := new(bytes.Buffer)
		_, _ = b.ReadFrom(req.Body)
		f.bodies = append(f.bodies, b.String())
	}
	if f.calls <= f.fails {
		return nil, tempErr{}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func TestRetryTransportReplaysBody(t *testing.T) {
	t.Parallel()

	base := &flakyTransport{fails: 2}
	rt := &retryTransport{base: base, maxRetries: 3, backoff: time.Millisecond}

	req, err := http.NewRequest(http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("chat_id=1"))
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, base.calls)
	assert.Equal(t, []string{"chat_id=1", "chat_id=1", "chat_id=1"}, base.bodies)
}

func TestRetryTransportGivesUp(t *testing.T) {
	t.Parallel()

	base := &flakyTransport{fails: 10}
	rt := &retryTransport{base: base, maxRetries: 1, backoff: time.Millisecond}
	req, err := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, 2, base.calls)
}

func TestBuildHTTPClientRetries(t *testing.T) {
	t.Parallel()

	c := BuildHTTPClient(0)
	rt, ok := c.Transport.(*retryTransport)
	require.True(t, ok)
	assert.Zero(t, rt.maxRetries)

	rt = BuildHTTPClient(-1).Transport.(*retryTransport)
	assert.Equal(t, defaultRetryAttempts, rt.maxRetries)
}

func TestRedactPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/bot<redacted>/sendMessage", redactPath("/bot123:ABC/sendMessage"))
	assert.Equal(t, "/healthz", redactPath("/healthz"))
}
