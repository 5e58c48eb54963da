package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/wordbot/core/telegram"
	"github.com/m3rciful/wordbot/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responded int
}

func textUpdate(text string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 1, Message: &tele.Message{
			Text:   text,
			Sender: &tele.User{ID: 9},
			Chat:   &tele.Chat{ID: 9},
		}},
		store: map[string]any{},
	}
}

func callbackUpdate(data string) *fakeContext {
	return &fakeContext{
		update: tele.Update{ID: 2, Callback: &tele.Callback{
			Data:   data,
			Sender: &tele.User{ID: 9},
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.update }

func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }

func (f *fakeContext) Text() string {
	if f.update.Message == nil {
		return ""
	}
	return f.update.Message.Text
}

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message == nil {
		return nil
	}
	return f.update.Message.Chat
}

func (f *fakeContext) Get(k string) any { return f.store[k] }

func (f *fakeContext) Set(k string, v any) { f.store[k] = v }

func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.responded++
	return nil
}

func TestTextRoutesDelegateToTextHandler(t *testing.T) {
	t.Parallel()

	reg := tg.NewRegistry()
	reg.RegisterCommand("/sw", commands.Command{Description: "Search and save"})
	var seen []string
	reg.SetTextHandler(func(c tele.Context) error {
		seen = append(seen, c.Text())
		return nil
	})

	routes := TextRoutes(reg, TextOptions{})
	require.Len(t, routes, 1)
	assert.Equal(t, tele.OnText, routes[0].Endpoint)

	require.NoError(t, routes[0].Handler(textUpdate("/sw lucid")))
	require.NoError(t, routes[0].Handler(textUpdate("hello")))
	assert.Equal(t, []string{"/sw lucid", "hello"}, seen)
}

func TestTextRoutesPropagateErrors(t *testing.T) {
	t.Parallel()

	reg := tg.NewRegistry()
	reg.SetTextHandler(func(tele.Context) error { return errors.New("store down") })
	err := TextRoutes(reg, TextOptions{})[0].Handler(textUpdate("/w"))
	assert.EqualError(t, err, "store down")
}

func TestHandlerNameFor(t *testing.T) {
	t.Parallel()

	reg := tg.NewRegistry()
	reg.RegisterCommand("/sw", commands.Command{Description: "Search and save"})

	name, cmd := handlerNameFor(reg, "/SW@wordbot lucid")
	assert.Equal(t, "cmd.sw", name)
	assert.Equal(t, "/sw", cmd)

	name, cmd = handlerNameFor(reg, "/nope")
	assert.Equal(t, "cmd.other", name)
	assert.Equal(t, "/nope", cmd)

	name, _ = handlerNameFor(reg, "just text")
	assert.Equal(t, "text", name)
}

func TestCallbackRoute(t *testing.T) {
	t.Parallel()

	reg := tg.NewRegistry()
	var payload string
	require.NoError(t, reg.RegisterCallback("word", func(c tele.Context) error {
		payload = c.Callback().Data
		return nil
	}))
	var missing int
	route := CallbackRoute(reg, CallbackOptions{NotFound: func(tele.Context) error { missing++; return nil }})

	c := callbackUpdate("\fword|lucid")
	require.NoError(t, route.Handler(c))
	assert.Equal(t, "\fword|lucid", payload)
	assert.Equal(t, 1, c.responded)

	require.NoError(t, route.Handler(callbackUpdate("\fother|x")))
	assert.Equal(t, 1, missing)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "rate limited" }

func TestErrorCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
	assert.Equal(t, "RATE_LIMITED", errorCode(codedErr{}))
	assert.Empty(t, errorCode(nil))
	assert.Equal(t, "sw", handlerName(" /SW "))
	assert.Equal(t, "unknown", handlerName(""))
}

func TestUnknownTextWithoutHandler(t *testing.T) {
	t.Parallel()

	err := TextRoutes(tg.NewRegistry(), TextOptions{})[0].Handler(textUpdate("hi"))
	assert.NoError(t, err)

	var called int
	err = TextRoutes(nil, TextOptions{UnknownText: func(tele.Context) error { called++; return nil }})[0].Handler(textUpdate("hi"))
	assert.NoError(t, err)
	assert.Equal(t, 1, called)
}
