// Package bot interprets chat messages: slash commands and the two-step
// add-word dialog. It talks to storage, the language model and the chat only
// through interfaces.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/keyboard"
	"github.com/m3rciful/wordbot/core/telegram/state"
	"github.com/m3rciful/wordbot/internal/access"
	"github.com/m3rciful/wordbot/internal/notify"
	"github.com/m3rciful/wordbot/internal/render"
	"github.com/m3rciful/wordbot/internal/words"
)

// Knowledge answers definition and free-form questions.
type Knowledge interface {
	Define(ctx context.Context, word string) (string, bool)
	Ask(ctx context.Context, query string) string
}

// Gate decides who may use the bot.
type Gate interface {
	Allowed(userID int64) bool
}

// Request is one inbound chat message.
type Request struct {
	ChatID   int64
	UserID   int64
	UserName string
	Text     string
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Store     words.Store
	Knowledge Knowledge
	Notifier  notify.Notifier
	Sessions  state.Store[Session]
	Gate      Gate
	Render    render.Renderer
	// Now defaults to time.Now.
	Now func() time.Time
}

// Dispatcher routes messages to command handlers and drives the dialog.
type Dispatcher struct {
	store     words.Store
	knowledge Knowledge
	notifier  notify.Notifier
	sessions  state.Store[Session]
	gate      Gate
	render    render.Renderer
	now       func() time.Time
	help      string
}

// New builds a Dispatcher. Sessions defaults to an in-memory store.
func New(d Deps) *Dispatcher {
	if d.Sessions == nil {
		d.Sessions = state.NewMemoryStore[Session]()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Dispatcher{
		store:     d.Store,
		knowledge: d.Knowledge,
		notifier:  d.Notifier,
		sessions:  d.Sessions,
		gate:      d.Gate,
		render:    d.Render,
		now:       d.Now,
		help:      helpText(Catalogue()),
	}
}

// Handle processes one message. It sends exactly one reply except for free
// text while idle, which is ignored. Store failures are answered with a
// generic reply and returned for logging.
func (d *Dispatcher) Handle(ctx context.Context, req Request) error {
	if !d.authorize(ctx, req) {
		return d.reply(ctx, req, access.Unauthorized)
	}
	sess := d.session(req)

	text := strings.TrimSpace(req.Text)
	if strings.HasPrefix(text, "/") {
		return d.command(ctx, req, sess, text)
	}

	switch st := sess.State.(type) {
	case AwaitingWord:
		return d.wordInput(ctx, req, sess, text)
	case AwaitingDefinition:
		return d.definitionInput(ctx, req, sess, st.Word, text)
	}
	logger.Debug(ctx, "bot", "text.ignored", slog.String("state", StateName(sess.State)))
	return nil
}

// ShowWord answers an inline "open word" button with the full entry.
func (d *Dispatcher) ShowWord(ctx context.Context, req Request, word string) error {
	if !d.authorize(ctx, req) {
		return d.reply(ctx, req, access.Unauthorized)
	}
	return d.showEntry(ctx, req, word)
}

func (d *Dispatcher) authorize(ctx context.Context, req Request) bool {
	if d.gate != nil && d.gate.Allowed(req.UserID) {
		return true
	}
	logger.Warn(ctx, "bot", "access.denied",
		slog.Int64("user_id", req.UserID),
		slog.String("status", "unauthorized"),
	)
	return false
}

func (d *Dispatcher) command(ctx context.Context, req Request, sess Session, text string) error {
	name, arg := classify(text)
	switch name {
	case CmdStart, CmdHelp:
		return d.send(ctx, req, d.help, notify.Options{Rich: true})
	case CmdTest:
		return d.test(ctx, req)
	case CmdAdd:
		return d.startAdd(ctx, req, sess)
	case CmdCancel:
		return d.cancel(ctx, req, sess)
	case CmdDelete:
		return d.delete(ctx, req, arg)
	case CmdSave:
		return d.searchAndSave(ctx, req, arg)
	case CmdAsk:
		return d.ask(ctx, req, arg)
	case CmdFind:
		return d.find(ctx, req, arg)
	case CmdDay:
		return d.recent(ctx, req, parseDays(arg))
	}
	return d.reply(ctx, req, msgUnknown)
}

func (d *Dispatcher) session(req Request) Session {
	if s, ok := d.sessions.Get(req.UserID); ok {
		return s
	}
	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "User"
	}
	s := Session{UserName: name, State: Idle{}}
	d.sessions.Put(req.UserID, s)
	return s
}

func (d *Dispatcher) setState(ctx context.Context, userID int64, sess Session, next State) {
	prev := StateName(sess.State)
	sess.State = next
	d.sessions.Put(userID, sess)
	logger.Debug(ctx, "bot", "session.state",
		slog.String("from", prev),
		slog.String("to", StateName(next)),
	)
}

func (d *Dispatcher) reply(ctx context.Context, req Request, text string) error {
	return d.send(ctx, req, text, notify.Options{})
}

func (d *Dispatcher) send(ctx context.Context, req Request, text string, opts notify.Options) error {
	return d.notifier.Send(ctx, req.ChatID, text, opts)
}

// fail answers with a generic message and returns cause for the handler log.
func (d *Dispatcher) fail(ctx context.Context, req Request, text string, cause error) error {
	if err := d.reply(ctx, req, text); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (d *Dispatcher) showEntry(ctx context.Context, req Request, word string) error {
	w, found, err := d.store.Lookup(ctx, word)
	if err != nil {
		return d.fail(ctx, req, msgSearchFailed, fmt.Errorf("show %q: %w", word, err))
	}
	if !found {
		return d.reply(ctx, req, fmt.Sprintf(msgNotFound, word))
	}
	return d.sendChunks(ctx, req, d.render.Plain(w))
}

// sendRich sends rich as one message when it fits. Longer entries go out as
// plain chunks instead, with buttons on the last one.
func (d *Dispatcher) sendRich(ctx context.Context, req Request, rich, plain string, buttons ...keyboard.InlineBtn) error {
	if render.TextLen(rich) <= render.MessageLimit {
		return d.send(ctx, req, rich, notify.Options{Rich: true, Buttons: buttons})
	}
	return d.sendChunks(ctx, req, plain, buttons...)
}

func (d *Dispatcher) sendChunks(ctx context.Context, req Request, text string, buttons ...keyboard.InlineBtn) error {
	chunks := render.Chunk(text, render.MessageLimit)
	for i, chunk := range chunks {
		opts := notify.Options{DisablePreview: true}
		if i == len(chunks)-1 {
			opts.Buttons = buttons
		}
		if err := d.send(ctx, req, chunk, opts); err != nil {
			return err
		}
	}
	return nil
}
