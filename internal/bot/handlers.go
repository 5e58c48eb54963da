package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m3rciful/wordbot/core/buildinfo"
	"github.com/m3rciful/wordbot/core/telegram/callbacks"
	"github.com/m3rciful/wordbot/core/telegram/format"
	"github.com/m3rciful/wordbot/core/telegram/keyboard"
	"github.com/m3rciful/wordbot/internal/notify"
	"github.com/m3rciful/wordbot/internal/render"
	"github.com/m3rciful/wordbot/internal/words"
)

// WordCallback is the unique key of the inline buttons that open a word.
const WordCallback = "word"

const (
	findLimit        = 5
	minQueryLen      = 2
	maxCallbackBytes = 64
)

const (
	msgUnknown       = "⚠️ Unknown command. Use /help for instructions."
	msgAlive         = "✅ Bot is running smoothly! Build %s"
	msgInvalidWord   = "⚠️ Please enter a valid word (max 50 chars)."
	msgConflict      = "⚠️ %s already exists!"
	msgSaveFailed    = "⚠️ Could not save word. Try again."
	msgNotFound      = "⚠️ %s not found."
	msgDeleted       = "✅ %s deleted."
	msgDeleteEmpty   = "⚠️ Enter a word to delete.\nExample: /delete serendipity"
	msgDeleteFailed  = "⚠️ Could not delete. Try again."
	msgSaveEmpty     = "⚠️ Enter a word to search (max 50 chars).\nExample: /sw serendipity"
	msgNoInfo        = "⚠️ No info for %s.\nTry /w to add manually."
	msgProcessFailed = "⚠️ Could not process. Try again."
	msgQueryShort    = "⚠️ Query must be at least 2 characters long."
	msgFindEmpty     = "⚠️ Enter a search term.\nExample: /f creative"
	msgNoMatches     = "🔍 No matches for %s\nTry: /sw %s"
	msgSearchFailed  = "⚠️ Could not search. Try later."
	msgNoRecent      = "⏳ No words in last %d days.\nTry /w or /sw!"
	msgRecentFailed  = "⚠️ Could not fetch words. Try later."
	msgSomethingOff  = "⚠️ Something went wrong! Please try again."
	msgCancelled     = "❎ Cancelled. Start again with /w."
	msgNothingCancel = "Nothing to cancel."
	addAnotherHint   = "➕ Add another? /w | Menu: /help"
	addAnotherButton = "➕ Add Another"
)

func (d *Dispatcher) test(ctx context.Context, req Request) error {
	return d.reply(ctx, req, fmt.Sprintf(msgAlive, buildinfo.Short()))
}

func (d *Dispatcher) startAdd(ctx context.Context, req Request, sess Session) error {
	d.setState(ctx, req.UserID, sess, AwaitingWord{})
	text := "📖 " + format.Bold("Add a word") + "\n" +
		format.Italic("Type your word below.") + "\n\n" +
		format.Italic("Example:") + " " + format.Code("serendipity") + "\n" +
		format.Escape("Send /cancel to stop.")
	return d.send(ctx, req, text, notify.Options{Rich: true})
}

func (d *Dispatcher) cancel(ctx context.Context, req Request, sess Session) error {
	if _, idle := sess.State.(Idle); idle || sess.State == nil {
		return d.reply(ctx, req, msgNothingCancel)
	}
	d.setState(ctx, req.UserID, sess, Idle{})
	return d.reply(ctx, req, msgCancelled)
}

// wordInput handles the first dialog step. Invalid input keeps the state.
func (d *Dispatcher) wordInput(ctx context.Context, req Request, sess Session, text string) error {
	key, err := words.Normalize(text)
	if err != nil {
		return d.reply(ctx, req, msgInvalidWord)
	}

	existing, found, err := d.store.Lookup(ctx, key)
	if err != nil {
		return d.fail(ctx, req, msgSomethingOff, fmt.Errorf("lookup %q: %w", key, err))
	}
	if found {
		d.setState(ctx, req.UserID, sess, Idle{})
		body := "📖 " + format.Bold(key) + format.Escape(" already exists!") + "\n\n" + d.render.Rich(existing)
		plain := "📖 " + key + " already exists!\n\n" + d.render.Plain(existing)
		return d.sendRich(ctx, req, body, plain)
	}

	d.setState(ctx, req.UserID, sess, AwaitingDefinition{Word: key})
	prompt := "📖 " + format.Bold(key) + "\n" + format.Italic("Definition?")
	return d.send(ctx, req, prompt, notify.Options{Rich: true})
}

// definitionInput handles the second dialog step. The session returns to
// Idle whatever the outcome.
func (d *Dispatcher) definitionInput(ctx context.Context, req Request, sess Session, word, text string) (err error) {
	defer d.setState(ctx, req.UserID, sess, Idle{})

	res, err := d.store.Create(ctx, words.Word{
		Word:          word,
		Description:   text,
		AddedByUserID: userKey(req.UserID),
		AddedByName:   sess.UserName,
	})
	if err != nil {
		return d.fail(ctx, req, msgSaveFailed, fmt.Errorf("create %q: %w", word, err))
	}
	if res.Status == words.Conflict {
		return d.reply(ctx, req, fmt.Sprintf(msgConflict, word))
	}

	body := "✅ " + format.Bold(word) + format.Escape(" added!") + "\n" +
		d.render.Rich(res.Word) + "\n\n" + format.Escape(addAnotherHint)
	plain := "✅ " + word + " added!\n" + d.render.Plain(res.Word) + "\n\n" + addAnotherHint
	return d.sendRich(ctx, req, body, plain)
}

func (d *Dispatcher) delete(ctx context.Context, req Request, arg string) error {
	if arg == "" {
		return d.reply(ctx, req, msgDeleteEmpty)
	}
	key := strings.ToLower(arg)

	_, found, err := d.store.Lookup(ctx, key)
	if err != nil {
		return d.fail(ctx, req, msgDeleteFailed, fmt.Errorf("lookup %q: %w", key, err))
	}
	if !found {
		return d.reply(ctx, req, fmt.Sprintf(msgNotFound, arg))
	}

	switch err := d.store.Delete(ctx, key); {
	case errors.Is(err, words.ErrNotFound):
		// deleted concurrently since the lookup
		return d.reply(ctx, req, fmt.Sprintf(msgNotFound, arg))
	case err != nil:
		return d.fail(ctx, req, msgDeleteFailed, fmt.Errorf("delete %q: %w", key, err))
	}
	return d.reply(ctx, req, fmt.Sprintf(msgDeleted, arg))
}

// searchAndSave checks the store before asking the model so known words
// never cost a model call.
func (d *Dispatcher) searchAndSave(ctx context.Context, req Request, arg string) error {
	key, err := words.Normalize(arg)
	if err != nil {
		return d.reply(ctx, req, msgSaveEmpty)
	}

	existing, found, err := d.store.Lookup(ctx, key)
	if err != nil {
		return d.fail(ctx, req, msgProcessFailed, fmt.Errorf("lookup %q: %w", key, err))
	}
	if found {
		body := "📚 " + format.Bold(strings.ToUpper(key)) + format.Escape(" already exists!") + "\n\n" + d.render.Rich(existing)
		plain := "📚 " + strings.ToUpper(key) + " already exists!\n\n" + d.render.Plain(existing)
		return d.sendRich(ctx, req, body, plain)
	}

	details, ok := d.knowledge.Define(ctx, key)
	if !ok {
		return d.reply(ctx, req, fmt.Sprintf(msgNoInfo, key))
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = "User"
	}
	res, err := d.store.Create(ctx, words.Word{
		Word:          key,
		Description:   details,
		AddedByUserID: userKey(req.UserID),
		AddedByName:   name,
		Category:      words.CategorySearched,
	})
	if err != nil {
		return d.fail(ctx, req, msgProcessFailed, fmt.Errorf("create %q: %w", key, err))
	}
	if res.Status == words.Conflict {
		return d.reply(ctx, req, fmt.Sprintf(msgConflict, key))
	}

	body := "✅ " + format.Bold(strings.ToUpper(key)) + format.Escape(" saved!") + "\n\n" + d.render.Rich(res.Word)
	plain := "✅ " + strings.ToUpper(key) + " saved!\n\n" + d.render.Plain(res.Word)
	return d.sendRich(ctx, req, body, plain, keyboard.InlineBtn{Text: addAnotherButton, InlineQuery: CmdSave + " "})
}

// ask sends the model's answer, split into MessageLimit-sized chunks.
func (d *Dispatcher) ask(ctx context.Context, req Request, arg string) error {
	if utf8.RuneCountInString(arg) < minQueryLen {
		return d.reply(ctx, req, msgQueryShort)
	}
	answer := d.knowledge.Ask(ctx, arg)
	return d.sendChunks(ctx, req, answer)
}

func (d *Dispatcher) find(ctx context.Context, req Request, term string) error {
	if term == "" {
		return d.reply(ctx, req, msgFindEmpty)
	}

	exact, found, err := d.store.Lookup(ctx, strings.ToLower(term))
	if err != nil {
		return d.fail(ctx, req, msgSearchFailed, fmt.Errorf("lookup %q: %w", term, err))
	}
	if found {
		return d.sendChunks(ctx, req, d.render.Plain(exact))
	}

	matches, err := d.store.Search(ctx, words.Query{Contains: term, Limit: findLimit})
	if err != nil {
		return d.fail(ctx, req, msgSearchFailed, fmt.Errorf("search %q: %w", term, err))
	}
	switch len(matches) {
	case 0:
		return d.reply(ctx, req, fmt.Sprintf(msgNoMatches, term, term))
	case 1:
		return d.sendChunks(ctx, req, d.render.Plain(matches[0]))
	}

	var buttons []keyboard.InlineBtn
	for _, w := range matches {
		if len(callbacks.Encode(WordCallback, w.Word)) > maxCallbackBytes {
			continue
		}
		buttons = append(buttons, keyboard.InlineBtn{Text: "🔷 " + strings.ToUpper(w.Word), Unique: WordCallback, Data: w.Word})
	}
	return d.send(ctx, req, render.MatchList(matches), notify.Options{Buttons: buttons})
}

func (d *Dispatcher) recent(ctx context.Context, req Request, days int) error {
	since := d.now().Add(-time.Duration(days) * 24 * time.Hour)
	ws, err := d.store.Search(ctx, words.Query{Since: since})
	if err != nil {
		return d.fail(ctx, req, msgRecentFailed, fmt.Errorf("recent %d days: %w", days, err))
	}
	if len(ws) == 0 {
		return d.reply(ctx, req, fmt.Sprintf(msgNoRecent, days))
	}
	return d.sendChunks(ctx, req, d.render.DayReport(days, ws))
}

func helpText(entries []Entry) string {
	var b strings.Builder
	b.WriteString("✨ " + format.Bold("Vocabulary Bot") + " ✨\n")
	b.WriteString(render.Line + "\n\n")
	b.WriteString("❓ " + format.Bold("Commands") + "\n")
	for _, e := range entries {
		if e.Hidden {
			continue
		}
		usage := e.Usage
		if usage == "" {
			usage = e.Name
		}
		b.WriteString("⭐ " + format.Code(usage) + format.Escape(" — "+e.Description) + "\n")
	}
	b.WriteString("\n📋 " + format.Bold("Examples") + "\n")
	for _, ex := range []string{"/sw serendipity", "/f creative", "/delete serendipity", "/day7"} {
		b.WriteString("⭐ " + format.Code(ex) + "\n")
	}
	b.WriteString("\n" + render.Line + "\n")
	b.WriteString("👤 " + format.Italic("Level up your vocabulary!"))
	return b.String()
}

func userKey(id int64) string {
	return fmt.Sprintf("%d", id)
}
