package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/wordbot/core/logger"
	"github.com/m3rciful/wordbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var errBadCallback = errors.New("telegram: callback needs a key and a handler")

// Registry is the bot's catalogue: commands in menu order, callback
// handlers by key and the single text handler.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]commands.Command
	order    []string

	callbacks map[string]tele.HandlerFunc
	onMissing tele.HandlerFunc
	onText    tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback fallback
// answers "Unsupported action".
func NewRegistry() *Registry {
	return &Registry{
		commands:  map[string]commands.Command{},
		callbacks: map[string]tele.HandlerFunc{},
		onMissing: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func wireWarn(event string, attrs ...slog.Attr) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event, attrs...)
}

// RegisterCommand appends cmd to the catalogue. Names must start with "/";
// invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil {
		return
	}
	switch {
	case name == "" || cmd.Description == "":
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
		return
	case !strings.HasPrefix(name, "/"):
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", "no_slash_prefix"))
		return
	}
	if cmd.Usage == "" {
		cmd.Usage = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[name]; dup {
		wireWarn("register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
	r.order = append(r.order, name)
}

// Commands returns the catalogue in registration order.
func (r *Registry) Commands() []commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]commands.Command, len(r.order))
	for i, name := range r.order {
		out[i] = r.commands[name]
	}
	return out
}

// ListCommands renders the catalogue for setMyCommands. Hidden commands are
// left out when visibleOnly is set.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for _, name := range r.order {
		cmd := r.commands[name]
		if visibleOnly && cmd.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	return list
}

// LookupCommand resolves a command or one of its aliases to the registered
// name.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = commands.Normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for _, key := range r.order {
		cmd := r.commands[key]
		if slices.ContainsFunc(cmd.Aliases, func(a string) bool { return commands.Normalize(a) == name }) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// RegisterCallback binds handler to the callback key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		wireWarn("register.callback.skip", slog.String("key", key), slog.Bool("handler_nil", handler == nil))
		return errBadCallback
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		return fmt.Errorf("telegram: callback %q already registered", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys, sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CallbackNotFound returns the handler for unregistered callback keys.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onMissing
}

// SetTextHandler installs the handler for every text message, commands
// included.
func (r *Registry) SetTextHandler(h tele.HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onText = h
}

// TextHandler returns the installed text handler.
func (r *Registry) TextHandler() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onText
}

// CommandSetter is satisfied by *tele.Bot.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// SetupCommands publishes the visible commands as the bot menu.
func SetupCommands(bot CommandSetter, reg *Registry) {
	if reg == nil {
		return
	}
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	ctx := context.Background()
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelError, "register.commands.set_failed", logger.Err(err))
		return
	}
	logger.TWire.LogAttrs(ctx, slog.LevelInfo, "register.commands", slog.Int("count", len(list)))
}
