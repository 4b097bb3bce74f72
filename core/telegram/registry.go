package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptbot/core/telegram/commands"
	"github.com/m3rciful/scriptbot/core/telegram/netutil"
)

// Registry holds bot commands and button actions.
type Registry struct {
	commands         map[string]commands.Command
	actions          map[callbacks.Kind]tele.HandlerFunc
	actionsMu        sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
	mediaFallback    tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		actions:  make(map[callbacks.Kind]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds a new command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu, optionally without hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(cmd, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a command by name or alias to its canonical key.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		if slices.Contains(cmd.Aliases, name) || slices.Contains(cmd.Aliases, strings.TrimPrefix(name, "/")) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterAction binds a handler to a button kind.
func (r *Registry) RegisterAction(kind callbacks.Kind, handler tele.HandlerFunc) error {
	if r == nil || !kind.Valid() || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.skip",
			slog.String("cb_key", string(kind)),
			slog.Bool("handler_nil", handler == nil),
		)
		return fmt.Errorf("invalid action registration %q", kind)
	}
	r.actionsMu.Lock()
	defer r.actionsMu.Unlock()
	if _, exists := r.actions[kind]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.duplicate",
			slog.String("cb_key", string(kind)),
		)
		return fmt.Errorf("action already registered: %s", kind)
	}
	r.actions[kind] = handler
	return nil
}

// Action returns the handler bound to kind.
func (r *Registry) Action(kind callbacks.Kind) (tele.HandlerFunc, bool) {
	r.actionsMu.RLock()
	defer r.actionsMu.RUnlock()
	h, ok := r.actions[kind]
	return h, ok
}

// ListActions returns the registered kinds sorted (for diagnostics).
func (r *Registry) ListActions() []string {
	r.actionsMu.RLock()
	defer r.actionsMu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for k := range r.actions {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown or stale buttons.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text nobody was waiting for.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// SetMediaFallback sets the handler for files and media nobody was waiting for.
func (r *Registry) SetMediaFallback(h tele.HandlerFunc) {
	r.mediaFallback = h
}

// MediaFallback returns the current media fallback handler.
func (r *Registry) MediaFallback() tele.HandlerFunc {
	return r.mediaFallback
}

// SetupCommands publishes the visible command menu to Telegram.
func SetupCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", netutil.Redact(err)),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelDebug, "register.commands.set",
		slog.Int("count", len(list)),
	)
}
