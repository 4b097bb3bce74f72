// Package callbacks defines the closed set of inline-button actions and
// their encoding on top of telebot's "\f<unique>|<data>" callback format.
package callbacks

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Kind selects the handler for a button press.
type Kind string

// Button kinds understood by the bot.
const (
	KindMenu        Kind = "menu"
	KindLink        Kind = "link"
	KindProfile     Kind = "profile"
	KindUnlink      Kind = "unlink"
	KindMarketplace Kind = "market"
	KindPage        Kind = "page"
	KindToggle      Kind = "toggle"
	KindUpload      Kind = "upload"
	KindApprove     Kind = "approve"
	KindReject      Kind = "reject"
	KindAdminStats  Kind = "admin_stats"
	KindAdminDelete Kind = "admin_delete"
	KindNoop        Kind = "noop"
)

var kinds = map[Kind]struct{}{
	KindMenu: {}, KindLink: {}, KindProfile: {}, KindUnlink: {},
	KindMarketplace: {}, KindPage: {}, KindToggle: {}, KindUpload: {},
	KindApprove: {}, KindReject: {}, KindAdminStats: {}, KindAdminDelete: {},
	KindNoop: {},
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// MaxArgBytes keeps encoded callback data within Telegram's 64-byte limit.
const MaxArgBytes = 48

var (
	// ErrUnknownKind is returned for callback data outside the closed set.
	ErrUnknownKind = errors.New("callbacks: unknown action")
	// ErrMalformed is returned when an action's argument does not fit its kind.
	ErrMalformed = errors.New("callbacks: malformed argument")
)

// Action is a parsed button press.
type Action struct {
	Kind Kind
	Arg  string
}

// New builds an action; it does not validate the argument.
func New(kind Kind, arg string) Action {
	return Action{Kind: kind, Arg: arg}
}

// PageIndex returns the argument of a page action.
func (a Action) PageIndex() (int, error) {
	n, err := strconv.Atoi(a.Arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: page %q", ErrMalformed, a.Arg)
	}
	return n, nil
}

// Name returns the item or submission name carried by toggle, approve and reject actions.
func (a Action) Name() (string, error) {
	name := strings.TrimSpace(a.Arg)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrMalformed)
	}
	return name, nil
}

// Button renders the action as an inline button with label text.
func (a Action) Button(text string) tele.InlineButton {
	return tele.InlineButton{Unique: string(a.Kind), Text: text, Data: a.Arg}
}

// FitsArg reports whether arg can be carried by a button.
func FitsArg(arg string) bool {
	return len(arg) <= MaxArgBytes && !strings.ContainsAny(arg, "\n\f")
}

// Split returns the unique key and payload of a callback. telebot fills
// Unique only when a "\f<unique>" endpoint is registered; otherwise the
// encoded form is still in Data.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw, ok := strings.CutPrefix(cb.Data, "\f")
	if !ok {
		return strings.TrimSpace(cb.Data), ""
	}
	key, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Parse decodes a callback into an Action.
func Parse(cb *tele.Callback) (Action, error) {
	key, payload := Split(cb)
	kind := Kind(key)
	if !kind.Valid() {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownKind, key)
	}
	return Action{Kind: kind, Arg: payload}, nil
}

const contextKey = "callback_action"

// Store keeps the parsed action on the update context.
func Store(c tele.Context, a Action) {
	c.Set(contextKey, a)
}

// From returns the action stored by the callback route.
func From(c tele.Context) (Action, bool) {
	a, ok := c.Get(contextKey).(Action)
	return a, ok
}
