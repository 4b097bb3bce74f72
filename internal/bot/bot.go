// Package bot wires the conversation awaiter, moderation queue and
// marketplace pager to Telegram updates.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	tg "github.com/m3rciful/scriptbot/core/telegram"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
	"github.com/m3rciful/scriptbot/core/telegram/middleware"
	"github.com/m3rciful/scriptbot/core/telegram/sender"
	"github.com/m3rciful/scriptbot/core/telegram/state"
	"github.com/m3rciful/scriptbot/core/telegram/ui"
	"github.com/m3rciful/scriptbot/internal/marketplace"
	"github.com/m3rciful/scriptbot/internal/moderation"
	"github.com/m3rciful/scriptbot/internal/storage"
)

// DefaultMaxScriptBytes caps the size of an uploaded script.
const DefaultMaxScriptBytes = 512 << 10

// Users is the account store the handlers need.
type Users interface {
	tghelpers.UserFinder[storage.User]
	LinkByToken(ctx context.Context, token string, tgID int64) (bool, error)
	UnlinkTelegram(ctx context.Context, userID uuid.UUID) error
	FindLoggedInSince(ctx context.Context, since time.Time) ([]storage.User, error)
}

// FileFetcher downloads uploaded files; *tele.Bot implements it.
type FileFetcher interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// Deps are the collaborators of Bot.
type Deps struct {
	Users   Users
	Catalog marketplace.Catalog
	Market  *marketplace.Service
	Queue   *moderation.Queue
	Awaiter *state.Awaiter

	// ReviewChat receives submissions; only presses from it decide them.
	ReviewChat int64
	IsAdmin    func(chatID int64) bool

	MaxScriptBytes int64
	Location       *time.Location
	Now            func() time.Time
}

// Bot holds the update handlers.
type Bot struct {
	Deps

	mu     sync.RWMutex
	poster sender.Poster
	files  FileFetcher
	disp   *sender.Dispatcher
}

// New validates deps and returns a Bot. Attach must be called before
// updates arrive that post to other chats or download files.
func New(d Deps) (*Bot, error) {
	switch {
	case d.Users == nil, d.Catalog == nil, d.Market == nil:
		return nil, errors.New("bot.New: stores are required")
	case d.Queue == nil, d.Awaiter == nil:
		return nil, errors.New("bot.New: queue and awaiter are required")
	case d.ReviewChat == 0:
		return nil, errors.New("bot.New: review chat is required")
	}
	if d.IsAdmin == nil {
		d.IsAdmin = func(int64) bool { return false }
	}
	if d.MaxScriptBytes <= 0 {
		d.MaxScriptBytes = DefaultMaxScriptBytes
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Bot{Deps: d}, nil
}

// Attach sets the outbound transport used for other chats and downloads.
// d may be nil, in which case posts are sent inline.
func (b *Bot) Attach(p sender.Poster, f FileFetcher, d *sender.Dispatcher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.poster, b.files, b.disp = p, f, d
}

func (b *Bot) transport() (sender.Poster, FileFetcher, *sender.Dispatcher) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.poster, b.files, b.disp
}

// Fallbacks are the replies for updates no handler claims.
func Fallbacks() ui.Fallbacks {
	return ui.Fallbacks{
		UnknownText:     textUnknownInput,
		UnexpectedMedia: textUnexpectedMedia,
		StaleButton:     textStaleButton,
	}
}

// RateLimited answers updates dropped by the rate limiter.
func RateLimited(c tele.Context) error {
	return tghelpers.Notify(c, textRateLimited)
}

// DenyAdmin answers non-admins that reach an admin command.
func DenyAdmin(c tele.Context) error {
	return tghelpers.Alert(c, textNoAccess)
}

// Register adds every command and button handler to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.start, Description: "Open the main menu"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: b.cancel, Description: "Cancel the current prompt"})
	reg.RegisterCommand("/getchatid", commands.Command{Handler: b.chatID, Description: "Show this chat's ID", Hidden: true})
	reg.RegisterCommand("/admin", commands.Command{Handler: b.admin, Description: "Admin menu", AdminOnly: true})
	Fallbacks().Install(reg)

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{IsAdmin: b.IsAdmin, OnReject: DenyAdmin})
	reviewOnly := middleware.ChatOnlyMiddleware(b.ReviewChat, func(c tele.Context) error {
		return tghelpers.Alert(c, textReviewForbidden)
	})

	actions := map[callbacks.Kind]tele.HandlerFunc{
		callbacks.KindMenu:        b.start,
		callbacks.KindLink:        b.link,
		callbacks.KindProfile:     b.profile,
		callbacks.KindUnlink:      b.unlink,
		callbacks.KindMarketplace: b.marketplace,
		callbacks.KindPage:        b.page,
		callbacks.KindToggle:      b.toggle,
		callbacks.KindUpload:      b.upload,
		callbacks.KindApprove:     reviewOnly(b.decide(moderation.Approve)),
		callbacks.KindReject:      reviewOnly(b.decide(moderation.Reject)),
		callbacks.KindAdminStats:  adminOnly(b.stats),
		callbacks.KindAdminDelete: adminOnly(b.deletePrompt),
		callbacks.KindNoop:        func(c tele.Context) error { return c.Respond() },
	}
	for kind, h := range actions {
		if err := reg.RegisterAction(kind, h); err != nil {
			return fmt.Errorf("bot.Register: %w", err)
		}
	}
	return nil
}

// currentUser resolves the sender's linked account; linked is false when
// there is none.
func (b *Bot) currentUser(c tele.Context) (storage.User, bool, error) {
	u, err := tghelpers.CurrentUser[storage.User](c, b.Users)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return storage.User{}, false, nil
	case err != nil:
		return storage.User{}, false, err
	}
	return u, u.ID != uuid.Nil, nil
}

// fail tells the user something broke and hands err to the handler summary.
func fail(c tele.Context, err error) error {
	_ = tghelpers.SendText(c, textFailed)
	return err
}

// prompt registers next for the chat's reply and then asks for it. A
// registration the awaiter refuses is reported instead of the prompt.
func (b *Bot) prompt(c tele.Context, text string, await func(int64, state.Continuation) (bool, error), next state.Continuation) error {
	chat := tghelpers.ChatID(c)
	if _, err := await(chat, next); err != nil {
		return fail(c, err)
	}
	if err := tghelpers.SendText(c, text); err != nil {
		b.Awaiter.Cancel(chat)
		return err
	}
	return nil
}

// code makes s safe inside a Markdown code span.
func code(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// post sends what to another chat through the dispatcher.
func (b *Bot) post(c tele.Context, chatID int64, what any, opts ...any) error {
	p, _, d := b.transport()
	if p == nil {
		return errors.New("bot: transport not attached")
	}
	return d.Post(tghelpers.BuildContext(c), p, &tele.Chat{ID: chatID}, what, opts...)
}

func logOutcome(c tele.Context, logg *slog.Logger, event string, attrs ...slog.Attr) {
	logger.LogEvent(tghelpers.BuildContext(c), logg, slog.LevelInfo, event, attrs...)
}
