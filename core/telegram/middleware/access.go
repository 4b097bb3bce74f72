package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// IsAdmin reports whether a chat may run admin commands.
	IsAdmin  func(id int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only allow-listed chats reach downstream handlers.
// Rejected updates have no side effects beyond OnReject.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin != nil && opts.IsAdmin(tghelpers.ChatID(c)) {
				return next(c)
			}
			return deny(c, "admin", opts.OnReject)
		}
	}
}

// ChatOnlyMiddleware lets only updates from chatID reach downstream handlers.
func ChatOnlyMiddleware(chatID int64, onReject tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if chatID != 0 && tghelpers.ChatID(c) == chatID {
				return next(c)
			}
			return deny(c, "chat", onReject)
		}
	}
}

func deny(c tele.Context, guard string, onReject tele.HandlerFunc) error {
	ctx := tghelpers.BuildContext(c)
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "access.denied",
		slog.String("status", "denied"),
		slog.String("cause", guard),
	)
	if onReject != nil {
		return onReject(c)
	}
	return nil
}
