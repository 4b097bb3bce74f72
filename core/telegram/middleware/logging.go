package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
	"github.com/m3rciful/scriptbot/core/telegram/state"
)

// seenUpdates remembers recently logged update ids so an update routed through
// several middleware branches is announced once.
var seenUpdates = newSeenUpdates()

func newSeenUpdates() otter.Cache[int, struct{}] {
	cache, err := otter.MustBuilder[int, struct{}](4096).
		WithTTL(10 * time.Second).
		Build()
	if err != nil {
		panic(err)
	}
	return cache
}

// LoggerMiddleware sets the update rid and logs one sampled update.received line.
// Free text is summarized by size since prompts collect secrets such as link tokens.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		chatID, userID := tghelpers.ChatID(c), tghelpers.UserID(c)
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if !logger.ShouldSampleDebug() || !seenUpdates.SetIfAbsent(upd.ID, struct{}{}) {
			return next(c)
		}
		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.Int("update_id", upd.ID),
		}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user := c.Sender(); user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.Split(upd.Callback)
			if key != "" {
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			}
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			}
		case upd.Message != nil:
			if kind, ok := state.KindOf(upd.Message); ok {
				attrs = append(attrs, slog.String("input_kind", string(kind)))
			}
			if text := c.Text(); strings.HasPrefix(text, "/") {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, 64)))
			} else if text != "" {
				attrs = append(attrs, slog.Int("bytes", len(text)))
			}
		}
		logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
