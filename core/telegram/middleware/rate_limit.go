package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
)

const rateLimitCapacity = 10000

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// updateKind names the update for exclusion matching.
func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware enforces a minimum interval between updates from the
// same user. Last-seen times live in a cache whose TTL equals the interval,
// so idle users do not accumulate.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	lastSeen, err := otter.MustBuilder[int64, time.Time](rateLimitCapacity).
		WithTTL(opts.Interval).
		Build()
	if err != nil {
		logger.TWire.Warn("rate limit disabled",
			slog.String("event", "register.rate_limit"),
			slog.String("err", err.Error()),
		)
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	var mu sync.Mutex

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			now := time.Now()
			mu.Lock()
			last, seen := lastSeen.Get(user.ID)
			limited := seen && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen.Set(user.ID, now)
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("status", "rate_limited"),
				slog.Int64("user_id", user.ID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
