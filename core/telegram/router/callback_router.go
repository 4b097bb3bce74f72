package router

import (
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/scriptbot/core/telegram"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptbot/core/telegram/middleware"
)

// CallbackRoute parses every button press once into a callbacks.Action,
// stores it on the context and dispatches on its kind. Unknown kinds and
// malformed arguments go to the registry's not-found handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		action, err := callbacks.Parse(c.Callback())
		key, _ := callbacks.Split(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		var h tele.HandlerFunc
		if err == nil {
			callbacks.Store(c, action)
			h, _ = reg.Action(action.Kind)
		}
		if h == nil {
			reason := "not_found"
			if errors.Is(err, callbacks.ErrUnknownKind) {
				reason = "unknown_kind"
			}
			fallback := reg.CallbackNotFound()
			return handleWithSummary(c, name, start, "skip", "not_found", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return c.Respond()
			}, append(extras, slog.String("cause", reason))...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			err := h(c)
			// Answer the press so the client stops its spinner, unless the
			// handler already did.
			if middleware.CountersFrom(c).Answers.Load() == 0 {
				_ = c.Respond()
			}
			return err
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
