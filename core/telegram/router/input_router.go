package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/scriptbot/core/telegram"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
	"github.com/m3rciful/scriptbot/core/telegram/state"
)

// InputRoutes binds every input kind to a handler that offers the message to
// the Awaiter before any default handling. Text nobody waits for is matched
// against command aliases and then the text fallback; other kinds go to the
// media fallback.
func InputRoutes(aw *state.Awaiter, reg *tg.Registry) []tg.Route {
	routes := make([]tg.Route, 0, len(state.InputKinds))
	for _, kind := range state.InputKinds {
		routes = append(routes, tg.Route{
			Endpoint: kind.Endpoint(),
			Handler:  inputHandler(aw, reg, kind),
		})
	}
	return routes
}

func inputHandler(aw *state.Awaiter, reg *tg.Registry, kind state.InputKind) tele.HandlerFunc {
	fallback := defaultInput(reg, kind)
	if aw == nil {
		return fallback
	}
	name := "awaiter." + string(kind)
	intercepted := aw.Intercept(kind, fallback, func(c tele.Context, err error) {
		logHandlerSummary(c, name, updateStart(c), "", "consumed", err)
	})
	return func(c tele.Context) error {
		tghelpers.WithHandler(c, name)
		return intercepted(c)
	}
}

// defaultInput handles a message no continuation took: command aliases for
// text, then the text or media fallback.
func defaultInput(reg *tg.Registry, kind state.InputKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := updateStart(c)
		if kind == state.KindText && reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		var fb tele.HandlerFunc
		if reg != nil {
			if kind == state.KindText {
				fb = reg.TextFallback()
			} else {
				fb = reg.MediaFallback()
			}
		}
		name := "unexpected_" + string(kind)
		if fb == nil {
			logHandlerSummary(c, name, start, "skip", "ok", nil)
			return nil
		}
		return handleWithSummary(c, name, start, "skip", "", func() error {
			return fb(c)
		})
	}
}

// updateStart is when the logging middleware first saw the update.
func updateStart(c tele.Context) time.Time {
	if t, ok := c.Get("update_start").(time.Time); ok {
		return t
	}
	return time.Now()
}
