package state

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Intercept returns a handler for kind that offers each message to the
// Awaiter first and calls fallback only when no continuation consumed it.
// Text starting with "/" is a command and never answers a prompt.
// consumed, when set, observes every message a continuation handled.
func (a *Awaiter) Intercept(kind InputKind, fallback tele.HandlerFunc, consumed func(tele.Context, error)) tele.HandlerFunc {
	return func(c tele.Context) error {
		command := kind == KindText && strings.HasPrefix(c.Text(), "/")
		if chat := c.Chat(); chat != nil && !command {
			if ok, err := a.Dispatch(chat.ID, kind, c); ok {
				if consumed != nil {
					consumed(c, err)
				}
				return err
			}
		}
		if fallback == nil {
			return nil
		}
		return fallback(c)
	}
}
