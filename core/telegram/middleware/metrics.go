package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "msg_counters"

// Counters tallies what a handler sent for one update. Sends may complete on
// dispatcher goroutines, so every field is atomic.
type Counters struct {
	Messages atomic.Int32
	Answers  atomic.Int32
	Keyboard atomic.Bool
}

func (n *Counters) sent(opts []any) {
	n.Messages.Add(1)
	if hasKeyboard(opts) {
		n.Keyboard.Store(true)
	}
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// countingContext counts successful outbound calls made through the wrapped context.
type countingContext struct {
	tele.Context
	n *Counters
}

func (m countingContext) count(err error, opts []any) error {
	if err == nil {
		m.n.sent(opts)
	}
	return err
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.count(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what any, opts ...any) error {
	return m.count(m.Context.EditOrReply(what, opts...), opts)
}

// Respond counts callback answers separately; toasts and alerts are not messages.
func (m countingContext) Respond(resp ...*tele.CallbackResponse) error {
	err := m.Context.Respond(resp...)
	if err == nil {
		m.n.Answers.Add(1)
	}
	return err
}

// MessageMetricsMiddleware attaches fresh Counters to every update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &Counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// CountersFrom returns the update's counters, or zero counters when the middleware is absent.
func CountersFrom(c tele.Context) *Counters {
	if n, ok := c.Get(countersKey).(*Counters); ok {
		return n
	}
	return &Counters{}
}
