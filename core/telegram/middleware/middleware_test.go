package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/telegram/teletest"
)

func ok(tele.Context) error { return nil }

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		IsAdmin:  func(id int64) bool { return id == 1 },
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	if err := h(teletest.NewMessage(1, 1, "/admin")); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := h(teletest.NewMessage(2, 2, "/admin")); err != nil {
		t.Fatalf("non-admin: %v", err)
	}
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d", calls, rejected)
	}
}

func TestChatOnlyMiddleware(t *testing.T) {
	h := ChatOnlyMiddleware(-100, nil)(func(tele.Context) error { return errors.New("reached") })
	if err := h(teletest.NewCallback(-100, 5, "approve", "x.lua")); err == nil {
		t.Fatal("review chat should pass")
	}
	if err := h(teletest.NewCallback(5, 5, "approve", "x.lua")); err != nil {
		t.Fatalf("other chat must be dropped, got %v", err)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(ok)

	_ = h(teletest.NewMessage(1, 42, "hi"))
	_ = h(teletest.NewMessage(1, 42, "again"))
	_ = h(teletest.NewCallback(1, 42, "page", "1"))
	_ = h(teletest.NewMessage(2, 43, "other user"))
	if limited != 1 {
		t.Fatalf("limited = %d, want 1", limited)
	}
}

func TestRecoverMiddlewareReturnsError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(teletest.NewMessage(1, 1, "x")); err == nil {
		t.Fatal("expected error from recovered panic")
	}
}

func TestMessageMetricsCountsSends(t *testing.T) {
	c := teletest.NewMessage(1, 1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		if err := c.Send("one"); err != nil {
			return err
		}
		return c.Send("two", &tele.ReplyMarkup{})
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	n := CountersFrom(c)
	if n.Messages.Load() != 2 || !n.Keyboard.Load() {
		t.Fatalf("messages=%d kb=%v", n.Messages.Load(), n.Keyboard.Load())
	}
}

func TestMessageMetricsCountsAnswersApart(t *testing.T) {
	c := teletest.NewCallback(1, 1, "page", "0")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "ok"})
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	n := CountersFrom(c)
	if n.Messages.Load() != 0 || n.Answers.Load() != 1 {
		t.Fatalf("messages=%d answers=%d", n.Messages.Load(), n.Answers.Load())
	}
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := teletest.NewMessage(7, 8, "hello")
	h := LoggerMiddleware(ok)
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rid, _ := c.Get("rid").(string); rid == "" {
		t.Fatal("rid not set")
	}
}
