package helpers

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/teletest"
)

func TestBuildContextCachesRID(t *testing.T) {
	c := teletest.NewMessage(10, 20, "hi")
	ctx := BuildContext(c)
	if logger.RIDFrom(ctx) == "" {
		t.Fatal("rid missing")
	}
	if logger.ChatIDFrom(ctx) != 10 || logger.UserIDFrom(ctx) != 20 {
		t.Fatalf("meta chat=%d user=%d", logger.ChatIDFrom(ctx), logger.UserIDFrom(ctx))
	}
	again := WithHandler(c, "start")
	if logger.HandlerFrom(again) != "start" {
		t.Fatalf("handler = %q", logger.HandlerFrom(again))
	}
	if logger.HandlerFrom(BuildContext(c)) != "start" {
		t.Fatal("enriched context should be stored back")
	}
}

func TestNotifyAndAlert(t *testing.T) {
	cb := teletest.NewCallback(1, 1, "page", "0")
	if err := Alert(cb, "stale"); err != nil {
		t.Fatalf("alert: %v", err)
	}
	resp := cb.Responses()
	if len(resp) != 1 || !resp[0].ShowAlert || resp[0].Text != "stale" {
		t.Fatalf("responses = %+v", resp)
	}

	msg := teletest.NewMessage(1, 1, "x")
	if err := Notify(msg, "hello"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if msg.LastText() != "hello" {
		t.Fatalf("sent = %q", msg.LastText())
	}
}

type finder struct{ seen int64 }

func (f *finder) FindByTelegramID(_ context.Context, id int64) (string, error) {
	f.seen = id
	if id == 0 {
		return "", errors.New("none")
	}
	return "alice", nil
}

func TestCurrentUser(t *testing.T) {
	f := &finder{}
	name, err := CurrentUser[string](teletest.NewMessage(5, 77, "x"), f)
	if err != nil || name != "alice" || f.seen != 77 {
		t.Fatalf("name=%q err=%v seen=%d", name, err, f.seen)
	}
}
