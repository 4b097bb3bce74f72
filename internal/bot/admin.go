package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/format"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
	"github.com/m3rciful/scriptbot/internal/storage"
)

func (b *Bot) admin(c tele.Context) error {
	return tghelpers.SendMD(c, textAdminMenu, adminMenu())
}

// startOfDay is midnight of t's day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func ago(now, then time.Time) string {
	minutes := int(now.Sub(then) / time.Minute)
	if minutes < 1 {
		return textJustNow
	}
	return fmt.Sprintf(textMinutesAgo, minutes)
}

func (b *Bot) stats(c tele.Context) error {
	now := b.Now()
	users, err := b.Users.FindLoggedInSince(tghelpers.BuildContext(c), startOfDay(now, b.Location))
	if err != nil {
		return fail(c, err)
	}
	if len(users) == 0 {
		return tghelpers.SendText(c, textStatsEmpty)
	}

	var sb strings.Builder
	sb.WriteString(textStatsHead)
	for _, u := range users {
		name := format.Markdown(u.Nickname)
		if u.TelegramID.Valid {
			name = fmt.Sprintf("[%s](tg://user?id=%d)", name, u.TelegramID.Int64)
		}
		fmt.Fprintf(&sb, "• %s, %s\n", name, ago(now, u.LastLogin.Time))
	}
	return tghelpers.SendMD(c, sb.String())
}

func (b *Bot) deletePrompt(c tele.Context) error {
	return b.prompt(c, textDeletePrompt, b.Awaiter.AwaitText, b.deleteScript)
}

// deleteScript consumes the script name sent after the delete prompt.
func (b *Bot) deleteScript(c tele.Context) error {
	name := strings.TrimSpace(c.Text())
	if name == "" {
		return tghelpers.SendText(c, textNameEmpty)
	}
	ctx := tghelpers.BuildContext(c)
	item, err := b.Catalog.FindByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return tghelpers.SendMD(c, fmt.Sprintf(textScriptMissingMD, code(name)))
	}
	if err != nil {
		return fail(c, err)
	}
	if err := b.Catalog.Delete(ctx, item); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fail(c, err)
	}
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "catalog.deleted",
		slog.String("status", "ok"),
		slog.String("script", name),
	)
	return tghelpers.SendMD(c, fmt.Sprintf(textScriptDeletedMD, code(name)))
}
