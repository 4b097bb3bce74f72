package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/format"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
)

func (b *Bot) start(c tele.Context) error {
	_, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	text := textWelcomeUnlinked
	if linked {
		text = textWelcomeLinked
	}
	if c.Callback() != nil {
		return tghelpers.EditOrSendText(c, text, startMenu(linked))
	}
	return tghelpers.SendText(c, text, startMenu(linked))
}

func (b *Bot) link(c tele.Context) error {
	return b.prompt(c, textLinkPrompt, b.Awaiter.AwaitText, b.receiveToken)
}

// receiveToken consumes the reply to the link prompt. Every outcome ends
// the prompt; a bad token means starting over.
func (b *Bot) receiveToken(c tele.Context) error {
	token := strings.TrimSpace(c.Text())
	if token == "" || tghelpers.UserID(c) == 0 {
		return tghelpers.SendText(c, textTokenEmpty)
	}
	_, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if linked {
		return tghelpers.SendText(c, textAlreadyLinked)
	}

	ok, err := b.Users.LinkByToken(tghelpers.BuildContext(c), token, tghelpers.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	status, outcome := "ok", "ok"
	if !ok {
		status, outcome = "skip", "not_found"
	}
	logOutcome(c, logger.SVCUsers, "account.link",
		slog.String("status", status),
		slog.String("outcome", outcome),
	)
	if !ok {
		return tghelpers.SendText(c, textTokenInvalid)
	}
	return tghelpers.SendText(c, textLinked, startMenu(true))
}

func (b *Bot) profile(c tele.Context) error {
	u, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.SendText(c, textNotLinked)
	}
	last := textNever
	if u.LastLogin.Valid {
		last = u.LastLogin.Time.In(b.Location).Format("2006-01-02 15:04")
	}
	text := fmt.Sprintf(textProfileMD, format.Markdown(u.Nickname), last, u.Selection().Len())
	return tghelpers.SendMD(c, text, profileMenu())
}

func (b *Bot) unlink(c tele.Context) error {
	u, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.Alert(c, textNotLinked)
	}
	if err := b.Users.UnlinkTelegram(tghelpers.BuildContext(c), u.ID); err != nil {
		return fail(c, err)
	}
	logOutcome(c, logger.SVCUsers, "account.unlink", slog.String("status", "ok"))
	return tghelpers.SendText(c, textUnlinked, startMenu(false))
}

func (b *Bot) chatID(c tele.Context) error {
	return tghelpers.SendMD(c, fmt.Sprintf(textChatIDMD, tghelpers.ChatID(c)))
}

func (b *Bot) cancel(c tele.Context) error {
	if b.Awaiter.Cancel(tghelpers.ChatID(c)) {
		logOutcome(c, logger.SVCConversation, "awaiter.cancelled", slog.String("status", "ok"))
		return tghelpers.SendText(c, textCancelled)
	}
	return tghelpers.SendText(c, textNoPending)
}
