package bot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
	"github.com/m3rciful/scriptbot/core/telegram/netutil"
	"github.com/m3rciful/scriptbot/internal/marketplace"
	"github.com/m3rciful/scriptbot/internal/moderation"
)

const (
	fallbackScriptName = "unknown.lua"
	fallbackAuthor     = "unknown"
)

var errTooLarge = errors.New("bot: script exceeds size limit")

func (b *Bot) upload(c tele.Context) error {
	_, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.SendText(c, textNotLinked)
	}
	return b.prompt(c, textUploadPrompt, b.Awaiter.AwaitDocument, b.receiveScript)
}

// receiveScript consumes the document sent after the upload prompt, queues
// it for review and forwards it to the review chat.
func (b *Bot) receiveScript(c tele.Context) error {
	doc := c.Message().Document
	if doc == nil {
		return tghelpers.SendText(c, textUnexpectedMedia)
	}
	name := strings.TrimSpace(doc.FileName)
	if name == "" {
		name = fallbackScriptName
	}
	if !callbacks.FitsArg(name) {
		return tghelpers.SendText(c, textUploadBadName)
	}
	if int64(doc.FileSize) > b.MaxScriptBytes {
		return tghelpers.SendText(c, fmt.Sprintf(textUploadTooLarge, b.limitKiB()))
	}

	content, err := b.download(&doc.File)
	if errors.Is(err, errTooLarge) {
		return tghelpers.SendText(c, fmt.Sprintf(textUploadTooLarge, b.limitKiB()))
	}
	if err != nil {
		return fail(c, err)
	}

	author := fallbackAuthor
	if u, linked, err := b.currentUser(c); err == nil && linked {
		author = u.Nickname
	}

	sub, _, err := b.Queue.Submit(moderation.Artifact{
		Name:       name,
		Content:    content,
		FileID:     doc.FileID,
		Author:     author,
		AuthorChat: tghelpers.ChatID(c),
	})
	if err != nil {
		return fail(c, err)
	}

	if err := tghelpers.SendMD(c, fmt.Sprintf(textUploadSentMD, code(name))); err != nil {
		return err
	}
	review := &tele.Document{
		File:     tele.File{FileID: sub.FileID},
		FileName: name,
		Caption:  fmt.Sprintf(textReviewCaption, author, name),
	}
	return b.post(c, b.ReviewChat, review, &tele.SendOptions{ReplyMarkup: reviewMenu(name)})
}

func (b *Bot) limitKiB() int64 {
	return (b.MaxScriptBytes + 1023) >> 10
}

func (b *Bot) download(f *tele.File) ([]byte, error) {
	_, files, _ := b.transport()
	if files == nil {
		return nil, errors.New("bot: transport not attached")
	}
	rc, err := files.File(f)
	if err != nil {
		return nil, fmt.Errorf("bot.download: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, b.MaxScriptBytes+1))
	if err != nil {
		return nil, fmt.Errorf("bot.download: %w", err)
	}
	if int64(len(data)) > b.MaxScriptBytes {
		return nil, errTooLarge
	}
	return data, nil
}

// decide resolves a pending submission. Approve publishes it to the
// catalog; both outcomes notify the review chat and the author.
func (b *Bot) decide(d moderation.Decision) tele.HandlerFunc {
	return func(c tele.Context) error {
		a, _ := callbacks.From(c)
		name, err := a.Name()
		if err != nil {
			return tghelpers.Alert(c, textNotPending)
		}
		sub, err := b.Queue.Resolve(name, d)
		if errors.Is(err, moderation.ErrNotFound) {
			return tghelpers.Alert(c, textNotPending)
		}
		if err != nil {
			return fail(c, err)
		}

		text := fmt.Sprintf(textRejectedMD, code(sub.Name))
		if d == moderation.Approve {
			item, err := b.Catalog.Save(tghelpers.BuildContext(c), marketplace.CatalogItem{
				Name:    sub.Name,
				Author:  sub.Author,
				Content: sub.Content,
			})
			if err != nil {
				return fail(c, err)
			}
			logOutcome(c, logger.SVCCatalog, "catalog.published",
				slog.String("status", "ok"),
				slog.String("script", item.Name),
				slog.String("submission_id", sub.ID.String()),
			)
			text = fmt.Sprintf(textApprovedMD, code(sub.Name))
		}

		if err := tghelpers.SendMD(c, text); err != nil {
			return err
		}
		if sub.AuthorChat != 0 && sub.AuthorChat != tghelpers.ChatID(c) {
			if err := b.post(c, sub.AuthorChat, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
				logger.LogEvent(tghelpers.BuildContext(c), logger.SVCModeration, slog.LevelWarn, "moderation.notify",
					slog.String("status", "fail"),
					slog.String("submission_id", sub.ID.String()),
					slog.String("err", netutil.Redact(err)),
				)
			}
		}
		return tghelpers.Notify(c, textReviewDone)
	}
}

