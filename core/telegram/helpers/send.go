package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return sendAsync(c, "send.md", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText edits the message behind a button press or sends a new one.
// Edits stay synchronous so a following callback sees the updated keyboard.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return c.EditOrSend(text, opts)
}

// Notify answers a button press with a transient toast.
func Notify(c tele.Context, text string) error {
	if c.Callback() == nil {
		return SendText(c, text)
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Alert answers a button press with a modal alert; outside callbacks it sends text.
func Alert(c tele.Context, text string) error {
	if c.Callback() == nil {
		return SendText(c, text)
	}
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}
