// Package keyboard builds reply markups from callback actions.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
)

// Button pairs a label with the action it triggers.
type Button struct {
	Text   string
	Action callbacks.Action
}

// Btn is shorthand for a Button.
func Btn(text string, kind callbacks.Kind, arg string) Button {
	return Button{Text: text, Action: callbacks.New(kind, arg)}
}

// Inline builds an inline keyboard; empty rows are dropped.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for i, b := range row {
			r[i] = b.Action.Button(b.Text)
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Column places each button on its own row.
func Column(buttons ...Button) *tele.ReplyMarkup {
	return Inline(Chunk(buttons, 1)...)
}

// Chunk splits buttons into rows of at most n.
func Chunk[T any](buttons []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	rows := make([][]T, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}
