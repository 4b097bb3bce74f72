package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptbot/core/telegram/keyboard"
	"github.com/m3rciful/scriptbot/internal/marketplace"
)

func startMenu(linked bool) *tele.ReplyMarkup {
	if !linked {
		return keyboard.Column(keyboard.Btn(btnLink, callbacks.KindLink, ""))
	}
	return keyboard.Column(
		keyboard.Btn(btnProfile, callbacks.KindProfile, ""),
		keyboard.Btn(btnMarketplace, callbacks.KindMarketplace, ""),
	)
}

func profileMenu() *tele.ReplyMarkup {
	return keyboard.Column(keyboard.Btn(btnUnlink, callbacks.KindUnlink, ""))
}

func adminMenu() *tele.ReplyMarkup {
	return keyboard.Column(
		keyboard.Btn(btnStats, callbacks.KindAdminStats, ""),
		keyboard.Btn(btnDelete, callbacks.KindAdminDelete, ""),
	)
}

func reviewMenu(name string) *tele.ReplyMarkup {
	return keyboard.Inline([]keyboard.Button{
		keyboard.Btn(btnApprove, callbacks.KindApprove, name),
		keyboard.Btn(btnReject, callbacks.KindReject, name),
	})
}

// pageView renders a marketplace page as text plus keyboard: one toggle
// button per item, a navigation row and the upload button.
func pageView(p marketplace.UserPage) (string, *tele.ReplyMarkup) {
	text := textPageEmpty
	if !p.Empty() {
		text = fmt.Sprintf(textPageHead, p.Index+1, p.TotalPages)
	}

	items := make([]keyboard.Button, 0, len(p.Entries))
	for _, e := range p.Entries {
		label := e.Item.Name
		if e.Selected {
			label = markSelected + label
		}
		items = append(items, keyboard.Btn(label, callbacks.KindToggle, e.Item.Name))
	}

	var nav []keyboard.Button
	if p.HasPrev() {
		nav = append(nav, keyboard.Btn(btnPrev, callbacks.KindPage, strconv.Itoa(p.Index-1)))
	}
	if p.HasNext() {
		nav = append(nav, keyboard.Btn(btnNext, callbacks.KindPage, strconv.Itoa(p.Index+1)))
	}

	rows := keyboard.Chunk(items, 1)
	rows = append(rows, nav, []keyboard.Button{keyboard.Btn(btnUpload, callbacks.KindUpload, "")})
	return text, keyboard.Inline(rows...)
}
