package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
)

func (b *Bot) marketplace(c tele.Context) error {
	u, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.Alert(c, textNotLinked)
	}
	p, err := b.Market.Browse(tghelpers.BuildContext(c), u.ID, 0)
	if err != nil {
		return fail(c, err)
	}
	text, kb := pageView(p)
	return tghelpers.SendText(c, text, kb)
}

func (b *Bot) page(c tele.Context) error {
	a, _ := callbacks.From(c)
	index, err := a.PageIndex()
	if err != nil {
		return tghelpers.Alert(c, textStaleButton)
	}
	u, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.Alert(c, textNotLinked)
	}
	p, err := b.Market.Browse(tghelpers.BuildContext(c), u.ID, index)
	if err != nil {
		return fail(c, err)
	}
	text, kb := pageView(p)
	return tghelpers.EditOrSendText(c, text, kb)
}

// toggle flips the pressed script and re-renders the page it now sits on.
func (b *Bot) toggle(c tele.Context) error {
	a, _ := callbacks.From(c)
	name, err := a.Name()
	if err != nil {
		return tghelpers.Alert(c, textStaleButton)
	}
	u, linked, err := b.currentUser(c)
	if err != nil {
		return fail(c, err)
	}
	if !linked {
		return tghelpers.Alert(c, textNotLinked)
	}
	res, err := b.Market.ToggleAndLocate(tghelpers.BuildContext(c), u.ID, name)
	if err != nil {
		return fail(c, err)
	}
	note := textRemoved
	if res.Selected {
		note = textAdded
	}
	if err := tghelpers.Notify(c, note); err != nil {
		return err
	}
	text, kb := pageView(res.Page)
	return tghelpers.EditOrSendText(c, text, kb)
}
