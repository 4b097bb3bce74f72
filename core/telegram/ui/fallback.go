// Package ui holds default replies for updates no handler claimed.
package ui

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/scriptbot/core/telegram"
	tghelpers "github.com/m3rciful/scriptbot/core/telegram/helpers"
)

// Fallbacks are the texts sent when an update reaches no specific handler.
// Empty fields leave the registry default in place.
type Fallbacks struct {
	UnknownText     string
	UnexpectedMedia string
	StaleButton     string
}

// UnknownTextHandler replies to text that is neither a command nor awaited.
func (f Fallbacks) UnknownTextHandler() tele.HandlerFunc {
	return reply(f.UnknownText)
}

// UnexpectedMediaHandler replies to files and media nobody asked for.
func (f Fallbacks) UnexpectedMediaHandler() tele.HandlerFunc {
	return reply(f.UnexpectedMedia)
}

// StaleButtonHandler answers presses on buttons the bot no longer understands.
func (f Fallbacks) StaleButtonHandler() tele.HandlerFunc {
	if f.StaleButton == "" {
		return nil
	}
	return func(c tele.Context) error {
		return tghelpers.Alert(c, f.StaleButton)
	}
}

// Install registers the non-empty fallbacks on reg.
func (f Fallbacks) Install(reg *tg.Registry) {
	if h := f.UnknownTextHandler(); h != nil {
		reg.SetTextFallback(h)
	}
	if h := f.UnexpectedMediaHandler(); h != nil {
		reg.SetMediaFallback(h)
	}
	if h := f.StaleButtonHandler(); h != nil {
		reg.SetCallbackNotFound(h)
	}
}

func reply(text string) tele.HandlerFunc {
	if text == "" {
		return nil
	}
	return func(c tele.Context) error {
		return tghelpers.SendText(c, text)
	}
}
