// Package commands describes slash commands registered with the bot.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin allow-list and kept out of the menu.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}
