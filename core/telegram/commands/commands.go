// Package commands defines the metadata attached to registered bot commands.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command binds a handler to a slash command together with its menu metadata.
type Command struct {
	Handler tele.HandlerFunc
	// Description appears in the Telegram command menu.
	Description string
	// AdminOnly restricts execution to the configured admin user.
	AdminOnly bool
	// Hidden keeps the command out of the published menu.
	Hidden bool
	// Aliases are alternative names resolved by the registry lookup.
	Aliases []string
}
