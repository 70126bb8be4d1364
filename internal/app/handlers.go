package app

import (
	"fmt"
	"strings"

	tghelpers "hotelscout/core/telegram/helpers"
	"hotelscout/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

var _ ui.FallbackProvider = (*App)(nil)

func (a *App) handleStart(c tele.Context) error {
	name := "there"
	if sender := c.Sender(); sender != nil && sender.FirstName != "" {
		name = sender.FirstName
	}
	return tghelpers.SendText(c, fmt.Sprintf(
		"Hi %s! I find hotels for you.\n"+
			"Try /low for the cheapest, /high for the most expensive,\n"+
			"or /bestdeals to filter by price and distance.\n"+
			"See /help for everything I can do.", name))
}

func (a *App) handleHelp(c tele.Context) error {
	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range a.registry.ListCommands(true) {
		fmt.Fprintf(&b, "%s — %s\n", cmd.Text, cmd.Description)
	}
	return tghelpers.SendText(c, b.String())
}

// UnknownText echoes a short hint for messages no command or dialogue claims.
func (a *App) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I did not understand that. See /help for the available commands.")
	}
}

// UnknownDocument rejects file uploads; nothing in the bot consumes them.
func (a *App) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, "I cannot do anything with files. See /help for the available commands.")
	}
}

// UnknownCallback answers button presses whose handler is gone, e.g. from
// messages that outlived a restart with in-memory sessions.
func (a *App) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "This button has expired."})
	}
}
