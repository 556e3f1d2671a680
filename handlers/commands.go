package handlers

import (
	"discord-guardian/bot"

	"github.com/bwmarrin/discordgo"
)

// CommandDispatcher is the central handler for all application command
// interactions. It performs permission checks and then dispatches the
// interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandPermissions := map[string]string{
		"faq":         "guest", // add/delete re-checked inside the handler
		"leaderboard": "guest",
		"ticket":      "guest",
		"ping":        "guest",
	}

	commandName := i.ApplicationCommandData().Name
	requiredLevel, ok := commandPermissions[commandName]

	if ok {
		if !b.Auth.CheckPermission(i, requiredLevel) {
			respondEphemeral(s, i, "🚫 你没有权限执行此命令")
			return
		}
	}

	switch commandName {
	case "faq":
		HandleFAQ(b, s, i)
	case "leaderboard":
		HandleLeaderboard(b, s, i)
	case "ticket":
		HandleTicket(b, s, i)
	case "ping":
		HandlePing(s, i)
	default:
		respondEphemeral(s, i, "🚫内部错误：Unknown command.")
	}
}
