package handlers

import (
	"strings"

	"discord-guardian/bot"

	"github.com/bwmarrin/discordgo"
)

// InteractionCreate handles slash command and component interactions.
func InteractionCreate(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			CommandDispatcher(b, s, i)
		case discordgo.InteractionMessageComponent:
			HandleComponent(b, s, i)
		}
	}
}

// HandleComponent routes button presses by their custom ID prefix.
func HandleComponent(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case strings.HasPrefix(customID, "verify_"):
		HandleVerification(b, s, i, strings.TrimPrefix(customID, "verify_"))
	case strings.HasPrefix(customID, "mod_"):
		HandleModAction(b, s, i, customID)
	case strings.HasPrefix(customID, "priority_"):
		HandleTicketPriority(b, s, i, customID)
	}
}

// respondEphemeral answers an interaction with a message only its invoker sees.
func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
