package handlers

import (
	"fmt"
	"strings"

	"discord-guardian/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// HandleFAQ handles the logic for the /faq command.
func HandleFAQ(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}

	var action, keyword, answer string
	if opt, ok := optionMap["action"]; ok {
		action = opt.StringValue()
	}
	if opt, ok := optionMap["keyword"]; ok {
		keyword = strings.ToLower(opt.StringValue())
	}
	if opt, ok := optionMap["answer"]; ok {
		answer = opt.StringValue()
	}

	switch action {
	case "search":
		if keyword == "" {
			respondEphemeral(s, i, "Usage: /faq search keyword:<keyword>")
			return
		}
		if found, ok := b.FAQ.Answer(keyword); ok {
			respond(s, i, "**FAQ Answer:** "+found)
		} else {
			respondEphemeral(s, i, "🤷 Sorry, I couldn't find an answer for that.")
		}

	case "add":
		if !b.Auth.CheckPermission(i, "admin") {
			respondEphemeral(s, i, "🚫 你没有权限执行此命令")
			return
		}
		if keyword == "" || answer == "" {
			respondEphemeral(s, i, "Usage: /faq add keyword:<keyword> answer:<answer>")
			return
		}
		if err := b.FAQ.Add(keyword, answer); err != nil {
			log.Error().Err(err).Msg("failed to save faq")
			respondEphemeral(s, i, "❌ Could not save the FAQ.")
			return
		}
		respond(s, i, fmt.Sprintf("✅ FAQ for '%s' has been added.", keyword))

	case "delete":
		if !b.Auth.CheckPermission(i, "admin") {
			respondEphemeral(s, i, "🚫 你没有权限执行此命令")
			return
		}
		if keyword == "" {
			respondEphemeral(s, i, "Usage: /faq delete keyword:<keyword>")
			return
		}
		if err := b.FAQ.Delete(keyword); err != nil {
			log.Error().Err(err).Msg("failed to save faq")
			respondEphemeral(s, i, "❌ Could not delete the FAQ.")
			return
		}
		respond(s, i, fmt.Sprintf("✅ FAQ for '%s' has been deleted.", keyword))

	case "list":
		keywords := b.FAQ.Keywords()
		if len(keywords) == 0 {
			respondEphemeral(s, i, "No FAQs recorded yet.")
			return
		}
		respond(s, i, "**Known FAQ keywords:** "+strings.Join(keywords, ", "))

	default:
		respondEphemeral(s, i, "Usage: /faq action:[search|add|delete|list]")
	}
}

// HandleLeaderboard handles the logic for the /leaderboard command.
func HandleLeaderboard(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	standings, err := b.RepDB.TopMembers(10)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		respondEphemeral(s, i, "❌ Could not load the leaderboard.")
		return
	}

	var builder strings.Builder
	builder.WriteString("🏆 **Top 10 Members by Reputation** 🏆\n\n")
	if len(standings) == 0 {
		builder.WriteString("No members found yet.")
	}
	for index, standing := range standings {
		name := standing.Username
		if name == "" {
			name = "Unknown User"
		}
		fmt.Fprintf(&builder, "%d. **%s** - Rep: %.2f | Msgs: %d\n", index+1, name, standing.Reputation, standing.MessagesSent)
	}

	respond(s, i, builder.String())
}

// HandleTicket opens a new support-ticket session for the invoking user.
func HandleTicket(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil || i.Member.User == nil {
		respondEphemeral(s, i, "❌ Tickets can only be opened from the server.")
		return
	}

	session := ticketManager.Open(i.Member.User.ID, i.ChannelID)
	respond(s, i, fmt.Sprintf("📝 Your ticket #%d has been created. Please describe your issue.", session.TicketID))
}

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, "Pong!")
}

// respond answers an interaction with a public message.
func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}
