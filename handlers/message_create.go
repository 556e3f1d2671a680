package handlers

import (
	"context"
	"strings"

	"discord-guardian/bot"
	"discord-guardian/models"
	"discord-guardian/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// MessageCreate is the inbound message pipeline: prefix commands first,
// then the ticket conversation, then the moderation engine, and finally
// the FAQ auto-reply for clean messages.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		// Ignore all messages created by bots, including this one.
		if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
			return
		}
		// DM messages are not moderated.
		if m.GuildID == "" {
			return
		}

		prefix := viper.GetString("bot.prefix")
		if prefix == "" {
			prefix = "!" // Default prefix
		}

		if strings.HasPrefix(m.Content, prefix) {
			fields := strings.Fields(strings.TrimPrefix(m.Content, prefix))
			if len(fields) > 0 {
				switch fields[0] {
				case "warn":
					HandleWarnCommand(b, s, m, strings.Join(fields[1:], " "))
					return
				case "ban":
					HandleBanCommand(b, s, m)
					return
				}
			}
		}

		// 工单会话进行中时，消息先交给工单状态机。
		if ticketManager.ConsumeMessage(s, m) {
			return
		}

		var mediaRefs []string
		for _, attachment := range m.Attachments {
			mediaRefs = append(mediaRefs, attachment.URL)
		}

		event := moderation.MessageEvent{
			MemberID:  m.Author.ID,
			Mention:   m.Author.Mention(),
			ChannelID: m.ChannelID,
			MessageID: m.ID,
			Body:      m.Content,
			MediaRefs: mediaRefs,
		}

		action, err := b.Engine.HandleMessage(context.Background(), event)
		if err != nil {
			log.Error().Err(err).Str("member", m.Author.ID).Msg("moderation pipeline failed")
			return
		}
		if action.Kind != models.ActionNone {
			return
		}

		// FAQ auto-reply: a clean message that is exactly a known keyword
		// gets the stored answer.
		if answer, ok := b.FAQ.Answer(strings.TrimSpace(m.Content)); ok {
			if _, err := s.ChannelMessageSend(m.ChannelID, "**FAQ Answer:** "+answer); err != nil {
				log.Warn().Err(err).Msg("failed to send faq auto-reply")
			}
		}
	}
}
