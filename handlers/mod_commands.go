package handlers

import (
	"context"
	"errors"

	"discord-guardian/bot"
	"discord-guardian/moderation"
	"discord-guardian/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// HandleWarnCommand handles the !warn prefix command. It must be a reply
// to the target's message; the engine appends the warn, applies the
// penalty and evaluates the escalation tier.
func HandleWarnCommand(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate, reason string) {
	if err := utils.RunGuards(m, b.Auth.RequireAdmin(), utils.RequireReply()); err != nil {
		sendDenial(s, m.ChannelID, err)
		return
	}

	target := m.ReferencedMessage.Author
	req := moderation.CommandRequest{
		IssuerID:      m.Author.ID,
		TargetID:      target.ID,
		TargetMention: target.Mention(),
		ChannelID:     m.ChannelID,
		Reason:        reason,
	}

	if _, _, err := b.Engine.WarnMember(context.Background(), req); err != nil {
		log.Error().Err(err).Str("target", target.ID).Msg("warn command failed")
		sendDenial(s, m.ChannelID, err)
	}
}

// HandleBanCommand handles the !ban prefix command.
func HandleBanCommand(b *bot.Bot, s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := utils.RunGuards(m, b.Auth.RequireAdmin(), utils.RequireReply()); err != nil {
		sendDenial(s, m.ChannelID, err)
		return
	}

	target := m.ReferencedMessage.Author
	req := moderation.CommandRequest{
		IssuerID:      m.Author.ID,
		TargetID:      target.ID,
		TargetMention: target.Mention(),
		ChannelID:     m.ChannelID,
	}

	if _, err := b.Engine.BanMember(context.Background(), req); err != nil {
		log.Error().Err(err).Str("target", target.ID).Msg("ban command failed")
		sendDenial(s, m.ChannelID, err)
	}
}

// sendDenial turns an engine error into the user-facing denial reason.
func sendDenial(s *discordgo.Session, channelID string, err error) {
	if _, serr := s.ChannelMessageSend(channelID, denialBody(err)); serr != nil {
		log.Warn().Err(serr).Msg("failed to send denial message")
	}
}

// denialBody maps an engine error onto its user-facing wording.
func denialBody(err error) string {
	var terr *moderation.TransportError

	switch {
	case errors.Is(err, moderation.ErrUnauthorized):
		return "⛔️ You are not authorized to use this command."
	case errors.Is(err, moderation.ErrInvalidTarget):
		return "❌ Please reply to a user's message to use this command."
	case errors.As(err, &terr):
		return "❌ Could not complete the action: " + terr.Error()
	default:
		return "❌ Internal error, please try again later."
	}
}
