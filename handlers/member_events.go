package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discord-guardian/bot"
	"discord-guardian/models"
	"discord-guardian/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// MemberAddHandler registers the newcomer, restricts them until they
// press the verification button and posts the welcome prompt.
func MemberAddHandler(b *bot.Bot) func(s *discordgo.Session, g *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, g *discordgo.GuildMemberAdd) {
		if g.User == nil || g.User.Bot {
			return
		}

		member := models.Member{
			UserID:    g.User.ID,
			Username:  g.User.Username,
			FirstName: g.User.GlobalName,
			JoinedAt:  time.Now(),
		}
		if err := b.RepDB.EnsureMember(member); err != nil {
			log.Error().Err(err).Str("member", g.User.ID).Msg("failed to register new member")
		}

		verifyMinutes := viper.GetInt("bot.verifyWindowMinutes")
		if verifyMinutes <= 0 {
			verifyMinutes = 10
		}

		// 新成员先禁言，点击验证按钮后解除。
		ctx := context.Background()
		until := time.Now().Add(time.Duration(verifyMinutes) * time.Minute)
		if err := b.Gateway.RestrictMember(ctx, g.User.ID, until); err != nil {
			log.Warn().Err(err).Str("member", g.User.ID).Msg("could not restrict unverified member")
		}

		welcomeChannel := viper.GetString("bot.welcomeChannelId")
		if welcomeChannel == "" {
			return
		}

		components := []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "I'm human ✅",
						Style:    discordgo.SuccessButton,
						CustomID: "verify_" + g.User.ID,
					},
				},
			},
		}
		_, err := s.ChannelMessageSendComplex(welcomeChannel, &discordgo.MessageSend{
			Content:    fmt.Sprintf("👋 Welcome %s! Press the button below within %d minutes to unlock the chat.", g.User.Mention(), verifyMinutes),
			Components: components,
		})
		if err != nil {
			log.Warn().Err(err).Str("member", g.User.ID).Msg("failed to send welcome prompt")
		}
	}
}

// HandleVerification lifts the join restriction when the newcomer
// presses their own verification button. Anyone else's press is
// rejected.
func HandleVerification(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, subjectID string) {
	presser := ""
	if i.Member != nil && i.Member.User != nil {
		presser = i.Member.User.ID
	}
	if presser != subjectID {
		respondEphemeral(s, i, "❌ This button is not for you.")
		return
	}

	if err := b.Gateway.UnrestrictMember(context.Background(), subjectID); err != nil {
		log.Error().Err(err).Str("member", subjectID).Msg("failed to lift verification restriction")
		respondEphemeral(s, i, "❌ Verification failed, please try again later.")
		return
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("✅ %s is verified. Welcome aboard!", "<@"+subjectID+">"),
			Components: []discordgo.MessageComponent{},
		},
	})
	log.Info().Str("member", subjectID).Msg("member verified")
}

// HandleModAction executes a review-channel button press: warn, mute or
// ban the member named in the alert. The presser is the issuer, so the
// engine re-checks their authorization.
func HandleModAction(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	parts := strings.SplitN(customID, "_", 3)
	if len(parts) != 3 {
		return
	}
	action, targetID := parts[1], parts[2]

	issuer := ""
	if i.Member != nil && i.Member.User != nil {
		issuer = i.Member.User.ID
	}

	req := moderation.CommandRequest{
		IssuerID:      issuer,
		TargetID:      targetID,
		TargetMention: "<@" + targetID + ">",
		ChannelID:     i.ChannelID,
		Reason:        "Review action from the admin channel",
	}

	ctx := context.Background()
	var err error
	var outcome string

	switch action {
	case "warn":
		var count int
		_, count, err = b.Engine.WarnMember(ctx, req)
		outcome = fmt.Sprintf("⚠️ Warned <@%s> (total warns: %d).", targetID, count)
	case "mute":
		muteFor := time.Duration(b.Config.Escalation.TierMuteHours) * time.Hour
		_, err = b.Engine.MuteMember(ctx, req, muteFor)
		outcome = fmt.Sprintf("🔇 Muted <@%s> for %d hours.", targetID, b.Config.Escalation.TierMuteHours)
	case "ban":
		_, err = b.Engine.BanMember(ctx, req)
		outcome = fmt.Sprintf("🔨 Banned <@%s>.", targetID)
	default:
		return
	}

	if err != nil {
		log.Error().Err(err).Str("action", action).Str("target", targetID).Msg("review action failed")
		respondEphemeral(s, i, denialBody(err))
		return
	}
	respondEphemeral(s, i, outcome)
}
