package gateway

import (
	"context"
	"fmt"
	"time"

	"discord-guardian/moderation"

	"github.com/bwmarrin/discordgo"
)

// Embed colors for review-channel alerts.
const (
	colorAlert = 0xff0000 // Red
)

// DiscordGateway implements moderation.Gateway over a discordgo session.
// Mutes map onto member timeouts and bans onto guild bans; both Discord
// calls are idempotent, so re-muting or re-banning succeeds quietly.
type DiscordGateway struct {
	session *discordgo.Session
	guildID string
}

// NewDiscordGateway binds a session to the moderated guild.
func NewDiscordGateway(session *discordgo.Session, guildID string) *DiscordGateway {
	return &DiscordGateway{session: session, guildID: guildID}
}

// DeleteMessage removes one message from its channel.
func (g *DiscordGateway) DeleteMessage(_ context.Context, ref moderation.MessageRef) error {
	if err := g.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", ref.MessageID, err)
	}
	return nil
}

// RestrictMember times the member out until the given time.
func (g *DiscordGateway) RestrictMember(_ context.Context, memberID string, until time.Time) error {
	if err := g.session.GuildMemberTimeout(g.guildID, memberID, &until); err != nil {
		return fmt.Errorf("failed to restrict member %s: %w", memberID, err)
	}
	return nil
}

// UnrestrictMember lifts the member's timeout.
func (g *DiscordGateway) UnrestrictMember(_ context.Context, memberID string) error {
	if err := g.session.GuildMemberTimeout(g.guildID, memberID, nil); err != nil {
		return fmt.Errorf("failed to unrestrict member %s: %w", memberID, err)
	}
	return nil
}

// BanMember bans the member from the guild.
func (g *DiscordGateway) BanMember(_ context.Context, memberID string) error {
	if err := g.session.GuildBanCreate(g.guildID, memberID, 0); err != nil {
		return fmt.Errorf("failed to ban member %s: %w", memberID, err)
	}
	return nil
}

// SendMessage posts a plain notice to a channel.
func (g *DiscordGateway) SendMessage(_ context.Context, target, body string) error {
	if _, err := g.session.ChannelMessageSend(target, body); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", target, err)
	}
	return nil
}

// SendAlert posts a review-channel embed carrying the moderator action set.
// 审核频道的按钮由 interaction handler 处理（mod_warn_ / mod_mute_ / mod_ban_）。
func (g *DiscordGateway) SendAlert(_ context.Context, target string, alert moderation.Alert) error {
	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Member",
			Value:  alert.Mention,
			Inline: true,
		},
		{
			Name:   "Reason",
			Value:  alert.Reason,
			Inline: true,
		},
		{
			Name:  "Message",
			Value: alert.Body,
		},
	}
	if len(alert.RecentWarns) > 0 {
		history := ""
		for _, warn := range alert.RecentWarns {
			history += fmt.Sprintf("• %s (%s)\n", warn.Reason, warn.ModeratorID)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Recent warns",
			Value: history,
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:     "Toxic Message Detected",
		Color:     colorAlert,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields:    fields,
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "⚠️ Warn",
					Style:    discordgo.SecondaryButton,
					CustomID: "mod_warn_" + alert.MemberID,
				},
				discordgo.Button{
					Label:    "🔇 Mute",
					Style:    discordgo.PrimaryButton,
					CustomID: "mod_mute_" + alert.MemberID,
				},
				discordgo.Button{
					Label:    "🔨 Ban",
					Style:    discordgo.DangerButton,
					CustomID: "mod_ban_" + alert.MemberID,
				},
			},
		},
	}

	_, err := g.session.ChannelMessageSendComplex(target, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("failed to send alert to %s: %w", target, err)
	}
	return nil
}
