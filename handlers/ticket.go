package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"discord-guardian/bot"
	"discord-guardian/models"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// TicketManager drives the two-step ticket conversation: the user first
// describes the issue, then picks a priority from a button row. Sessions
// are keyed by user ID so each user has at most one open ticket.
type TicketManager struct {
	mu       sync.Mutex
	counter  int64
	sessions map[string]*models.TicketSession
}

func NewTicketManager() *TicketManager {
	return &TicketManager{
		sessions: make(map[string]*models.TicketSession),
	}
}

// Open starts a fresh ticket session for the user, replacing any
// earlier unfinished one.
func (tm *TicketManager) Open(userID, channelID string) *models.TicketSession {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.counter++
	session := &models.TicketSession{
		TicketID:  tm.counter,
		UserID:    userID,
		ChannelID: channelID,
		State:     models.TicketAwaitingDescription,
		UpdatedAt: time.Now(),
	}
	tm.sessions[userID] = session
	return session
}

// ConsumeMessage feeds a message into the ticket state machine. It
// returns true when the message belonged to an open session and must
// not reach the moderation pipeline.
func (tm *TicketManager) ConsumeMessage(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	tm.mu.Lock()
	session, ok := tm.sessions[m.Author.ID]
	if !ok || session.State != models.TicketAwaitingDescription || session.ChannelID != m.ChannelID {
		tm.mu.Unlock()
		return false
	}
	session.Description = m.Content
	session.State = models.TicketAwaitingPriority
	session.UpdatedAt = time.Now()
	ticketID := session.TicketID
	tm.mu.Unlock()

	// 下一步：让用户通过按钮选择优先级。
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Normal",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("priority_%d_%s", ticketID, models.TicketPriorityNormal),
				},
				discordgo.Button{
					Label:    "Urgent",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("priority_%d_%s", ticketID, models.TicketPriorityUrgent),
				},
			},
		},
	}

	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("Got it. How urgent is ticket #%d?", ticketID),
		Components: components,
	})
	if err != nil {
		log.Warn().Err(err).Int64("ticket", ticketID).Msg("failed to send priority prompt")
	}
	return true
}

// HandleTicketPriority finalizes a ticket once the reporter picks a
// priority button. Only the session owner may press it.
func HandleTicketPriority(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	parts := strings.SplitN(customID, "_", 3)
	if len(parts) != 3 {
		return
	}
	ticketID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}
	priority := parts[2]
	if priority != models.TicketPriorityNormal && priority != models.TicketPriorityUrgent {
		return
	}

	presser := ""
	if i.Member != nil && i.Member.User != nil {
		presser = i.Member.User.ID
	}

	session, ok := ticketManager.close(presser, ticketID, priority)
	if !ok {
		respondEphemeral(s, i, "❌ This ticket is not yours or has already been closed.")
		return
	}

	// Acknowledge by replacing the button prompt with the summary.
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    fmt.Sprintf("✅ Ticket #%d filed with **%s** priority. The team will get back to you.", session.TicketID, session.Priority),
			Components: []discordgo.MessageComponent{},
		},
	})

	// Notify the admin channel so the team can pick it up.
	adminChannel := b.Config.AdminChannelID
	if adminChannel == "" {
		adminChannel = viper.GetString("bot.adminChannelId")
	}
	if adminChannel != "" {
		body := fmt.Sprintf("🎫 Ticket #%d (%s) from <@%s>:\n%s",
			session.TicketID, session.Priority, session.UserID, session.Description)
		if _, err := s.ChannelMessageSend(adminChannel, body); err != nil {
			log.Warn().Err(err).Int64("ticket", session.TicketID).Msg("failed to forward ticket")
		}
	}
	log.Info().Int64("ticket", session.TicketID).Str("user", session.UserID).Str("priority", session.Priority).Msg("ticket filed")
}

// close transitions the session to TicketClosed and removes it. The
// returned copy is safe to use without holding the lock.
func (tm *TicketManager) close(userID string, ticketID int64, priority string) (models.TicketSession, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	session, ok := tm.sessions[userID]
	if !ok || session.TicketID != ticketID || session.State != models.TicketAwaitingPriority {
		return models.TicketSession{}, false
	}
	session.Priority = priority
	session.State = models.TicketClosed
	delete(tm.sessions, userID)
	return *session, true
}

// ExpireIdle drops sessions that have not progressed since the cutoff
// and returns how many were discarded.
func (tm *TicketManager) ExpireIdle(cutoff time.Time) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	expired := 0
	for userID, session := range tm.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(tm.sessions, userID)
			expired++
		}
	}
	return expired
}
