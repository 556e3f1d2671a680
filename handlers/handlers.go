package handlers

import (
	"discord-guardian/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// ticketManager holds the in-flight support-ticket sessions.
var ticketManager = NewTicketManager()

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	// Register event handlers
	b.Session.AddHandler(MessageCreate(b))
	b.Session.AddHandler(InteractionCreate(b))
	b.Session.AddHandler(MemberAddHandler(b))

	// The sweep discards ticket sessions that went idle.
	b.Sweeper.ExpireTickets = ticketManager.ExpireIdle

	// Add a ready handler to log when the bot is connected.
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", s.State.User.Username).Msg("Logged in")
	})
}
