package command

import "github.com/bwmarrin/discordgo"

// FAQCommand defines the structure for the /faq command.
type FAQCommand struct{}

// Definition returns the application command definition.
func (c *FAQCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "faq",
		Description: "Manage and search the FAQ knowledge base",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "action",
				Description: "What to do",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{
						Name:  "Search",
						Value: "search",
					},
					{
						Name:  "Add",
						Value: "add",
					},
					{
						Name:  "Delete",
						Value: "delete",
					},
					{
						Name:  "List",
						Value: "list",
					},
				},
			},
			{
				Name:        "keyword",
				Description: "FAQ keyword",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
			{
				Name:        "answer",
				Description: "Answer text (for add)",
				Type:        discordgo.ApplicationCommandOptionString,
				Required:    false,
			},
		},
	}
}

// LeaderboardCommand defines the structure for the /leaderboard command.
type LeaderboardCommand struct{}

// Definition returns the application command definition.
func (c *LeaderboardCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "leaderboard",
		Description: "Show the top members by reputation",
	}
}

// TicketCommand defines the structure for the /ticket command.
type TicketCommand struct{}

// Definition returns the application command definition.
func (c *TicketCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ticket",
		Description: "Open a support ticket",
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
