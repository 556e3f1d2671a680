package utils

import (
	"discord-guardian/models"
	"discord-guardian/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.CommandsConfig
}

// NewAuth creates a new Auth instance with the loaded configuration.
func NewAuth() (*Auth, error) {
	var commandsConfig models.CommandsConfig
	if err := viper.UnmarshalKey("commands", &commandsConfig); err != nil {
		return nil, err
	}
	return &Auth{config: commandsConfig}, nil
}

// NewAuthFromConfig creates an Auth instance from an explicit configuration.
func NewAuthFromConfig(config models.CommandsConfig) *Auth {
	return &Auth{config: config}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	for _, devID := range a.config.Auth.Developers {
		if userID == devID {
			return true
		}
	}
	return false
}

// IsAdminUser checks if a user ID is on the admin user list.
func (a *Auth) IsAdminUser(userID string) bool {
	for _, adminID := range a.config.Auth.AdminUsers {
		if userID == adminID {
			return true
		}
	}
	return false
}

// IsAdmin checks if a member has an admin role.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	for _, adminRoleID := range a.config.Auth.AdminsRoles {
		for _, userRoleID := range member.Roles {
			if userRoleID == adminRoleID {
				return true
			}
		}
	}
	return false
}

// Authorize reports whether the user holds administrative exemption.
// This is the predicate the escalation engine consults: it skips the
// moderation pipeline for these users and gates the manual commands.
func (a *Auth) Authorize(userID string) bool {
	return a.IsDeveloper(userID) || a.IsAdminUser(userID)
}

// CheckPermission checks if the interaction's user has the required
// permission level.
func (a *Auth) CheckPermission(i *discordgo.InteractionCreate, requiredLevel string) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}
	switch requiredLevel {
	case "developer":
		return a.IsDeveloper(i.Member.User.ID)
	case "admin":
		return a.Authorize(i.Member.User.ID) || a.IsAdmin(i.Member)
	case "guest":
		return true // Guests are allowed
	default:
		return false
	}
}

// Guard is a composable precondition over an inbound command message.
// Guards return a typed failure before the command body executes.
type Guard func(m *discordgo.MessageCreate) error

// RequireAdmin returns a guard failing with ErrUnauthorized for non-admins.
func (a *Auth) RequireAdmin() Guard {
	return func(m *discordgo.MessageCreate) error {
		if a.Authorize(m.Author.ID) {
			return nil
		}
		if m.Member != nil && a.IsAdmin(m.Member) {
			return nil
		}
		return moderation.ErrUnauthorized
	}
}

// RequireReply returns a guard failing with ErrInvalidTarget when the
// command message is not a reply to the target's message.
func RequireReply() Guard {
	return func(m *discordgo.MessageCreate) error {
		if m.ReferencedMessage == nil || m.ReferencedMessage.Author == nil {
			return moderation.ErrInvalidTarget
		}
		return nil
	}
}

// RunGuards runs each guard in order and returns the first failure.
func RunGuards(m *discordgo.MessageCreate, guards ...Guard) error {
	for _, guard := range guards {
		if err := guard(m); err != nil {
			return err
		}
	}
	return nil
}
