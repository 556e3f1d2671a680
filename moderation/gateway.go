package moderation

import (
	"context"
	"time"

	"discord-guardian/models"
)

// MessageRef identifies one message on the chat platform.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Alert is a review-channel notification about a flagged message. The
// gateway renders it with a Warn/Mute/Ban action set for a human moderator.
type Alert struct {
	MemberID    string
	Mention     string
	Body        string
	Reason      string
	RecentWarns []models.WarnRecord
}

// Gateway is the chat-platform transport the engine dispatches enforcement
// through. Implementations must make RestrictMember and BanMember idempotent:
// re-restricting a muted member or re-banning a banned member succeeds.
// Failures are reported, never fatal to the engine.
type Gateway interface {
	DeleteMessage(ctx context.Context, ref MessageRef) error
	RestrictMember(ctx context.Context, memberID string, until time.Time) error
	UnrestrictMember(ctx context.Context, memberID string) error
	BanMember(ctx context.Context, memberID string) error
	SendMessage(ctx context.Context, target, body string) error
	SendAlert(ctx context.Context, target string, alert Alert) error
}
