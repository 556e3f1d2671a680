package models

import "time"

// TicketState is the state of a support-ticket session.
// 工单会话是一个显式的有限状态机，按用户 ID 索引。
type TicketState int

const (
	TicketAwaitingDescription TicketState = iota
	TicketAwaitingPriority
	TicketClosed
)

// Ticket priorities selectable by the reporter.
const (
	TicketPriorityNormal = "normal"
	TicketPriorityUrgent = "urgent"
)

// TicketSession holds the in-flight state of one support ticket.
// Sessions live in memory only and expire after inactivity.
type TicketSession struct {
	TicketID    int64       `json:"ticket_id"`
	UserID      string      `json:"user_id"`
	ChannelID   string      `json:"channel_id"`
	Description string      `json:"description"`
	Priority    string      `json:"priority"`
	State       TicketState `json:"state"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
