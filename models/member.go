package models

import "time"

// Member represents a community member known to the bot.
type Member struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	JoinedAt  time.Time `json:"joined_at"`
}

// MemberStanding is a leaderboard row: a member with their stats.
type MemberStanding struct {
	UserID       string  `json:"user_id"`
	Username     string  `json:"username"`
	MessagesSent int64   `json:"messages_sent"`
	Reputation   float64 `json:"reputation"`
}

// Counter is the closed set of per-member activity counters.
// 计数器名是封闭枚举，禁止用外部输入拼接列名。
type Counter string

const (
	CounterMessagesSent Counter = "messages_sent"
)

// Valid reports whether c is a known counter.
func (c Counter) Valid() bool {
	switch c {
	case CounterMessagesSent:
		return true
	}
	return false
}
