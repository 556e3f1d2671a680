package models

import "time"

// AutoModeratorID is the sentinel moderator ID recorded on warns the
// escalation engine issues by itself, as opposed to human-issued warns.
const AutoModeratorID = "auto"

// DefaultWarnReason is used when a warn is issued without a reason.
const DefaultWarnReason = "No reason given."

// WarnRecord is one entry in the append-only warn ledger.
// Records are immutable once written; the ledger has no update or delete.
type WarnRecord struct {
	WarnID      int64     `json:"warn_id"`
	UserID      string    `json:"user_id"`
	ModeratorID string    `json:"moderator_id"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// IsAutomatic reports whether the warn was issued by the engine itself.
func (w WarnRecord) IsAutomatic() bool {
	return w.ModeratorID == AutoModeratorID
}
