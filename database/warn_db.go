package database

import (
	"database/sql"
	"fmt"
	"time"

	"discord-guardian/models"
)

// WarnDB is the append-only warn ledger. It supports inserting new records
// and counting records per member; nothing ever updates or deletes a warn,
// so the escalation tier is reproducible from the log alone.
type WarnDB struct {
	db *sql.DB
}

// NewWarnDB creates a new warn ledger over an initialized database.
func NewWarnDB(db *sql.DB) *WarnDB {
	return &WarnDB{db: db}
}

// Append inserts a warn record and returns its monotonic id.
func (wdb *WarnDB) Append(record models.WarnRecord) (int64, error) {
	if record.Reason == "" {
		record.Reason = models.DefaultWarnReason
	}

	query := `INSERT INTO warns (user_id, moderator_id, reason, timestamp) VALUES (?, ?, ?, ?)`
	stmt, err := wdb.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare warn insert: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(record.UserID, record.ModeratorID, record.Reason, record.Timestamp.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert warn for %s: %w", record.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read warn id: %w", err)
	}
	return id, nil
}

// CountFor returns the total number of warns recorded for a member.
func (wdb *WarnDB) CountFor(memberID string) (int, error) {
	var count int
	err := wdb.db.QueryRow("SELECT COUNT(*) FROM warns WHERE user_id = ?", memberID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count warns for %s: %w", memberID, err)
	}
	return count, nil
}

// RecentFor returns up to n most recent warns for a member, newest first.
// Used to give the review channel some context with each alert.
func (wdb *WarnDB) RecentFor(memberID string, n int) ([]models.WarnRecord, error) {
	query := `SELECT warn_id, user_id, moderator_id, reason, timestamp
		FROM warns WHERE user_id = ? ORDER BY warn_id DESC LIMIT ?`
	rows, err := wdb.db.Query(query, memberID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query warns for %s: %w", memberID, err)
	}
	defer rows.Close()

	var records []models.WarnRecord
	for rows.Next() {
		var r models.WarnRecord
		var ts int64
		if err := rows.Scan(&r.WarnID, &r.UserID, &r.ModeratorID, &r.Reason, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan warn row: %w", err)
		}
		r.Timestamp = time.Unix(ts, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}
