package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"discord-guardian/models"

	"github.com/rs/zerolog/log"
)

// ReputationDB 处理成员声望和活跃度统计的数据库操作。
// 它是声望数据的唯一读写入口：同一成员的读-改-写通过按成员加锁串行化。
type ReputationDB struct {
	db     *sql.DB
	policy models.ReputationPolicy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReputationDB 创建新的声望数据库实例。
func NewReputationDB(db *sql.DB, policy models.ReputationPolicy) *ReputationDB {
	return &ReputationDB{
		db:     db,
		policy: policy,
		locks:  make(map[string]*sync.Mutex),
	}
}

// memberLock returns the mutex owning the given member's row.
func (rdb *ReputationDB) memberLock(memberID string) *sync.Mutex {
	rdb.mu.Lock()
	defer rdb.mu.Unlock()

	l, ok := rdb.locks[memberID]
	if !ok {
		l = &sync.Mutex{}
		rdb.locks[memberID] = l
	}
	return l
}

// EnsureMember 确保 users 和 user_stats 中存在该成员的记录。
// 首次见到某个成员时惰性创建，声望取策略缺省值。
func (rdb *ReputationDB) EnsureMember(member models.Member) error {
	query := `INSERT OR IGNORE INTO users (user_id, username, first_name, joined_at) VALUES (?, ?, ?, ?)`
	if _, err := rdb.db.Exec(query, member.UserID, member.Username, member.FirstName, member.JoinedAt.Unix()); err != nil {
		return fmt.Errorf("failed to ensure user record for %s: %w", member.UserID, err)
	}
	return rdb.ensureStatsRow(member.UserID)
}

// ensureStatsRow 确保 user_stats 中存在该成员的统计行。
func (rdb *ReputationDB) ensureStatsRow(memberID string) error {
	query := `INSERT OR IGNORE INTO user_stats (user_id, messages_sent, reputation, last_active) VALUES (?, 0, ?, ?)`
	if _, err := rdb.db.Exec(query, memberID, rdb.policy.Default, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to ensure stats record for %s: %w", memberID, err)
	}
	return nil
}

// Reputation returns the member's current score, or the policy default if
// the member has never been seen. It never fails for a well-formed id.
func (rdb *ReputationDB) Reputation(memberID string) (float64, error) {
	var reputation float64
	err := rdb.db.QueryRow("SELECT reputation FROM user_stats WHERE user_id = ?", memberID).Scan(&reputation)
	if err == sql.ErrNoRows {
		return rdb.policy.Default, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query reputation for %s: %w", memberID, err)
	}
	return reputation, nil
}

// Adjust 对成员声望应用增量并返回新值。
// 同一成员的并发调用会串行执行，增量只会累加，不会互相覆盖。
func (rdb *ReputationDB) Adjust(memberID string, delta float64) (float64, error) {
	l := rdb.memberLock(memberID)
	l.Lock()
	defer l.Unlock()

	if err := rdb.ensureStatsRow(memberID); err != nil {
		return 0, err
	}

	var current float64
	if err := rdb.db.QueryRow("SELECT reputation FROM user_stats WHERE user_id = ?", memberID).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read reputation for %s: %w", memberID, err)
	}

	updated := current + delta
	if rdb.policy.Clamp {
		if updated < rdb.policy.Min {
			updated = rdb.policy.Min
		}
		if updated > rdb.policy.Max {
			updated = rdb.policy.Max
		}
	}

	if _, err := rdb.db.Exec("UPDATE user_stats SET reputation = ? WHERE user_id = ?", updated, memberID); err != nil {
		return 0, fmt.Errorf("failed to update reputation for %s: %w", memberID, err)
	}

	log.Debug().Str("member", memberID).Float64("delta", delta).Float64("reputation", updated).Msg("reputation adjusted")
	return updated, nil
}

// IncrementCounter 原子地递增一个命名计数器，同时刷新活跃时间。
// 计数器来自封闭枚举，未知计数器直接拒绝。
func (rdb *ReputationDB) IncrementCounter(memberID string, counter models.Counter, amount int64) error {
	if !counter.Valid() {
		return fmt.Errorf("unknown counter %q", counter)
	}

	l := rdb.memberLock(memberID)
	l.Lock()
	defer l.Unlock()

	if err := rdb.ensureStatsRow(memberID); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE user_stats SET %s = %s + ?, last_active = ? WHERE user_id = ?", counter, counter)
	if _, err := rdb.db.Exec(query, amount, time.Now().Unix(), memberID); err != nil {
		return fmt.Errorf("failed to increment %s for %s: %w", counter, memberID, err)
	}
	return nil
}

// TopMembers returns the top n members ordered by reputation.
func (rdb *ReputationDB) TopMembers(n int) ([]models.MemberStanding, error) {
	query := `SELECT s.user_id, COALESCE(u.first_name, ''), s.messages_sent, s.reputation
		FROM user_stats s LEFT JOIN users u ON u.user_id = s.user_id
		ORDER BY s.reputation DESC LIMIT ?`
	rows, err := rdb.db.Query(query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var standings []models.MemberStanding
	for rows.Next() {
		var s models.MemberStanding
		if err := rows.Scan(&s.UserID, &s.Username, &s.MessagesSent, &s.Reputation); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

// DecayInactive 将在 cutoff 之前没有活动的成员声望向缺省值回拢一步。
// 返回受影响的成员数。由每周维护任务调用。
func (rdb *ReputationDB) DecayInactive(cutoff time.Time, step float64) (int64, error) {
	def := rdb.policy.Default
	query := `UPDATE user_stats SET reputation = CASE
			WHEN reputation > ? THEN MAX(?, reputation - ?)
			WHEN reputation < ? THEN MIN(?, reputation + ?)
			ELSE reputation END
		WHERE last_active < ?`

	res, err := rdb.db.Exec(query, def, def, step, def, def, step, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to decay inactive members: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}
