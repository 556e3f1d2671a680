package database

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"discord-guardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testPolicy() models.ReputationPolicy {
	return models.DefaultModerationConfig().Reputation
}

func TestReputationDefaultForUnseenMember(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	rep, err := rdb.Reputation("ghost")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rep, 1e-9)
}

func TestEnsureMemberIsIdempotent(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	member := models.Member{UserID: "u1", Username: "alice", FirstName: "Alice", JoinedAt: time.Now()}
	require.NoError(t, rdb.EnsureMember(member))

	_, err := rdb.Adjust("u1", -20)
	require.NoError(t, err)

	// A second EnsureMember must not reset the adjusted score.
	require.NoError(t, rdb.EnsureMember(member))
	rep, err := rdb.Reputation("u1")
	require.NoError(t, err)
	assert.InDelta(t, 30.0, rep, 1e-9)
}

func TestAdjustAccumulatesAndClamps(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	rep, err := rdb.Adjust("u1", -15)
	require.NoError(t, err)
	assert.InDelta(t, 35.0, rep, 1e-9)

	rep, err = rdb.Adjust("u1", -100)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rep, 1e-9, "score clamps at the floor")

	rep, err = rdb.Adjust("u1", 500)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, rep, 1e-9, "score clamps at the ceiling")
}

func TestAdjustWithoutClamp(t *testing.T) {
	policy := testPolicy()
	policy.Clamp = false
	rdb := NewReputationDB(openTestDB(t), policy)

	rep, err := rdb.Adjust("u1", -80)
	require.NoError(t, err)
	assert.InDelta(t, -30.0, rep, 1e-9)
}

func TestAdjustConcurrentDeltasAllLand(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rdb.Adjust("u1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rep, err := rdb.Reputation("u1")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, rep, 1e-9, "no delta may be lost to a race")
}

func TestIncrementCounter(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	for i := 0; i < 3; i++ {
		require.NoError(t, rdb.IncrementCounter("u1", models.CounterMessagesSent, 1))
	}

	standings, err := rdb.TopMembers(10)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, int64(3), standings[0].MessagesSent)
}

func TestIncrementCounterRejectsUnknownCounter(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	err := rdb.IncrementCounter("u1", models.Counter("reputation = 0; --"), 1)
	assert.Error(t, err)
}

func TestTopMembersOrdering(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	_, err := rdb.Adjust("low", -30)
	require.NoError(t, err)
	_, err = rdb.Adjust("high", 30)
	require.NoError(t, err)
	_, err = rdb.Adjust("mid", 0)
	require.NoError(t, err)

	standings, err := rdb.TopMembers(2)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "high", standings[0].UserID)
	assert.Equal(t, "mid", standings[1].UserID)
}

func TestDecayInactiveDriftsTowardDefault(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	_, err := rdb.Adjust("sinner", -20) // 30
	require.NoError(t, err)
	_, err = rdb.Adjust("saint", 20) // 70
	require.NoError(t, err)

	// A cutoff in the future treats everyone as inactive.
	affected, err := rdb.DecayInactive(time.Now().Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	rep, err := rdb.Reputation("sinner")
	require.NoError(t, err)
	assert.InDelta(t, 31.0, rep, 1e-9)

	rep, err = rdb.Reputation("saint")
	require.NoError(t, err)
	assert.InDelta(t, 69.0, rep, 1e-9)
}

func TestDecayInactiveSkipsActiveMembers(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	_, err := rdb.Adjust("active", 20)
	require.NoError(t, err)
	require.NoError(t, rdb.IncrementCounter("active", models.CounterMessagesSent, 1))

	_, err = rdb.DecayInactive(time.Now().Add(-time.Hour), 1)
	require.NoError(t, err)

	rep, err := rdb.Reputation("active")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, rep, 1e-9, "recently active members do not decay")
}

func TestDecayInactiveDoesNotOvershoot(t *testing.T) {
	rdb := NewReputationDB(openTestDB(t), testPolicy())

	_, err := rdb.Adjust("nearly", -0.5) // 49.5
	require.NoError(t, err)

	_, err = rdb.DecayInactive(time.Now().Add(time.Hour), 5)
	require.NoError(t, err)

	rep, err := rdb.Reputation("nearly")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rep, 1e-9, "decay stops exactly at the default")
}
