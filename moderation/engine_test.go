package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"discord-guardian/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory ReputationStore.
type fakeStore struct {
	mu       sync.Mutex
	def      float64
	rep      map[string]float64
	counters map[string]int64
	repErr   error
}

func newFakeStore(def float64) *fakeStore {
	return &fakeStore{
		def:      def,
		rep:      make(map[string]float64),
		counters: make(map[string]int64),
	}
}

func (f *fakeStore) Reputation(memberID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.repErr != nil {
		return 0, f.repErr
	}
	if rep, ok := f.rep[memberID]; ok {
		return rep, nil
	}
	return f.def, nil
}

func (f *fakeStore) Adjust(memberID string, delta float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.rep[memberID]
	if !ok {
		current = f.def
	}
	f.rep[memberID] = current + delta
	return f.rep[memberID], nil
}

func (f *fakeStore) IncrementCounter(memberID string, counter models.Counter, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[memberID] += amount
	return nil
}

func (f *fakeStore) EnsureMember(models.Member) error { return nil }

func (f *fakeStore) reputation(memberID string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rep, ok := f.rep[memberID]; ok {
		return rep
	}
	return f.def
}

// fakeLedger is an in-memory WarnLedger.
type fakeLedger struct {
	mu      sync.Mutex
	records []models.WarnRecord
}

func (f *fakeLedger) Append(record models.WarnRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record.WarnID = int64(len(f.records) + 1)
	f.records = append(f.records, record)
	return record.WarnID, nil
}

func (f *fakeLedger) CountFor(memberID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, r := range f.records {
		if r.UserID == memberID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) RecentFor(memberID string, n int) ([]models.WarnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WarnRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < n; i-- {
		if f.records[i].UserID == memberID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeLedger) forMember(memberID string) []models.WarnRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WarnRecord
	for _, r := range f.records {
		if r.UserID == memberID {
			out = append(out, r)
		}
	}
	return out
}

type restrictCall struct {
	memberID string
	until    time.Time
}

// fakeGateway records every dispatched enforcement.
type fakeGateway struct {
	mu           sync.Mutex
	deleted      []MessageRef
	restricted   []restrictCall
	unrestricted []string
	banned       []string
	messages     []string
	alerts       []Alert
	banErr       error
	restrictErr  error
}

func (f *fakeGateway) DeleteMessage(_ context.Context, ref MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeGateway) RestrictMember(_ context.Context, memberID string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.restrictErr != nil {
		return f.restrictErr
	}
	f.restricted = append(f.restricted, restrictCall{memberID, until})
	return nil
}

func (f *fakeGateway) UnrestrictMember(_ context.Context, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unrestricted = append(f.unrestricted, memberID)
	return nil
}

func (f *fakeGateway) BanMember(_ context.Context, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.banErr != nil {
		return f.banErr
	}
	f.banned = append(f.banned, memberID)
	return nil
}

func (f *fakeGateway) SendMessage(_ context.Context, _, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, body)
	return nil
}

func (f *fakeGateway) SendAlert(_ context.Context, _ string, alert Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return nil
}

// staticClassifier returns fixed verdicts.
type staticClassifier struct {
	text  TextVerdict
	media MediaVerdict
	err   error
}

func (s staticClassifier) ClassifyText(context.Context, string) (TextVerdict, error) {
	return s.text, s.err
}

func (s staticClassifier) ClassifyMedia(context.Context, string) (MediaVerdict, error) {
	return s.media, s.err
}

type engineFixture struct {
	engine  *Engine
	store   *fakeStore
	ledger  *fakeLedger
	gateway *fakeGateway
	base    time.Time
}

func newEngineFixture(t *testing.T, classifier Classifier, authorize func(string) bool) *engineFixture {
	t.Helper()
	cfg := models.DefaultModerationConfig()
	cfg.AdminChannelID = "admin-chan"

	store := newFakeStore(cfg.Reputation.Default)
	ledger := &fakeLedger{}
	gateway := &fakeGateway{}
	engine := NewEngine(cfg, store, ledger, gateway, classifier, authorize)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return base }

	return &engineFixture{engine: engine, store: store, ledger: ledger, gateway: gateway, base: base}
}

func noOne(string) bool { return false }

func event(memberID string) MessageEvent {
	return MessageEvent{
		MemberID:  memberID,
		Mention:   "<@" + memberID + ">",
		ChannelID: "general",
		MessageID: "msg-1",
		Body:      "hello there",
	}
}

func TestHandleMessageCleanRewardsParticipation(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNeutral, media: VerdictClean}, noOne)

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionNone, action.Kind)
	assert.Equal(t, int64(1), fx.store.counters["u1"])
	assert.InDelta(t, 50.1, fx.store.reputation("u1"), 1e-9)
	assert.Empty(t, fx.gateway.deleted)
}

func TestHandleMessageAdminExempt(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNegative}, func(id string) bool {
		return id == "admin"
	})

	action, err := fx.engine.HandleMessage(context.Background(), event("admin"))
	require.NoError(t, err)

	// The pipeline skips exempt members entirely: no deletion, no
	// penalty, not even the activity counter.
	assert.Equal(t, models.ActionNone, action.Kind)
	assert.Empty(t, fx.gateway.deleted)
	assert.Zero(t, fx.store.counters["admin"])
	assert.InDelta(t, 50.0, fx.store.reputation("admin"), 1e-9)
}

func TestHandleMessageToxicAverageTrust(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNegative}, noOne)

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionDeleteMessage, action.Kind)
	require.Len(t, fx.gateway.deleted, 1)
	assert.Equal(t, "msg-1", fx.gateway.deleted[0].MessageID)
	require.Len(t, fx.gateway.alerts, 1)
	assert.Equal(t, "u1", fx.gateway.alerts[0].MemberID)
	assert.InDelta(t, 35.0, fx.store.reputation("u1"), 1e-9)

	// Above the low-trust threshold there is no mute and no automatic warn.
	assert.Empty(t, fx.gateway.restricted)
	assert.Empty(t, fx.ledger.forMember("u1"))
}

func TestHandleMessageToxicFlaggedMedia(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNeutral, media: VerdictFlagged}, noOne)

	ev := event("u1")
	ev.MediaRefs = []string{"https://cdn.example/bad.png"}

	action, err := fx.engine.HandleMessage(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, models.ActionDeleteMessage, action.Kind)
	assert.Len(t, fx.gateway.deleted, 1)
	assert.InDelta(t, 35.0, fx.store.reputation("u1"), 1e-9)
}

func TestHandleMessageToxicLowTrustShortMute(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNegative}, noOne)
	fx.store.rep["u1"] = 10

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionMute, action.Kind)
	assert.Equal(t, 10*time.Minute, action.MuteFor)

	warns := fx.ledger.forMember("u1")
	require.Len(t, warns, 1)
	assert.Equal(t, models.AutoModeratorID, warns[0].ModeratorID)
	assert.True(t, warns[0].IsAutomatic())

	require.Len(t, fx.gateway.restricted, 1)
	assert.Equal(t, fx.base.Add(10*time.Minute), fx.gateway.restricted[0].until)
	assert.InDelta(t, -5.0, fx.store.reputation("u1"), 1e-9)
}

func TestHandleMessageToxicLowTrustCrossesTier(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNegative}, noOne)
	fx.store.rep["u1"] = 10
	for i := 0; i < 2; i++ {
		_, err := fx.ledger.Append(models.WarnRecord{UserID: "u1", ModeratorID: "mod", Timestamp: fx.base})
		require.NoError(t, err)
	}

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	// The automatic warn is the third: the tier mute fires instead of
	// the short low-trust mute.
	assert.Equal(t, models.ActionMute, action.Kind)
	assert.Equal(t, 24*time.Hour, action.MuteFor)
	require.Len(t, fx.gateway.restricted, 1)
	assert.Equal(t, fx.base.Add(24*time.Hour), fx.gateway.restricted[0].until)
}

func TestHandleMessageFloodMute(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNeutral, media: VerdictClean}, noOne)
	fx.store.rep["u1"] = 10

	now := fx.base
	fx.engine.now = func() time.Time { return now }

	// Six messages 300ms apart: at rep ~10 the enforced interval is
	// around 1.85s, so all six land in one window.
	for i := 0; i < 5; i++ {
		action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
		require.NoError(t, err)
		assert.Equal(t, models.ActionNone, action.Kind, "message %d", i+1)
		now = now.Add(300 * time.Millisecond)
	}

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionMute, action.Kind)
	assert.Equal(t, 15*time.Minute, action.MuteFor)
	assert.Len(t, fx.gateway.deleted, 1)
	require.Len(t, fx.gateway.restricted, 1)
	assert.Equal(t, now.Add(15*time.Minute), fx.gateway.restricted[0].until)

	// Five clean rewards then the flood penalty.
	assert.InDelta(t, 10+5*0.1-10, fx.store.reputation("u1"), 1e-9)
	assert.Equal(t, int64(5), fx.store.counters["u1"])
}

func TestHandleMessageStoreFailure(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNeutral}, noOne)
	fx.store.repErr = errors.New("disk gone")

	_, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestHandleMessageClassifierFailureFailsOpen(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{text: VerdictNegative, err: ErrClassifierTimeout}, noOne)

	action, err := fx.engine.HandleMessage(context.Background(), event("u1"))
	require.NoError(t, err)

	// Degraded classification treats the message as clean.
	assert.Equal(t, models.ActionNone, action.Kind)
	assert.Empty(t, fx.gateway.deleted)
	assert.Equal(t, int64(1), fx.store.counters["u1"])
}

func warnRequest(issuer, target string) CommandRequest {
	return CommandRequest{
		IssuerID:      issuer,
		TargetID:      target,
		TargetMention: "<@" + target + ">",
		ChannelID:     "general",
		Reason:        "spamming links",
	}
}

func TestWarnMemberAppendsAndPenalizes(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	action, count, err := fx.engine.WarnMember(context.Background(), warnRequest("mod", "u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionNone, action.Kind)
	assert.Equal(t, 1, count)
	warns := fx.ledger.forMember("u1")
	require.Len(t, warns, 1)
	assert.Equal(t, "mod", warns[0].ModeratorID)
	assert.Equal(t, "spamming links", warns[0].Reason)
	assert.InDelta(t, 45.0, fx.store.reputation("u1"), 1e-9)
}

func TestWarnMemberThirdWarnMutes(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	var action models.EnforcementAction
	var count int
	var err error
	for i := 0; i < 3; i++ {
		action, count, err = fx.engine.WarnMember(context.Background(), warnRequest("mod", "u1"))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, models.ActionMute, action.Kind)
	assert.Equal(t, 24*time.Hour, action.MuteFor)
	require.Len(t, fx.gateway.restricted, 1)
	assert.Equal(t, "u1", fx.gateway.restricted[0].memberID)
	assert.InDelta(t, 35.0, fx.store.reputation("u1"), 1e-9)
}

func TestWarnMemberFifthWarnBans(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	var action models.EnforcementAction
	var err error
	for i := 0; i < 5; i++ {
		action, _, err = fx.engine.WarnMember(context.Background(), warnRequest("mod", "u1"))
		require.NoError(t, err)
	}

	assert.Equal(t, models.ActionBan, action.Kind)
	assert.Contains(t, fx.gateway.banned, "u1")
}

func TestWarnMemberUnauthorized(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, noOne)

	_, _, err := fx.engine.WarnMember(context.Background(), warnRequest("rando", "u1"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, fx.ledger.forMember("u1"))
}

func TestWarnMemberMissingTarget(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	_, _, err := fx.engine.WarnMember(context.Background(), warnRequest("mod", ""))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestBanMemberHappyPath(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	action, err := fx.engine.BanMember(context.Background(), warnRequest("mod", "u1"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionBan, action.Kind)
	assert.Contains(t, fx.gateway.banned, "u1")
	assert.InDelta(t, 25.0, fx.store.reputation("u1"), 1e-9)
}

func TestBanMemberTwiceIsNotAnError(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	_, err := fx.engine.BanMember(context.Background(), warnRequest("mod", "u1"))
	require.NoError(t, err)

	// The gateway treats re-banning as a no-op; the engine applies the
	// documented per-command penalty once more, nothing else.
	_, err = fx.engine.BanMember(context.Background(), warnRequest("mod", "u1"))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fx.store.reputation("u1"), 1e-9)
}

func TestBanMemberTransportFailure(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })
	fx.gateway.banErr = errors.New("api 500")

	_, err := fx.engine.BanMember(context.Background(), warnRequest("mod", "u1"))

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "ban", terr.Op)

	// No penalty without a confirmed ban.
	assert.InDelta(t, 50.0, fx.store.reputation("u1"), 1e-9)
}

func TestMuteMember(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })

	action, err := fx.engine.MuteMember(context.Background(), warnRequest("mod", "u1"), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, models.ActionMute, action.Kind)
	assert.Equal(t, time.Hour, action.MuteFor)
	require.Len(t, fx.gateway.restricted, 1)
	assert.Equal(t, fx.base.Add(time.Hour), fx.gateway.restricted[0].until)
}

func TestMuteMemberTransportFailure(t *testing.T) {
	fx := newEngineFixture(t, staticClassifier{}, func(id string) bool { return id == "mod" })
	fx.gateway.restrictErr = errors.New("api 500")

	_, err := fx.engine.MuteMember(context.Background(), warnRequest("mod", "u1"), time.Hour)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "restrict", terr.Op)
}
