package moderation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"discord-guardian/models"

	"github.com/rs/zerolog/log"
)

// SweepStore is the read/maintenance surface the periodic sweep uses.
// It goes through the same store as the online path.
type SweepStore interface {
	TopMembers(n int) ([]models.MemberStanding, error)
	DecayInactive(cutoff time.Time, step float64) (int64, error)
}

// Sweeper runs the date-gated maintenance tasks. The scheduler ticks it
// on a fixed cadence; each task fires at most once per gating window even
// when ticks race with clock granularity.
type Sweeper struct {
	cfg     models.ModerationConfig
	store   SweepStore
	gateway Gateway
	now     func() time.Time

	// ExpireTickets, when set, discards ticket sessions idle since before
	// the given time and returns how many were dropped.
	ExpireTickets func(olderThan time.Time) int

	mu            sync.Mutex
	lastDigestDay string
	lastDecayWeek string
}

// NewSweeper creates a sweeper over the shared store and gateway.
func NewSweeper(cfg models.ModerationConfig, store SweepStore, gateway Gateway) *Sweeper {
	return &Sweeper{
		cfg:     cfg,
		store:   store,
		gateway: gateway,
		now:     time.Now,
	}
}

// Tick runs whichever maintenance tasks are due. Task errors are logged
// and never terminate the loop.
func (s *Sweeper) Tick(ctx context.Context) {
	now := s.now()

	if s.claimDigest(now) {
		if err := s.dailyDigest(ctx); err != nil {
			log.Error().Err(err).Msg("daily digest failed")
		}
	}

	if s.claimDecay(now) {
		if err := s.weeklyDecay(now); err != nil {
			log.Error().Err(err).Msg("weekly inactivity decay failed")
		}
	}

	if s.ExpireTickets != nil {
		if dropped := s.ExpireTickets(now.Add(-10 * time.Minute)); dropped > 0 {
			log.Info().Int("dropped", dropped).Msg("expired idle ticket sessions")
		}
	}
}

// claimDigest marks the day as handled and reports whether this tick won
// the claim. 同一天内的并发 tick 只有一个会拿到执行权。
func (s *Sweeper) claimDigest(now time.Time) bool {
	day := now.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDigestDay == day {
		return false
	}
	s.lastDigestDay = day
	return true
}

// claimDecay does the same for the ISO-week gate.
func (s *Sweeper) claimDecay(now time.Time) bool {
	year, week := now.ISOWeek()
	key := fmt.Sprintf("%04d-W%02d", year, week)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDecayWeek == key {
		return false
	}
	s.lastDecayWeek = key
	return true
}

// dailyDigest posts the top standings to the admin channel.
func (s *Sweeper) dailyDigest(ctx context.Context) error {
	standings, err := s.store.TopMembers(10)
	if err != nil {
		return fmt.Errorf("failed to load standings: %w", err)
	}

	var b strings.Builder
	b.WriteString("🏆 **Daily digest — top members by reputation** 🏆\n\n")
	if len(standings) == 0 {
		b.WriteString("No members found yet.")
	}
	for i, standing := range standings {
		name := standing.Username
		if name == "" {
			name = standing.UserID
		}
		fmt.Fprintf(&b, "%d. **%s** - Rep: %.2f | Msgs: %d\n", i+1, name, standing.Reputation, standing.MessagesSent)
	}

	if err := s.gateway.SendMessage(ctx, s.cfg.AdminChannelID, b.String()); err != nil {
		return &TransportError{Op: "digest", Err: err}
	}
	return nil
}

// weeklyDecay drifts inactive members' reputation back toward the default.
func (s *Sweeper) weeklyDecay(now time.Time) error {
	cutoff := now.AddDate(0, 0, -7)
	affected, err := s.store.DecayInactive(cutoff, s.cfg.Reputation.DecayStep)
	if err != nil {
		return err
	}
	log.Info().Int64("members", affected).Msg("weekly inactivity decay applied")
	return nil
}
