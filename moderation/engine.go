package moderation

import (
	"context"
	"fmt"
	"time"

	"discord-guardian/models"

	"github.com/rs/zerolog/log"
)

// ReputationStore is the durable reputation surface the engine mutates.
// It is the single writer for member records.
type ReputationStore interface {
	Reputation(memberID string) (float64, error)
	Adjust(memberID string, delta float64) (float64, error)
	IncrementCounter(memberID string, counter models.Counter, amount int64) error
	EnsureMember(member models.Member) error
}

// WarnLedger is the append-only warn history the escalation tier is
// derived from.
type WarnLedger interface {
	Append(record models.WarnRecord) (int64, error)
	CountFor(memberID string) (int, error)
	RecentFor(memberID string, n int) ([]models.WarnRecord, error)
}

// MessageEvent is one inbound message to moderate.
type MessageEvent struct {
	MemberID  string
	Mention   string // human-readable handle used in notices
	ChannelID string
	MessageID string
	Body      string
	MediaRefs []string
}

// CommandRequest is a manual moderator command (warn or ban). TargetID is
// resolved from the replied-to message and is empty when the command was
// not a reply.
type CommandRequest struct {
	IssuerID      string
	TargetID      string
	TargetMention string
	ChannelID     string
	Reason        string
}

// Engine is the escalation state machine. It consumes flood and classifier
// verdicts, consults the warn ledger, decides an enforcement action,
// dispatches it through the gateway and commits reputation deltas.
//
// 同一成员的事件处理全程持有该成员的锁；不同成员互不阻塞。
type Engine struct {
	cfg        models.ModerationConfig
	store      ReputationStore
	ledger     WarnLedger
	gateway    Gateway
	classifier Classifier
	flood      *FloodDetector
	authorize  func(memberID string) bool
	locks      *memberLocks
	now        func() time.Time
}

// NewEngine wires the escalation engine. authorize reports whether a member
// holds administrative exemption; it also gates the manual commands.
func NewEngine(cfg models.ModerationConfig, store ReputationStore, ledger WarnLedger, gateway Gateway, classifier Classifier, authorize func(memberID string) bool) *Engine {
	if authorize == nil {
		authorize = func(string) bool { return false }
	}
	return &Engine{
		cfg:        cfg,
		store:      store,
		ledger:     ledger,
		gateway:    gateway,
		classifier: classifier,
		flood:      NewFloodDetector(cfg.Flood, cfg.Reputation.Max),
		authorize:  authorize,
		locks:      newMemberLocks(),
		now:        time.Now,
	}
}

// HandleMessage runs the per-event decision chain:
// admin exemption → flood check → content classification → activity logging.
// A flood violation stops the chain for the event.
func (e *Engine) HandleMessage(ctx context.Context, event MessageEvent) (models.EnforcementAction, error) {
	if e.authorize(event.MemberID) {
		// Administrative exemption skips the event entirely.
		return models.EnforcementAction{Kind: models.ActionNone}, nil
	}

	unlock := e.locks.acquire(event.MemberID)
	defer unlock()

	reputation, err := e.store.Reputation(event.MemberID)
	if err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}

	if status := e.flood.Observe(event.MemberID, reputation, e.now()); !status.WithinLimit {
		return e.enforceFlood(ctx, event, status)
	}

	if e.isFlagged(ctx, event) {
		return e.enforceToxicity(ctx, event, reputation)
	}

	// Clean event: log activity and reward sustained participation.
	if err := e.store.IncrementCounter(event.MemberID, models.CounterMessagesSent, 1); err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}
	if _, err := e.store.Adjust(event.MemberID, e.cfg.Reputation.CleanReward); err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}
	return models.EnforcementAction{Kind: models.ActionNone}, nil
}

// isFlagged classifies the message body and any media references.
// Classifier failures on this passive path fail open: the event is treated
// as neutral/clean and the degradation is logged.
func (e *Engine) isFlagged(ctx context.Context, event MessageEvent) bool {
	verdict, err := e.classifier.ClassifyText(ctx, event.Body)
	if err != nil {
		log.Warn().Err(err).Str("member", event.MemberID).Msg("text classification degraded to neutral")
		verdict = VerdictNeutral
	}
	if verdict == VerdictNegative {
		return true
	}

	for _, ref := range event.MediaRefs {
		mediaVerdict, err := e.classifier.ClassifyMedia(ctx, ref)
		if err != nil {
			log.Warn().Err(err).Str("member", event.MemberID).Msg("media classification degraded to clean")
			continue
		}
		if mediaVerdict == VerdictFlagged {
			return true
		}
	}
	return false
}

// enforceFlood deletes the triggering message, issues the timed flood mute
// and applies the flood penalty. No further checks run for this event.
func (e *Engine) enforceFlood(ctx context.Context, event MessageEvent, status FloodStatus) (models.EnforcementAction, error) {
	muteFor := time.Duration(e.cfg.Flood.MuteMinutes) * time.Minute
	log.Info().Str("member", event.MemberID).Int("count", status.Count).Msg("flood detected")

	e.dispatch(ctx, "delete", func() error {
		return e.gateway.DeleteMessage(ctx, MessageRef{ChannelID: event.ChannelID, MessageID: event.MessageID})
	})
	e.dispatch(ctx, "restrict", func() error {
		return e.gateway.RestrictMember(ctx, event.MemberID, e.now().Add(muteFor))
	})

	if _, err := e.store.Adjust(event.MemberID, -e.cfg.Reputation.FloodPenalty); err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}

	e.notify(ctx, event.ChannelID, fmt.Sprintf("🚨 %s has been muted for %d minutes due to message flooding.", event.Mention, e.cfg.Flood.MuteMinutes))
	return models.EnforcementAction{Kind: models.ActionMute, MuteFor: muteFor}, nil
}

// enforceToxicity deletes the message, alerts the review channel with the
// moderator action set and applies the toxicity penalty. A member whose
// reputation was already below the low-trust threshold is additionally
// short-muted with an automatic warn, which can cascade into a tier action.
func (e *Engine) enforceToxicity(ctx context.Context, event MessageEvent, reputation float64) (models.EnforcementAction, error) {
	e.dispatch(ctx, "delete", func() error {
		return e.gateway.DeleteMessage(ctx, MessageRef{ChannelID: event.ChannelID, MessageID: event.MessageID})
	})

	recent, err := e.ledger.RecentFor(event.MemberID, 3)
	if err != nil {
		log.Warn().Err(err).Str("member", event.MemberID).Msg("could not load warn history for alert")
	}
	e.dispatch(ctx, "alert", func() error {
		return e.gateway.SendAlert(ctx, e.cfg.AdminChannelID, Alert{
			MemberID:    event.MemberID,
			Mention:     event.Mention,
			Body:        event.Body,
			Reason:      "Toxic message detected",
			RecentWarns: recent,
		})
	})

	if _, err := e.store.Adjust(event.MemberID, -e.cfg.Reputation.ToxicPenalty); err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}

	e.notify(ctx, event.ChannelID, fmt.Sprintf("🚫 %s Your message was flagged as toxic and has been deleted.", event.Mention))

	if reputation >= e.cfg.Escalation.LowTrustThreshold {
		return models.EnforcementAction{Kind: models.ActionDeleteMessage}, nil
	}

	// Low-trust repeat offender: record an automatic warn and short-mute.
	// The post-insert count is re-read so a warn that crosses a tier
	// threshold triggers the tier action in this same call.
	if _, err := e.ledger.Append(models.WarnRecord{
		UserID:      event.MemberID,
		ModeratorID: models.AutoModeratorID,
		Reason:      "Toxic message while below trust threshold",
		Timestamp:   e.now(),
	}); err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}

	count, err := e.ledger.CountFor(event.MemberID)
	if err != nil {
		return models.EnforcementAction{}, storeErr(err)
	}

	action := e.applyTier(ctx, event.MemberID, event.Mention, event.ChannelID, count)
	if action.Kind != models.ActionNone {
		return action, nil
	}

	muteFor := time.Duration(e.cfg.Escalation.LowTrustMuteMinutes) * time.Minute
	e.dispatch(ctx, "restrict", func() error {
		return e.gateway.RestrictMember(ctx, event.MemberID, e.now().Add(muteFor))
	})
	e.notify(ctx, event.ChannelID, fmt.Sprintf("🔇 %s has been muted for %d minutes (low trust).", event.Mention, e.cfg.Escalation.LowTrustMuteMinutes))
	return models.EnforcementAction{Kind: models.ActionMute, MuteFor: muteFor}, nil
}

// WarnMember is the manual warn command. It appends a WarnRecord, applies
// the warn penalty and evaluates the escalation tier against the
// post-insert count. It returns the action taken and the new warn count.
func (e *Engine) WarnMember(ctx context.Context, req CommandRequest) (models.EnforcementAction, int, error) {
	if err := e.guard(req); err != nil {
		return models.EnforcementAction{}, 0, err
	}

	unlock := e.locks.acquire(req.TargetID)
	defer unlock()

	if _, err := e.ledger.Append(models.WarnRecord{
		UserID:      req.TargetID,
		ModeratorID: req.IssuerID,
		Reason:      req.Reason,
		Timestamp:   e.now(),
	}); err != nil {
		return models.EnforcementAction{}, 0, storeErr(err)
	}

	count, err := e.ledger.CountFor(req.TargetID)
	if err != nil {
		return models.EnforcementAction{}, 0, storeErr(err)
	}

	if _, err := e.store.Adjust(req.TargetID, -e.cfg.Reputation.WarnPenalty); err != nil {
		return models.EnforcementAction{}, count, storeErr(err)
	}

	e.notify(ctx, req.ChannelID, fmt.Sprintf("⚠️ User %s has been warned. Total warns: %d", req.TargetMention, count))

	action := e.applyTier(ctx, req.TargetID, req.TargetMention, req.ChannelID, count)
	return action, count, nil
}

// BanMember is the manual ban command. The ban is dispatched first; a
// transport failure is surfaced to the issuer as a denial and no penalty
// is applied. Banning an already-banned member is a transport no-op and
// applies the documented per-command penalty once more, nothing else.
func (e *Engine) BanMember(ctx context.Context, req CommandRequest) (models.EnforcementAction, error) {
	if err := e.guard(req); err != nil {
		return models.EnforcementAction{}, err
	}

	unlock := e.locks.acquire(req.TargetID)
	defer unlock()

	if err := e.gateway.BanMember(ctx, req.TargetID); err != nil {
		return models.EnforcementAction{}, &TransportError{Op: "ban", Err: err}
	}

	if _, err := e.store.Adjust(req.TargetID, -e.cfg.Reputation.BanPenalty); err != nil {
		return models.EnforcementAction{Kind: models.ActionBan}, storeErr(err)
	}

	e.notify(ctx, req.ChannelID, fmt.Sprintf("🔨 User %s has been banned.", req.TargetMention))
	return models.EnforcementAction{Kind: models.ActionBan}, nil
}

// MuteMember is the manual mute used by the review-channel action set.
func (e *Engine) MuteMember(ctx context.Context, req CommandRequest, muteFor time.Duration) (models.EnforcementAction, error) {
	if err := e.guard(req); err != nil {
		return models.EnforcementAction{}, err
	}

	unlock := e.locks.acquire(req.TargetID)
	defer unlock()

	if err := e.gateway.RestrictMember(ctx, req.TargetID, e.now().Add(muteFor)); err != nil {
		return models.EnforcementAction{}, &TransportError{Op: "restrict", Err: err}
	}

	e.notify(ctx, req.ChannelID, fmt.Sprintf("🔇 User %s has been muted for %s.", req.TargetMention, muteFor))
	return models.EnforcementAction{Kind: models.ActionMute, MuteFor: muteFor}, nil
}

// guard runs the command preconditions: issuer authorization, then the
// reply-target requirement. The first failing check wins.
func (e *Engine) guard(req CommandRequest) error {
	if !e.authorize(req.IssuerID) {
		return ErrUnauthorized
	}
	if req.TargetID == "" {
		return ErrInvalidTarget
	}
	return nil
}

// applyTier maps the post-insert warn count onto the enforcement tiers.
// Reaching the ban threshold bans; reaching the mute threshold mutes for
// the tier duration; below both nothing happens here.
func (e *Engine) applyTier(ctx context.Context, memberID, mention, channelID string, warnCount int) models.EnforcementAction {
	switch {
	case warnCount >= e.cfg.Escalation.BanThreshold:
		e.dispatch(ctx, "ban", func() error {
			return e.gateway.BanMember(ctx, memberID)
		})
		e.notify(ctx, channelID, fmt.Sprintf("🚨 User %s reached the warning limit (%d) and has been auto-banned.", mention, e.cfg.Escalation.BanThreshold))
		return models.EnforcementAction{Kind: models.ActionBan}

	case warnCount >= e.cfg.Escalation.MuteThreshold:
		muteFor := time.Duration(e.cfg.Escalation.TierMuteHours) * time.Hour
		e.dispatch(ctx, "restrict", func() error {
			return e.gateway.RestrictMember(ctx, memberID, e.now().Add(muteFor))
		})
		e.notify(ctx, channelID, fmt.Sprintf("🔇 User %s reached the mute limit (%d) and has been auto-muted for %d hours.", mention, e.cfg.Escalation.MuteThreshold, e.cfg.Escalation.TierMuteHours))
		return models.EnforcementAction{Kind: models.ActionMute, MuteFor: muteFor}
	}
	return models.EnforcementAction{Kind: models.ActionNone}
}

// dispatch runs an enforcement call against the gateway. Transport
// failures are logged and reported, never fatal: committed reputation
// deltas stay committed.
func (e *Engine) dispatch(ctx context.Context, op string, fn func() error) {
	if err := fn(); err != nil {
		terr := &TransportError{Op: op, Err: err}
		log.Error().Err(terr).Msg("enforcement dispatch failed")
	}
}

// notify emits the human-readable notice that accompanies every
// enforcement. Delivery failures are logged, never blocking.
func (e *Engine) notify(ctx context.Context, channelID, body string) {
	if err := e.gateway.SendMessage(ctx, channelID, body); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to deliver enforcement notice")
	}
}
