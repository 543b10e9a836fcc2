// Moderator decisions and the penalty / appeal lifecycle.
//
// The service owns moderator records, issued penalties, and appeals. Queue
// mutations are delegated to the review queue; automatic penalties for
// punitive actions are computed here from the underlying moderation result.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/notify"
	"github.com/meridian-social/aegis/moderation/queue"
)

type Service struct {
	mu         sync.Mutex
	moderators map[string]*Moderator
	penalties  []*UserPenalty
	appeals    map[string]*Appeal

	policy   moderation.Policy
	logger   *slog.Logger
	queue    *queue.Queue
	notifier notify.Notifier
	events   eventlog.Store
	resolve  moderation.AuthorResolver

	Clock func() time.Time
}

func NewService(pol moderation.Policy, logger *slog.Logger, q *queue.Queue, notifier notify.Notifier, events eventlog.Store, resolve moderation.AuthorResolver) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		moderators: make(map[string]*Moderator),
		appeals:    make(map[string]*Appeal),
		policy:     pol,
		logger:     logger,
		queue:      q,
		notifier:   notifier,
		events:     events,
		resolve:    resolve,
		Clock:      time.Now,
	}
}

// AddModerator registers (or replaces) a moderator record.
func (s *Service) AddModerator(m Moderator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.moderators[m.ID] = &cp
}

// Moderator returns a copy of a moderator record.
func (s *Service) Moderator(id string) (Moderator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moderators[id]
	if !ok {
		return Moderator{}, false
	}
	return *m, true
}

// CheckPermission validates that the moderator may apply the action.
func (s *Service) CheckPermission(moderatorID string, action queue.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.moderators[moderatorID]
	if !ok {
		return moderation.Validationf("unknown moderator")
	}
	if !m.IsActive {
		return moderation.Validationf("moderator account is inactive")
	}
	if !m.CanPerform(action) {
		return moderation.Validationf("action %q requires senior moderator or admin role", action)
	}
	return nil
}

// ProcessContentApproval applies a moderator decision to a queue item:
// permission check, queue update, then an automatic penalty against the
// content author for punitive actions (reject, ban, delete). The boolean is
// false when the item no longer exists, which is a normal outcome under
// concurrent review.
func (s *Service) ProcessContentApproval(ctx context.Context, itemID string, action queue.Action, moderatorID, reason, notes string) (queue.Item, bool, error) {
	if err := s.CheckPermission(moderatorID, action); err != nil {
		return queue.Item{}, false, err
	}

	updated, ok := s.queue.UpdateItem(ctx, itemID, action, moderatorID, reason, notes)
	if !ok {
		return queue.Item{}, false, nil
	}

	s.mu.Lock()
	if m, found := s.moderators[moderatorID]; found {
		m.TotalReviews++
	}
	s.mu.Unlock()

	if action == queue.ActionReject || action == queue.ActionBan || action == queue.ActionDelete {
		s.applyAutomaticPenalty(ctx, &updated.Result, moderatorID)
	}
	return updated, true, nil
}

// Automatic penalty scale for punitive moderator actions, computed from the
// content's classification.
func (s *Service) automaticPenaltyFor(res *moderation.ModerationResult) (PenaltyType, string) {
	switch {
	case res.HasFlag(moderation.FlagHateSpeech) || res.HasFlag(moderation.FlagHarassment):
		return TemporaryBan(s.policy.SevereViolationBanDays), "severe community guidelines violation"
	case res.Severity == moderation.SeverityHigh:
		return TemporaryBan(s.policy.HighSeverityBanDays), "serious content policy violation"
	case res.Severity == moderation.SeverityMedium:
		return RestrictedPosting(s.policy.MediumSeverityRestrictDays), "content policy violation"
	default:
		return Warning(), "minor content policy violation"
	}
}

func (s *Service) applyAutomaticPenalty(ctx context.Context, res *moderation.ModerationResult, moderatorID string) {
	if s.resolve == nil {
		return
	}
	author, ok := s.resolve(res.ContentID)
	if !ok {
		s.logger.Warn("cannot resolve content author for automatic penalty", "contentId", res.ContentID)
		return
	}
	pt, reason := s.automaticPenaltyFor(res)
	if _, err := s.ApplyUserPenalty(ctx, author, pt, reason, moderatorID, res.ContentID); err != nil {
		s.logger.Error("applying automatic penalty", "err", err, "userId", author, "contentId", res.ContentID)
	}
}

// ApplyUserPenalty issues and activates a penalty. User notification and the
// audit entry are best-effort side effects after the state change.
func (s *Service) ApplyUserPenalty(ctx context.Context, userID string, pt PenaltyType, reason, moderatorID, contentID string) (UserPenalty, error) {
	if userID == "" {
		return UserPenalty{}, moderation.Validationf("penalty requires a user id")
	}
	now := s.Clock()
	p := &UserPenalty{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        pt,
		Reason:      reason,
		ModeratorID: moderatorID,
		ContentID:   contentID,
		IssuedAt:    now,
		ExpiresAt:   pt.ExpiresAt(now),
		IsActive:    true,
	}
	s.mu.Lock()
	s.penalties = append(s.penalties, p)
	s.mu.Unlock()
	penaltyCount.WithLabelValues(string(pt.Kind)).Inc()

	s.notice(ctx, notify.UserNotice{UserID: userID, Outcome: "penalty:" + string(pt.Kind), Reason: reason})
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindPenaltyApplied,
		Subject: userID,
		Actor:   moderatorID,
		Detail:  fmt.Sprintf("kind=%s days=%d reason=%q contentId=%s", pt.Kind, pt.Days, reason, contentID),
	})
	return *p, nil
}

// RestrictPosting is the narrow entry point the reporting subsystem uses for
// automatic restrictions; it avoids handing reporting the whole penalty API.
func (s *Service) RestrictPosting(ctx context.Context, userID string, days int, reason string) error {
	_, err := s.ApplyUserPenalty(ctx, userID, RestrictedPosting(days), reason, "system", "")
	return err
}

// ActivePenaltiesFor returns copies of all currently active penalties for a
// user, skipping any that have lapsed.
func (s *Service) ActivePenaltiesFor(userID string) []UserPenalty {
	now := s.Clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []UserPenalty
	for _, p := range s.penalties {
		if p.UserID == userID && p.IsActive && !p.Expired(now) {
			out = append(out, *p)
		}
	}
	return out
}

// HasActiveBan reports whether the user is under any active ban.
func (s *Service) HasActiveBan(userID string) bool {
	for _, p := range s.ActivePenaltiesFor(userID) {
		if p.Type.Kind == PenaltyTemporaryBan || p.Type.Kind == PenaltyPermanentBan {
			return true
		}
	}
	return false
}

// PostingBlocked reports whether the user is currently barred from
// submitting content, by a ban or a restricted-posting penalty. Shadow bans
// deliberately do not block: the whole point is that the user keeps posting.
func (s *Service) PostingBlocked(userID string) bool {
	for _, p := range s.ActivePenaltiesFor(userID) {
		switch p.Type.Kind {
		case PenaltyTemporaryBan, PenaltyPermanentBan, PenaltyRestrictedPosting:
			return true
		}
	}
	return false
}

// ExpirePenalties deactivates lapsed penalties and returns how many flipped.
func (s *Service) ExpirePenalties(ctx context.Context) int {
	now := s.Clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.penalties {
		if p.IsActive && p.Expired(now) {
			p.IsActive = false
			n++
		}
	}
	return n
}

// DeactivatePenalty reverses a single penalty by id (admin action).
func (s *Service) DeactivatePenalty(ctx context.Context, penaltyID, actorID, reason string) bool {
	s.mu.Lock()
	var hit *UserPenalty
	for _, p := range s.penalties {
		if p.ID == penaltyID && p.IsActive {
			p.IsActive = false
			hit = p
			break
		}
	}
	s.mu.Unlock()
	if hit == nil {
		return false
	}
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindPenaltyReversed,
		Subject: hit.UserID,
		Actor:   actorID,
		Detail:  fmt.Sprintf("penaltyId=%s reason=%q", penaltyID, reason),
	})
	return true
}

// SubmitAppeal opens a pending appeal for a moderated content decision.
func (s *Service) SubmitAppeal(ctx context.Context, userID, contentID, actionID string) (Appeal, error) {
	if userID == "" || contentID == "" {
		return Appeal{}, moderation.Validationf("appeal requires user and content ids")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appeals {
		if a.UserID == userID && a.ContentID == contentID && a.Status == AppealPending {
			return Appeal{}, moderation.Validationf("an appeal for this content is already pending")
		}
	}
	a := &Appeal{
		ID:          uuid.NewString(),
		UserID:      userID,
		ContentID:   contentID,
		ActionID:    actionID,
		Status:      AppealPending,
		SubmittedAt: s.Clock(),
	}
	s.appeals[a.ID] = a
	return *a, nil
}

// Appeal returns a copy of an appeal.
func (s *Service) Appeal(id string) (Appeal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appeals[id]
	if !ok {
		return Appeal{}, false
	}
	return *a, true
}

// ResolveAppeal decides a pending appeal. Approval deactivates every active
// penalty tied to the appeal's (user, content) pair; rejection records the
// decision only. Both outcomes notify the user. Deciding a non-pending
// appeal is a validation failure: the state machine is one-shot.
func (s *Service) ResolveAppeal(ctx context.Context, appealID, moderatorID string, approve bool, reason string) (Appeal, bool, error) {
	s.mu.Lock()
	a, ok := s.appeals[appealID]
	if !ok {
		s.mu.Unlock()
		return Appeal{}, false, nil
	}
	if a.Status != AppealPending {
		s.mu.Unlock()
		return Appeal{}, true, moderation.Validationf("appeal already resolved")
	}
	m, ok := s.moderators[moderatorID]
	if !ok || !m.IsActive {
		s.mu.Unlock()
		return Appeal{}, true, moderation.Validationf("appeal review requires an active moderator")
	}

	now := s.Clock()
	outcome := AppealRejected
	reversed := 0
	if approve {
		outcome = AppealApproved
		for _, p := range s.penalties {
			if p.UserID == a.UserID && p.ContentID == a.ContentID && p.IsActive {
				p.IsActive = false
				reversed++
			}
		}
	}
	a.Status = outcome
	a.DecisionReason = reason
	a.DecidedAt = &now
	a.DecidedBy = moderatorID
	resolved := *a
	s.mu.Unlock()

	appealCount.WithLabelValues(string(outcome)).Inc()
	noticeReason := reason
	if approve && noticeReason == "" {
		noticeReason = "Appeal approved"
	}
	s.notice(ctx, notify.UserNotice{UserID: resolved.UserID, Outcome: "appeal:" + string(outcome), Reason: noticeReason})
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindAppealResolved,
		Subject: resolved.UserID,
		Actor:   moderatorID,
		Detail:  fmt.Sprintf("appealId=%s outcome=%s reversedPenalties=%d", appealID, outcome, reversed),
	})
	return resolved, true, nil
}

func (s *Service) notice(ctx context.Context, n notify.UserNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.UserNotice(ctx, n); err != nil {
		s.logger.Error("sending user notice", "err", err, "userId", n.UserID)
	}
}

func (s *Service) audit(ctx context.Context, evt eventlog.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, evt); err != nil {
		s.logger.Error("appending audit event", "err", err, "subject", evt.Subject)
	}
}
