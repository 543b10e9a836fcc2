// User reports: validation, rate limiting, queue routing, and the automatic
// protective actions taken when report volume crosses policy thresholds.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/countstore"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/flagstore"
	"github.com/meridian-social/aegis/moderation/queue"
)

// counter namespaces
const (
	counterReporterDaily   = "reports-by-user"
	counterContentReports  = "reports-on-content"
	counterContentDistinct = "reporters-on-content"
)

// Restrictor is the slice of the penalty subsystem the reporting flow needs:
// automatic posting restrictions for over-reported authors and serial false
// reporters.
type Restrictor interface {
	RestrictPosting(ctx context.Context, userID string, days int, reason string) error
}

// ReportingLimits is the outcome of a rate-limit / abuse check for one user.
type ReportingLimits struct {
	CanReport       bool    `json:"canReport"`
	Reason          string  `json:"reason,omitempty"`
	ReportsToday    int     `json:"reportsToday"`
	RemainingToday  int     `json:"remainingToday"`
	IsAbusive       bool    `json:"isAbusive"`
	FalseReportRate float64 `json:"falseReportRate"`
}

// SubmitReportInput carries one report submission.
type SubmitReportInput struct {
	ContentID         string
	ContentType       moderation.ContentType
	ReporterID        string
	Reason            Reason
	AdditionalDetails string
	IsAnonymous       bool
}

type Service struct {
	mu      sync.Mutex
	reports []*Report
	byID    map[string]*Report

	policy     moderation.Policy
	logger     *slog.Logger
	queue      *queue.Queue
	counters   countstore.CountStore
	flags      flagstore.FlagStore
	restrictor Restrictor
	resolve    moderation.AuthorResolver
	events     eventlog.Store

	Clock func() time.Time
}

func NewService(pol moderation.Policy, logger *slog.Logger, q *queue.Queue, counters countstore.CountStore, flags flagstore.FlagStore, restrictor Restrictor, resolve moderation.AuthorResolver, events eventlog.Store) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		byID:       make(map[string]*Report),
		policy:     pol,
		logger:     logger,
		queue:      q,
		counters:   counters,
		flags:      flags,
		restrictor: restrictor,
		resolve:    resolve,
		events:     events,
		Clock:      time.Now,
	}
}

// SubmitReport validates, persists, and routes one user report, then
// re-evaluates the automatic escalation thresholds for the content. The
// whole submission either fully completes or fails before any mutation.
func (s *Service) SubmitReport(ctx context.Context, in SubmitReportInput) (Report, error) {
	if !ValidReason(in.Reason) {
		return Report{}, s.submitFailed(ctx, in, "unknown report reason")
	}
	if in.ContentID == "" {
		return Report{}, s.submitFailed(ctx, in, "missing content id")
	}

	if in.ReporterID != "" {
		limits, err := s.CheckReportingLimits(ctx, in.ReporterID)
		if err != nil {
			return Report{}, err
		}
		if !limits.CanReport {
			return Report{}, s.submitFailed(ctx, in, limits.Reason)
		}
		if s.duplicateToday(in.ReporterID, in.ContentID, in.Reason) {
			return Report{}, s.submitFailed(ctx, in, "you have already reported this content today")
		}
	}

	now := s.Clock()
	rep := &Report{
		ID:                uuid.NewString(),
		ContentID:         in.ContentID,
		ContentType:       in.ContentType,
		ReporterID:        in.ReporterID,
		Reason:            in.Reason,
		AdditionalDetails: in.AdditionalDetails,
		Status:            ReportPending,
		SubmittedAt:       now,
		IsAnonymous:       in.IsAnonymous || in.ReporterID == "",
	}
	s.mu.Lock()
	s.reports = append(s.reports, rep)
	s.byID[rep.ID] = rep
	submitted := *rep
	count := s.countForContentLocked(in.ContentID)
	s.mu.Unlock()

	s.bumpCounters(ctx, rep)
	s.routeToQueue(ctx, submitted, count)
	s.checkForAutomaticActions(ctx, in.ContentID)

	reportCount.WithLabelValues(string(in.Reason)).Inc()
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindReportSubmitted,
		Subject: in.ContentID,
		Actor:   rep.ReporterID,
		Detail:  fmt.Sprintf("reason=%s anonymous=%t", in.Reason, rep.IsAnonymous),
	})
	return submitted, nil
}

// CheckReportingLimits is a pure read over already-loaded report history
// plus the daily counter; nothing here blocks on the hot submission path.
func (s *Service) CheckReportingLimits(ctx context.Context, userID string) (ReportingLimits, error) {
	total, resolved, falseCt := s.reporterHistory(userID)

	var rate float64
	if resolved > 0 {
		rate = float64(falseCt) / float64(resolved)
	}
	abusive := total >= s.policy.AbuseMinReports && rate > s.policy.AbuseFalseRate

	today, err := s.counters.GetCount(ctx, counterReporterDaily, userID, countstore.PeriodDay)
	if err != nil {
		return ReportingLimits{}, fmt.Errorf("reading daily report count: %w", err)
	}

	limits := ReportingLimits{
		ReportsToday:    today,
		RemainingToday:  max(0, s.policy.DailyReportCap-today),
		IsAbusive:       abusive,
		FalseReportRate: rate,
	}
	switch {
	case abusive:
		limits.Reason = "reporting disabled due to a pattern of false reports"
	case today >= s.policy.DailyReportCap:
		limits.Reason = "daily report limit reached"
	default:
		limits.CanReport = true
	}
	return limits, nil
}

// ReviewReport records a moderator's resolution, exactly once. A false
// report resolution checks the reporter's history and restricts serial
// offenders. The boolean is false for unknown report ids.
func (s *Service) ReviewReport(ctx context.Context, reportID, moderatorID string, res Resolution, notes string) (Report, bool, error) {
	s.mu.Lock()
	rep, ok := s.byID[reportID]
	if !ok {
		s.mu.Unlock()
		return Report{}, false, nil
	}
	if rep.Status != ReportPending {
		s.mu.Unlock()
		return Report{}, true, moderation.Validationf("report already reviewed")
	}
	now := s.Clock()
	rep.Status = ReportReviewed
	rep.Resolution = res
	rep.ReviewedAt = &now
	rep.ReviewedBy = moderatorID
	reviewed := *rep

	falseTotal := 0
	if res == ResolutionFalseReport && rep.ReporterID != "" {
		for _, r := range s.reports {
			if r.ReporterID == rep.ReporterID && r.Status == ReportReviewed && r.Resolution == ResolutionFalseReport {
				falseTotal++
			}
		}
	}
	s.mu.Unlock()

	resolutionCount.WithLabelValues(string(res)).Inc()
	if falseTotal >= s.policy.FalseReportStrikes && s.restrictor != nil {
		err := s.restrictor.RestrictPosting(ctx, reviewed.ReporterID, s.policy.FalseReportPenaltyDays, "pattern of false reporting")
		if err != nil {
			s.logger.Error("restricting serial false reporter", "err", err, "userId", reviewed.ReporterID)
		}
	}
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindReportReviewed,
		Subject: reviewed.ContentID,
		Actor:   moderatorID,
		Detail:  fmt.Sprintf("reportId=%s resolution=%s notes=%q", reportID, res, notes),
	})
	return reviewed, true, nil
}

// WithdrawReport lets the original submitter dismiss their own report while
// it is still pending.
func (s *Service) WithdrawReport(ctx context.Context, reportID, reporterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.byID[reportID]
	if !ok {
		return false, nil
	}
	if rep.ReporterID == "" || rep.ReporterID != reporterID {
		return true, moderation.Validationf("only the original reporter can withdraw a report")
	}
	if rep.Status != ReportPending {
		return true, moderation.Validationf("report is no longer pending")
	}
	rep.Status = ReportDismissed
	return true, nil
}

// Get returns a copy of one report.
func (s *Service) Get(reportID string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep, ok := s.byID[reportID]
	if !ok {
		return Report{}, false
	}
	return *rep, true
}

// ListByContent returns copies of all non-dismissed reports for a content id.
func (s *Service) ListByContent(contentID string) []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Report
	for _, r := range s.reports {
		if r.ContentID == contentID && r.Status != ReportDismissed {
			out = append(out, *r)
		}
	}
	return out
}

// CountForContent returns the cumulative (non-dismissed) report count.
func (s *Service) CountForContent(contentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countForContentLocked(contentID)
}

func (s *Service) countForContentLocked(contentID string) int {
	n := 0
	for _, r := range s.reports {
		if r.ContentID == contentID && r.Status != ReportDismissed {
			n++
		}
	}
	return n
}

func (s *Service) reporterHistory(userID string) (total, resolved, falseCt int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ReporterID != userID {
			continue
		}
		total++
		if r.Status == ReportReviewed {
			resolved++
			if r.Resolution == ResolutionFalseReport {
				falseCt++
			}
		}
	}
	return
}

func (s *Service) duplicateToday(reporterID, contentID string, reason Reason) bool {
	today := s.Clock().Local().Format(time.DateOnly)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ReporterID == reporterID && r.ContentID == contentID && r.Reason == reason &&
			r.Status != ReportDismissed && r.SubmittedAt.Local().Format(time.DateOnly) == today {
			return true
		}
	}
	return false
}

func (s *Service) bumpCounters(ctx context.Context, rep *Report) {
	if rep.ReporterID != "" {
		if err := s.counters.Increment(ctx, counterReporterDaily, rep.ReporterID); err != nil {
			s.logger.Error("incrementing reporter counter", "err", err)
		}
	}
	if err := s.counters.Increment(ctx, counterContentReports, rep.ContentID); err != nil {
		s.logger.Error("incrementing content counter", "err", err)
	}
	reporterKey := rep.ReporterID
	if reporterKey == "" {
		reporterKey = "anon:" + rep.ID
	}
	if err := s.counters.IncrementDistinct(ctx, counterContentDistinct, rep.ContentID, reporterKey); err != nil {
		s.logger.Error("incrementing distinct reporter counter", "err", err)
	}
}

// routeToQueue feeds the review queue. High and critical reasons synthesize
// a flagged result immediately; lower reasons bump the count of an existing
// item, and only synthesize once cumulative volume reaches the high-report
// threshold so that a single spam report does not create review work.
func (s *Service) routeToQueue(ctx context.Context, rep Report, count int) {
	info := reasonTable[rep.Reason]
	if s.queue.SetReportCount(ctx, rep.ContentID, count) {
		return
	}
	if info.Priority < queue.PriorityHigh && count < s.policy.HighReportCount {
		return
	}
	res := moderation.ModerationResult{
		ContentID:   rep.ContentID,
		ContentType: rep.ContentType,
		Status:      moderation.StatusFlagged,
		Flags:       []moderation.ViolationFlag{info.Flag},
		Severity:    info.Severity,
		Confidence:  s.policy.ReportConfidence,
		CreatedAt:   s.Clock(),
	}
	s.queue.Enqueue(ctx, res, count)
}

// checkForAutomaticActions re-evaluates escalation thresholds from current
// cumulative counts. Deliberately idempotent: reports and reviews
// interleave, so this runs any number of times for the same content without
// double-penalizing.
func (s *Service) checkForAutomaticActions(ctx context.Context, contentID string) {
	s.mu.Lock()
	count := 0
	targeted := 0
	for _, r := range s.reports {
		if r.ContentID != contentID || r.Status == ReportDismissed {
			continue
		}
		count++
		if targetedReason(r.Reason) {
			targeted++
		}
	}
	s.mu.Unlock()

	if count >= s.policy.HideReportCount {
		hidden, err := flagstore.Has(ctx, s.flags, contentID, flagstore.FlagHidden)
		if err != nil {
			s.logger.Error("reading content flags", "err", err, "contentId", contentID)
		} else if !hidden {
			if err := s.flags.Add(ctx, contentID, []string{flagstore.FlagHidden}); err != nil {
				s.logger.Error("hiding content", "err", err, "contentId", contentID)
			} else {
				s.logger.Info("content hidden pending review", "contentId", contentID, "reportCount", count)
				autoActionCount.WithLabelValues("hide").Inc()
			}
		}
	}

	if count >= s.policy.CriticalEscalationCount {
		if s.queue.Escalate(ctx, contentID, queue.PriorityCritical) {
			autoActionCount.WithLabelValues("escalate").Inc()
		}
	}

	if targeted >= s.policy.TargetedReportCount {
		s.restrictAuthor(ctx, contentID, targeted)
	}
}

// restrictAuthor applies the automatic harassment/hate-speech restriction to
// the content author at most once per content, using a flagstore marker for
// the dedupe.
func (s *Service) restrictAuthor(ctx context.Context, contentID string, targeted int) {
	done, err := flagstore.Has(ctx, s.flags, contentID, flagstore.FlagAuthorRestricted)
	if err != nil {
		s.logger.Error("reading content flags", "err", err, "contentId", contentID)
		return
	}
	if done {
		return
	}
	if s.resolve == nil || s.restrictor == nil {
		s.logger.Warn("no author resolver or restrictor configured, skipping automatic restriction", "contentId", contentID)
		return
	}
	author, ok := s.resolve(contentID)
	if !ok {
		s.logger.Warn("cannot resolve content author for automatic restriction", "contentId", contentID)
		return
	}
	if err := s.restrictor.RestrictPosting(ctx, author, s.policy.TargetedRestrictDays, "repeated harassment or hate speech reports"); err != nil {
		s.logger.Error("applying automatic restriction", "err", err, "userId", author)
		return
	}
	if err := s.flags.Add(ctx, contentID, []string{flagstore.FlagAuthorRestricted}); err != nil {
		s.logger.Error("marking content author restricted", "err", err, "contentId", contentID)
	}
	s.logger.Info("author automatically restricted", "contentId", contentID, "userId", author, "targetedReports", targeted)
	autoActionCount.WithLabelValues("restrict-author").Inc()
}

// submitFailed emits the failure telemetry and wraps the reason as a
// validation error.
func (s *Service) submitFailed(ctx context.Context, in SubmitReportInput, reason string) error {
	reportFailedCount.Inc()
	s.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindReportFailed,
		Subject: in.ContentID,
		Actor:   in.ReporterID,
		Detail:  reason,
	})
	return moderation.Validationf("%s", reason)
}

func (s *Service) audit(ctx context.Context, evt eventlog.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, evt); err != nil {
		s.logger.Error("appending audit event", "err", err, "subject", evt.Subject)
	}
}
