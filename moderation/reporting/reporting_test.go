package reporting

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/countstore"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/flagstore"
	"github.com/meridian-social/aegis/moderation/notify"
	"github.com/meridian-social/aegis/moderation/queue"

	"github.com/stretchr/testify/assert"
)

type restriction struct {
	UserID string
	Days   int
	Reason string
}

type fakeRestrictor struct {
	mu    sync.Mutex
	calls []restriction
}

func (f *fakeRestrictor) RestrictPosting(ctx context.Context, userID string, days int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, restriction{UserID: userID, Days: days, Reason: reason})
	return nil
}

func (f *fakeRestrictor) Calls() []restriction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]restriction{}, f.calls...)
}

type fixture struct {
	svc        *Service
	queue      *queue.Queue
	flags      *flagstore.MemFlagStore
	counters   *countstore.MemCountStore
	restrictor *fakeRestrictor
	events     *eventlog.MemStore
	now        time.Time
}

func newFixture(resolve moderation.AuthorResolver) *fixture {
	pol := moderation.DefaultPolicy()
	f := &fixture{
		flags:      flagstore.NewMemFlagStore(),
		counters:   countstore.NewMemCountStore(),
		restrictor: &fakeRestrictor{},
		events:     eventlog.NewMemStore(),
		now:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.counters.Clock = clock
	f.queue = queue.New(pol, nil, &notify.CollectNotifier{}, f.events)
	f.queue.Clock = clock
	f.svc = NewService(pol, nil, f.queue, f.counters, f.flags, f.restrictor, resolve, f.events)
	f.svc.Clock = clock
	return f
}

func (f *fixture) submit(t *testing.T, reporter, content string, reason Reason) Report {
	t.Helper()
	rep, err := f.svc.SubmitReport(context.Background(), SubmitReportInput{
		ContentID:   content,
		ContentType: moderation.ContentTypePost,
		ReporterID:  reporter,
		Reason:      reason,
	})
	assert.NoError(t, err)
	return rep
}

func TestSubmitValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	_, err := f.svc.SubmitReport(ctx, SubmitReportInput{ContentID: "c1", ReporterID: "u1", Reason: "nonsense"})
	assert.True(moderation.IsValidation(err))

	_, err = f.svc.SubmitReport(ctx, SubmitReportInput{ReporterID: "u1", Reason: ReasonSpam})
	assert.True(moderation.IsValidation(err))

	// both refusals audited
	failed := 0
	for _, evt := range f.events.All() {
		if evt.Kind == eventlog.KindReportFailed {
			failed++
		}
	}
	assert.Equal(2, failed)
}

func TestDailyCapAndReset(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	for i := 0; i < 10; i++ {
		f.submit(t, "u1", fmt.Sprintf("c%d", i), ReasonSpam)
	}

	limits, err := f.svc.CheckReportingLimits(ctx, "u1")
	assert.NoError(err)
	assert.False(limits.CanReport)
	assert.Equal("daily report limit reached", limits.Reason)
	assert.Equal(10, limits.ReportsToday)
	assert.Equal(0, limits.RemainingToday)

	_, err = f.svc.SubmitReport(ctx, SubmitReportInput{ContentID: "c10", ReporterID: "u1", Reason: ReasonSpam})
	assert.True(moderation.IsValidation(err))

	// the cap is a calendar-day bucket; the next day starts fresh
	f.now = f.now.Add(24 * time.Hour)
	limits, err = f.svc.CheckReportingLimits(ctx, "u1")
	assert.NoError(err)
	assert.True(limits.CanReport)
	assert.Equal(0, limits.ReportsToday)
	f.submit(t, "u1", "c10", ReasonSpam)
}

func TestDuplicateSameDay(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	f.submit(t, "u1", "c1", ReasonSpam)
	_, err := f.svc.SubmitReport(ctx, SubmitReportInput{ContentID: "c1", ReporterID: "u1", Reason: ReasonSpam})
	assert.True(moderation.IsValidation(err))

	// a different reason is a different complaint
	f.submit(t, "u1", "c1", ReasonMisinformation)

	// and the same complaint is fine again tomorrow
	f.now = f.now.Add(24 * time.Hour)
	f.submit(t, "u1", "c1", ReasonSpam)

	assert.Equal(3, f.svc.CountForContent("c1"))
}

func TestAbuseGate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		rep := f.submit(t, "u1", fmt.Sprintf("c%d", i), ReasonSpam)
		ids = append(ids, rep.ID)
	}
	for i, id := range ids {
		res := ResolutionFalseReport
		if i >= 3 {
			res = ResolutionActionTaken
		}
		_, found, err := f.svc.ReviewReport(ctx, id, "mod-1", res, "")
		assert.NoError(err)
		assert.True(found)
	}

	// 3 of 5 resolved false: rate 0.6 crosses the 0.5 gate
	limits, err := f.svc.CheckReportingLimits(ctx, "u1")
	assert.NoError(err)
	assert.False(limits.CanReport)
	assert.True(limits.IsAbusive)
	assert.InDelta(0.6, limits.FalseReportRate, 1e-9)

	_, err = f.svc.SubmitReport(ctx, SubmitReportInput{ContentID: "c9", ReporterID: "u1", Reason: ReasonSpam})
	assert.True(moderation.IsValidation(err))

	// the third false-report strike also cost u1 posting rights
	calls := f.restrictor.Calls()
	assert.Equal(1, len(calls))
	assert.Equal("u1", calls[0].UserID)
	assert.Equal(7, calls[0].Days)
}

func TestQueueRouting(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(nil)

	// a high-priority reason synthesizes a flagged item for unqueued content
	f.submit(t, "u1", "c1", ReasonHarassment)
	item, ok := f.queue.GetByContent("c1")
	assert.True(ok)
	assert.Equal(moderation.StatusFlagged, item.Result.Status)
	assert.Equal([]moderation.ViolationFlag{moderation.FlagHarassment}, item.Result.Flags)
	assert.InDelta(0.8, item.Result.Confidence, 1e-9)
	assert.Equal(1, item.ReportCount)

	// a low-priority reason does not create queue work on its own
	f.submit(t, "u1", "c2", ReasonSpam)
	_, ok = f.queue.GetByContent("c2")
	assert.False(ok)

	// but it does bump the count of content already queued
	f.submit(t, "u2", "c1", ReasonSpam)
	item, _ = f.queue.GetByContent("c1")
	assert.Equal(2, item.ReportCount)
}

func TestVolumeHideAndEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	for i := 0; i < 4; i++ {
		f.submit(t, fmt.Sprintf("u%d", i), "c1", ReasonMisinformation)
	}
	hidden, err := flagstore.Has(ctx, f.flags, "c1", flagstore.FlagHidden)
	assert.NoError(err)
	assert.False(hidden)

	// the fifth report soft-hides the content pending review
	f.submit(t, "u4", "c1", ReasonMisinformation)
	hidden, err = flagstore.Has(ctx, f.flags, "c1", flagstore.FlagHidden)
	assert.NoError(err)
	assert.True(hidden)

	for i := 5; i < 10; i++ {
		f.submit(t, fmt.Sprintf("u%d", i), "c1", ReasonMisinformation)
	}
	item, ok := f.queue.GetByContent("c1")
	assert.True(ok)
	assert.Equal(queue.PriorityCritical, item.Priority)
	assert.Equal(10, item.ReportCount)
}

func TestTargetedReportsRestrictAuthor(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(func(contentID string) (string, bool) { return "author9", true })

	f.submit(t, "u1", "c1", ReasonHarassment)
	f.submit(t, "u2", "c1", ReasonHateSpeech)
	assert.Equal(0, len(f.restrictor.Calls()))

	f.submit(t, "u3", "c1", ReasonHarassment)
	calls := f.restrictor.Calls()
	assert.Equal(1, len(calls))
	assert.Equal("author9", calls[0].UserID)

	marked, err := flagstore.Has(ctx, f.flags, "c1", flagstore.FlagAuthorRestricted)
	assert.NoError(err)
	assert.True(marked)

	// further targeted reports do not re-penalize
	f.submit(t, "u4", "c1", ReasonHarassment)
	assert.Equal(1, len(f.restrictor.Calls()))
}

func TestAnonymousHarassmentWave(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(func(contentID string) (string, bool) { return "author1", true })

	for i := 0; i < 6; i++ {
		_, err := f.svc.SubmitReport(ctx, SubmitReportInput{
			ContentID:   "c1",
			ContentType: moderation.ContentTypePost,
			Reason:      ReasonHarassment,
			IsAnonymous: true,
		})
		assert.NoError(err)
	}

	// all three protective actions fired
	item, ok := f.queue.GetByContent("c1")
	assert.True(ok)
	assert.Equal(queue.PriorityCritical, item.Priority)
	assert.Equal(6, item.ReportCount)

	hidden, err := flagstore.Has(ctx, f.flags, "c1", flagstore.FlagHidden)
	assert.NoError(err)
	assert.True(hidden)

	calls := f.restrictor.Calls()
	assert.Equal(1, len(calls))
	assert.Equal("author1", calls[0].UserID)
}

func TestUnresolvableAuthorIsNoOp(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(func(contentID string) (string, bool) { return "", false })

	for i := 0; i < 3; i++ {
		f.submit(t, fmt.Sprintf("u%d", i), "c1", ReasonHateSpeech)
	}
	assert.Equal(0, len(f.restrictor.Calls()))
}

func TestReviewReport(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	_, found, err := f.svc.ReviewReport(ctx, "missing", "mod-1", ResolutionActionTaken, "")
	assert.NoError(err)
	assert.False(found)

	rep := f.submit(t, "u1", "c1", ReasonSpam)
	reviewed, found, err := f.svc.ReviewReport(ctx, rep.ID, "mod-1", ResolutionActionTaken, "removed")
	assert.NoError(err)
	assert.True(found)
	assert.Equal(ReportReviewed, reviewed.Status)
	assert.Equal(ResolutionActionTaken, reviewed.Resolution)
	assert.Equal("mod-1", reviewed.ReviewedBy)
	assert.NotNil(reviewed.ReviewedAt)

	// one-shot
	_, found, err = f.svc.ReviewReport(ctx, rep.ID, "mod-2", ResolutionDuplicate, "")
	assert.True(found)
	assert.True(moderation.IsValidation(err))
}

func TestWithdrawReport(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	rep := f.submit(t, "u1", "c1", ReasonSpam)

	found, err := f.svc.WithdrawReport(ctx, rep.ID, "u2")
	assert.True(found)
	assert.True(moderation.IsValidation(err))

	found, err = f.svc.WithdrawReport(ctx, rep.ID, "u1")
	assert.True(found)
	assert.NoError(err)

	got, _ := f.svc.Get(rep.ID)
	assert.Equal(ReportDismissed, got.Status)
	// dismissed reports stop counting toward escalation
	assert.Equal(0, f.svc.CountForContent("c1"))

	found, err = f.svc.WithdrawReport(ctx, rep.ID, "u1")
	assert.True(found)
	assert.True(moderation.IsValidation(err))

	found, _ = f.svc.WithdrawReport(ctx, "missing", "u1")
	assert.False(found)
}

func TestAnalytics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(nil)

	// one stale report outside the day window
	f.submit(t, "u1", "c-old", ReasonSpam)
	f.now = f.now.Add(48 * time.Hour)

	f.submit(t, "u1", "c1", ReasonHarassment)
	rep2 := f.submit(t, "u2", "c1", ReasonSpam)
	f.svc.SubmitReport(ctx, SubmitReportInput{ContentID: "c2", Reason: ReasonSpam, IsAnonymous: true})

	f.now = f.now.Add(2 * time.Hour)
	_, _, err := f.svc.ReviewReport(ctx, rep2.ID, "mod-1", ResolutionFalseReport, "")
	assert.NoError(err)

	a, err := f.svc.Analytics(RangeDay)
	assert.NoError(err)
	assert.Equal(3, a.TotalReports)
	assert.Equal(2, a.ByReason[ReasonSpam])
	assert.Equal(1, a.ByReason[ReasonHarassment])
	assert.Equal(2, a.ByStatus[ReportPending])
	assert.Equal(1, a.ByStatus[ReportReviewed])
	assert.Equal(1, a.ByResolution[ResolutionFalseReport])
	assert.Equal(2, a.DistinctContent)
	assert.Equal(2, a.DistinctReporters)
	assert.InDelta(1.0/3.0, a.AnonymousRatio, 1e-9)
	assert.InDelta(1.0, a.FalseReportRate, 1e-9)
	assert.InDelta(2.0, a.AverageResolveHours, 1e-9)
	assert.Equal("c1", a.TopReported[0].ContentID)
	assert.Equal(2, a.TopReported[0].ReportCount)

	// the week window picks the stale report back up
	a, err = f.svc.Analytics(RangeWeek)
	assert.NoError(err)
	assert.Equal(4, a.TotalReports)

	_, err = f.svc.Analytics(TimeRange("fortnight"))
	assert.True(moderation.IsValidation(err))
}
