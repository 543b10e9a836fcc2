package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/actions"
	"github.com/meridian-social/aegis/moderation/cachestore"
	"github.com/meridian-social/aegis/moderation/classify"
	"github.com/meridian-social/aegis/moderation/countstore"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/flagstore"
	"github.com/meridian-social/aegis/moderation/notify"
	"github.com/meridian-social/aegis/moderation/queue"
	"github.com/meridian-social/aegis/moderation/reporting"

	"github.com/stretchr/testify/assert"
)

// stubClassifier returns a fixed output, counting invocations.
type stubClassifier struct {
	out   classify.Output
	err   error
	panic bool
	calls atomic.Int64
}

func (s *stubClassifier) Classify(ctx context.Context, in classify.Input) (classify.Output, error) {
	s.calls.Add(1)
	if s.panic {
		panic("model scorer blew up")
	}
	if err := ctx.Err(); err != nil {
		return classify.Output{}, err
	}
	return s.out, s.err
}

type slowClassifier struct {
	delay time.Duration
}

func (s *slowClassifier) Classify(ctx context.Context, in classify.Input) (classify.Output, error) {
	select {
	case <-time.After(s.delay):
		return classify.Output{}, nil
	case <-ctx.Done():
		return classify.Output{}, ctx.Err()
	}
}

type fixture struct {
	eng     *Engine
	queue   *queue.Queue
	notices *notify.CollectNotifier
	authors *AuthorRegistry
	actions *actions.Service
	reports *reporting.Service
}

func newFixture(c classify.Classifier) *fixture {
	pol := moderation.DefaultPolicy()
	notices := &notify.CollectNotifier{}
	events := eventlog.NewMemStore()
	authors := NewAuthorRegistry()
	q := queue.New(pol, nil, notices, events)
	acts := actions.NewService(pol, nil, q, notices, events, authors.Resolve)
	reps := reporting.NewService(pol, nil, q, countstore.NewMemCountStore(), flagstore.NewMemFlagStore(), acts, authors.Resolve, events)
	eng := &Engine{
		Policy:     pol,
		Classifier: c,
		Queue:      q,
		Reports:    reps,
		Actions:    acts,
		Authors:    authors,
		Cache:      cachestore.NewMemCacheStore(128, time.Hour),
		Counters:   countstore.NewMemCountStore(),
		Notifier:   notices,
	}
	return &fixture{eng: eng, queue: q, notices: notices, authors: authors, actions: acts, reports: reps}
}

func TestProcessCleanContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture(&stubClassifier{out: classify.Output{Confidence: 0.99}})
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{
		ContentID:   "c1",
		ContentType: moderation.ContentTypePost,
		AuthorID:    "author1",
		Text:        "have a nice day",
	})
	assert.NoError(err)
	assert.Equal(moderation.StatusApproved, res.Status)
	assert.Equal(0, f.queue.Len())

	// author recorded for later resolution
	author, ok := f.authors.Resolve("c1")
	assert.True(ok)
	assert.Equal("author1", author)
}

func TestProcessViolatingContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	stub := &stubClassifier{out: classify.Output{
		Flags:      []moderation.ViolationFlag{moderation.FlagHateSpeech},
		Confidence: 0.97,
	}}
	f := newFixture(stub)
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{
		ContentID: "c1", ContentType: moderation.ContentTypePost, AuthorID: "author1", Text: "bad",
	})
	assert.NoError(err)
	assert.Equal(moderation.StatusRejected, res.Status)
	assert.Equal(moderation.SeverityCritical, res.Severity)

	// auto-rejected content still goes to a human for confirmation
	item, ok := f.queue.GetByContent("c1")
	assert.True(ok)
	assert.Equal(queue.PriorityCritical, item.Priority)

	// and the author learns about the removal
	assert.Equal(1, f.notices.NoticeCount())
}

func TestValidation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(&stubClassifier{})

	_, err := f.eng.ProcessContent(ctx, ContentSubmission{Text: "no id"})
	assert.True(moderation.IsValidation(err))

	_, err = f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c1"})
	assert.True(moderation.IsValidation(err))
}

func TestBlockedAuthorCannotPost(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	f := newFixture(&stubClassifier{out: classify.Output{Confidence: 0.99}})

	assert.NoError(f.actions.RestrictPosting(ctx, "author1", 7, "over-reported"))
	_, err := f.eng.ProcessContent(ctx, ContentSubmission{
		ContentID: "c1", AuthorID: "author1", Text: "hello",
	})
	assert.True(moderation.IsValidation(err))
}

func TestClassifierFailureForcesReview(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture(&stubClassifier{err: fmt.Errorf("upstream 503")})
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c1", Text: "anything"})
	assert.NoError(err)
	assert.Equal(moderation.StatusPending, res.Status)
	_, ok := f.queue.GetByContent("c1")
	assert.True(ok)
}

func TestClassifierPanicForcesReview(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture(&stubClassifier{panic: true})
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c1", Text: "anything"})
	assert.NoError(err)
	assert.Equal(moderation.StatusPending, res.Status)
	assert.Equal(1, f.queue.Len())
}

func TestClassifyTimeout(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	f := newFixture(&slowClassifier{delay: time.Second})
	f.eng.ClassifyTimeout = 10 * time.Millisecond

	start := time.Now()
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c1", Text: "anything"})
	assert.NoError(err)
	assert.Less(time.Since(start), 500*time.Millisecond)
	assert.Equal(moderation.StatusPending, res.Status)
	assert.Equal(1, f.queue.Len())
}

func TestClassificationCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	stub := &stubClassifier{out: classify.Output{Confidence: 0.99}}
	f := newFixture(stub)

	_, err := f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c1", Text: "same words"})
	assert.NoError(err)
	// identical body under a different id is served from cache
	_, err = f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c2", Text: "same words"})
	assert.NoError(err)
	assert.Equal(int64(1), stub.calls.Load())

	_, err = f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c3", Text: "different words"})
	assert.NoError(err)
	assert.Equal(int64(2), stub.calls.Load())
}

func TestImageFanout(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	text := &stubClassifier{out: classify.Output{Confidence: 0.99}}
	img := &stubClassifier{out: classify.Output{
		Flags:      []moderation.ViolationFlag{moderation.FlagSexualContent},
		Confidence: 0.92,
	}}
	f := newFixture(text)
	f.eng.ImageClassifier = img

	res, err := f.eng.ProcessContent(ctx, ContentSubmission{
		ContentID:   "c1",
		ContentType: moderation.ContentTypeImage,
		Text:        "caption",
		Images: []classify.Image{
			{ID: "i1", Data: []byte{1}},
			{ID: "i2", Data: []byte{2}},
		},
	})
	assert.NoError(err)
	assert.Equal(int64(1), text.calls.Load())
	assert.Equal(int64(2), img.calls.Load())

	// merged conservatively: image flags carried, minimum confidence kept
	assert.Equal([]moderation.ViolationFlag{moderation.FlagSexualContent}, res.Flags)
	assert.InDelta(0.92, res.Confidence, 1e-9)
	assert.Equal(moderation.StatusRejected, res.Status)
}

func TestEndToEndModeration(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	stub := &stubClassifier{out: classify.Output{
		Flags:      []moderation.ViolationFlag{moderation.FlagHarassment},
		Confidence: 0.85,
	}}
	f := newFixture(stub)
	f.actions.AddModerator(actions.Moderator{ID: "mod-1", Role: actions.RoleSenior, IsActive: true})

	// 0.85 is under the high-severity bar: pending, queued
	res, err := f.eng.ProcessContent(ctx, ContentSubmission{
		ContentID: "c1", ContentType: moderation.ContentTypePost, AuthorID: "author1", Text: "targeted abuse",
	})
	assert.NoError(err)
	assert.Equal(moderation.StatusPending, res.Status)

	item, ok := f.queue.GetByContent("c1")
	assert.True(ok)

	// a moderator rejects it; the author picks up an automatic 7-day ban
	_, found, err := f.actions.ProcessContentApproval(ctx, item.ID, queue.ActionReject, "mod-1", "harassment", "")
	assert.NoError(err)
	assert.True(found)
	assert.True(f.actions.HasActiveBan("author1"))

	// and a banned author cannot submit again
	_, err = f.eng.ProcessContent(ctx, ContentSubmission{ContentID: "c2", AuthorID: "author1", Text: "more"})
	assert.True(moderation.IsValidation(err))
}
