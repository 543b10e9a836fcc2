// The composition root of the pipeline: one struct owning the classifier,
// the queue, and the supporting stores, with a single ProcessContent entry
// point that takes a submission from raw text and media to a moderation
// decision.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/actions"
	"github.com/meridian-social/aegis/moderation/cachestore"
	"github.com/meridian-social/aegis/moderation/classify"
	"github.com/meridian-social/aegis/moderation/countstore"
	"github.com/meridian-social/aegis/moderation/notify"
	"github.com/meridian-social/aegis/moderation/queue"
	"github.com/meridian-social/aegis/moderation/reporting"
)

const cacheName = "classify-output"

// ContentSubmission is one piece of user content entering the pipeline.
type ContentSubmission struct {
	ContentID   string                 `json:"contentId"`
	ContentType moderation.ContentType `json:"contentType"`
	AuthorID    string                 `json:"authorId"`
	Text        string                 `json:"text,omitempty"`
	Images      []classify.Image       `json:"-"`
}

type Engine struct {
	Logger          *slog.Logger
	Policy          moderation.Policy
	Classifier      classify.Classifier
	ImageClassifier classify.Classifier
	Queue           *queue.Queue
	Reports         *reporting.Service
	Actions         *actions.Service
	Authors         *AuthorRegistry
	Cache           cachestore.CacheStore
	Counters        countstore.CountStore
	Notifier        notify.Notifier

	// upper bound on one classification round trip; zero means no bound
	ClassifyTimeout time.Duration

	Clock func() time.Time
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// ProcessContent classifies a submission and routes it. Approved content
// passes through untouched; everything else lands in the review queue. A
// failing or timed-out classifier never silently approves: the content is
// forced into human review as pending.
func (e *Engine) ProcessContent(ctx context.Context, sub ContentSubmission) (moderation.ModerationResult, error) {
	start := e.now()
	if sub.ContentID == "" {
		return moderation.ModerationResult{}, moderation.Validationf("submission requires a content id")
	}
	if sub.Text == "" && len(sub.Images) == 0 {
		return moderation.ModerationResult{}, moderation.Validationf("submission requires text or media")
	}
	if sub.AuthorID != "" && e.Actions != nil && e.Actions.PostingBlocked(sub.AuthorID) {
		return moderation.ModerationResult{}, moderation.Validationf("author is currently not allowed to post")
	}
	if e.Authors != nil && sub.AuthorID != "" {
		e.Authors.Record(sub.ContentID, sub.AuthorID)
	}

	out, err := e.classify(ctx, sub)
	if err != nil {
		e.logger().Error("classification failed, forcing human review", "err", err, "contentId", sub.ContentID)
		processErrorCount.Inc()
		res := moderation.ModerationResult{
			ContentID:   sub.ContentID,
			ContentType: sub.ContentType,
			Status:      moderation.StatusPending,
			Severity:    moderation.SeverityLow,
			CreatedAt:   e.now(),
		}
		e.route(ctx, sub, &res)
		e.observe(start, res.Status)
		return res, nil
	}

	res := moderation.BuildResult(sub.ContentID, sub.ContentType, out.Flags, out.Confidence, out.PII, e.Policy, e.now())
	e.route(ctx, sub, &res)

	if e.Counters != nil {
		if err := e.Counters.Increment(ctx, "content-processed", string(sub.ContentType)); err != nil {
			e.logger().Error("incrementing processed counter", "err", err)
		}
	}
	e.observe(start, res.Status)
	return res, nil
}

// route enqueues everything short of an outright approval and tells the
// author about automatic rejections.
func (e *Engine) route(ctx context.Context, sub ContentSubmission, res *moderation.ModerationResult) {
	if res.Status == moderation.StatusApproved {
		return
	}
	reportCount := 0
	if e.Reports != nil {
		reportCount = e.Reports.CountForContent(sub.ContentID)
	}
	e.Queue.Enqueue(ctx, *res, reportCount)

	if res.Status == moderation.StatusRejected && sub.AuthorID != "" && e.Notifier != nil {
		notice := notify.UserNotice{
			UserID:  sub.AuthorID,
			Outcome: "content-rejected",
			Reason:  "your content was automatically removed pending moderator confirmation",
		}
		if err := e.Notifier.UserNotice(ctx, notice); err != nil {
			e.logger().Error("sending rejection notice", "err", err, "userId", sub.AuthorID)
		}
	}
}

// classify runs the configured classifiers over the submission, bounded by
// ClassifyTimeout, consulting the memoization cache first. Text and each
// image are scored concurrently and merged conservatively.
func (e *Engine) classify(ctx context.Context, sub ContentSubmission) (classify.Output, error) {
	key := cacheKey(sub)
	if cached, ok := e.cacheGet(ctx, key); ok {
		cacheHitCount.Inc()
		return cached, nil
	}

	if e.ClassifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.ClassifyTimeout)
		defer cancel()
	}

	var outs []classify.Output
	g, gctx := errgroup.WithContext(ctx)
	results := make([]classify.Output, 1+len(sub.Images))

	if sub.Text != "" {
		if e.Classifier == nil {
			return classify.Output{}, fmt.Errorf("no text classifier configured")
		}
		g.Go(func() error {
			out, err := e.classifyOne(gctx, e.Classifier, classify.Input{Text: sub.Text})
			results[0] = out
			return err
		})
	}
	imgClassifier := e.ImageClassifier
	if imgClassifier == nil {
		imgClassifier = e.Classifier
	}
	for i, img := range sub.Images {
		if imgClassifier == nil {
			return classify.Output{}, fmt.Errorf("no image classifier configured")
		}
		i, img := i, img
		g.Go(func() error {
			out, err := e.classifyOne(gctx, imgClassifier, classify.Input{Images: []classify.Image{img}})
			results[1+i] = out
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return classify.Output{}, err
	}

	if sub.Text != "" {
		outs = append(outs, results[0])
	}
	outs = append(outs, results[1:]...)
	merged := classify.Merge(outs...)

	e.cacheSet(ctx, key, merged)
	return merged, nil
}

// classifyOne isolates a single classifier call; a panicking model scorer
// must not take the whole pipeline down with it.
func (e *Engine) classifyOne(ctx context.Context, c classify.Classifier, in classify.Input) (out classify.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return c.Classify(ctx, in)
}

// cacheKey hashes the submission body, not the content id, so re-posts of
// identical content hit the cache.
func cacheKey(sub ContentSubmission) string {
	h := sha256.New()
	h.Write([]byte(sub.Text))
	for _, img := range sub.Images {
		h.Write(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) cacheGet(ctx context.Context, key string) (classify.Output, bool) {
	if e.Cache == nil {
		return classify.Output{}, false
	}
	val, err := e.Cache.Get(ctx, cacheName, key)
	if err != nil {
		e.logger().Error("reading classification cache", "err", err)
		return classify.Output{}, false
	}
	if val == "" {
		return classify.Output{}, false
	}
	var out classify.Output
	if err := json.Unmarshal([]byte(val), &out); err != nil {
		e.logger().Error("decoding cached classification", "err", err)
		return classify.Output{}, false
	}
	return out, true
}

func (e *Engine) cacheSet(ctx context.Context, key string, out classify.Output) {
	if e.Cache == nil {
		return
	}
	val, err := json.Marshal(out)
	if err != nil {
		e.logger().Error("encoding classification for cache", "err", err)
		return
	}
	if err := e.Cache.Set(ctx, cacheName, key, string(val)); err != nil {
		e.logger().Error("writing classification cache", "err", err)
	}
}

func (e *Engine) observe(start time.Time, status moderation.ModerationStatus) {
	processCount.WithLabelValues(string(status)).Inc()
	processDuration.Observe(e.now().Sub(start).Seconds())
}
