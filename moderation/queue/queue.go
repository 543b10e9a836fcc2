// The ordered work queue of content awaiting human review.
//
// The queue is the one shared mutable structure every flow touches: content
// classification enqueues, user reports bump counts and priorities, and
// moderator decisions update and remove items. All mutation is serialized
// behind a single mutex so the sort invariant (critical-and-oldest first) is
// never observed broken. Notification dispatch and audit writes happen after
// the lock is released; nothing slow runs inside the critical section.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/eventlog"
	"github.com/meridian-social/aegis/moderation/notify"
)

// Item is one unit of pending review work.
type Item struct {
	ID          string                      `json:"id"`
	Result      moderation.ModerationResult `json:"result"`
	ReportCount int                         `json:"reportCount"`
	Priority    Priority                    `json:"priority"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

// Filter narrows List results. Nil fields match everything; Limit of zero
// means no bound.
type Filter struct {
	Priority    *Priority
	ContentType *moderation.ContentType
	Status      *moderation.ModerationStatus
	Limit       int
}

// Stats is a point-in-time summary of the live queue.
type Stats struct {
	TotalItems         int     `json:"totalItems"`
	HighPriorityCount  int     `json:"highPriorityCount"`
	PendingCount       int     `json:"pendingCount"`
	FlaggedCount       int     `json:"flaggedCount"`
	AverageWaitMinutes float64 `json:"averageWaitMinutes"`
}

type Queue struct {
	mu        sync.Mutex
	items     []*Item
	byID      map[string]*Item
	byContent map[string]*Item
	// content ids that reached a terminal status via moderator action; they
	// can never re-enter the queue
	terminal map[string]bool

	policy   moderation.Policy
	logger   *slog.Logger
	notifier notify.Notifier
	events   eventlog.Store

	// swappable for tests
	Clock func() time.Time
}

func New(pol moderation.Policy, logger *slog.Logger, notifier notify.Notifier, events eventlog.Store) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		byID:      make(map[string]*Item),
		byContent: make(map[string]*Item),
		terminal:  make(map[string]bool),
		policy:    pol,
		logger:    logger,
		notifier:  notifier,
		events:    events,
		Clock:     time.Now,
	}
}

// Enqueue inserts review work for a classification result. If the content is
// already queued, the existing item absorbs the new report count instead of
// duplicating. Content that a moderator already resolved terminally is
// refused (returns nil). A resulting high or critical priority signals the
// notifier after the queue mutation completes.
func (q *Queue) Enqueue(ctx context.Context, result moderation.ModerationResult, reportCount int) *Item {
	item, alert := q.enqueueLocked(result, reportCount)
	if alert != nil {
		q.sendAlert(ctx, *alert)
	}
	if item != nil {
		queueDepth.Set(float64(q.Len()))
	}
	return item
}

func (q *Queue) enqueueLocked(result moderation.ModerationResult, reportCount int) (*Item, *notify.QueueAlert) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.terminal[result.ContentID] {
		q.logger.Debug("refusing enqueue of terminally moderated content", "contentId", result.ContentID)
		return nil, nil
	}

	now := q.Clock()
	if existing, ok := q.byContent[result.ContentID]; ok {
		return q.bumpLocked(existing, reportCount, now)
	}

	item := &Item{
		ID:          uuid.NewString(),
		Result:      result,
		ReportCount: reportCount,
		Priority:    PriorityFor(result.Severity, reportCount, q.policy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	q.items = append(q.items, item)
	q.byID[item.ID] = item
	q.byContent[result.ContentID] = item
	q.sortLocked()
	enqueueCount.WithLabelValues(item.Priority.String()).Inc()

	var alert *notify.QueueAlert
	if item.Priority >= PriorityHigh {
		alert = q.alertFor(item)
	}
	return item, alert
}

// bumpLocked folds a new report count into an existing item. Priority never
// decreases as a result.
func (q *Queue) bumpLocked(item *Item, reportCount int, now time.Time) (*Item, *notify.QueueAlert) {
	if reportCount > item.ReportCount {
		item.ReportCount = reportCount
	}
	prev := item.Priority
	if p := PriorityFor(item.Result.Severity, item.ReportCount, q.policy); p > item.Priority {
		item.Priority = p
	}
	item.UpdatedAt = now
	q.sortLocked()
	if item.Priority >= PriorityHigh && item.Priority > prev {
		return item, q.alertFor(item)
	}
	return item, nil
}

// SetReportCount records the current cumulative report count for queued
// content, recomputing priority. Returns false when the content is not
// queued; callers treat that as normal given concurrent removal.
func (q *Queue) SetReportCount(ctx context.Context, contentID string, reportCount int) bool {
	q.mu.Lock()
	item, ok := q.byContent[contentID]
	var alert *notify.QueueAlert
	if ok {
		_, alert = q.bumpLocked(item, reportCount, q.Clock())
	}
	q.mu.Unlock()
	if alert != nil {
		q.sendAlert(ctx, *alert)
	}
	return ok
}

// Escalate raises queued content to at least the given priority.
func (q *Queue) Escalate(ctx context.Context, contentID string, p Priority) bool {
	q.mu.Lock()
	item, ok := q.byContent[contentID]
	var alert *notify.QueueAlert
	if ok && p > item.Priority {
		item.Priority = p
		item.UpdatedAt = q.Clock()
		q.sortLocked()
		if p >= PriorityHigh {
			alert = q.alertFor(item)
		}
	}
	q.mu.Unlock()
	if alert != nil {
		q.sendAlert(ctx, *alert)
	}
	return ok
}

// Get returns a copy of the item, if present.
func (q *Queue) Get(itemID string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.byID[itemID]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// GetByContent returns a copy of the item covering a content id.
func (q *Queue) GetByContent(contentID string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item, ok := q.byContent[contentID]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// List returns a filtered, size-bounded snapshot in queue order.
func (q *Queue) List(f Filter) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Item{}
	for _, item := range q.items {
		if f.Priority != nil && item.Priority != *f.Priority {
			continue
		}
		if f.ContentType != nil && item.Result.ContentType != *f.ContentType {
			continue
		}
		if f.Status != nil && item.Result.Status != *f.Status {
			continue
		}
		out = append(out, *item)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// UpdateItem applies a moderator action: the embedded result takes the
// action's status, reviewer, and timestamp, and an audit entry is appended.
// Terminal actions remove the item and permanently bar the content from
// re-entering. Returns false for unknown items or items a moderator already
// moved to a terminal status. Items that arrived with a terminal status from
// the classifier carry no reviewer and stay actionable, so a human can
// confirm or overturn the automatic decision.
func (q *Queue) UpdateItem(ctx context.Context, itemID string, action Action, moderatorID, reason, notes string) (Item, bool) {
	status, ok := action.Status()
	if !ok {
		q.logger.Warn("unknown moderation action", "action", action)
		return Item{}, false
	}

	q.mu.Lock()
	item, found := q.byID[itemID]
	if !found || (item.Result.Status.Terminal() && item.Result.ReviewedBy != "") {
		q.mu.Unlock()
		return Item{}, false
	}

	now := q.Clock()
	item.Result.Status = status
	item.Result.ReviewedAt = &now
	item.Result.ReviewedBy = moderatorID
	item.UpdatedAt = now
	if status.Terminal() {
		q.terminal[item.Result.ContentID] = true
	}
	if action.Terminal() {
		q.removeLocked(item)
	}
	updated := *item
	q.mu.Unlock()

	actionCount.WithLabelValues(string(action)).Inc()
	q.audit(ctx, eventlog.Event{
		Kind:    eventlog.KindQueueAction,
		Subject: updated.Result.ContentID,
		Actor:   moderatorID,
		Detail:  fmt.Sprintf("action=%s reason=%q notes=%q", action, reason, notes),
	})
	queueDepth.Set(float64(q.Len()))
	return updated, true
}

// RemoveItem unconditionally drops an item. Missing ids are a no-op: queue
// state is concurrently mutated by reports and moderator actions, so racing
// removals are expected.
func (q *Queue) RemoveItem(itemID string) bool {
	q.mu.Lock()
	item, ok := q.byID[itemID]
	if ok {
		q.removeLocked(item)
	}
	q.mu.Unlock()
	if ok {
		queueDepth.Set(float64(q.Len()))
	}
	return ok
}

// Statistics computes summary numbers over the live set.
func (q *Queue) Statistics() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.Clock()
	st := Stats{TotalItems: len(q.items)}
	var waitSum time.Duration
	for _, item := range q.items {
		if item.Priority >= PriorityHigh {
			st.HighPriorityCount++
		}
		switch item.Result.Status {
		case moderation.StatusPending:
			st.PendingCount++
		case moderation.StatusFlagged:
			st.FlaggedCount++
		}
		waitSum += now.Sub(item.CreatedAt)
	}
	if len(q.items) > 0 {
		st.AverageWaitMinutes = waitSum.Minutes() / float64(len(q.items))
	}
	return st
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// sort invariant: priority descending (critical first), then createdAt
// ascending within equal priority. Must hold before the lock is released.
func (q *Queue) sortLocked() {
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.items[i].Priority != q.items[j].Priority {
			return q.items[i].Priority > q.items[j].Priority
		}
		return q.items[i].CreatedAt.Before(q.items[j].CreatedAt)
	})
}

func (q *Queue) removeLocked(item *Item) {
	delete(q.byID, item.ID)
	delete(q.byContent, item.Result.ContentID)
	for i, it := range q.items {
		if it.ID == item.ID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}
	removeCount.WithLabelValues(item.Priority.String()).Inc()
	waitDuration.Observe(q.Clock().Sub(item.CreatedAt).Seconds())
}

func (q *Queue) alertFor(item *Item) *notify.QueueAlert {
	return &notify.QueueAlert{
		ItemID:    item.ID,
		ContentID: item.Result.ContentID,
		Priority:  item.Priority.String(),
		Flags:     item.Result.Flags,
	}
}

// sendAlert runs outside the queue lock; a slow notifier can not block the
// next reviewer.
func (q *Queue) sendAlert(ctx context.Context, alert notify.QueueAlert) {
	if q.notifier == nil {
		return
	}
	if err := q.notifier.QueueAlert(ctx, alert); err != nil {
		q.logger.Error("sending queue alert", "err", err, "contentId", alert.ContentID)
	}
	alertCount.Inc()
}

func (q *Queue) audit(ctx context.Context, evt eventlog.Event) {
	if q.events == nil {
		return
	}
	if err := q.events.Append(ctx, evt); err != nil {
		q.logger.Error("appending audit event", "err", err, "subject", evt.Subject)
	}
}
