package notify

import (
	"context"
	"log/slog"
	"sync"
)

// LogNotifier writes events to the structured log. The default sink when no
// delivery channel is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n *LogNotifier) QueueAlert(ctx context.Context, alert QueueAlert) error {
	n.logger().Info("queue alert", "itemId", alert.ItemID, "contentId", alert.ContentID, "priority", alert.Priority, "flags", alert.Flags)
	return nil
}

func (n *LogNotifier) UserNotice(ctx context.Context, notice UserNotice) error {
	n.logger().Info("user notice", "userId", notice.UserID, "outcome", notice.Outcome, "reason", notice.Reason)
	return nil
}

// CollectNotifier accumulates events in memory, for tests.
type CollectNotifier struct {
	mu      sync.Mutex
	Alerts  []QueueAlert
	Notices []UserNotice
}

var _ Notifier = (*CollectNotifier)(nil)

func (n *CollectNotifier) QueueAlert(ctx context.Context, alert QueueAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Alerts = append(n.Alerts, alert)
	return nil
}

func (n *CollectNotifier) UserNotice(ctx context.Context, notice UserNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notices = append(n.Notices, notice)
	return nil
}

// AlertCount returns how many queue alerts were captured.
func (n *CollectNotifier) AlertCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Alerts)
}

// NoticeCount returns how many user notices were captured.
func (n *CollectNotifier) NoticeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Notices)
}
