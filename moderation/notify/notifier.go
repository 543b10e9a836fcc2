// Outbound notification boundary. Delivery (push, in-app, chat ops) is the
// application layer's problem; the core only emits events. All senders are
// best-effort: a failed notification is logged by the caller and never fails
// the moderation action that produced it.
package notify

import (
	"context"

	"github.com/meridian-social/aegis/moderation"
)

// QueueAlert is emitted when a queue item becomes high or critical priority.
type QueueAlert struct {
	ItemID    string                     `json:"itemId"`
	ContentID string                     `json:"contentId"`
	Priority  string                     `json:"priority"`
	Flags     []moderation.ViolationFlag `json:"flags"`
}

// UserNotice is emitted toward a user on penalty or appeal resolution.
type UserNotice struct {
	UserID  string `json:"userId"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
}

type Notifier interface {
	QueueAlert(ctx context.Context, alert QueueAlert) error
	UserNotice(ctx context.Context, notice UserNotice) error
}
