// Trust-and-safety core for user-generated content.
//
// This package (`github.com/meridian-social/aegis/moderation`) holds the shared vocabulary of the moderation pipeline: content and violation taxonomies, severity ordering, classification results, and the policy knobs that drive automatic decisions. Incoming content is scored by a classifier (see `moderation/classify`), normalized into a ModerationResult by BuildResult, and routed into the human review queue (`moderation/queue`). User reports (`moderation/reporting`) and moderator decisions (`moderation/actions`) mutate queue state and the penalty/appeal lifecycle. Counters and other operational state live in the store sub-packages, so the same logic can run against in-memory state in tests and redis in production.
//
// See `cmd/vigil` for a daemon built on this package.
package moderation
