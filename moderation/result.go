package moderation

import (
	"time"
)

// BuildResult normalizes raw classifier output into a ModerationResult. Pure
// and deterministic: identical inputs always produce the same decision.
//
// Decision order:
//  1. any detected PII forces flagged, regardless of confidence
//  2. confidence at or above the severity's auto-action threshold takes the
//     automatic action for that severity class
//  3. otherwise the model is not certain enough and a human must look
func BuildResult(contentID string, contentType ContentType, flags []ViolationFlag, confidence float64, pii []PIIOccurrence, pol Policy, now time.Time) ModerationResult {
	severity := MaxSeverity(flags)
	res := ModerationResult{
		ContentID:   contentID,
		ContentType: contentType,
		Flags:       flags,
		Severity:    severity,
		Confidence:  confidence,
		DetectedPII: pii,
		CreatedAt:   now,
	}

	if len(pii) > 0 {
		res.Status = StatusFlagged
		return res
	}

	if confidence >= pol.AutoActionThreshold(severity) {
		switch severity {
		case SeverityCritical, SeverityHigh:
			res.Status = StatusRejected
		case SeverityMedium:
			res.Status = StatusFlagged
		default:
			res.Status = StatusApproved
		}
		return res
	}

	res.Status = StatusPending
	return res
}
