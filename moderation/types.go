package moderation

import (
	"time"
)

// ContentType is the fixed taxonomy of reviewable content.
type ContentType string

const (
	ContentTypePost    ContentType = "post"
	ContentTypeComment ContentType = "comment"
	ContentTypeReview  ContentType = "review"
	ContentTypeImage   ContentType = "image"
)

// ModerationStatus is the lifecycle state of a classified piece of content.
//
// Valid transitions are pending -> {approved, rejected, flagged, under-review}.
// Approved and rejected are terminal: once reached, the content can not
// re-enter the review queue.
type ModerationStatus string

const (
	StatusPending     ModerationStatus = "pending"
	StatusApproved    ModerationStatus = "approved"
	StatusRejected    ModerationStatus = "rejected"
	StatusFlagged     ModerationStatus = "flagged"
	StatusUnderReview ModerationStatus = "under-review"
)

// Terminal indicates whether the status permits any further transition.
func (s ModerationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ViolationFlag is one kind of policy violation a classifier can detect.
type ViolationFlag string

const (
	FlagHarassment           ViolationFlag = "harassment"
	FlagSpam                 ViolationFlag = "spam"
	FlagInappropriateContent ViolationFlag = "inappropriate-content"
	FlagHateSpeech           ViolationFlag = "hate-speech"
	FlagPersonalInformation  ViolationFlag = "personal-information"
	FlagViolentContent       ViolationFlag = "violent-content"
	FlagSexualContent        ViolationFlag = "sexual-content"
	FlagMisinformation       ViolationFlag = "misinformation"
	FlagCopyrightViolation   ViolationFlag = "copyright-violation"
	FlagOther                ViolationFlag = "other"
)

// Severity is the ordinal violation intensity. Ordering matters: thresholds
// and queue priority strictly increase with severity.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// FlagSeverity maps each violation kind to its fixed severity class.
func FlagSeverity(f ViolationFlag) Severity {
	switch f {
	case FlagHateSpeech, FlagViolentContent:
		return SeverityCritical
	case FlagHarassment, FlagSexualContent, FlagPersonalInformation:
		return SeverityHigh
	case FlagInappropriateContent, FlagMisinformation, FlagCopyrightViolation:
		return SeverityMedium
	case FlagSpam, FlagOther:
		return SeverityLow
	default:
		return SeverityLow
	}
}

// MaxSeverity returns the highest severity across the given flags, or
// SeverityLow for an empty set.
func MaxSeverity(flags []ViolationFlag) Severity {
	max := SeverityLow
	for _, f := range flags {
		if s := FlagSeverity(f); s > max {
			max = s
		}
	}
	return max
}

// PIIType is a category of personally identifiable information.
type PIIType string

const (
	PIIPhoneNumber  PIIType = "phone-number"
	PIIEmailAddress PIIType = "email-address"
	PIISocialHandle PIIType = "social-handle"
)

// BoundingBox locates a PII occurrence inside an image, in relative
// coordinates (0..1).
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PIIOccurrence is one detected piece of PII. Location is only set for
// detections inside images.
type PIIOccurrence struct {
	Type       PIIType      `json:"type"`
	Confidence float64      `json:"confidence"`
	Location   *BoundingBox `json:"location,omitempty"`
}

// ModerationResult is one classification outcome for a content item.
//
// ReviewedAt and ReviewedBy stay unset until a moderator acts on the item.
type ModerationResult struct {
	ContentID   string           `json:"contentId"`
	ContentType ContentType      `json:"contentType"`
	Status      ModerationStatus `json:"status"`
	Flags       []ViolationFlag  `json:"flags"`
	Severity    Severity         `json:"severity"`
	Confidence  float64          `json:"confidence"`
	DetectedPII []PIIOccurrence  `json:"detectedPii,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	ReviewedAt  *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy  string           `json:"reviewedBy,omitempty"`
}

// HasFlag checks membership in the result's violation set.
func (r *ModerationResult) HasFlag(f ViolationFlag) bool {
	for _, v := range r.Flags {
		if v == f {
			return true
		}
	}
	return false
}

// AuthorResolver maps a content id to the user who authored it. The mapping
// lives in the host application; the core only needs it to aim automatic
// penalties. The boolean is false when the author is unknown.
type AuthorResolver func(contentID string) (string, bool)
