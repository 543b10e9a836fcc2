// Regex scan for personally identifiable information in free-form text.
//
// Detection here is intentionally coarse: any hit forces the content into
// human review regardless of classifier confidence, so false positives cost
// a moderator a glance while false negatives leak someone's phone number.
package pii

import (
	"regexp"

	"github.com/meridian-social/aegis/moderation"
)

// Detector finds PII occurrences in text. Image-side PII (text recognized
// inside pictures) comes back through the remote classifier instead.
type Detector interface {
	DetectText(text string) []moderation.PIIOccurrence
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9()\-. ]{6,}[0-9]`)
	// leading word boundary keeps email local parts from double-matching
	handlePattern = regexp.MustCompile(`(^|\s)@[a-zA-Z0-9_.]{2,30}`)
)

// Fixed per-pattern confidences: email addresses are nearly unambiguous,
// digit runs are frequently order numbers or timestamps.
const (
	emailConfidence  = 0.95
	phoneConfidence  = 0.85
	handleConfidence = 0.70
)

// RegexDetector is the stock text detector.
type RegexDetector struct{}

func NewRegexDetector() *RegexDetector {
	return &RegexDetector{}
}

func (d *RegexDetector) DetectText(text string) []moderation.PIIOccurrence {
	var out []moderation.PIIOccurrence
	for range emailPattern.FindAllString(text, -1) {
		out = append(out, moderation.PIIOccurrence{Type: moderation.PIIEmailAddress, Confidence: emailConfidence})
	}
	// strip emails before the phone pass so digits inside addresses don't
	// match twice
	stripped := emailPattern.ReplaceAllString(text, " ")
	for range phonePattern.FindAllString(stripped, -1) {
		out = append(out, moderation.PIIOccurrence{Type: moderation.PIIPhoneNumber, Confidence: phoneConfidence})
	}
	for range handlePattern.FindAllString(stripped, -1) {
		out = append(out, moderation.PIIOccurrence{Type: moderation.PIISocialHandle, Confidence: handleConfidence})
	}
	return out
}
