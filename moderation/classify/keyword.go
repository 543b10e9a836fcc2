package classify

import (
	"context"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/pii"
)

// Confidence model for the keyword classifier. A single token hit is a
// moderately confident signal; each additional hit firms it up. Clean text
// is scored high so low-severity content can be auto-approved.
const (
	cleanConfidence   = 0.95
	baseHitConfidence = 0.75
	perHitConfidence  = 0.05
	maxHitConfidence  = 0.95
)

// KeywordClassifier is the deterministic built-in text classifier: tokenized
// input matched against per-violation token sets, plus a PII scan.
type KeywordClassifier struct {
	vocab    map[string]moderation.ViolationFlag
	detector pii.Detector
}

func NewKeywordClassifier(vocab map[string]moderation.ViolationFlag, detector pii.Detector) *KeywordClassifier {
	if vocab == nil {
		vocab = map[string]moderation.ViolationFlag{}
	}
	return &KeywordClassifier{vocab: vocab, detector: detector}
}

var _ Classifier = (*KeywordClassifier)(nil)

func (c *KeywordClassifier) Classify(ctx context.Context, input Input) (Output, error) {
	hits := 0
	seen := make(map[moderation.ViolationFlag]bool)
	var flags []moderation.ViolationFlag
	for _, tok := range TokenizeText(input.Text) {
		f, ok := c.vocab[tok]
		if !ok {
			continue
		}
		hits++
		if !seen[f] {
			seen[f] = true
			flags = append(flags, f)
		}
	}

	out := Output{Flags: flags}
	if hits == 0 {
		out.Confidence = cleanConfidence
	} else {
		conf := baseHitConfidence + perHitConfidence*float64(hits-1)
		if conf > maxHitConfidence {
			conf = maxHitConfidence
		}
		out.Confidence = conf
	}

	if c.detector != nil && input.Text != "" {
		out.PII = c.detector.DetectText(input.Text)
	}
	return out, nil
}
