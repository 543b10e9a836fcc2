// Classifier boundary between the moderation core and the scoring models.
//
// The core treats classification as a black box: a classifier returns a set
// of violation flags, an overall confidence, and any PII it noticed. The
// keyword classifier here is the deterministic built-in for text; the remote
// classifier fronts an external vision/text scoring API for images.
package classify

import (
	"context"

	"github.com/meridian-social/aegis/moderation"
)

// Image is one image attached to a content item.
type Image struct {
	ID   string
	Data []byte
}

// Input is one content item to classify. Text-only, image-only, and combined
// inputs are all valid.
type Input struct {
	Text   string
	Images []Image
}

// Output is the raw classification outcome, before BuildResult turns it into
// a moderation decision.
type Output struct {
	Flags      []moderation.ViolationFlag `json:"flags"`
	Confidence float64                    `json:"confidence"`
	PII        []moderation.PIIOccurrence `json:"pii,omitempty"`
}

type Classifier interface {
	Classify(ctx context.Context, input Input) (Output, error)
}

// Merge combines sub-results from multiple media into one conservative
// outcome: union of flags, minimum confidence (a single uncertain detector
// lowers overall certainty), concatenated PII.
func Merge(outs ...Output) Output {
	merged := Output{}
	seen := make(map[moderation.ViolationFlag]bool)
	first := true
	for _, o := range outs {
		for _, f := range o.Flags {
			if !seen[f] {
				seen[f] = true
				merged.Flags = append(merged.Flags, f)
			}
		}
		merged.PII = append(merged.PII, o.PII...)
		if first || o.Confidence < merged.Confidence {
			merged.Confidence = o.Confidence
		}
		first = false
	}
	return merged
}
