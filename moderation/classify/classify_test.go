package classify

import (
	"context"
	"testing"

	"github.com/meridian-social/aegis/moderation"
	"github.com/meridian-social/aegis/moderation/pii"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifierClean(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := NewKeywordClassifier(DefaultVocab(), pii.NewRegexDetector())
	out, err := c.Classify(ctx, Input{Text: "lovely weather for a picnic"})
	assert.NoError(err)
	assert.Empty(out.Flags)
	assert.Empty(out.PII)
	assert.Equal(cleanConfidence, out.Confidence)
}

func TestKeywordClassifierHits(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := NewKeywordClassifier(DefaultVocab(), pii.NewRegexDetector())

	out, err := c.Classify(ctx, Input{Text: "you are a loser, totally worthless"})
	assert.NoError(err)
	assert.Equal([]moderation.ViolationFlag{moderation.FlagHarassment}, out.Flags)
	assert.InDelta(0.80, out.Confidence, 1e-9)

	// tokenization folds case and punctuation
	out, err = c.Classify(ctx, Input{Text: "LOSER!!!"})
	assert.NoError(err)
	assert.Equal([]moderation.ViolationFlag{moderation.FlagHarassment}, out.Flags)
}

func TestKeywordClassifierPII(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	c := NewKeywordClassifier(DefaultVocab(), pii.NewRegexDetector())
	out, err := c.Classify(ctx, Input{Text: "totally fine text, email me at x@y.dev"})
	assert.NoError(err)
	assert.Equal(1, len(out.PII))
	assert.Equal(moderation.PIIEmailAddress, out.PII[0].Type)
}

func TestMergeConservative(t *testing.T) {
	assert := assert.New(t)

	text := Output{Flags: []moderation.ViolationFlag{moderation.FlagSpam}, Confidence: 0.9}
	image := Output{
		Flags:      []moderation.ViolationFlag{moderation.FlagSexualContent, moderation.FlagSpam},
		Confidence: 0.6,
		PII:        []moderation.PIIOccurrence{{Type: moderation.PIIPhoneNumber, Confidence: 0.8}},
	}

	merged := Merge(text, image)
	assert.Equal([]moderation.ViolationFlag{moderation.FlagSpam, moderation.FlagSexualContent}, merged.Flags)
	assert.Equal(0.6, merged.Confidence)
	assert.Equal(1, len(merged.PII))
}

func TestSummarize(t *testing.T) {
	assert := assert.New(t)

	out := summarize(scoreResp{
		Classes: []scoreRespClass{
			{Class: "gore", Score: 0.97},
			{Class: "sexual", Score: 0.12},
			{Class: "unknown-class", Score: 0.99},
		},
		PII: []scoreRespPII{
			{Type: "phone", Score: 0.9, Box: &scoreBox{X: 0.1, Y: 0.2, W: 0.3, H: 0.1}},
		},
	})
	assert.Equal([]moderation.ViolationFlag{moderation.FlagViolentContent}, out.Flags)
	assert.Equal(0.97, out.Confidence)
	assert.Equal(1, len(out.PII))
	assert.NotNil(out.PII[0].Location)

	// clean media: confidence is the complement of the strongest near-miss
	out = summarize(scoreResp{Classes: []scoreRespClass{{Class: "sexual", Score: 0.2}}})
	assert.Empty(out.Flags)
	assert.InDelta(0.8, out.Confidence, 1e-9)
}

func TestTokenizeText(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{"hello", "world"}, TokenizeText("Hello, World!"))
	assert.Equal([]string{"cafe"}, TokenizeText("Cáfe"))
	assert.Empty(TokenizeText("  \n "))
}
