package classify

import (
	"github.com/meridian-social/aegis/moderation"
)

// DefaultVocab is a tiny starter vocabulary, mostly useful for tests and
// local development. Production deployments load curated token lists per
// violation kind and pass them to NewKeywordClassifier.
func DefaultVocab() map[string]moderation.ViolationFlag {
	vocab := make(map[string]moderation.ViolationFlag)
	add := func(flag moderation.ViolationFlag, toks ...string) {
		for _, t := range toks {
			vocab[t] = flag
		}
	}
	add(moderation.FlagSpam, "freemoney", "giveaway", "clickhere", "crypto-doubler")
	add(moderation.FlagHarassment, "loser", "pathetic", "worthless")
	add(moderation.FlagHateSpeech, "slur")
	add(moderation.FlagViolentContent, "killyou", "deaththreat")
	add(moderation.FlagSexualContent, "nsfw")
	add(moderation.FlagMisinformation, "miraclecure", "hoaxfact")
	return vocab
}
