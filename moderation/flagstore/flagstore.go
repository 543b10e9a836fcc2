// Operational flags on moderation subjects (content items and users).
//
// Flags are private operational markers, not classifier output: the
// soft-hide signal on over-reported content, the marker that an author was
// already auto-restricted, and similar dedupe state live here.
package flagstore

import (
	"context"
)

const (
	// FlagHidden soft-hides content from public view pending review.
	FlagHidden = "hidden"
	// FlagAuthorRestricted records that an automatic author restriction was
	// already attempted for this content.
	FlagAuthorRestricted = "author-restricted"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}

// Has is a convenience membership check over Get.
func Has(ctx context.Context, s FlagStore, key, flag string) (bool, error) {
	flags, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	for _, f := range flags {
		if f == flag {
			return true, nil
		}
	}
	return false, nil
}
