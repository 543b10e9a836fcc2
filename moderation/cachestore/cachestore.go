// Small string cache used to memoize classifier output per content item, so
// re-submitting identical content does not re-bill the external classifier.
package cachestore

import (
	"context"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}
