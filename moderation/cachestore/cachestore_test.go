package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCacheStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Hour)

	v, err := cs.Get(ctx, "classify", "content1")
	assert.NoError(err)
	assert.Equal("", v)

	assert.NoError(cs.Set(ctx, "classify", "content1", "{}"))
	v, err = cs.Get(ctx, "classify", "content1")
	assert.NoError(err)
	assert.Equal("{}", v)

	assert.NoError(cs.Purge(ctx, "classify", "content1"))
	v, err = cs.Get(ctx, "classify", "content1")
	assert.NoError(err)
	assert.Equal("", v)
}

func TestMemCacheStoreNamespaces(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, time.Hour)
	assert.NoError(cs.Set(ctx, "classify", "k1", "text"))
	assert.NoError(cs.Set(ctx, "image", "k1", "pixels"))

	v, err := cs.Get(ctx, "classify", "k1")
	assert.NoError(err)
	assert.Equal("text", v)
	v, err = cs.Get(ctx, "image", "k1")
	assert.NoError(err)
	assert.Equal("pixels", v)

	// purging one namespace leaves the other alone
	assert.NoError(cs.Purge(ctx, "classify", "k1"))
	v, err = cs.Get(ctx, "image", "k1")
	assert.NoError(err)
	assert.Equal("pixels", v)
}

func TestMemCacheStoreExpiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCacheStore(10, 10*time.Millisecond)
	assert.NoError(cs.Set(ctx, "classify", "k1", "v1"))
	time.Sleep(25 * time.Millisecond)

	v, err := cs.Get(ctx, "classify", "k1")
	assert.NoError(err)
	assert.Equal("", v)
}
