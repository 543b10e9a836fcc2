package countstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	c, err := cs.GetCount(ctx, "reports", "user1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(cs.Increment(ctx, "reports", "user1"))
	assert.NoError(cs.Increment(ctx, "reports", "user1"))

	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		c, err = cs.GetCount(ctx, "reports", "user1", p)
		assert.NoError(err)
		assert.Equal(2, c)
	}

	c, err = cs.GetCountDistinct(ctx, "reporters", "content1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(cs.IncrementDistinct(ctx, "reporters", "content1", "a"))
	assert.NoError(cs.IncrementDistinct(ctx, "reporters", "content1", "a"))
	assert.NoError(cs.IncrementDistinct(ctx, "reporters", "content1", "b"))
	c, err = cs.GetCountDistinct(ctx, "reporters", "content1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(2, c)
}

func TestMemCountStoreDayRollover(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	now := time.Date(2024, 3, 10, 23, 50, 0, 0, time.Local)
	cs := NewMemCountStore()
	cs.Clock = func() time.Time { return now }

	assert.NoError(cs.Increment(ctx, "reports", "user1"))
	c, err := cs.GetCount(ctx, "reports", "user1", PeriodDay)
	assert.NoError(err)
	assert.Equal(1, c)

	// cross local midnight: the day bucket resets, the total does not
	now = now.Add(time.Hour)
	c, err = cs.GetCount(ctx, "reports", "user1", PeriodDay)
	assert.NoError(err)
	assert.Equal(0, c)
	c, err = cs.GetCount(ctx, "reports", "user1", PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, c)
}
