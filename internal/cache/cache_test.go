package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MariferVL/eventhub/internal/model"
)

func newCache(t *testing.T) (*EventCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, time.Minute), mr
}

func sampleEvent(id string) *model.Event {
	return &model.Event{
		ID:             id,
		Name:           "gophercon",
		Capacity:       10,
		AvailableSlots: 7,
	}
}

func TestEventCache_ItemRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_, ok := c.GetEvent(ctx, "e1")
	require.False(t, ok)

	c.SetEvent(ctx, sampleEvent("e1"))

	got, ok := c.GetEvent(ctx, "e1")
	require.True(t, ok)
	require.Equal(t, "gophercon", got.Name)
	require.Equal(t, 7, got.AvailableSlots)
}

func TestEventCache_ListRoundTrip(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	_, ok := c.GetList(ctx)
	require.False(t, ok)

	c.SetList(ctx, []model.Event{*sampleEvent("e1"), *sampleEvent("e2")})

	got, ok := c.GetList(ctx)
	require.True(t, ok)
	require.Len(t, got, 2)
}

func TestEventCache_InvalidateEventDropsListToo(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	c.SetEvent(ctx, sampleEvent("e1"))
	c.SetList(ctx, []model.Event{*sampleEvent("e1")})

	c.InvalidateEvent(ctx, "e1")

	_, ok := c.GetEvent(ctx, "e1")
	require.False(t, ok)
	_, ok = c.GetList(ctx)
	require.False(t, ok)
}

func TestEventCache_InvalidateListKeepsItems(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	c.SetEvent(ctx, sampleEvent("e1"))
	c.SetList(ctx, []model.Event{*sampleEvent("e1")})

	c.InvalidateList(ctx)

	_, ok := c.GetList(ctx)
	require.False(t, ok)
	_, ok = c.GetEvent(ctx, "e1")
	require.True(t, ok)
}

func TestEventCache_EntriesExpire(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	c.SetEvent(ctx, sampleEvent("e1"))
	mr.FastForward(2 * time.Minute)

	_, ok := c.GetEvent(ctx, "e1")
	require.False(t, ok)
}

// A dead Redis degrades to a miss, never an error the caller sees.
func TestEventCache_SurvivesRedisOutage(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	mr.Close()

	c.SetEvent(ctx, sampleEvent("e1"))
	_, ok := c.GetEvent(ctx, "e1")
	require.False(t, ok)
}
