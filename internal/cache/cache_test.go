package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/psyche/internal/aggregate"
	"github.com/dshills/psyche/internal/schema"
)

func newTestCache(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := Dial(context.Background(), mr.Addr(), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func sampleEntries() []aggregate.Entry {
	return []aggregate.Entry{{
		ID:      aggregate.GroupKey("m", schema.DefaultPersona),
		Name:    "m",
		Persona: schema.DefaultPersona,
		Count:   2,
		Scores:  map[string]float64{"N": 60, "E": 70, "O": 80, "A": 90, "C": 75},
		DISC:    map[string]float64{"D": 10, "I": 14, "S": 16, "C": 12},
		MBTI:    "INFJ",
	}}
}

func TestLeaderboard_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleEntries()))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleEntries(), got)
	assert.Equal(t, DefaultTTL, mr.TTL(leaderboardKey))
}

func TestLeaderboard_Expires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, sampleEntries()))
	mr.FastForward(DefaultTTL + time.Second)
	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboard_Invalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, sampleEntries()))
	require.NoError(t, c.SetModel(ctx, "m", &schema.ModelProfile{ModelName: "m"}))
	require.NoError(t, c.SetModel(ctx, "other", &schema.ModelProfile{ModelName: "other"}))

	require.NoError(t, c.Invalidate(ctx, "m"))
	assert.False(t, mr.Exists(leaderboardKey))
	assert.False(t, mr.Exists(modelPrefix+"m"))
	assert.True(t, mr.Exists(modelPrefix+"other"))
}

func TestLeaderboard_ModelRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	in := &schema.ModelProfile{
		ModelName: "m",
		Persona:   "Creative Writer",
		Timestamp: 42,
		Results: map[string]*schema.InventoryResult{
			schema.KeyMBTIDerived: {InventoryName: "MBTI (Most Frequent)", Type: "ENFP", TraitScores: map[string]float64{}},
		},
	}
	require.NoError(t, c.SetModel(ctx, "m", in))
	got, ok, err := c.GetModel(ctx, "m")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ENFP", got.Result(schema.KeyMBTIDerived).Type)
	assert.Equal(t, int64(42), got.Timestamp)
}

func TestLeaderboard_CorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(leaderboardKey, "not json"))
	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLeaderboard_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()
	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLeaderboard_Nil(t *testing.T) {
	var c *Leaderboard
	ctx := context.Background()
	_, ok, err := c.Get(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, sampleEntries()))
	assert.NoError(t, c.Invalidate(ctx, "m"))
	assert.NoError(t, c.Close())
}

func TestNew_CustomTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 5*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Set(context.Background(), nil))
	assert.Equal(t, 5*time.Second, mr.TTL(leaderboardKey))
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := Dial(context.Background(), addr, 0)
	assert.Error(t, err)
}
