package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	InitRedis(mr.Addr())
	require.NotNil(t, GetClient(), "miniredis should be reachable")
	t.Cleanup(func() { client = nil })
	return mr
}

func TestSetAndGetJSON(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	in := payload{Name: "algebra", Count: 3}
	require.NoError(t, SetJSON(ctx, "test:key", in, time.Minute))

	var out payload
	found, err := GetJSON(ctx, "test:key", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	found, err = GetJSON(ctx, "test:missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAsideFetchesOnceThenServesFromCache(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "fresh", Count: calls}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, "aside:key", &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)

	var second payload
	require.NoError(t, Aside(ctx, "aside:key", &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls, "second read must come from the cache")
	assert.Equal(t, first, second)
}

func TestInvalidateTopicDropsAggregates(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	id := uuid.New()
	require.NoError(t, SetJSON(ctx, TopicKey(id), payload{Name: "t"}, time.Minute))
	require.NoError(t, SetJSON(ctx, CategoriesKey(), []string{"Math"}, time.Minute))
	require.NoError(t, SetJSON(ctx, CategoryCountsKey(), payload{}, time.Minute))

	InvalidateTopic(ctx, id)

	var out payload
	found, err := GetJSON(ctx, TopicKey(id), &out)
	require.NoError(t, err)
	assert.False(t, found)

	var categories []string
	found, err = GetJSON(ctx, CategoriesKey(), &categories)
	require.NoError(t, err)
	assert.False(t, found, "category aggregates must be dropped with the topic")
}

func TestNilClientDegradesGracefully(t *testing.T) {
	client = nil
	ctx := context.Background()

	var out payload
	found, err := GetJSON(ctx, "any", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, "any", payload{}, time.Minute))
	Invalidate(ctx, "any")

	// Aside falls straight through to fetch
	calls := 0
	err = Aside(ctx, "any", &out, time.Minute, func() error {
		calls++
		out = payload{Name: "fetched"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fetched", out.Name)
}

func TestExpiredKeyMisses(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, "ttl:key", payload{Name: "x"}, time.Second))
	mr.FastForward(2 * time.Second)

	var out payload
	found, err := GetJSON(ctx, "ttl:key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
