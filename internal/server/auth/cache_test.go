package auth

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequence(values ...uint64) func() (uint64, error) {
	i := 0
	return func() (uint64, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}

func TestCache_GenerateThenVerifyOnce(t *testing.T) {
	cache := NewUnverifiedTokenCache(10 * time.Second)

	token, err := cache.Generate(1000, "username")
	require.NoError(t, err)

	name, ok := cache.Verify(1000, token)
	require.True(t, ok)
	assert.Equal(t, "username", name)
	assert.Equal(t, 0, cache.Len())

	_, ok = cache.Verify(1000, token)
	assert.False(t, ok, "second verify must fail: tokens are single use")
}

func TestCache_VerifyRequiresExactPair(t *testing.T) {
	cache := NewUnverifiedTokenCache(10*time.Second, WithRandom(sequence(77)))

	token, err := cache.Generate(1, "alice")
	require.NoError(t, err)

	_, ok := cache.Verify(2, token)
	assert.False(t, ok, "value alone is not a credential")
	_, ok = cache.Verify(1, token+1)
	assert.False(t, ok)

	name, ok := cache.Verify(1, token)
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestCache_SameValueForDifferentUsers(t *testing.T) {
	cache := NewUnverifiedTokenCache(10*time.Second, WithRandom(sequence(5, 5)))

	_, err := cache.Generate(1, "alice")
	require.NoError(t, err)
	_, err = cache.Generate(2, "bob")
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	name, ok := cache.Verify(2, 5)
	require.True(t, ok)
	assert.Equal(t, "bob", name)

	name, ok = cache.Verify(1, 5)
	require.True(t, ok)
	assert.Equal(t, "alice", name)
}

func TestCache_MultipleOutstandingPerUser(t *testing.T) {
	cache := NewUnverifiedTokenCache(10*time.Second, WithRandom(sequence(10, 20)))

	first, err := cache.Generate(1, "alice")
	require.NoError(t, err)
	second, err := cache.Generate(1, "alice")
	require.NoError(t, err)

	_, ok := cache.Verify(1, second)
	assert.True(t, ok)
	_, ok = cache.Verify(1, first)
	assert.True(t, ok)
}

func TestCache_ExpiredTokenUnreachableWithoutExplicitCleanup(t *testing.T) {
	clock := newFakeClock()
	cache := NewUnverifiedTokenCache(time.Millisecond, WithClock(clock.Now))

	token, err := cache.Generate(1000, "username")
	require.NoError(t, err)

	clock.Advance(100 * time.Millisecond)

	_, ok := cache.Verify(1000, token)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ExpiresAfterTTLNotAt(t *testing.T) {
	clock := newFakeClock()
	cache := NewUnverifiedTokenCache(10*time.Second, WithClock(clock.Now))

	token, err := cache.Generate(1, "alice")
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	_, ok := cache.Verify(1, token)
	assert.True(t, ok, "createdAt+ttl == now is still live")
}

func TestCache_EvictsOldestFirst(t *testing.T) {
	clock := newFakeClock()
	cache := NewUnverifiedTokenCache(10*time.Second, WithClock(clock.Now), WithRandom(sequence(1, 2, 3)))

	stale, err := cache.Generate(1, "alice") // t=0
	require.NoError(t, err)
	clock.Advance(4 * time.Second)
	older, err := cache.Generate(2, "bob") // t=4
	require.NoError(t, err)
	clock.Advance(4 * time.Second)
	newest, err := cache.Generate(3, "carol") // t=8
	require.NoError(t, err)

	clock.Advance(3 * time.Second) // t=11: only alice's token is past its TTL

	assert.Equal(t, 1, cache.CleanUp())
	assert.Equal(t, 2, cache.Len())

	_, ok := cache.Verify(1, stale)
	assert.False(t, ok)
	name, ok := cache.Verify(3, newest)
	require.True(t, ok)
	assert.Equal(t, "carol", name)

	clock.Advance(4 * time.Second) // t=15: bob's token (t=4) is stale now
	_, ok = cache.Verify(2, older)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_GenerateTriggersCleanup(t *testing.T) {
	clock := newFakeClock()
	cache := NewUnverifiedTokenCache(time.Second, WithClock(clock.Now), WithRandom(sequence(1, 2)))

	_, err := cache.Generate(1, "alice")
	require.NoError(t, err)
	clock.Advance(2 * time.Second)
	_, err = cache.Generate(2, "bob")
	require.NoError(t, err)

	assert.Equal(t, 1, cache.Len())
}

func TestCache_ClockGoingBackKeepsOrder(t *testing.T) {
	clock := newFakeClock()
	cache := NewUnverifiedTokenCache(10*time.Second, WithClock(clock.Now), WithRandom(sequence(1, 2)))

	_, err := cache.Generate(1, "alice")
	require.NoError(t, err)
	clock.Advance(-5 * time.Second)
	second, err := cache.Generate(2, "bob")
	require.NoError(t, err)

	clock.Advance(14 * time.Second) // 9s after the first entry
	_, ok := cache.Verify(2, second)
	assert.True(t, ok)
}

func TestCache_RandomFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")
	cache := NewUnverifiedTokenCache(time.Second, WithRandom(func() (uint64, error) { return 0, boom }))

	_, err := cache.Generate(1, "alice")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestCache_ConcurrentGenerateVerify(t *testing.T) {
	cache := NewUnverifiedTokenCache(time.Minute)

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	errs := make(chan string, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v, err := cache.Generate(user, "player")
				if err != nil {
					errs <- err.Error()
					return
				}
				if _, ok := cache.Verify(user, v); !ok {
					errs <- "token lost"
				}
			}
		}(uint64(w))
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
	assert.Equal(t, 0, cache.Len())
}

func TestCache_TTL(t *testing.T) {
	assert.Equal(t, 3*time.Second, NewUnverifiedTokenCache(3*time.Second).TTL())
}
