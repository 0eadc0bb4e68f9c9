package auth

import (
	"container/list"
	"sync"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
)

// UnverifiedToken is a phase-1 token bound to the username it was issued for.
type UnverifiedToken struct {
	UserID    uint64
	Username  string
	Value     uint64
	CreatedAt time.Time
}

type tokenKey struct {
	userID uint64
	value  uint64
}

// UnverifiedTokenCache keeps unverified tokens for a fixed TTL.
//
// Entries live in a creation-ordered list (oldest at the front) used for
// expiry, and in an index keyed by (userID, value) used for lookups. Both are
// updated together under mu; no method performs I/O while holding it.
type UnverifiedTokenCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	random  func() (uint64, error)
	order   *list.List
	byToken map[tokenKey]*list.Element
}

// CacheOption customizes an UnverifiedTokenCache.
type CacheOption func(*UnverifiedTokenCache)

// WithClock replaces time.Now as the cache's time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *UnverifiedTokenCache) { c.now = now }
}

// WithRandom replaces the token value source.
func WithRandom(random func() (uint64, error)) CacheOption {
	return func(c *UnverifiedTokenCache) { c.random = random }
}

// NewUnverifiedTokenCache returns an empty cache whose entries expire ttl
// after creation.
func NewUnverifiedTokenCache(ttl time.Duration, opts ...CacheOption) *UnverifiedTokenCache {
	c := &UnverifiedTokenCache{
		ttl:     ttl,
		now:     time.Now,
		random:  common.RandUint64,
		order:   list.New(),
		byToken: make(map[tokenKey]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate issues a new token value for userID bound to username. A user may
// hold several outstanding tokens.
func (c *UnverifiedTokenCache) Generate(userID uint64, username string) (uint64, error) {
	value, err := c.random()
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := tokenKey{userID: userID, value: value}
	if old, ok := c.byToken[key]; ok {
		c.order.Remove(old)
	}
	// Appending keeps the list sorted only if the clock never goes back;
	// clamp to the newest entry so cleanup can stop at the first live one.
	if back := c.order.Back(); back != nil {
		if newest := back.Value.(*UnverifiedToken).CreatedAt; now.Before(newest) {
			now = newest
		}
	}
	c.byToken[key] = c.order.PushBack(&UnverifiedToken{
		UserID:    userID,
		Username:  username,
		Value:     value,
		CreatedAt: now,
	})
	c.cleanUpLocked(now)

	return value, nil
}

// Verify consumes the token (userID, value) and returns its username. It
// reports false when the token was never issued, has expired or was already
// consumed.
func (c *UnverifiedTokenCache) Verify(userID, value uint64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanUpLocked(c.now())

	key := tokenKey{userID: userID, value: value}
	el, ok := c.byToken[key]
	if !ok {
		return "", false
	}
	delete(c.byToken, key)
	return c.order.Remove(el).(*UnverifiedToken).Username, true
}

// CleanUp evicts expired entries and returns how many were removed.
func (c *UnverifiedTokenCache) CleanUp() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanUpLocked(c.now())
}

// Len returns the number of tokens currently held, expired ones included
// until the next cleanup.
func (c *UnverifiedTokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// TTL returns the configured time-to-live.
func (c *UnverifiedTokenCache) TTL() time.Duration { return c.ttl }

// cleanUpLocked walks from the oldest entry and stops at the first live one.
func (c *UnverifiedTokenCache) cleanUpLocked(now time.Time) int {
	removed := 0
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		t := el.Value.(*UnverifiedToken)
		if !t.CreatedAt.Add(c.ttl).Before(now) {
			break
		}
		c.order.Remove(el)
		delete(c.byToken, tokenKey{userID: t.UserID, value: t.Value})
		removed++
	}
	return removed
}
