package ghclient

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ttlCache memoizes the read-heavy, slow-changing gateway calls
// (list_org_admins, list_org_members, list_repository_invitations) for a
// short TTL, collapsing concurrent callers with singleflight so a burst of
// reconciliation jobs against the same org doesn't multiply API calls.
// Grounded on the cache+singleflight pairing used throughout prow/github's
// GetRepo/GetRepos caching, generalized to a small typed-entry cache here
// since prow's version is tied to its own request() machinery.
type ttlCache struct {
	ttl   time.Duration
	mu    sync.Mutex
	group singleflight.Group

	logins      map[string]cacheEntry[[]string]
	invitations map[string]cacheEntry[[]RepoInvitation]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:         ttl,
		logins:      make(map[string]cacheEntry[[]string]),
		invitations: make(map[string]cacheEntry[[]RepoInvitation]),
	}
}

func (c *ttlCache) cachedLogins(ctx context.Context, key string, fetch func() ([]string, error)) ([]string, error) {
	c.mu.Lock()
	entry, ok := c.logins[key]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.logins[key] = cacheEntry[[]string]{value: fresh, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *ttlCache) cachedInvitations(ctx context.Context, key string, fetch func() ([]RepoInvitation, error)) ([]RepoInvitation, error) {
	c.mu.Lock()
	entry, ok := c.invitations[key]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		fresh, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.invitations[key] = cacheEntry[[]RepoInvitation]{value: fresh, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]RepoInvitation), nil
}

// cachedLogins/cachedInvitations on *client simply delegate to the
// embedded cache, keeping the call sites in client.go free of cache
// plumbing.
func (c *client) cachedLogins(ctx context.Context, key string, fetch func() ([]string, error)) ([]string, error) {
	return c.cache.cachedLogins(ctx, key, fetch)
}

func (c *client) cachedInvitations(ctx context.Context, key string, fetch func() ([]RepoInvitation, error)) ([]RepoInvitation, error) {
	return c.cache.cachedInvitations(ctx, key, fetch)
}
