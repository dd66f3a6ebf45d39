// Package session is the Redis-backed Session Cache. An entry maps a user
// id to the JSON snapshot of that user and exists exactly as long as the
// user is logged in: the Auth Gate and the refresh flow honor a token only
// while the entry is present.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/lms-backend/internal/model"
)

// DefaultTTL is the lifetime given to a session on login and on every
// refresh: 7 days (604800 seconds).
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores session snapshots in Redis under "<prefix><userID>".
type Cache struct {
	rdb    redis.Cmdable
	prefix string
}

// NewCache returns a Cache. An empty prefix stores entries under the bare
// user id.
func NewCache(rdb redis.Cmdable, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

func (c *Cache) key(userID string) string { return c.prefix + userID }

// Put overwrites the entry for userID and sets an absolute TTL.
func (c *Cache) Put(ctx context.Context, userID string, snap model.User, ttl time.Duration) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", userID, err)
	}
	if err := c.rdb.Set(ctx, c.key(userID), b, ttl).Err(); err != nil {
		return fmt.Errorf("session: put %s: %w", userID, err)
	}
	return nil
}

// Get returns the snapshot for userID. The boolean is false when there is
// no live session.
func (c *Cache) Get(ctx context.Context, userID string) (model.User, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("session: get %s: %w", userID, err)
	}
	var snap model.User
	if err := json.Unmarshal(b, &snap); err != nil {
		return model.User{}, false, fmt.Errorf("session: decode %s: %w", userID, err)
	}
	return snap, true, nil
}

// Delete removes the entry. Deleting a missing entry is not an error.
func (c *Cache) Delete(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("session: delete %s: %w", userID, err)
	}
	return nil
}

// Replace rewrites the snapshot of an existing session and keeps its
// remaining TTL (SET XX KEEPTTL). It never creates a session and never
// extends one; the boolean reports whether a session was there.
func (c *Cache) Replace(ctx context.Context, userID string, snap model.User) (bool, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("session: encode %s: %w", userID, err)
	}
	err = c.rdb.SetArgs(ctx, c.key(userID), b, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: replace %s: %w", userID, err)
	}
	return true, nil
}

// TTL returns the remaining lifetime of the entry, or a negative duration
// when it does not exist.
func (c *Cache) TTL(ctx context.Context, userID string) (time.Duration, error) {
	d, err := c.rdb.TTL(ctx, c.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("session: ttl %s: %w", userID, err)
	}
	return d, nil
}
