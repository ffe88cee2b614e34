package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chatline-platform/pkg/utils"
)

// Presence tracks who is online across multiple concurrent connections per
// account. An account counts as online while at least one socket is open;
// the last-seen timestamp is recorded when the final socket closes.
type Presence struct {
	rdb   *redis.Client
	ttl   time.Duration
	clock func() time.Time
}

func NewPresence(rdb *redis.Client, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Presence{rdb: rdb, ttl: ttl, clock: time.Now}
}

func connKey(userID string) string     { return fmt.Sprintf("presence:conn:%s", userID) }
func lastSeenKey(userID string) string { return fmt.Sprintf("presence:last_seen:%s", userID) }

// Connect registers one more open socket for the account. It reports whether
// this was the account's first connection, i.e. the account just came online.
func (p *Presence) Connect(ctx context.Context, userID string) (bool, error) {
	n, err := utils.IncrConnCount(ctx, p.rdb, connKey(userID), p.ttl)
	if err != nil {
		return false, fmt.Errorf("presence: connect %s: %w", userID, err)
	}
	return n == 1, nil
}

// Disconnect unregisters one socket. It reports whether the account just went
// offline, in which case the last-seen timestamp is stamped.
func (p *Presence) Disconnect(ctx context.Context, userID string) (bool, error) {
	n, err := utils.DecrConnCount(ctx, p.rdb, connKey(userID))
	if err != nil {
		return false, fmt.Errorf("presence: disconnect %s: %w", userID, err)
	}
	if n > 0 {
		return false, nil
	}
	at := p.clock().UTC().Format(time.RFC3339)
	if err := p.rdb.Set(ctx, lastSeenKey(userID), at, p.ttl).Err(); err != nil {
		return true, fmt.Errorf("presence: stamp last seen %s: %w", userID, err)
	}
	return true, nil
}

// Refresh extends the TTL on the account's connection counter. Clients
// re-announce themselves periodically; a counter that never refreshes expires
// with the TTL and the account falls back to offline.
func (p *Presence) Refresh(ctx context.Context, userID string) error {
	if err := p.rdb.PExpire(ctx, connKey(userID), p.ttl).Err(); err != nil {
		return fmt.Errorf("presence: refresh %s: %w", userID, err)
	}
	return nil
}

// Status returns whether the account is online and, when offline, when it was
// last seen. A never-seen account reports offline with a nil timestamp.
func (p *Presence) Status(ctx context.Context, userID string) (bool, *time.Time, error) {
	n, err := p.rdb.Get(ctx, connKey(userID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, nil, fmt.Errorf("presence: status %s: %w", userID, err)
	}
	if n > 0 {
		return true, nil, nil
	}
	raw, err := p.rdb.Get(ctx, lastSeenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("presence: last seen %s: %w", userID, err)
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return false, nil, nil
	}
	return false, &at, nil
}
