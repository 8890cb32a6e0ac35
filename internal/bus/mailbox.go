package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MailboxBus implements the point-to-point request/reply transport used
// by rfc-alerts-list and rfc-alerts-acknowledge: a client pushes a
// request frame onto a well-known list key and blocks popping its own
// reply key, which this daemon's mailbox worker answers directly.
type MailboxBus struct {
	client *redis.Client
}

// NewMailboxBus returns a MailboxBus.
func NewMailboxBus(client *redis.Client) *MailboxBus {
	return &MailboxBus{client: client}
}

// BlockingPop waits up to timeout for a frame to appear on key, removing
// and returning it. A zero timeout blocks indefinitely.
func (b *MailboxBus) BlockingPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := b.client.BLPop(ctx, timeout, key).Result()
	if err != nil {
		return nil, err
	}
	// BLPop returns [key, value]; res[0] is always the key it popped from.
	if len(res) != 2 {
		return nil, fmt.Errorf("bus: unexpected BLPOP reply shape: %v", res)
	}
	return []byte(res[1]), nil
}

// Push appends a reply frame to key and sets an expiry on the key so an
// abandoned mailbox (client crashed before collecting its reply) does
// not accumulate forever.
func (b *MailboxBus) Push(ctx context.Context, key string, frame []byte, ttl time.Duration) error {
	if err := b.client.RPush(ctx, key, frame).Err(); err != nil {
		return fmt.Errorf("bus: push to mailbox %s: %w", key, err)
	}
	if ttl > 0 {
		if err := b.client.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("bus: set expiry on mailbox %s: %w", key, err)
		}
	}
	return nil
}
