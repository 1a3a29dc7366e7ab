package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BillBrieferServer/scribe/internal/core/port"
)

// ShareLimiter enforces the note-share caps across instances using Redis
// sorted sets, one per (account, note) pair and one per account.
type ShareLimiter struct {
	client *redis.Client
	policy port.ShareLimitPolicy
	now    func() time.Time
}

// NewShareLimiter creates a Redis-backed share limiter.
func NewShareLimiter(client *redis.Client, policy port.ShareLimitPolicy) *ShareLimiter {
	return &ShareLimiter{client: client, policy: policy.Normalize(), now: time.Now}
}

// WithClock overrides the time source for tests.
func (l *ShareLimiter) WithClock(now func() time.Time) *ShareLimiter {
	l.now = now
	return l
}

// Admit checks both caps without consuming a slot. Aged-out attempts are
// trimmed on the way so the count reflects the live window.
func (l *ShareLimiter) Admit(ctx context.Context, accountID, resourceID string) (port.Decision, error) {
	now := l.now()

	resourceCount, oldestResource, err := l.windowState(ctx, l.resourceKey(accountID, resourceID), now)
	if err != nil {
		return port.Decision{}, err
	}
	accountCount, oldestAccount, err := l.windowState(ctx, l.accountKey(accountID), now)
	if err != nil {
		return port.Decision{}, err
	}

	if resourceCount >= l.policy.PerResource {
		return port.Decision{
			Scope:      port.ScopeResource,
			RetryAfter: l.retryAfter(oldestResource, now),
		}, nil
	}
	if accountCount >= l.policy.PerAccount {
		return port.Decision{
			Scope:      port.ScopeAccount,
			RetryAfter: l.retryAfter(oldestAccount, now),
		}, nil
	}

	return port.Decision{Allowed: true}, nil
}

// Record consumes one slot in both windows.
func (l *ShareLimiter) Record(ctx context.Context, accountID, resourceID string) error {
	now := l.now()
	score := now.UnixNano()
	member := redis.Z{Score: float64(score), Member: score}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range []string{l.resourceKey(accountID, resourceID), l.accountKey(accountID)} {
			pipe.ZAdd(ctx, key, member)
			pipe.Expire(ctx, key, l.policy.Window)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record share: %w", err)
	}

	return nil
}

// windowState trims the key to the live window and reports the remaining
// attempt count plus the oldest surviving timestamp.
func (l *ShareLimiter) windowState(ctx context.Context, key string, now time.Time) (int, time.Time, error) {
	cutoff := strconv.FormatInt(now.Add(-l.policy.Window).UnixNano(), 10)

	if err := l.client.ZRemRangeByScore(ctx, key, "-inf", cutoff).Err(); err != nil {
		return 0, time.Time{}, fmt.Errorf("redis trim share window: %w", err)
	}

	values, err := l.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis read share window: %w", err)
	}
	if len(values) == 0 {
		return 0, time.Time{}, nil
	}

	return len(values), time.Unix(0, int64(values[0].Score)), nil
}

func (l *ShareLimiter) retryAfter(oldest, now time.Time) time.Duration {
	if oldest.IsZero() {
		return 0
	}
	wait := oldest.Add(l.policy.Window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

func (l *ShareLimiter) resourceKey(accountID, resourceID string) string {
	return fmt.Sprintf("share:note:%s:%s", accountID, resourceID)
}

func (l *ShareLimiter) accountKey(accountID string) string {
	return fmt.Sprintf("share:account:%s", accountID)
}

var _ port.ShareLimiter = (*ShareLimiter)(nil)
