// Package memory provides in-process repository backends used when no
// external store is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BillBrieferServer/scribe/internal/core/port"
)

type shareKey struct {
	accountID  string
	resourceID string
}

// ShareLimiter is a mutex-guarded sliding-window limiter. Attempt timestamps
// are pruned lazily on each call, so idle keys cost nothing until touched.
type ShareLimiter struct {
	mu       sync.Mutex
	policy   port.ShareLimitPolicy
	resource map[shareKey][]time.Time
	account  map[string][]time.Time
	now      func() time.Time
}

// NewShareLimiter creates an in-memory share limiter.
func NewShareLimiter(policy port.ShareLimitPolicy) *ShareLimiter {
	return &ShareLimiter{
		policy:   policy.Normalize(),
		resource: make(map[shareKey][]time.Time),
		account:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

// WithClock overrides the time source for tests.
func (l *ShareLimiter) WithClock(now func() time.Time) *ShareLimiter {
	l.now = now
	return l
}

// Admit reports whether one more share of resourceID by accountID fits under
// both caps. It does not consume a slot; call Record after the share succeeds.
func (l *ShareLimiter) Admit(ctx context.Context, accountID, resourceID string) (port.Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.policy.Window)

	key := shareKey{accountID: accountID, resourceID: resourceID}
	l.resource[key] = prune(l.resource[key], cutoff)
	l.account[accountID] = prune(l.account[accountID], cutoff)

	if len(l.resource[key]) >= l.policy.PerResource {
		return port.Decision{
			Scope:      port.ScopeResource,
			RetryAfter: retryAfter(l.resource[key], now, l.policy.Window),
		}, nil
	}
	if len(l.account[accountID]) >= l.policy.PerAccount {
		return port.Decision{
			Scope:      port.ScopeAccount,
			RetryAfter: retryAfter(l.account[accountID], now, l.policy.Window),
		}, nil
	}

	return port.Decision{Allowed: true}, nil
}

// Record consumes one slot in both windows.
func (l *ShareLimiter) Record(ctx context.Context, accountID, resourceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.policy.Window)

	key := shareKey{accountID: accountID, resourceID: resourceID}
	l.resource[key] = append(prune(l.resource[key], cutoff), now)
	l.account[accountID] = append(prune(l.account[accountID], cutoff), now)

	return nil
}

func prune(attempts []time.Time, cutoff time.Time) []time.Time {
	kept := attempts[:0]
	for _, at := range attempts {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// retryAfter reports how long until the oldest attempt in the window ages out.
func retryAfter(attempts []time.Time, now time.Time, window time.Duration) time.Duration {
	if len(attempts) == 0 {
		return 0
	}
	oldest := attempts[0]
	for _, at := range attempts[1:] {
		if at.Before(oldest) {
			oldest = at
		}
	}
	wait := oldest.Add(window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

var _ port.ShareLimiter = (*ShareLimiter)(nil)
