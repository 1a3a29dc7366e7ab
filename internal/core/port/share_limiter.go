package port

import (
	"context"
	"time"
)

// LimitScope names the cap a share admission decision was made against.
type LimitScope string

const (
	// ScopeResource is the per-(account, resource) cap.
	ScopeResource LimitScope = "resource"
	// ScopeAccount is the per-account total cap.
	ScopeAccount LimitScope = "account"
)

// Decision is the outcome of a share admission check. RetryAfter is the time
// until the oldest counted event leaves the window; zero when allowed.
type Decision struct {
	Allowed    bool
	Scope      LimitScope
	RetryAfter time.Duration
}

// ShareLimitPolicy carries the caps a limiter backend enforces.
type ShareLimitPolicy struct {
	PerResource int
	PerAccount  int
	Window      time.Duration
}

// DefaultShareLimitPolicy mirrors the production defaults.
func DefaultShareLimitPolicy() ShareLimitPolicy {
	return ShareLimitPolicy{
		PerResource: 3,
		PerAccount:  20,
		Window:      time.Hour,
	}
}

// Normalize fills zero or negative fields from the defaults.
func (p ShareLimitPolicy) Normalize() ShareLimitPolicy {
	def := DefaultShareLimitPolicy()
	if p.PerResource <= 0 {
		p.PerResource = def.PerResource
	}
	if p.PerAccount <= 0 {
		p.PerAccount = def.PerAccount
	}
	if p.Window <= 0 {
		p.Window = def.Window
	}
	return p
}

// ShareLimiter bounds how often the note-share notification may fire, per
// (account, resource) pair and per account overall, inside a sliding window.
// Admission and recording are separate so a failed dispatch does not consume
// quota; callers serialize the admit-record pair per account.
type ShareLimiter interface {
	Admit(ctx context.Context, accountID, resourceID string) (Decision, error)
	Record(ctx context.Context, accountID, resourceID string) error
}
