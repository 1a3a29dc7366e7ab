package port

import (
	"context"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
)

// SessionRepository persists login sessions keyed by token digest.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	// GetAccountByTokenHash resolves a non-expired session digest to its
	// owning account. Expired and absent sessions are indistinguishable; both
	// yield repository.ErrNotFound.
	GetAccountByTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error)
	// DeleteByTokenHash removes the matching session. Deleting an unknown
	// digest is a no-op, not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
}
