package port

import (
	"context"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
)

// AccountRepository persists accounts. Implementations translate missing rows
// into repository.ErrNotFound.
type AccountRepository interface {
	// Upsert inserts the account or, when an unverified account already holds
	// the email, overwrites its password verifier, display name, and pending
	// verification code. It returns the id of the row that now holds the email,
	// which is the existing row's id when the email was already taken. An empty
	// id with a nil error means a verified account occupies the email and
	// nothing was written.
	Upsert(ctx context.Context, account domain.Account) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// MarkVerified flips the verified flag and clears the pending verification
	// code in a single statement.
	MarkVerified(ctx context.Context, id string) error
	// SetPendingReset stores (or overwrites) the outstanding reset code.
	SetPendingReset(ctx context.Context, id string, code domain.PendingCode) error
	// UpdatePassword replaces the password verifier and clears the pending
	// reset code in a single statement.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
