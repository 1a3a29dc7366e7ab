package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrAccountAlreadyVerified signals an attempt to issue a verification code
// against an account that already proved its email.
var ErrAccountAlreadyVerified = errors.New("account already verified")

// ErrAccountNotVerified signals an operation that requires a verified account,
// such as issuing a password reset code.
var ErrAccountNotVerified = errors.New("account not verified")

// PendingCode is an unconsumed one-time code attached to an account. Only the
// digest of the code is kept; the raw value travels out-of-band by email.
type PendingCode struct {
	CodeHash  string
	ExpiresAt time.Time
}

// IsExpired reports whether the code can no longer be redeemed.
func (p PendingCode) IsExpired(at time.Time) bool {
	return !p.ExpiresAt.After(at)
}

// Matches compares a presented code digest against the stored one.
func (p PendingCode) Matches(codeHash string) bool {
	return p.CodeHash != "" && p.CodeHash == codeHash
}

// Account mirrors the persisted representation in the accounts table.
//
// The pending-code pointers encode the account state machine explicitly: a nil
// pointer means no outstanding code of that kind. The transition methods keep
// the combinations legal: an account never holds a verification code once
// verified, and never holds a reset code before it is verified.
type Account struct {
	ID                  string
	Email               string
	Name                string
	PasswordHash        string
	Verified            bool
	PendingVerification *PendingCode
	PendingReset        *PendingCode
	CreatedAt           time.Time
}

// NormalizeEmail case-folds and trims an email so lookups and the unique
// constraint agree with what the user typed during registration.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IssueVerification attaches a fresh verification code, silently replacing any
// prior one. Fails once the account is verified.
func (a *Account) IssueVerification(codeHash string, expiresAt time.Time) error {
	if a.Verified {
		return ErrAccountAlreadyVerified
	}
	a.PendingVerification = &PendingCode{CodeHash: codeHash, ExpiresAt: expiresAt}
	return nil
}

// MarkVerified transitions the account to the verified state, irreversibly,
// and discards the consumed verification code.
func (a *Account) MarkVerified() error {
	if a.Verified {
		return ErrAccountAlreadyVerified
	}
	a.Verified = true
	a.PendingVerification = nil
	return nil
}

// IssueReset attaches a fresh password reset code, silently replacing any
// prior one. Only verified accounts may hold a reset code.
func (a *Account) IssueReset(codeHash string, expiresAt time.Time) error {
	if !a.Verified {
		return ErrAccountNotVerified
	}
	a.PendingReset = &PendingCode{CodeHash: codeHash, ExpiresAt: expiresAt}
	return nil
}

// ApplyPasswordReset replaces the password verifier and discards the consumed
// reset code.
func (a *Account) ApplyPasswordReset(passwordHash string) {
	a.PasswordHash = passwordHash
	a.PendingReset = nil
}
