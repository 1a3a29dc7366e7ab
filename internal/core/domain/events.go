package domain

import "time"

// AccountRegisteredEvent represents the payload for scribe.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	Name         string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountVerifiedEvent represents the payload for scribe.account.verified messages.
type AccountVerifiedEvent struct {
	EventID    string
	AccountID  string
	Email      string
	VerifiedAt time.Time
	Metadata   map[string]any
}

// PasswordResetRequestedEvent represents the payload for scribe.account.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID     string
	AccountID   string
	RequestedAt time.Time
	ExpiresAt   time.Time
	Metadata    map[string]any
}

// PasswordChangedEvent represents the payload for scribe.account.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Metadata  map[string]any
}

// SessionRevokedEvent represents the payload for scribe.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	AccountID string
	SessionID string
	RevokedAt time.Time
	Metadata  map[string]any
}

// NoteSharedEvent represents the payload for scribe.note.shared messages.
type NoteSharedEvent struct {
	EventID   string
	AccountID string
	NoteID    string
	SharedAt  time.Time
	Metadata  map[string]any
}
