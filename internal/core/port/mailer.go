package port

import (
	"context"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
)

// Mailer delivers one-time codes and share notifications by email. The core
// only hands over the recipient and the raw secret; transport details belong
// to the implementation.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
	SendResetCode(ctx context.Context, email, name, code string) error
	SendNoteShared(ctx context.Context, recipient, senderName string, note domain.Note) error
}
