package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
)

// LogMailer writes outbound mail to the log instead of sending it. Useful for
// development environments without an SMTP relay.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer constructs a development-friendly mailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{logger: log}
}

func (m *LogMailer) SendVerificationCode(_ context.Context, email, name, code string) error {
	m.logger.Info("verification code issued",
		zap.String("to", logger.MaskEmail(email)),
		zap.String("name", name),
		zap.String("code", code),
	)
	return nil
}

func (m *LogMailer) SendResetCode(_ context.Context, email, name, code string) error {
	m.logger.Info("reset code issued",
		zap.String("to", logger.MaskEmail(email)),
		zap.String("name", name),
		zap.String("code", code),
	)
	return nil
}

func (m *LogMailer) SendNoteShared(_ context.Context, recipient, senderName string, note domain.Note) error {
	m.logger.Info("note share mail",
		zap.String("to", logger.MaskEmail(recipient)),
		zap.String("sender", senderName),
		zap.String("note_id", note.ID),
	)
	return nil
}

var _ port.Mailer = (*LogMailer)(nil)
