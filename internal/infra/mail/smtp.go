// Package mail delivers one-time codes and share notifications over SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/config"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
)

// SMTPMailer sends transactional mail through a configured relay.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *zap.Logger
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPSettings, log *zap.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, logger: log}, nil
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set mail recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	m.logger.Info("mail sent",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)

	return nil
}

// SendVerificationCode delivers the 6-digit registration code.
func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, name, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour verification code is: %s\n\nIt expires in 15 minutes. If you did not sign up, you can ignore this message.\n",
		name, code,
	)
	return m.send(ctx, email, "Verify your email", body)
}

// SendResetCode delivers the 6-digit password reset code.
func (m *SMTPMailer) SendResetCode(ctx context.Context, email, name, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is: %s\n\nIt expires in 15 minutes. If you did not request a reset, you can ignore this message.\n",
		name, code,
	)
	return m.send(ctx, email, "Password reset code", body)
}

// SendNoteShared mails a rendered copy of the note to the recipient.
func (m *SMTPMailer) SendNoteShared(ctx context.Context, recipient, senderName string, note domain.Note) error {
	subject := "A note was shared with you"
	if note.Label != nil && *note.Label != "" {
		subject = fmt.Sprintf("Note shared with you: %s", *note.Label)
	}
	return m.send(ctx, recipient, subject, renderNote(senderName, note))
}

func renderNote(senderName string, note domain.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s shared a note with you.\n\n", senderName)

	field := func(label string, value *string) {
		if value != nil && *value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, *value)
		}
	}

	field("Label", note.Label)
	field("Encounter time", note.EncounterTime)
	field("Patient age", note.PatientAge)
	field("Patient gender", note.PatientGender)
	field("Visit type", note.VisitType)
	field("Specialty", note.Specialty)
	field("Chief complaint", note.ChiefComplaint)

	if note.SOAPNote != nil && *note.SOAPNote != "" {
		fmt.Fprintf(&b, "\n%s\n", *note.SOAPNote)
	} else if note.RawDictation != nil && *note.RawDictation != "" {
		fmt.Fprintf(&b, "\nDictation transcript:\n%s\n", *note.RawDictation)
	}

	return b.String()
}

var _ port.Mailer = (*SMTPMailer)(nil)
