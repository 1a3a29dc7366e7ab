package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

// NoteService manages encounter notes for their owning account.
type NoteService struct {
	notes port.NoteRepository
	now   func() time.Time
}

// NewNoteService constructs a note service.
func NewNoteService(notes port.NoteRepository) *NoteService {
	return &NoteService{notes: notes, now: time.Now}
}

// NoteInput carries the caller-editable note fields.
type NoteInput struct {
	Label          *string
	PatientAge     *string
	PatientGender  *string
	VisitType      *string
	Specialty      *string
	ChiefComplaint *string
	RawDictation   *string
	SOAPNote       *string
	EncounterTime  *string
}

// Create stores a new note owned by the account.
func (s *NoteService) Create(ctx context.Context, accountID string, input NoteInput) (*domain.Note, error) {
	note := domain.Note{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		Label:          input.Label,
		PatientAge:     input.PatientAge,
		PatientGender:  input.PatientGender,
		VisitType:      input.VisitType,
		Specialty:      input.Specialty,
		ChiefComplaint: input.ChiefComplaint,
		RawDictation:   input.RawDictation,
		SOAPNote:       input.SOAPNote,
		EncounterTime:  input.EncounterTime,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	return &note, nil
}

// Get fetches one of the account's notes.
func (s *NoteService) Get(ctx context.Context, accountID, noteID string) (*domain.Note, error) {
	note, err := s.notes.GetByID(ctx, accountID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("load note: %w", err)
	}
	return note, nil
}

// List returns the account's notes, newest first.
func (s *NoteService) List(ctx context.Context, accountID string) ([]domain.Note, error) {
	notes, err := s.notes.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Delete removes one of the account's notes.
func (s *NoteService) Delete(ctx context.Context, accountID, noteID string) error {
	if err := s.notes.Delete(ctx, accountID, noteID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
