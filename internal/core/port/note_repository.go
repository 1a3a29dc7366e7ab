package port

import (
	"context"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
)

// NoteRepository persists encounter notes. All reads and deletes are scoped by
// the owning account; a note belonging to another account is reported as
// repository.ErrNotFound rather than a distinct forbidden state.
type NoteRepository interface {
	Create(ctx context.Context, note domain.Note) error
	GetByID(ctx context.Context, accountID, noteID string) (*domain.Note, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Note, error)
	Delete(ctx context.Context, accountID, noteID string) error
}
