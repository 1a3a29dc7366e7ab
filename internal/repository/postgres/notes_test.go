package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

func newNoteRepo(t *testing.T) (*NoteRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewNoteRepository(nil).WithExecutor(mock), mock
}

func strptr(s string) *string { return &s }

func TestNoteRepository_Create(t *testing.T) {
	repo, mock := newNoteRepo(t)

	note := domain.Note{
		ID:           "note-1",
		AccountID:    "acct-1",
		Label:        strptr("Follow-up"),
		RawDictation: strptr("Patient reports improvement."),
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO scribe\.notes`).
		WithArgs(
			note.ID, note.AccountID, "Follow-up",
			nil, nil, nil, nil, nil,
			"Patient reports improvement.", nil, nil,
			note.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), note); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNoteRepository_GetByIDScopesToOwner(t *testing.T) {
	repo, mock := newNoteRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM scribe\.notes`).
		WithArgs("other-account", "note-1").
		WillReturnRows(pgxmock.NewRows(noteColumns))

	_, err := repo.GetByID(context.Background(), "other-account", "note-1")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign note, got %v", err)
	}
}

func TestNoteRepository_ListByAccount(t *testing.T) {
	repo, mock := newNoteRepo(t)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows(noteColumns).
		AddRow("note-2", "acct-1", strptr("B"), nil, nil, nil, nil, nil, nil, nil, nil, createdAt).
		AddRow("note-1", "acct-1", strptr("A"), nil, nil, nil, nil, nil, nil, nil, nil, createdAt.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM scribe\.notes WHERE account_id = .+ ORDER BY created_at DESC`).
		WithArgs("acct-1").
		WillReturnRows(rows)

	notes, err := repo.ListByAccount(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("ListByAccount returned error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].ID != "note-2" {
		t.Fatalf("expected newest note first, got %s", notes[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNoteRepository_DeleteMissingNote(t *testing.T) {
	repo, mock := newNoteRepo(t)

	mock.ExpectExec(`DELETE FROM scribe\.notes`).
		WithArgs("acct-1", "missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "acct-1", "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
