package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

var noteColumns = []string{
	"id",
	"account_id",
	"label",
	"patient_age",
	"patient_gender",
	"visit_type",
	"specialty",
	"chief_complaint",
	"raw_dictation",
	"soap_note",
	"encounter_time",
	"created_at",
}

// NoteRepository implements port.NoteRepository using PostgreSQL.
type NoteRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewNoteRepository wires a PostgreSQL-backed note repository.
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithExecutor returns a repository bound to the supplied executor, primarily
// for transactions and tests.
func (r *NoteRepository) WithExecutor(exec pgExecutor) *NoteRepository {
	if exec == nil {
		return r
	}
	return &NoteRepository{pool: r.pool, exec: exec, builder: r.builder}
}

// Create inserts a new note row.
func (r *NoteRepository) Create(ctx context.Context, note domain.Note) error {
	stmt, args, err := r.builder.Insert("scribe.notes").
		Columns(noteColumns...).
		Values(
			note.ID,
			note.AccountID,
			note.Label,
			note.PatientAge,
			note.PatientGender,
			note.VisitType,
			note.Specialty,
			note.ChiefComplaint,
			note.RawDictation,
			note.SOAPNote,
			note.EncounterTime,
			note.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert note sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}

	return nil
}

// GetByID retrieves a note owned by the given account. A note held by another
// account yields ErrNotFound.
func (r *NoteRepository) GetByID(ctx context.Context, accountID, noteID string) (*domain.Note, error) {
	stmt, args, err := r.builder.
		Select(noteColumns...).
		From("scribe.notes").
		Where(squirrel.Eq{"id": noteID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select note sql: %w", err)
	}

	var note domain.Note
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&note.ID,
		&note.AccountID,
		&note.Label,
		&note.PatientAge,
		&note.PatientGender,
		&note.VisitType,
		&note.Specialty,
		&note.ChiefComplaint,
		&note.RawDictation,
		&note.SOAPNote,
		&note.EncounterTime,
		&note.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}

	return &note, nil
}

// ListByAccount returns the account's notes, newest first.
func (r *NoteRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Note, error) {
	stmt, args, err := r.builder.
		Select(noteColumns...).
		From("scribe.notes").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notes sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.AccountID,
			&note.Label,
			&note.PatientAge,
			&note.PatientGender,
			&note.VisitType,
			&note.Specialty,
			&note.ChiefComplaint,
			&note.RawDictation,
			&note.SOAPNote,
			&note.EncounterTime,
			&note.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	return notes, nil
}

// Delete removes a note owned by the given account.
func (r *NoteRepository) Delete(ctx context.Context, accountID, noteID string) error {
	stmt, args, err := r.builder.Delete("scribe.notes").
		Where(squirrel.Eq{"id": noteID, "account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete note sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.NoteRepository = (*NoteRepository)(nil)
