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

func newAccountRepo(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return NewAccountRepository(nil).WithExecutor(mock), mock
}

func TestAccountRepository_UpsertWritesNewAccount(t *testing.T) {
	repo, mock := newAccountRepo(t)

	createdAt := time.Now().UTC()
	account := domain.Account{
		ID:           "acct-1",
		Email:        "doc@example.com",
		Name:         "Dr. Example",
		PasswordHash: "$argon2id$hash",
		PendingVerification: &domain.PendingCode{
			CodeHash:  "digest",
			ExpiresAt: createdAt.Add(15 * time.Minute),
		},
		CreatedAt: createdAt,
	}

	mock.ExpectQuery(`INSERT INTO scribe\.accounts`).
		WithArgs(
			account.ID,
			account.Email,
			account.Name,
			account.PasswordHash,
			false,
			"digest",
			account.PendingVerification.ExpiresAt,
			createdAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acct-1"))

	id, err := repo.Upsert(context.Background(), account)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if id != "acct-1" {
		t.Fatalf("expected the fresh row id back, got %q", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpsertSkipsVerifiedAccount(t *testing.T) {
	repo, mock := newAccountRepo(t)

	account := domain.Account{
		ID:           "acct-2",
		Email:        "taken@example.com",
		PasswordHash: "$argon2id$hash",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectQuery(`INSERT INTO scribe\.accounts`).
		WithArgs(
			account.ID,
			account.Email,
			account.Name,
			account.PasswordHash,
			false,
			nil,
			nil,
			account.CreatedAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	id, err := repo.Upsert(context.Background(), account)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if id != "" {
		t.Fatalf("expected an empty id when the conflict row is verified, got %q", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpsertReturnsExistingRowID(t *testing.T) {
	repo, mock := newAccountRepo(t)

	account := domain.Account{
		ID:           "acct-new",
		Email:        "doc@example.com",
		Name:         "Dr. Example",
		PasswordHash: "$argon2id$hash",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectQuery(`INSERT INTO scribe\.accounts`).
		WithArgs(
			account.ID,
			account.Email,
			account.Name,
			account.PasswordHash,
			false,
			nil,
			nil,
			account.CreatedAt,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acct-original"))

	id, err := repo.Upsert(context.Background(), account)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if id != "acct-original" {
		t.Fatalf("expected the conflicting row's id, got %q", id)
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	repo, mock := newAccountRepo(t)

	createdAt := time.Now().UTC()
	expiry := createdAt.Add(15 * time.Minute)

	rows := pgxmock.NewRows([]string{
		"id", "email", "name", "password_hash", "verified",
		"verification_code_hash", "verification_expires_at",
		"reset_code_hash", "reset_expires_at", "created_at",
	}).AddRow(
		"acct-1", "doc@example.com", "Dr. Example", "$argon2id$hash", false,
		"digest", &expiry, nil, (*time.Time)(nil), createdAt,
	)

	mock.ExpectQuery(`SELECT .+ FROM scribe\.accounts WHERE email =`).
		WithArgs("doc@example.com").
		WillReturnRows(rows)

	account, err := repo.GetByEmail(context.Background(), "doc@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if account.ID != "acct-1" || account.Verified {
		t.Fatalf("unexpected account: %+v", account)
	}
	if account.PendingVerification == nil || account.PendingVerification.CodeHash != "digest" {
		t.Fatalf("expected pending verification, got %+v", account.PendingVerification)
	}
	if account.PendingReset != nil {
		t.Fatalf("expected no pending reset, got %+v", account.PendingReset)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByEmailNotFound(t *testing.T) {
	repo, mock := newAccountRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM scribe\.accounts WHERE email =`).
		WithArgs("ghost@example.com").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "name", "password_hash", "verified",
			"verification_code_hash", "verification_expires_at",
			"reset_code_hash", "reset_expires_at", "created_at",
		}))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_MarkVerifiedMissingAccount(t *testing.T) {
	repo, mock := newAccountRepo(t)

	mock.ExpectExec(`UPDATE scribe\.accounts SET`).
		WithArgs(true, nil, nil, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkVerified(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_UpdatePasswordClearsReset(t *testing.T) {
	repo, mock := newAccountRepo(t)

	mock.ExpectExec(`UPDATE scribe\.accounts SET`).
		WithArgs("$argon2id$new", nil, nil, "acct-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePassword(context.Background(), "acct-1", "$argon2id$new"); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
