package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

var accountColumns = []string{
	"id",
	"email",
	"name",
	"password_hash",
	"verified",
	"verification_code_hash",
	"verification_expires_at",
	"reset_code_hash",
	"reset_expires_at",
	"created_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account repository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithExecutor returns a repository bound to the supplied executor, primarily
// for transactions and tests.
func (r *AccountRepository) WithExecutor(exec pgExecutor) *AccountRepository {
	if exec == nil {
		return r
	}
	return &AccountRepository{pool: r.pool, exec: exec, builder: r.builder}
}

// Upsert inserts the account or overwrites an existing unverified one holding
// the same email. Concurrent registrations for one email are last-write-wins;
// the conflict clause absorbs the race without a duplicate-key failure. The
// returned id is the row that holds the email, which is the original row's id
// when the insert collided. A verified account makes the statement a no-op,
// reported as an empty id.
func (r *AccountRepository) Upsert(ctx context.Context, account domain.Account) (string, error) {
	var codeHash, expiresAt any
	if account.PendingVerification != nil {
		codeHash = account.PendingVerification.CodeHash
		expiresAt = account.PendingVerification.ExpiresAt
	}

	stmt, args, err := r.builder.Insert("scribe.accounts").
		Columns("id", "email", "name", "password_hash", "verified", "verification_code_hash", "verification_expires_at", "created_at").
		Values(account.ID, account.Email, account.Name, account.PasswordHash, account.Verified, codeHash, expiresAt, account.CreatedAt).
		Suffix(`ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			verification_code_hash = EXCLUDED.verification_code_hash,
			verification_expires_at = EXCLUDED.verification_expires_at
			WHERE accounts.verified = FALSE
			RETURNING id`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build upsert account sql: %w", err)
	}

	var id string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("upsert account: %w", err)
	}

	return id, nil
}

// GetByEmail retrieves an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("scribe.accounts").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From("scribe.accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	return r.scanAccount(r.exec.QueryRow(ctx, stmt, args...))
}

// MarkVerified flips the verified flag and clears the consumed verification
// code in one statement, so the two mutations are durably visible together.
func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("scribe.accounts").
		Set("verified", true).
		Set("verification_code_hash", nil).
		Set("verification_expires_at", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark verified sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetPendingReset stores the outstanding reset code, overwriting any prior one.
func (r *AccountRepository) SetPendingReset(ctx context.Context, id string, code domain.PendingCode) error {
	stmt, args, err := r.builder.Update("scribe.accounts").
		Set("reset_code_hash", code.CodeHash).
		Set("reset_expires_at", code.ExpiresAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set pending reset sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set pending reset: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdatePassword replaces the password verifier and clears the consumed reset
// code in one statement.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	stmt, args, err := r.builder.Update("scribe.accounts").
		Set("password_hash", passwordHash).
		Set("reset_code_hash", nil).
		Set("reset_expires_at", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account            domain.Account
		verificationHash   sql.NullString
		verificationExpiry *time.Time
		resetHash          sql.NullString
		resetExpiry        *time.Time
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.Verified,
		&verificationHash,
		&verificationExpiry,
		&resetHash,
		&resetExpiry,
		&account.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	if verificationHash.Valid && verificationExpiry != nil {
		account.PendingVerification = &domain.PendingCode{
			CodeHash:  verificationHash.String,
			ExpiresAt: *verificationExpiry,
		}
	}
	if resetHash.Valid && resetExpiry != nil {
		account.PendingReset = &domain.PendingCode{
			CodeHash:  resetHash.String,
			ExpiresAt: *resetExpiry,
		}
	}

	return &account, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
