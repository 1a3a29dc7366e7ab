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

// SessionRepository implements port.SessionRepository for PostgreSQL.
type SessionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithExecutor returns a repository bound to the supplied executor, primarily
// for transactions and tests.
func (r *SessionRepository) WithExecutor(exec pgExecutor) *SessionRepository {
	if exec == nil {
		return r
	}
	return &SessionRepository{pool: r.pool, exec: exec, builder: r.builder, now: r.now}
}

// WithClock overrides the internal clock for deterministic tests.
func (r *SessionRepository) WithClock(clock func() time.Time) *SessionRepository {
	if clock != nil {
		r.now = clock
	}
	return r
}

// Create inserts a session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	stmt, args, err := r.builder.Insert("scribe.sessions").
		Columns("id", "account_id", "token_hash", "created_at", "expires_at").
		Values(session.ID, session.AccountID, session.TokenHash, session.CreatedAt, session.ExpiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetAccountByTokenHash resolves a session digest to its owning account. The
// expiry predicate lives in the query, so an expired session and an unknown
// digest produce the same ErrNotFound.
func (r *SessionRepository) GetAccountByTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(
			"a.id",
			"a.email",
			"a.name",
			"a.password_hash",
			"a.verified",
			"a.verification_code_hash",
			"a.verification_expires_at",
			"a.reset_code_hash",
			"a.reset_expires_at",
			"a.created_at",
		).
		From("scribe.sessions s").
		Join("scribe.accounts a ON a.id = s.account_id").
		Where(squirrel.Eq{"s.token_hash": tokenHash}).
		Where(squirrel.Gt{"s.expires_at": r.now()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session account sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

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
		return nil, fmt.Errorf("scan session account: %w", err)
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

// DeleteByTokenHash removes the matching session row. Unknown digests delete
// zero rows, which is not an error.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	stmt, args, err := r.builder.Delete("scribe.sessions").
		Where(squirrel.Eq{"token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
