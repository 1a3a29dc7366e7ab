package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/infra/security"
)

type authFixture struct {
	accounts *fakeAccountRepository
	sessions *fakeSessionRepository
	issuer   *SessionIssuer
	service  *AuthService
	clock    *time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	accounts := newFakeAccountRepository()
	sessions := newFakeSessionRepository(accounts)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	tick := func() time.Time { return *clock }
	sessions.now = tick

	issuer := NewSessionIssuer(sessions, 30*24*time.Hour).WithClock(tick)
	service, err := NewAuthService(accounts, issuer)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}

	return &authFixture{
		accounts: accounts,
		sessions: sessions,
		issuer:   issuer,
		service:  service,
		clock:    clock,
	}
}

func (fx *authFixture) seedAccount(t *testing.T, email, password string, verified bool) {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	_, err = fx.accounts.Upsert(context.Background(), domain.Account{
		ID:           "acct-" + email,
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if verified {
		if err := fx.accounts.MarkVerified(context.Background(), "acct-"+email); err != nil {
			t.Fatalf("mark verified: %v", err)
		}
	}
}

func TestLoginCreatesDistinctSessions(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)
	ctx := context.Background()

	first, err := fx.service.Login(ctx, "jane@example.com", testPassword)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := fx.service.Login(ctx, "Jane@Example.com", testPassword)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first == second {
		t.Fatal("each login must mint a fresh token")
	}

	// Both sessions stay valid concurrently.
	if _, err := fx.service.ResolveSession(ctx, first); err != nil {
		t.Fatalf("first session should resolve: %v", err)
	}
	if _, err := fx.service.ResolveSession(ctx, second); err != nil {
		t.Fatalf("second session should resolve: %v", err)
	}
}

func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)
	ctx := context.Background()

	_, unknownErr := fx.service.Login(ctx, "nobody@example.com", testPassword)
	_, wrongErr := fx.service.Login(ctx, "jane@example.com", "not-the-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("the two failures must be textually identical")
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, false)

	_, err := fx.service.Login(context.Background(), "jane@example.com", testPassword)
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if len(fx.sessions.byHash) != 0 {
		t.Fatal("no session may exist for an unverified account")
	}
}

func TestSessionStoredAsDigestOnly(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)

	token, err := fx.service.Login(context.Background(), "jane@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, ok := fx.sessions.byHash[token]; ok {
		t.Fatal("raw token must never be a storage key")
	}
	if _, ok := fx.sessions.byHash[security.HashToken(token)]; !ok {
		t.Fatal("session should be stored under the token digest")
	}
}

func TestExpiredSessionIndistinguishableFromAbsent(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)
	ctx := context.Background()

	token, err := fx.service.Login(ctx, "jane@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	*fx.clock = fx.clock.Add(31 * 24 * time.Hour)

	_, expiredErr := fx.service.ResolveSession(ctx, token)
	_, absentErr := fx.service.ResolveSession(ctx, "never-issued-token")

	if !errors.Is(expiredErr, ErrUnauthenticated) {
		t.Fatalf("expired: expected ErrUnauthenticated, got %v", expiredErr)
	}
	if !errors.Is(absentErr, ErrUnauthenticated) {
		t.Fatalf("absent: expected ErrUnauthenticated, got %v", absentErr)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)
	ctx := context.Background()

	token, err := fx.service.Login(ctx, "jane@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := fx.service.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := fx.service.ResolveSession(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("revoked session must not resolve, got %v", err)
	}

	// Second revocation of the same token and revocation of an unknown token
	// are both no-ops.
	if err := fx.service.Logout(ctx, token); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}
	if err := fx.service.Logout(ctx, "never-issued-token"); err != nil {
		t.Fatalf("unknown-token logout: %v", err)
	}
}

func TestLogoutPublishesRevocationOnce(t *testing.T) {
	fx := newAuthFixture(t)
	fx.seedAccount(t, "jane@example.com", testPassword, true)
	ctx := context.Background()

	events := &fakePublisher{}
	fx.service.WithEvents(events)

	token, err := fx.service.Login(ctx, "jane@example.com", testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := fx.service.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	// Logging out again cannot resolve the session, so no second event fires.
	if err := fx.service.Logout(ctx, token); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}

	revoked := 0
	for _, name := range events.events {
		if name == "session.revoked" {
			revoked++
		}
	}
	if revoked != 1 {
		t.Fatalf("expected exactly one session_revoked event, got %d (%v)", revoked, events.events)
	}
}
