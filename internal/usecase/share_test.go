package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/repository/memory"
)

type shareFixture struct {
	notes   *fakeNoteRepository
	limiter *memory.ShareLimiter
	mailer  *fakeMailer
	service *ShareService
	clock   *time.Time
}

func newShareFixture(t *testing.T, policy port.ShareLimitPolicy) *shareFixture {
	t.Helper()

	notes := newFakeNoteRepository()
	mailer := newFakeMailer()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now
	limiter := memory.NewShareLimiter(policy).WithClock(func() time.Time { return *clock })
	service := NewShareService(notes, limiter, mailer, &fakePublisher{})

	return &shareFixture{notes: notes, limiter: limiter, mailer: mailer, service: service, clock: clock}
}

func (fx *shareFixture) seedNote(t *testing.T, accountID, noteID string) {
	t.Helper()

	label := "Follow-up visit"
	if err := fx.notes.Create(context.Background(), domain.Note{
		ID:        noteID,
		AccountID: accountID,
		Label:     &label,
		CreatedAt: *fx.clock,
	}); err != nil {
		t.Fatalf("seed note: %v", err)
	}
}

func TestSharePerNoteCap(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{PerResource: 3, PerAccount: 20, Window: time.Hour})
	fx.seedNote(t, "acct-1", "note-1")
	fx.seedNote(t, "acct-1", "note-2")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", fmt.Sprintf("r%d@example.com", i)); err != nil {
			t.Fatalf("share %d: %v", i, err)
		}
	}

	err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r3@example.com")
	rle, ok := AsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.Scope != port.ScopeResource {
		t.Fatalf("expected resource scope, got %q", rle.Scope)
	}
	if rle.RetryAfter <= 0 {
		t.Fatal("retry-after should be positive")
	}

	// A different note still goes through.
	if err := fx.service.Share(ctx, "acct-1", "Jane", "note-2", "r4@example.com"); err != nil {
		t.Fatalf("other note: %v", err)
	}
}

func TestSharePerAccountCap(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{PerResource: 2, PerAccount: 3, Window: time.Hour})
	fx.seedNote(t, "acct-1", "note-1")
	fx.seedNote(t, "acct-1", "note-2")
	ctx := context.Background()

	shares := [][2]string{{"note-1", "a@example.com"}, {"note-1", "b@example.com"}, {"note-2", "c@example.com"}}
	for i, pair := range shares {
		if err := fx.service.Share(ctx, "acct-1", "Jane", pair[0], pair[1]); err != nil {
			t.Fatalf("share %d: %v", i, err)
		}
	}

	err := fx.service.Share(ctx, "acct-1", "Jane", "note-2", "d@example.com")
	rle, ok := AsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rle.Scope != port.ScopeAccount {
		t.Fatalf("expected account scope, got %q", rle.Scope)
	}
}

func TestShareWindowFreesSlots(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{PerResource: 3, PerAccount: 20, Window: time.Hour})
	fx.seedNote(t, "acct-1", "note-1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", fmt.Sprintf("r%d@example.com", i)); err != nil {
			t.Fatalf("share %d: %v", i, err)
		}
	}
	if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r3@example.com"); err == nil {
		t.Fatal("fourth share inside the window should be denied")
	}

	*fx.clock = fx.clock.Add(61 * time.Minute)

	if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r3@example.com"); err != nil {
		t.Fatalf("share after window: %v", err)
	}
}

func TestShareFailedDispatchKeepsQuota(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{PerResource: 1, PerAccount: 20, Window: time.Hour})
	fx.seedNote(t, "acct-1", "note-1")
	fx.mailer.failOn("share")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r@example.com"); !errors.Is(err, ErrDispatchFailed) {
			t.Fatalf("attempt %d: expected ErrDispatchFailed, got %v", i, err)
		}
	}

	// None of the failed dispatches consumed the single slot.
	delete(fx.mailer.failKinds, "share")
	if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r@example.com"); err != nil {
		t.Fatalf("share after recovery: %v", err)
	}
}

func TestShareUnknownOrForeignNote(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{})
	fx.seedNote(t, "acct-2", "note-1")
	ctx := context.Background()

	if err := fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r@example.com"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("foreign note: expected ErrNoteNotFound, got %v", err)
	}
	if err := fx.service.Share(ctx, "acct-1", "Jane", "missing", "r@example.com"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("missing note: expected ErrNoteNotFound, got %v", err)
	}
}

func TestShareConcurrentPairsRespectCap(t *testing.T) {
	fx := newShareFixture(t, port.ShareLimitPolicy{PerResource: 3, PerAccount: 20, Window: time.Hour})
	fx.seedNote(t, "acct-1", "note-1")
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = fx.service.Share(ctx, "acct-1", "Jane", "note-1", "r@example.com")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if _, ok := AsRateLimitError(err); !ok {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 3 {
		t.Fatalf("exactly 3 concurrent shares should pass, got %d", succeeded)
	}
}
