package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/testfixtures"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "erm.db")
	store, err := Open(Config{DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	t.Parallel()

	testfixtures.RunStoreSuite(t, func(t *testing.T) persistence.Store {
		return newTestStore(t)
	})
}

func TestStore_MigrateIsRepeatable(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestStore_ProjectSearchEscapesWildcards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	engineer := testfixtures.NewEngineer()
	if err := store.CreateEngineer(ctx, engineer); err != nil {
		t.Fatalf("CreateEngineer failed: %v", err)
	}
	for _, project := range []string{"100% uptime", "1000 uptime"} {
		b := testfixtures.NewBooking(testfixtures.WithBookingLogin(engineer.Login), testfixtures.WithBookingProject(project, "C", "S"))
		if _, err := store.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	got, err := store.ListBookings(ctx, persistence.BookingFilter{ProjectContains: "0%"})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(got) != 1 || got[0].ProjectID != "100% uptime" {
		t.Fatalf("expected literal %% match, got %+v", got)
	}
}

func TestErrorMapper(t *testing.T) {
	t.Parallel()

	var mapper ErrorMapper
	cases := []struct {
		msg  string
		want error
	}{
		{"constraint failed: UNIQUE constraint failed: engineers.login (2067)", persistence.ErrDuplicate},
		{"constraint failed: FOREIGN KEY constraint failed (787)", persistence.ErrForeignKeyViolation},
		{"constraint failed: NOT NULL constraint failed: users.user_group (1299)", persistence.ErrConstraintViolation},
	}
	for _, tc := range cases {
		if got := mapper.MapError(errors.New(tc.msg)); !errors.Is(got, tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.msg, tc.want, got)
		}
	}
	if got := mapper.MapError(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestRetryHelper(t *testing.T) {
	t.Parallel()

	helper := NewRetryHelper(RetryConfig{MaxRetries: 2, InitialDelay: 1, MaxDelay: 1, BackoffFactor: 1})

	calls := 0
	err := helper.WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got %v after %d calls", err, calls)
	}

	calls = 0
	err = helper.WithRetry(context.Background(), func() error {
		calls++
		return errors.New("constraint failed: UNIQUE constraint failed: users.login (2067)")
	})
	if !errors.Is(err, persistence.ErrDuplicate) || calls != 1 {
		t.Fatalf("expected a single mapped attempt, got %v after %d calls", err, calls)
	}
}
