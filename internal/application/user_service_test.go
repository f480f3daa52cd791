package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/erm/internal/persistence/memory"
	"github.com/example/erm/internal/testfixtures"
)

func fakeHash(password string) (string, error) {
	return "hashed:" + password, nil
}

func fakeVerify(hashed, password string) error {
	if hashed != "hashed:"+password {
		return ErrPasswordMismatch
	}
	return nil
}

func newUserHarness(t *testing.T) (*UserService, *memory.Storage) {
	t.Helper()
	clock := testfixtures.NewClock(time.Time{})
	store := memory.New(clock.Now)
	svc := NewUserService(store, fakeHash)
	svc.generate = func() (string, error) { return "generated-secret", nil }
	return svc, store
}

func TestUserService_Create(t *testing.T) {
	t.Parallel()

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserHarness(t)

		_, err := svc.Create(context.Background(), CreateUserParams{
			Principal: managerPrincipal,
			Input:     UserInput{Login: "petrov", Name: "Petrov", Group: GroupEngineer},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates input fields", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserHarness(t)

		_, err := svc.Create(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Group: "director", Password: "short"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"login", "name", "group", "password"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("generates a password when none is given", func(t *testing.T) {
		t.Parallel()
		svc, store := newUserHarness(t)

		result, err := svc.Create(context.Background(), CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Login: " petrov ", Name: "Petrov", Group: "Manager"},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if result.GeneratedPassword != "generated-secret" {
			t.Fatalf("expected generated password, got %q", result.GeneratedPassword)
		}
		stored, _ := store.GetUser(context.Background(), "petrov")
		if stored.PasswordHash != "hashed:generated-secret" || stored.Group != "manager" || !stored.Active {
			t.Fatalf("unexpected stored user: %+v", stored)
		}
	})

	t.Run("keeps a supplied password and maps duplicates", func(t *testing.T) {
		t.Parallel()
		svc, _ := newUserHarness(t)
		params := CreateUserParams{
			Principal: adminPrincipal,
			Input:     UserInput{Login: "petrov", Name: "Petrov", Group: GroupEngineer, Password: "longenough"},
		}

		result, err := svc.Create(context.Background(), params)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if result.GeneratedPassword != "" || result.User.PasswordHash != "hashed:longenough" {
			t.Fatalf("unexpected result: %+v", result)
		}
		if _, err := svc.Create(context.Background(), params); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_UpdateAndReset(t *testing.T) {
	t.Parallel()

	svc, store := newUserHarness(t)
	ctx := context.Background()
	if err := store.CreateUser(ctx, testfixtures.NewUser("petrov", "engineer")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	input := UserInput{Name: "Petr Petrov", Group: GroupFocusManager, Phone: "79001112233", Active: false}
	if _, err := svc.Update(ctx, UpdateUserParams{Principal: managerPrincipal, Login: "petrov", Input: input}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Update(ctx, UpdateUserParams{Principal: adminPrincipal, Login: "ghost", Input: input}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := svc.Update(ctx, UpdateUserParams{Principal: adminPrincipal, Login: "petrov", Input: input})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "Petr Petrov" || updated.Group != "focus-manager" || updated.Active || updated.PasswordHash != "hash-petrov" {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	password, err := svc.ResetPassword(ctx, adminPrincipal, "petrov")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	stored, _ := store.GetUser(ctx, "petrov")
	if stored.PasswordHash != "hashed:"+password {
		t.Fatalf("expected reset password to be stored, got %q", stored.PasswordHash)
	}
}

func TestUserService_GetListDelete(t *testing.T) {
	t.Parallel()

	svc, store := newUserHarness(t)
	ctx := context.Background()
	for _, login := range []string{"sidorov", "ivanov"} {
		if err := store.CreateUser(ctx, testfixtures.NewUser(login, "engineer")); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	if _, err := svc.Get(ctx, Principal{Login: "ivanov", Group: GroupEngineer}, "ivanov"); err != nil {
		t.Fatalf("expected users to read themselves, got %v", err)
	}
	if _, err := svc.Get(ctx, Principal{Login: "ivanov", Group: GroupEngineer}, "sidorov"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := svc.List(ctx, managerPrincipal); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	users, err := svc.List(ctx, adminPrincipal)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(users) != 2 || users[0].Login != "ivanov" || users[1].Login != "sidorov" {
		t.Fatalf("expected users ordered by login, got %+v", users)
	}

	if err := svc.Delete(ctx, Principal{Login: "root", Group: GroupSuperAdmin}, "root"); err == nil {
		t.Fatalf("expected self deletion to be rejected")
	}
	if err := svc.Delete(ctx, adminPrincipal, "ivanov"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, adminPrincipal, "ivanov"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
