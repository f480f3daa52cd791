package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/erm/internal/persistence"
)

// CredentialStore exposes user lookup and update operations required by the auth service.
type CredentialStore interface {
	GetUser(ctx context.Context, login string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService checks credentials and resolves signed in users to principals.
// Session transport lives with the HTTP layer.
type AuthService struct {
	credentials    CredentialStore
	verifyPassword PasswordVerifier
	hash           PasswordHasher
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, verify PasswordVerifier, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, verify, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, verify PasswordVerifier, now func() time.Time, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:    credentials,
		verifyPassword: verify,
		hash:           HashPassword,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return fmt.Errorf("credential store not configured")
	}
	return nil
}

// Login validates credentials and stamps the last sign in time. Unknown
// logins, inactive accounts and wrong passwords all yield ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, login, password string) (principal Principal, err error) {
	if err = s.ready(); err != nil {
		return
	}

	login = strings.TrimSpace(login)
	logger := s.loggerWith(ctx, "Login", "login", login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "authentication succeeded", "group", principal.Group)
	}()

	if login == "" || password == "" {
		err = ErrUnauthorized
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUser(ctx, login)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if !user.Active {
		err = ErrUnauthorized
		return
	}
	if verr := s.verifyPassword(user.PasswordHash, password); verr != nil {
		err = ErrUnauthorized
		return
	}

	now := s.now().UTC()
	user.LastLoggedIn = &now
	if uerr := s.credentials.UpdateUser(ctx, user); uerr != nil {
		logger.WarnContext(ctx, "failed to record sign in time", "error", uerr)
	}

	principal = Principal{Login: user.Login, Group: Group(user.Group)}
	return
}

// Resolve returns the principal of a signed in login. It fails with
// ErrUnauthorized when the user was removed or deactivated since.
func (s *AuthService) Resolve(ctx context.Context, login string) (Principal, error) {
	if err := s.ready(); err != nil {
		return Principal{}, err
	}
	user, err := s.credentials.GetUser(ctx, login)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if !user.Active {
		return Principal{}, ErrUnauthorized
	}
	return Principal{Login: user.Login, Group: Group(user.Group)}, nil
}

// ChangePassword replaces the password of the principal after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, principal Principal, current, next string) error {
	if err := s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "ChangePassword", "login", principal.Login)

	if len(next) < 8 {
		return fieldError("password", "password must be at least 8 characters")
	}
	user, err := s.credentials.GetUser(ctx, principal.Login)
	if err != nil {
		return storeError(err)
	}
	if err := s.verifyPassword(user.PasswordHash, current); err != nil {
		logger.ErrorContext(ctx, "current password rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}
	if user.PasswordHash, err = s.hash(next); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.credentials.UpdateUser(ctx, user); err != nil {
		return storeError(err)
	}
	logger.InfoContext(ctx, "password changed")
	return nil
}
