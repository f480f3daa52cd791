package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/erm/internal/persistence"
)

// UserStore captures the persistence operations needed by the user service.
type UserStore interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, login string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
	DeleteUser(ctx context.Context, login string) error
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// PasswordHasher turns a plain password into a storable hash.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users    UserStore
	hash     PasswordHasher
	generate func() (string, error)
	logger   *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserStore, hash PasswordHasher) *UserService {
	return NewUserServiceWithLogger(users, hash, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a logger.
func NewUserServiceWithLogger(users UserStore, hash PasswordHasher, logger *slog.Logger) *UserService {
	if hash == nil {
		hash = HashPassword
	}
	return &UserService{users: users, hash: hash, generate: GeneratePassword, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

func (s *UserService) ready() error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	return nil
}

// Create validates input and persists a new user for administrators. When
// no password is given one is generated and returned once.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (CreateUserResult, error) {
	if err := s.ready(); err != nil {
		return CreateUserResult{}, err
	}
	if !params.Principal.IsAdmin() {
		return CreateUserResult{}, ErrUnauthorized
	}

	normalized := normalizeUserInput(params.Input)
	logger := s.loggerWith(ctx, "Create", "principal", params.Principal.Login, "login", normalized.Login)
	vErr := validateUserInput(normalized)
	if normalized.Login == "" {
		vErr.add("login", "login is required")
	}
	if vErr.HasErrors() {
		logger.ErrorContext(ctx, "user validation failed", "error", vErr, "error_kind", ErrorKind(vErr))
		return CreateUserResult{}, vErr
	}

	var result CreateUserResult
	password := normalized.Password
	if password == "" {
		generated, err := s.generate()
		if err != nil {
			return CreateUserResult{}, fmt.Errorf("generate password: %w", err)
		}
		password = generated
		result.GeneratedPassword = generated
	}
	hash, err := s.hash(password)
	if err != nil {
		return CreateUserResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := persistence.User{
		Login:        normalized.Login,
		Name:         normalized.Name,
		Group:        string(normalized.Group),
		Phone:        normalized.Phone,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "user creation failed", "error", err, "error_kind", ErrorKind(err))
		return CreateUserResult{}, err
	}

	stored, err := s.users.GetUser(ctx, user.Login)
	if err != nil {
		return CreateUserResult{}, storeError(err)
	}
	result.User = stored
	logger.InfoContext(ctx, "user created", "generated_password", result.GeneratedPassword != "")
	return result, nil
}

// Get returns a user to administrators or to the user themself.
func (s *UserService) Get(ctx context.Context, principal Principal, login string) (persistence.User, error) {
	if err := s.ready(); err != nil {
		return persistence.User{}, err
	}
	if !principal.IsAdmin() && principal.Login != login {
		return persistence.User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, login)
	if err != nil {
		return persistence.User{}, storeError(err)
	}
	return user, nil
}

// Update changes name, group, phone and active flag of a user for administrators.
func (s *UserService) Update(ctx context.Context, params UpdateUserParams) (persistence.User, error) {
	if err := s.ready(); err != nil {
		return persistence.User{}, err
	}
	if !params.Principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "Update", "principal", params.Principal.Login, "login", params.Login)
	existing, err := s.users.GetUser(ctx, params.Login)
	if err != nil {
		return persistence.User{}, storeError(err)
	}

	normalized := normalizeUserInput(params.Input)
	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Group = string(normalized.Group)
	updated.Phone = normalized.Phone
	updated.Active = normalized.Active

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "user update failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}
	logger.InfoContext(ctx, "user updated")
	return s.users.GetUser(ctx, params.Login)
}

// ResetPassword replaces the password of login with a generated one and returns it.
func (s *UserService) ResetPassword(ctx context.Context, principal Principal, login string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if !principal.IsAdmin() {
		return "", ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, login)
	if err != nil {
		return "", storeError(err)
	}
	password, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	if user.PasswordHash, err = s.hash(password); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return "", storeError(err)
	}
	s.loggerWith(ctx, "ResetPassword", "principal", principal.Login, "login", login).InfoContext(ctx, "password reset")
	return password, nil
}

// Delete removes a user when requested by an administrator.
func (s *UserService) Delete(ctx context.Context, principal Principal, login string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	if principal.Login == login {
		return fieldError("login", "users cannot delete themselves")
	}
	if err := s.users.DeleteUser(ctx, login); err != nil {
		return storeError(err)
	}
	s.loggerWith(ctx, "Delete", "principal", principal.Login, "login", login).InfoContext(ctx, "user deleted")
	return nil
}

// List returns all users ordered by login for administrators.
func (s *UserService) List(ctx context.Context, principal Principal) ([]persistence.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return users, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Login:    strings.TrimSpace(input.Login),
		Name:     strings.TrimSpace(input.Name),
		Group:    Group(strings.ToLower(strings.TrimSpace(string(input.Group)))),
		Phone:    strings.TrimSpace(input.Phone),
		Password: input.Password,
		Active:   input.Active,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if !input.Group.Valid() {
		vErr.add("group", "group is invalid")
	}
	if input.Password != "" && len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}
	return vErr
}
