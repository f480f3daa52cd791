package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/report"
)

// EngineerStore captures the persistence operations needed by the engineer service.
type EngineerStore interface {
	CreateEngineer(ctx context.Context, engineer persistence.Engineer) error
	UpdateEngineer(ctx context.Context, engineer persistence.Engineer) error
	GetEngineer(ctx context.Context, login string) (persistence.Engineer, error)
	ListEngineers(ctx context.Context) ([]persistence.Engineer, error)
	DeleteEngineer(ctx context.Context, login string) error
}

// EngineerService manages the engineer directory.
type EngineerService struct {
	engineers EngineerStore
	logger    *slog.Logger
}

// NewEngineerService wires dependencies for the engineer service.
func NewEngineerService(engineers EngineerStore) *EngineerService {
	return NewEngineerServiceWithLogger(engineers, nil)
}

// NewEngineerServiceWithLogger wires dependencies for the engineer service with a logger.
func NewEngineerServiceWithLogger(engineers EngineerStore, logger *slog.Logger) *EngineerService {
	return &EngineerService{engineers: engineers, logger: defaultLogger(logger)}
}

func (s *EngineerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EngineerService", operation, attrs...)
}

func (s *EngineerService) ready() error {
	if s == nil {
		return fmt.Errorf("EngineerService is nil")
	}
	if s.engineers == nil {
		return fmt.Errorf("engineer repository not configured")
	}
	return nil
}

// Create validates input and stores a new engineer for administrators.
func (s *EngineerService) Create(ctx context.Context, principal Principal, input EngineerInput) (persistence.Engineer, error) {
	if err := s.ready(); err != nil {
		return persistence.Engineer{}, err
	}
	if !principal.IsAdmin() {
		return persistence.Engineer{}, ErrUnauthorized
	}

	normalized := normalizeEngineerInput(input)
	logger := s.loggerWith(ctx, "Create", "principal", principal.Login, "login", normalized.Login)
	if vErr := validateEngineerInput(normalized); vErr.HasErrors() {
		logger.ErrorContext(ctx, "engineer validation failed", "error", vErr, "error_kind", ErrorKind(vErr))
		return persistence.Engineer{}, vErr
	}

	engineer := toEngineer(normalized)
	if err := s.engineers.CreateEngineer(ctx, engineer); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "engineer creation failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Engineer{}, err
	}
	logger.InfoContext(ctx, "engineer created")
	return s.Get(ctx, engineer.Login)
}

// Update replaces the profile of an existing engineer for administrators.
func (s *EngineerService) Update(ctx context.Context, principal Principal, login string, input EngineerInput) (persistence.Engineer, error) {
	if err := s.ready(); err != nil {
		return persistence.Engineer{}, err
	}
	if !principal.IsAdmin() {
		return persistence.Engineer{}, ErrUnauthorized
	}

	input.Login = login
	normalized := normalizeEngineerInput(input)
	logger := s.loggerWith(ctx, "Update", "principal", principal.Login, "login", normalized.Login)
	if vErr := validateEngineerInput(normalized); vErr.HasErrors() {
		return persistence.Engineer{}, vErr
	}

	if err := s.engineers.UpdateEngineer(ctx, toEngineer(normalized)); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "engineer update failed", "error", err, "error_kind", ErrorKind(err))
		return persistence.Engineer{}, err
	}
	logger.InfoContext(ctx, "engineer updated")
	return s.Get(ctx, normalized.Login)
}

// Get returns one engineer.
func (s *EngineerService) Get(ctx context.Context, login string) (persistence.Engineer, error) {
	if err := s.ready(); err != nil {
		return persistence.Engineer{}, err
	}
	engineer, err := s.engineers.GetEngineer(ctx, strings.TrimSpace(login))
	if err != nil {
		return persistence.Engineer{}, storeError(err)
	}
	return engineer, nil
}

// List returns engineers sorted by surname then login.
func (s *EngineerService) List(ctx context.Context, onlyActive bool) ([]persistence.Engineer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	all, err := s.engineers.ListEngineers(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	out := make([]persistence.Engineer, 0, len(all))
	for _, e := range all {
		if onlyActive && !e.Active {
			continue
		}
		out = append(out, e)
	}
	sortEngineers(out)
	return out, nil
}

// Delete removes an engineer with their bookings and reports for administrators.
func (s *EngineerService) Delete(ctx context.Context, principal Principal, login string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	logger := s.loggerWith(ctx, "Delete", "principal", principal.Login, "login", login)
	if err := s.engineers.DeleteEngineer(ctx, login); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "engineer delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "engineer deleted")
	return nil
}

// Search returns active engineers matching any word of query. A word
// matches when it is a case-insensitive substring of the login, full name,
// position, org unit, a skill or a tag. An empty query matches everyone.
func (s *EngineerService) Search(ctx context.Context, query string) ([]persistence.Engineer, error) {
	engineers, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return engineers, nil
	}

	out := make([]persistence.Engineer, 0)
	for _, e := range engineers {
		haystack := searchText(e)
		for _, word := range words {
			if strings.Contains(haystack, word) {
				out = append(out, e)
				break
			}
		}
	}
	s.loggerWith(ctx, "Search", "query", query).DebugContext(ctx, "engineers searched", "result_count", len(out))
	return out, nil
}

func searchText(e persistence.Engineer) string {
	fields := []string{e.Login, report.FullName(e), e.Position, e.OrgUnit}
	fields = append(fields, e.Skills...)
	fields = append(fields, e.Tags...)
	return strings.ToLower(strings.Join(fields, "\x00"))
}

func sortEngineers(list []persistence.Engineer) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Surname != list[j].Surname {
			return list[i].Surname < list[j].Surname
		}
		return list[i].Login < list[j].Login
	})
}

func normalizeEngineerInput(input EngineerInput) EngineerInput {
	out := input
	out.Login = strings.TrimSpace(input.Login)
	out.Name = strings.TrimSpace(input.Name)
	out.Surname = strings.TrimSpace(input.Surname)
	out.Patronymic = strings.TrimSpace(input.Patronymic)
	out.Position = strings.TrimSpace(input.Position)
	out.OrgUnit = strings.TrimSpace(input.OrgUnit)
	out.Phone = strings.TrimSpace(input.Phone)
	out.Email = strings.ToLower(strings.TrimSpace(input.Email))
	out.Skills = normalizeList(input.Skills)
	out.Tags = normalizeList(input.Tags)
	out.JiraID = strings.TrimSpace(input.JiraID)
	out.RemedyID = strings.TrimSpace(input.RemedyID)
	out.SharepointID = strings.TrimSpace(input.SharepointID)
	return out
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func validateEngineerInput(input EngineerInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Login == "" {
		vErr.add("login", "login is required")
	} else if strings.ContainsAny(input.Login, " /") {
		vErr.add("login", "login must not contain spaces or slashes")
	}
	if input.Surname == "" {
		vErr.add("surname", "surname is required")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}
	return vErr
}

func toEngineer(input EngineerInput) persistence.Engineer {
	return persistence.Engineer{
		Login:        input.Login,
		Name:         input.Name,
		Surname:      input.Surname,
		Patronymic:   input.Patronymic,
		Position:     input.Position,
		OrgUnit:      input.OrgUnit,
		Phone:        input.Phone,
		Email:        input.Email,
		Skills:       input.Skills,
		Tags:         input.Tags,
		JiraID:       input.JiraID,
		RemedyID:     input.RemedyID,
		SharepointID: input.SharepointID,
		Utilized:     input.Utilized,
		Active:       input.Active,
	}
}
