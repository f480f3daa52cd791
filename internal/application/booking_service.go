package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/recurrence"
	"github.com/example/erm/internal/workload"
)

// BookingStore captures the persistence operations needed by the booking service.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking persistence.Booking) (int64, error)
	UpdateBooking(ctx context.Context, booking persistence.Booking) error
	GetBooking(ctx context.Context, id int64) (persistence.Booking, error)
	ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error)
	FindBookingByProject(ctx context.Context, login, projectID string) (persistence.Booking, error)
	ExtendBookings(ctx context.Context, projectPrefix string, end time.Time, sla string) (int64, error)
	DeleteBooking(ctx context.Context, id int64) error
	DeleteBookingsForLogin(ctx context.Context, login string) (int64, error)
}

// EngineerLookup resolves engineers by login.
type EngineerLookup interface {
	GetEngineer(ctx context.Context, login string) (persistence.Engineer, error)
}

// Notifier delivers a short text message to a phone number.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// syncExtension is how far past now a synced task is pushed while it stays open.
const syncExtension = time.Hour

// BookingService expands, stores and measures engineer bookings.
type BookingService struct {
	bookings    BookingStore
	engineers   EngineerLookup
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for the booking service.
func NewBookingService(bookings BookingStore, engineers EngineerLookup, notifier Notifier, idGenerator func() string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, engineers, notifier, idGenerator, now, nil)
}

// NewBookingServiceWithLogger wires dependencies for the booking service with a logger.
func NewBookingServiceWithLogger(bookings BookingStore, engineers EngineerLookup, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		engineers:   engineers,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking store not configured")
	}
	return nil
}

// Create expands a submission and stores every resulting entry under one
// series ID. Entries are stored one at a time and a failed entry does not
// stop the rest; each outcome is reported in the result.
func (s *BookingService) Create(ctx context.Context, actor Principal, login string, input BookingInput) (result CreateResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	login = strings.TrimSpace(login)
	logger := s.loggerWith(ctx, "Create", "actor", actor.Login, "login", login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "booking failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"series_id", result.SeriesID,
			"entries", len(result.Entries),
			"failed", result.Failed(),
		).InfoContext(ctx, "booking created")
	}()

	if !actor.CanActFor(login) {
		err = ErrUnauthorized
		return
	}

	vErr := validateBookingInput(login, input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var engineer persistence.Engineer
	if s.engineers != nil {
		engineer, err = s.engineers.GetEngineer(ctx, login)
		if err != nil {
			err = storeError(err)
			return
		}
	}

	var entries []recurrence.Entry
	entries, err = recurrence.Expand(recurrence.Request{
		Type:    input.Type,
		Percent: input.Percent,
		Hours:   input.Hours,
		Repeat:  input.Repeat,
		Start:   input.Start,
		End:     input.End,
		Company: input.Company,
		SLA:     input.SLA,
	})
	if err != nil {
		err = expansionError(err)
		return
	}
	if err = checkEntrySpans(entries); err != nil {
		return
	}

	result = CreateResult{SeriesID: s.idGenerator(), Entries: make([]EntryResult, 0, len(entries))}
	for _, entry := range entries {
		booking := persistence.Booking{
			SeriesID:      result.SeriesID,
			ResourceLogin: login,
			Type:          string(entry.Type),
			Percent:       entry.Percent,
			Hours:         entry.Hours,
			Active:        true,
			Repeat:        string(entry.Repeat),
			Start:         entry.Start,
			End:           entry.End,
			Company:       entry.Company,
			SLA:           entry.SLA,
			ProjectID:     strings.TrimSpace(input.ProjectID),
			CreatedBy:     actor.Login,
		}
		id, storeErr := s.bookings.CreateBooking(ctx, booking)
		if storeErr != nil {
			logger.WarnContext(ctx, "failed to store booking entry", "start", entry.StartString(), "error", storeErr)
		}
		result.Entries = append(result.Entries, EntryResult{Start: entry.Start, End: entry.End, ID: id, Err: storeErr})
	}

	if actor.Login != login && len(result.Entries) > result.Failed() {
		s.notify(ctx, logger, engineer, input, result.Entries[0].Start)
	}
	return
}

func (s *BookingService) notify(ctx context.Context, logger *slog.Logger, engineer persistence.Engineer, input BookingInput, start time.Time) {
	if s.notifier == nil || engineer.Phone == "" {
		return
	}
	text := fmt.Sprintf("New task %s %s from %s", input.Company, input.SLA, start.Format(recurrence.MinuteLayout))
	if project := strings.TrimSpace(input.ProjectID); project != "" {
		text += ": " + project
	}
	if err := s.notifier.Send(ctx, engineer.Phone, text); err != nil {
		logger.WarnContext(ctx, "failed to notify engineer", "error", err)
	}
}

func validateBookingInput(login string, input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if login == "" {
		vErr.add("resource_login", "login is required")
	}
	if strings.TrimSpace(input.Company) == "" {
		vErr.add("company", "company is required")
	}
	return vErr
}

// expansionError turns an expander error into a field validation error.
func expansionError(err error) error {
	var dateErr *recurrence.DateError
	switch {
	case errors.As(err, &dateErr):
		return fieldError(dateErr.Field, "must match "+dateErr.Layout)
	case errors.Is(err, recurrence.ErrInvalidPercent):
		return fieldError("percent", "must be an integer between 1 and 100")
	case errors.Is(err, recurrence.ErrInvalidHours):
		return fieldError("hours", "must be a non-negative integer")
	case errors.Is(err, recurrence.ErrInvalidRepeat):
		return fieldError("repeat", "must be one of no, daily, weekly, monthly")
	case errors.Is(err, recurrence.ErrInvalidType):
		return fieldError("booking_type", "must be hours or percent")
	}
	return err
}

// checkEntrySpans rejects expansions whose entries do not end after they
// start. The daily span keeps whole hours only, so small percents and end
// clock times before the start time produce such entries. An empty
// expansion passes.
func checkEntrySpans(entries []recurrence.Entry) error {
	for _, entry := range entries {
		if entry.Start.Before(entry.End) {
			continue
		}
		if entry.Type == recurrence.TypePercent {
			return fieldError("percent", "must cover at least one whole hour of the working day")
		}
		return fieldError("end_date", "must be later than the start time of day")
	}
	return nil
}

// List returns the active bookings of login selected by the range query.
// Bounds are unix seconds; see workload.ResolveRange for zero values.
func (s *BookingService) List(ctx context.Context, login string, start, end int64) ([]persistence.Booking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	from, to := workload.ResolveRange(start, end, s.now())
	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		Login: login,
		Range: &persistence.TimeRange{From: from, To: to},
	})
	if err != nil {
		s.loggerWith(ctx, "List", "login", login).ErrorContext(ctx, "failed to list bookings", "error", err)
		return nil, storeError(err)
	}
	return bookings, nil
}

// ListByProject returns active bookings whose project ID contains project.
func (s *BookingService) ListByProject(ctx context.Context, project string) ([]persistence.Booking, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fieldError("project", "project is required")
	}
	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{ProjectContains: project})
	if err != nil {
		return nil, storeError(err)
	}
	return bookings, nil
}

// Get returns one booking.
func (s *BookingService) Get(ctx context.Context, id int64) (persistence.Booking, error) {
	if err := s.ready(); err != nil {
		return persistence.Booking{}, err
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return persistence.Booking{}, storeError(err)
	}
	return booking, nil
}

// Delete removes one booking the actor may act for.
func (s *BookingService) Delete(ctx context.Context, actor Principal, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "Delete", "actor", actor.Login, "booking_id", id)

	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "booking lookup failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if !actor.CanActFor(booking.ResourceLogin) {
		logger.ErrorContext(ctx, "booking delete rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "booking delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "booking deleted")
	return nil
}

// DeleteEngineerBookings removes every booking of login and returns the count.
func (s *BookingService) DeleteEngineerBookings(ctx context.Context, actor Principal, login string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	logger := s.loggerWith(ctx, "DeleteEngineerBookings", "actor", actor.Login, "login", login)
	if !actor.CanActFor(login) {
		logger.ErrorContext(ctx, "bookings delete rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return 0, ErrUnauthorized
	}
	n, err := s.bookings.DeleteBookingsForLogin(ctx, login)
	if err != nil {
		logger.ErrorContext(ctx, "bookings delete failed", "error", err)
		return 0, storeError(err)
	}
	logger.InfoContext(ctx, "bookings deleted", "count", n)
	return n, nil
}

// ComputeWorkload returns the percent of the next week login is booked for.
func (s *BookingService) ComputeWorkload(ctx context.Context, login string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	now := s.now()
	from, to := workload.ResolveRange(0, 0, now)
	bookings, err := s.bookings.ListBookings(ctx, persistence.BookingFilter{
		Login: login,
		Range: &persistence.TimeRange{From: from, To: to},
	})
	if err != nil {
		s.loggerWith(ctx, "ComputeWorkload", "login", login).ErrorContext(ctx, "failed to list bookings", "error", err)
		return 0, storeError(err)
	}
	intervals := make([]workload.Interval, 0, len(bookings))
	for _, b := range bookings {
		intervals = append(intervals, workload.Interval{Start: b.Start, End: b.End})
	}
	return workload.Compute(intervals, workload.WeekFrom(now)), nil
}

// RankByWorkload returns the engineers ordered from least to most busy.
func (s *BookingService) RankByWorkload(ctx context.Context, engineers []persistence.Engineer) ([]EngineerLoad, error) {
	byLogin := make(map[string]persistence.Engineer, len(engineers))
	loads := make([]workload.Load, 0, len(engineers))
	for _, e := range engineers {
		percent, err := s.ComputeWorkload(ctx, e.Login)
		if err != nil {
			return nil, err
		}
		byLogin[e.Login] = e
		loads = append(loads, workload.Load{Login: e.Login, Workload: percent})
	}

	ranked := workload.Rank(loads)
	out := make([]EngineerLoad, 0, len(ranked))
	for _, load := range ranked {
		out = append(out, EngineerLoad{Engineer: byLogin[load.Login], Workload: load.Workload})
	}
	return out, nil
}

// SyncUpsert records a task fetched from an external tracker. A task whose
// project ID the engineer has no booking for is inserted; otherwise the
// existing booking is pushed to end an hour from now with the task's sla.
func (s *BookingService) SyncUpsert(ctx context.Context, task SyncedBooking) (outcome SyncOutcome, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "SyncUpsert", "login", task.Login, "project_id", task.ProjectID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "sync upsert failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "sync upsert done", "outcome", outcome)
	}()

	if task.Login == "" || task.ProjectID == "" {
		err = fieldError("project_id", "login and project id are required")
		return
	}

	now := s.now()
	existing, findErr := s.bookings.FindBookingByProject(ctx, task.Login, task.ProjectID)
	switch {
	case findErr == nil:
		existing.End = now.Add(syncExtension).Truncate(time.Minute)
		existing.SLA = task.SLA
		if err = s.bookings.UpdateBooking(ctx, existing); err != nil {
			err = storeError(err)
			return
		}
		outcome = SyncUpdated
		return
	case !errors.Is(findErr, persistence.ErrNotFound):
		err = findErr
		return
	}

	start, end := task.Start, task.End
	if start.IsZero() {
		start = now
	}
	if !end.After(start) {
		end = start.Add(syncExtension)
	}
	_, err = s.bookings.CreateBooking(ctx, persistence.Booking{
		ResourceLogin: task.Login,
		Type:          string(recurrence.TypeHours),
		Active:        true,
		Repeat:        string(recurrence.RepeatNo),
		Start:         start.Truncate(time.Minute),
		End:           end.Truncate(time.Minute),
		Company:       task.Company,
		SLA:           task.SLA,
		ProjectID:     task.ProjectID,
		CreatedBy:     SystemPrincipal.Login,
	})
	if err != nil {
		err = storeError(err)
		return
	}
	outcome = SyncInserted
	return
}

// ExtendByProjectPrefix sets end to an hour from now and replaces the sla
// of every booking whose project ID starts with prefix.
func (s *BookingService) ExtendByProjectPrefix(ctx context.Context, actor Principal, prefix, sla string) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	logger := s.loggerWith(ctx, "ExtendByProjectPrefix", "actor", actor.Login, "prefix", prefix)
	if !actor.CanActFor("") {
		logger.ErrorContext(ctx, "extension rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return 0, ErrUnauthorized
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return 0, fieldError("project", "project is required")
	}

	n, err := s.bookings.ExtendBookings(ctx, prefix, s.now().Add(syncExtension).Truncate(time.Minute), sla)
	if err != nil {
		logger.ErrorContext(ctx, "extension failed", "error", err)
		return 0, storeError(err)
	}
	if n == 0 {
		logger.InfoContext(ctx, "no bookings matched")
		return 0, ErrNotFound
	}
	logger.InfoContext(ctx, "bookings extended", "count", n)
	return n, nil
}
