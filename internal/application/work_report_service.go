package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/report"
)

// WorkReportStore captures the persistence operations needed by the work report service.
type WorkReportStore interface {
	ListWorkReport(ctx context.Context, login string, year, month int) ([]persistence.WorkReportRow, error)
	ListWorkReportsForMonth(ctx context.Context, year, month int) ([]persistence.WorkReportRow, error)
	SaveWorkReport(ctx context.Context, login string, year, month int, rows []persistence.WorkReportRow) error
}

// BookingLister lists bookings for the report month.
type BookingLister interface {
	ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error)
}

// EngineerLister lists and resolves engineers.
type EngineerLister interface {
	GetEngineer(ctx context.Context, login string) (persistence.Engineer, error)
	ListEngineers(ctx context.Context) ([]persistence.Engineer, error)
}

// WorkReportService drafts, saves and consolidates monthly work reports.
type WorkReportService struct {
	reports   WorkReportStore
	bookings  BookingLister
	engineers EngineerLister
	policy    report.Policy
	logger    *slog.Logger
}

// NewWorkReportService wires dependencies for the work report service.
func NewWorkReportService(reports WorkReportStore, bookings BookingLister, engineers EngineerLister, policy report.Policy) *WorkReportService {
	return NewWorkReportServiceWithLogger(reports, bookings, engineers, policy, nil)
}

// NewWorkReportServiceWithLogger wires dependencies for the work report service with a logger.
func NewWorkReportServiceWithLogger(reports WorkReportStore, bookings BookingLister, engineers EngineerLister, policy report.Policy, logger *slog.Logger) *WorkReportService {
	return &WorkReportService{
		reports:   reports,
		bookings:  bookings,
		engineers: engineers,
		policy:    policy,
		logger:    defaultLogger(logger),
	}
}

func (s *WorkReportService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WorkReportService", operation, attrs...)
}

func (s *WorkReportService) ready() error {
	if s == nil {
		return fmt.Errorf("WorkReportService is nil")
	}
	if s.reports == nil || s.bookings == nil || s.engineers == nil {
		return fmt.Errorf("work report repositories not configured")
	}
	return nil
}

func validateMonth(year, month int) *ValidationError {
	vErr := &ValidationError{}
	if !report.ValidMonth(month) {
		vErr.add("month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		vErr.add("year", "year is out of range")
	}
	return vErr
}

// Draft merges the saved report of login with the lines its bookings for
// the month give.
func (s *WorkReportService) Draft(ctx context.Context, principal Principal, login string, year, month int) (draft Draft, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "Draft", "principal", principal.Login, "login", login, "year", year, "month", month)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "draft failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.CanActFor(login) {
		err = ErrUnauthorized
		return
	}
	if vErr := validateMonth(year, month); vErr.HasErrors() {
		err = vErr
		return
	}
	if _, err = s.engineers.GetEngineer(ctx, login); err != nil {
		err = storeError(err)
		return
	}

	var rows []persistence.WorkReportRow
	rows, err = s.reports.ListWorkReport(ctx, login, year, month)
	if err != nil {
		err = storeError(err)
		return
	}

	start, end := report.MonthBounds(year, month)
	var tasks []persistence.Booking
	tasks, err = s.bookings.ListBookings(ctx, persistence.BookingFilter{
		Login: login,
		Range: &persistence.TimeRange{From: start.Unix(), To: end.Unix()},
	})
	if err != nil {
		err = storeError(err)
		return
	}

	saved := report.FromRows(rows)
	lines := report.Merge(saved, report.FromBookings(tasks))
	draft = Draft{
		Login:       login,
		Year:        year,
		Month:       month,
		Lines:       lines,
		HasNewTasks: report.HasNewTasks(lines),
		HourLimit:   s.policy.HourLimit(month),
		Premade:     s.policy.PremadeEntries(saved),
		Tasks:       tasks,
	}
	logger.DebugContext(ctx, "draft built", "lines", len(lines), "has_new_tasks", draft.HasNewTasks)
	return
}

// Save stores the report of login for the month. Lines with positive hours
// are upserted and lines with zero hours are removed.
func (s *WorkReportService) Save(ctx context.Context, principal Principal, login string, year, month int, lines []report.Line) error {
	if err := s.ready(); err != nil {
		return err
	}
	logger := s.loggerWith(ctx, "Save", "principal", principal.Login, "login", login, "year", year, "month", month)

	if !principal.CanActFor(login) {
		logger.ErrorContext(ctx, "save rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	lines = append([]report.Line(nil), lines...)
	vErr := validateMonth(year, month)
	for i, line := range lines {
		lines[i].Company = strings.TrimSpace(line.Company)
		lines[i].SLA = strings.TrimSpace(line.SLA)
		if lines[i].Company == "" {
			vErr.add(fmt.Sprintf("lines[%d].company", i), "company is required")
		}
		if line.UtilHours < 0 {
			vErr.add(fmt.Sprintf("lines[%d].util_hours", i), "hours must not be negative")
		}
	}
	if limit := s.policy.HourLimit(month); limit > 0 {
		total := 0
		for _, line := range lines {
			total += line.UtilHours
		}
		if total > limit {
			vErr.add("util_hours", fmt.Sprintf("total hours exceed the limit of %d", limit))
		}
	}
	if vErr.HasErrors() {
		logger.ErrorContext(ctx, "work report validation failed", "error", vErr, "error_kind", ErrorKind(vErr))
		return vErr
	}

	if err := s.reports.SaveWorkReport(ctx, login, year, month, report.ToRows(lines)); err != nil {
		err = storeError(err)
		logger.ErrorContext(ctx, "work report save failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "work report saved", "lines", len(lines))
	return nil
}

// Consolidated builds the month report across all engineers for managers.
func (s *WorkReportService) Consolidated(ctx context.Context, principal Principal, year, month int) (report.Consolidated, error) {
	if err := s.ready(); err != nil {
		return report.Consolidated{}, err
	}
	if !principal.CanReadConsolidated() {
		return report.Consolidated{}, ErrUnauthorized
	}
	if vErr := validateMonth(year, month); vErr.HasErrors() {
		return report.Consolidated{}, vErr
	}

	rows, err := s.reports.ListWorkReportsForMonth(ctx, year, month)
	if err != nil {
		return report.Consolidated{}, storeError(err)
	}
	engineers, err := s.engineers.ListEngineers(ctx)
	if err != nil {
		return report.Consolidated{}, storeError(err)
	}
	return report.Consolidate(rows, engineers), nil
}
