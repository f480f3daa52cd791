package persistence

import (
	"context"
	"time"
)

// TimeRange selects bookings by the range query predicate, in unix seconds.
type TimeRange struct {
	From int64
	To   int64
}

// BookingFilter narrows booking queries. Zero fields do not filter.
type BookingFilter struct {
	Login           string
	Range           *TimeRange
	ProjectContains string
	IncludeInactive bool
}

// BookingRepository stores booking entries.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (int64, error)
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	FindBookingByProject(ctx context.Context, login, projectID string) (Booking, error)
	ExtendBookings(ctx context.Context, projectPrefix string, end time.Time, sla string) (int64, error)
	DeleteBooking(ctx context.Context, id int64) error
	DeleteBookingsForLogin(ctx context.Context, login string) (int64, error)
}

// EngineerRepository exposes CRUD operations for engineers.
type EngineerRepository interface {
	CreateEngineer(ctx context.Context, engineer Engineer) error
	UpdateEngineer(ctx context.Context, engineer Engineer) error
	GetEngineer(ctx context.Context, login string) (Engineer, error)
	ListEngineers(ctx context.Context) ([]Engineer, error)
	DeleteEngineer(ctx context.Context, login string) error
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, login string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, login string) error
}

// WorkReportRepository stores monthly work reports.
type WorkReportRepository interface {
	ListWorkReport(ctx context.Context, login string, year, month int) ([]WorkReportRow, error)
	ListWorkReportsForMonth(ctx context.Context, year, month int) ([]WorkReportRow, error)
	// SaveWorkReport upserts rows with positive hours and removes the
	// engineer's rows for that month whose hours are zero, atomically.
	SaveWorkReport(ctx context.Context, login string, year, month int, rows []WorkReportRow) error
}

// Store is a complete storage backend.
type Store interface {
	BookingRepository
	EngineerRepository
	UserRepository
	WorkReportRepository
	Migrate(ctx context.Context) error
	Close() error
}
