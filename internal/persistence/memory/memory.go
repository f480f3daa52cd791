// Package memory provides a process local persistence.Store. It backs the
// HTTP and CLI tests and the "memory" database driver.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/workload"
)

type reportKey struct {
	login, company, projectIDs string
	month, year                int
}

// Storage keeps every record in maps guarded by a single lock.
type Storage struct {
	mu        sync.RWMutex
	now       func() time.Time
	nextID    int64
	bookings  map[int64]persistence.Booking
	engineers map[string]persistence.Engineer
	users     map[string]persistence.User
	reports   map[reportKey]persistence.WorkReportRow
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage. A nil now uses time.Now.
func New(now func() time.Time) *Storage {
	if now == nil {
		now = time.Now
	}
	return &Storage{
		now:       now,
		bookings:  make(map[int64]persistence.Booking),
		engineers: make(map[string]persistence.Engineer),
		users:     make(map[string]persistence.User),
		reports:   make(map[reportKey]persistence.WorkReportRow),
	}
}

// Migrate is a no-op.
func (s *Storage) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (s *Storage) Close() error { return nil }

// --- BookingRepository implementation ---

// CreateBooking stores a booking and returns its new ID.
func (s *Storage) CreateBooking(_ context.Context, booking persistence.Booking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !booking.Start.Before(booking.End) {
		return 0, persistence.ErrConstraintViolation
	}
	if _, ok := s.engineers[booking.ResourceLogin]; !ok {
		return 0, persistence.ErrForeignKeyViolation
	}

	s.nextID++
	now := s.now().UTC()
	booking.ID = s.nextID
	booking.CreatedAt = now
	booking.UpdatedAt = now
	s.bookings[booking.ID] = booking
	return booking.ID, nil
}

// UpdateBooking replaces a stored booking.
func (s *Storage) UpdateBooking(_ context.Context, booking persistence.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[booking.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	booking.CreatedAt = existing.CreatedAt
	booking.UpdatedAt = s.now().UTC()
	s.bookings[booking.ID] = booking
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(_ context.Context, id int64) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

// ListBookings returns matching bookings ordered by start.
func (s *Storage) ListBookings(_ context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Booking, 0)
	for _, b := range s.bookings {
		if filter.Login != "" && b.ResourceLogin != filter.Login {
			continue
		}
		if !filter.IncludeInactive && !b.Active {
			continue
		}
		if filter.ProjectContains != "" && !strings.Contains(b.ProjectID, filter.ProjectContains) {
			continue
		}
		if r := filter.Range; r != nil && !workload.MatchesRange(b.Start.Unix(), b.End.Unix(), r.From, r.To) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

// FindBookingByProject returns the latest booking of login with exactly projectID.
func (s *Storage) FindBookingByProject(_ context.Context, login, projectID string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found persistence.Booking
		ok    bool
	)
	for _, b := range s.bookings {
		if b.ResourceLogin == login && b.ProjectID == projectID && (!ok || b.ID > found.ID) {
			found, ok = b, true
		}
	}
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return found, nil
}

// ExtendBookings moves the end of every booking whose project starts with prefix.
func (s *Storage) ExtendBookings(_ context.Context, projectPrefix string, end time.Time, sla string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := s.now().UTC()
	for id, b := range s.bookings {
		if !strings.HasPrefix(b.ProjectID, projectPrefix) {
			continue
		}
		b.End = end
		b.SLA = sla
		b.UpdatedAt = now
		s.bookings[id] = b
		n++
	}
	return n, nil
}

// DeleteBooking removes a booking by ID.
func (s *Storage) DeleteBooking(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.bookings, id)
	return nil
}

// DeleteBookingsForLogin removes every booking of an engineer.
func (s *Storage) DeleteBookingsForLogin(_ context.Context, login string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, b := range s.bookings {
		if b.ResourceLogin == login {
			delete(s.bookings, id)
			n++
		}
	}
	return n, nil
}

// --- EngineerRepository implementation ---

// CreateEngineer stores a new engineer.
func (s *Storage) CreateEngineer(_ context.Context, engineer persistence.Engineer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engineers[engineer.Login]; ok {
		return persistence.ErrDuplicate
	}
	now := s.now().UTC()
	engineer.CreatedAt = now
	engineer.UpdatedAt = now
	s.engineers[engineer.Login] = cloneEngineer(engineer)
	return nil
}

// UpdateEngineer replaces a stored engineer.
func (s *Storage) UpdateEngineer(_ context.Context, engineer persistence.Engineer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.engineers[engineer.Login]
	if !ok {
		return persistence.ErrNotFound
	}
	engineer.CreatedAt = existing.CreatedAt
	engineer.UpdatedAt = s.now().UTC()
	s.engineers[engineer.Login] = cloneEngineer(engineer)
	return nil
}

// GetEngineer retrieves an engineer by login.
func (s *Storage) GetEngineer(_ context.Context, login string) (persistence.Engineer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	engineer, ok := s.engineers[login]
	if !ok {
		return persistence.Engineer{}, persistence.ErrNotFound
	}
	return cloneEngineer(engineer), nil
}

// ListEngineers returns all engineers ordered by login.
func (s *Storage) ListEngineers(_ context.Context) ([]persistence.Engineer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Engineer, 0, len(s.engineers))
	for _, e := range s.engineers {
		out = append(out, cloneEngineer(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

// DeleteEngineer removes an engineer together with its bookings.
func (s *Storage) DeleteEngineer(_ context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engineers[login]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.engineers, login)
	for id, b := range s.bookings {
		if b.ResourceLogin == login {
			delete(s.bookings, id)
		}
	}
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Login]; ok {
		return persistence.ErrDuplicate
	}
	now := s.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.Login] = cloneUser(user)
	return nil
}

// UpdateUser replaces a stored user.
func (s *Storage) UpdateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.Login]
	if !ok {
		return persistence.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.now().UTC()
	s.users[user.Login] = cloneUser(user)
	return nil
}

// GetUser retrieves a user by login.
func (s *Storage) GetUser(_ context.Context, login string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[login]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

// ListUsers returns all users ordered by login.
func (s *Storage) ListUsers(_ context.Context) ([]persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

// DeleteUser removes a user by login.
func (s *Storage) DeleteUser(_ context.Context, login string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[login]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, login)
	return nil
}

// --- WorkReportRepository implementation ---

// ListWorkReport returns the rows one engineer reported for a month.
func (s *Storage) ListWorkReport(_ context.Context, login string, year, month int) ([]persistence.WorkReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.WorkReportRow, 0)
	for key, row := range s.reports {
		if key.login == login && key.year == year && key.month == month {
			out = append(out, row)
		}
	}
	sortReportRows(out)
	return out, nil
}

// ListWorkReportsForMonth returns every row reported for a month.
func (s *Storage) ListWorkReportsForMonth(_ context.Context, year, month int) ([]persistence.WorkReportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.WorkReportRow, 0)
	for key, row := range s.reports {
		if key.year == year && key.month == month {
			out = append(out, row)
		}
	}
	sortReportRows(out)
	return out, nil
}

// SaveWorkReport upserts positive rows and removes rows reported as zero.
func (s *Storage) SaveWorkReport(_ context.Context, login string, year, month int, rows []persistence.WorkReportRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.engineers[login]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	now := s.now().UTC()
	for _, row := range rows {
		key := reportKey{login: login, company: row.Company, projectIDs: row.ProjectIDs, month: month, year: year}
		if row.UtilHours <= 0 {
			delete(s.reports, key)
			continue
		}
		row.ResourceLogin = login
		row.Month = month
		row.Year = year
		row.UpdatedAt = now
		s.reports[key] = row
	}
	return nil
}

func sortBookings(bookings []persistence.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})
}

func sortReportRows(rows []persistence.WorkReportRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ResourceLogin != b.ResourceLogin {
			return a.ResourceLogin < b.ResourceLogin
		}
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		return a.ProjectIDs < b.ProjectIDs
	})
}

func cloneEngineer(e persistence.Engineer) persistence.Engineer {
	e.Skills = slices.Clone(e.Skills)
	e.Tags = slices.Clone(e.Tags)
	return e
}

func cloneUser(u persistence.User) persistence.User {
	if u.LastLoggedIn != nil {
		t := *u.LastLoggedIn
		u.LastLoggedIn = &t
	}
	return u
}
