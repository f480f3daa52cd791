package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, series_id, resource_login, booking_type, percent, hours, active,
	repeat_policy, start_date, end_date, company, sla, project_id, created_by, created_at, updated_at`

// CreateBooking inserts a booking and returns its ID.
func (s *Store) CreateBooking(ctx context.Context, b persistence.Booking) (int64, error) {
	if !b.Start.Before(b.End) {
		return 0, persistence.ErrConstraintViolation
	}
	now := s.timestamp()
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO bookings (series_id, resource_login, booking_type, percent, hours, active,
			repeat_policy, start_date, end_date, company, sla, project_id, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id`,
		b.SeriesID, b.ResourceLogin, b.Type, b.Percent, b.Hours, b.Active,
		b.Repeat, b.Start.Unix(), b.End.Unix(), b.Company, b.SLA, b.ProjectID, b.CreatedBy, now, now,
	).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// UpdateBooking replaces every mutable column of a booking.
func (s *Store) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE bookings
		SET series_id=$2, booking_type=$3, percent=$4, hours=$5, active=$6, repeat_policy=$7,
			start_date=$8, end_date=$9, company=$10, sla=$11, project_id=$12, updated_at=$13
		WHERE id=$1`,
		b.ID, b.SeriesID, b.Type, b.Percent, b.Hours, b.Active, b.Repeat,
		b.Start.Unix(), b.End.Unix(), b.Company, b.SLA, b.ProjectID, s.timestamp(),
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id int64) (persistence.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return b, nil
}

// ListBookings returns matching bookings ordered by start.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		a     args
		where []string
	)
	if filter.Login != "" {
		where = append(where, "resource_login = "+a.add(filter.Login))
	}
	if !filter.IncludeInactive {
		where = append(where, "active")
	}
	if filter.ProjectContains != "" {
		where = append(where, "strpos(project_id, "+a.add(filter.ProjectContains)+") > 0")
	}
	if rg := filter.Range; rg != nil {
		from, to := a.add(rg.From), a.add(rg.To)
		where = append(where, "((start_date >= "+from+" AND end_date <= "+to+")"+
			" OR (start_date < "+from+" AND end_date >= "+from+" AND end_date < "+to+")"+
			" OR (end_date > "+to+" AND start_date > "+from+" AND start_date <= "+to+")"+
			" OR (start_date < "+from+" AND end_date > "+to+"))")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date, id`

	rows, err := s.pool.Query(ctx, query, a...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// FindBookingByProject returns the latest booking of login with exactly projectID.
func (s *Store) FindBookingByProject(ctx context.Context, login, projectID string) (persistence.Booking, error) {
	b, err := scanBooking(s.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE resource_login=$1 AND project_id=$2 ORDER BY id DESC LIMIT 1`,
		login, projectID))
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return b, nil
}

// ExtendBookings moves the end of every booking whose project starts with prefix.
func (s *Store) ExtendBookings(ctx context.Context, projectPrefix string, end time.Time, sla string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET end_date=$1, sla=$2, updated_at=$3 WHERE starts_with(project_id, $4)`,
		end.Unix(), sla, s.timestamp(), projectPrefix)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// DeleteBooking removes a booking by ID.
func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBookingsForLogin removes every booking of an engineer.
func (s *Store) DeleteBookingsForLogin(ctx context.Context, login string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookings WHERE resource_login=$1`, login)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func scanBooking(row pgx.Row) (persistence.Booking, error) {
	var (
		b                    persistence.Booking
		start, end           int64
		createdAt, updatedAt int64
	)
	err := row.Scan(&b.ID, &b.SeriesID, &b.ResourceLogin, &b.Type, &b.Percent, &b.Hours, &b.Active,
		&b.Repeat, &start, &end, &b.Company, &b.SLA, &b.ProjectID, &b.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Booking{}, err
	}
	b.Start = fromUnix(start)
	b.End = fromUnix(end)
	b.CreatedAt = fromUnix(createdAt)
	b.UpdatedAt = fromUnix(updatedAt)
	return b, nil
}
