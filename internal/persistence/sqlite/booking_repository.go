package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/erm/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite
type BookingRepository struct {
	repository
}

const bookingColumns = `id, series_id, resource_login, booking_type, percent, hours, active,
	repeat_policy, start_date, end_date, company, sla, project_id, created_by, created_at, updated_at`

// overlapClause selects bookings against a [from, to] range. Placeholders:
// from, to, from, from, to, to, from, to, from, to.
const overlapClause = `((start_date >= ? AND end_date <= ?)
	OR (start_date < ? AND end_date >= ? AND end_date < ?)
	OR (end_date > ? AND start_date > ? AND start_date <= ?)
	OR (start_date < ? AND end_date > ?))`

// CreateBooking inserts a booking and returns its ID.
func (r *BookingRepository) CreateBooking(ctx context.Context, b persistence.Booking) (int64, error) {
	if !b.Start.Before(b.End) {
		return 0, persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO bookings (series_id, resource_login, booking_type, percent, hours, active,
			repeat_policy, start_date, end_date, company, sla, project_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.timestamp()
	var id int64
	err := r.retry.WithRetry(ctx, func() error {
		res, err := r.pool.DB().ExecContext(ctx, query,
			b.SeriesID, b.ResourceLogin, b.Type, b.Percent, b.Hours, boolToInt(b.Active),
			b.Repeat, b.Start.Unix(), b.End.Unix(), b.Company, b.SLA, b.ProjectID, b.CreatedBy,
			now, now,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateBooking replaces every mutable column of a booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	const query = `
		UPDATE bookings
		SET series_id = ?, booking_type = ?, percent = ?, hours = ?, active = ?, repeat_policy = ?,
			start_date = ?, end_date = ?, company = ?, sla = ?, project_id = ?, updated_at = ?
		WHERE id = ?`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		res, err := r.pool.DB().ExecContext(ctx, query,
			b.SeriesID, b.Type, b.Percent, b.Hours, boolToInt(b.Active), b.Repeat,
			b.Start.Unix(), b.End.Unix(), b.Company, b.SLA, b.ProjectID, r.timestamp(),
			b.ID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (persistence.Booking, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return b, nil
}

// ListBookings returns matching bookings ordered by start.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.Login != "" {
		where = append(where, "resource_login = ?")
		args = append(args, filter.Login)
	}
	if !filter.IncludeInactive {
		where = append(where, "active = 1")
	}
	if filter.ProjectContains != "" {
		where = append(where, "project_id LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.ProjectContains)+"%")
	}
	if rg := filter.Range; rg != nil {
		where = append(where, overlapClause)
		args = append(args, rg.From, rg.To, rg.From, rg.From, rg.To, rg.To, rg.From, rg.To, rg.From, rg.To)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_date ASC, id ASC`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

// FindBookingByProject returns the latest booking of login with exactly projectID.
func (r *BookingRepository) FindBookingByProject(ctx context.Context, login, projectID string) (persistence.Booking, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE resource_login = ? AND project_id = ? ORDER BY id DESC LIMIT 1`,
		login, projectID)
	b, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return b, nil
}

// ExtendBookings moves the end of every booking whose project starts with prefix.
func (r *BookingRepository) ExtendBookings(ctx context.Context, projectPrefix string, end time.Time, sla string) (int64, error) {
	const query = `UPDATE bookings SET end_date = ?, sla = ?, updated_at = ? WHERE project_id LIKE ? ESCAPE '\'`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		res, err := r.pool.DB().ExecContext(ctx, query, end.Unix(), sla, r.timestamp(), escapeLike(projectPrefix)+"%")
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id int64) error {
	res, err := r.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return r.mapper.MapError(err)
	} else if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteBookingsForLogin removes every booking of an engineer.
func (r *BookingRepository) DeleteBookingsForLogin(ctx context.Context, login string) (int64, error) {
	res, err := r.pool.DB().ExecContext(ctx, `DELETE FROM bookings WHERE resource_login = ?`, login)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b                    persistence.Booking
		active               int
		start, end           int64
		createdAt, updatedAt int64
	)
	err := row.Scan(&b.ID, &b.SeriesID, &b.ResourceLogin, &b.Type, &b.Percent, &b.Hours, &active,
		&b.Repeat, &start, &end, &b.Company, &b.SLA, &b.ProjectID, &b.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Booking{}, err
	}
	b.Active = active == 1
	b.Start = fromUnix(start)
	b.End = fromUnix(end)
	b.CreatedAt = fromUnix(createdAt)
	b.UpdatedAt = fromUnix(updatedAt)
	return b, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

var _ rowScanner = (*sql.Row)(nil)
