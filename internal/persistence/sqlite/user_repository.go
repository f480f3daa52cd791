package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/erm/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	repository
}

const userColumns = `login, name, user_group, phone, password_hash, active, last_logged_in, created_at, updated_at`

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.Login == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.timestamp()
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, query,
			user.Login, user.Name, user.Group, user.Phone, user.PasswordHash,
			boolToInt(user.Active), nullableUnix(user), now, now,
		)
		return err
	})
}

// UpdateUser updates an existing user in the database
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		UPDATE users
		SET name = ?, user_group = ?, phone = ?, password_hash = ?, active = ?, last_logged_in = ?, updated_at = ?
		WHERE login = ?`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		res, err := r.pool.DB().ExecContext(ctx, query,
			user.Name, user.Group, user.Phone, user.PasswordHash, boolToInt(user.Active),
			nullableUnix(user), r.timestamp(), user.Login,
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

// GetUser retrieves a user by login.
func (r *UserRepository) GetUser(ctx context.Context, login string) (persistence.User, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE login = ?`, login)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by login.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY login ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	out := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

// DeleteUser removes a user by login.
func (r *UserRepository) DeleteUser(ctx context.Context, login string) error {
	res, err := r.pool.DB().ExecContext(ctx, `DELETE FROM users WHERE login = ?`, login)
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

func nullableUnix(user persistence.User) sql.NullInt64 {
	if user.LastLoggedIn == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: user.LastLoggedIn.Unix(), Valid: true}
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		active               int
		lastLoggedIn         sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&user.Login, &user.Name, &user.Group, &user.Phone, &user.PasswordHash,
		&active, &lastLoggedIn, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	user.Active = active == 1
	if lastLoggedIn.Valid {
		t := fromUnix(lastLoggedIn.Int64)
		user.LastLoggedIn = &t
	}
	user.CreatedAt = fromUnix(createdAt)
	user.UpdatedAt = fromUnix(updatedAt)
	return user, nil
}
