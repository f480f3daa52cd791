package postgres

import (
	"context"

	"github.com/example/erm/internal/persistence"
	"github.com/jackc/pgx/v5"
)

const userColumns = `login, name, user_group, phone, password_hash, active, last_logged_in, created_at, updated_at`

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if user.Login == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	now := s.timestamp()
	_, err := s.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		user.Login, user.Name, user.Group, user.Phone, user.PasswordHash,
		user.Active, lastLoggedIn(user), now, now,
	)
	return mapError(err)
}

// UpdateUser updates an existing user.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name=$2, user_group=$3, phone=$4, password_hash=$5, active=$6, last_logged_in=$7, updated_at=$8
		WHERE login=$1`,
		user.Login, user.Name, user.Group, user.Phone, user.PasswordHash,
		user.Active, lastLoggedIn(user), s.timestamp(),
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by login.
func (s *Store) GetUser(ctx context.Context, login string) (persistence.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE login=$1`, login))
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	return user, nil
}

// ListUsers returns all users ordered by login.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY login`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// DeleteUser removes a user by login.
func (s *Store) DeleteUser(ctx context.Context, login string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE login=$1`, login)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func lastLoggedIn(user persistence.User) *int64 {
	if user.LastLoggedIn == nil {
		return nil
	}
	sec := user.LastLoggedIn.Unix()
	return &sec
}

func scanUser(row pgx.Row) (persistence.User, error) {
	var (
		user                 persistence.User
		loggedIn             *int64
		createdAt, updatedAt int64
	)
	err := row.Scan(&user.Login, &user.Name, &user.Group, &user.Phone, &user.PasswordHash,
		&user.Active, &loggedIn, &createdAt, &updatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	if loggedIn != nil {
		t := fromUnix(*loggedIn)
		user.LastLoggedIn = &t
	}
	user.CreatedAt = fromUnix(createdAt)
	user.UpdatedAt = fromUnix(updatedAt)
	return user, nil
}
