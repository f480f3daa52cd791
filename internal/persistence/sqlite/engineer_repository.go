package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/erm/internal/persistence"
)

// EngineerRepository implements persistence.EngineerRepository using SQLite
type EngineerRepository struct {
	repository
}

const engineerColumns = `login, name, surname, patronymic, position, org_unit, phone, email,
	skills, tags, jira_id, rem_id, sharepoint_id, utilized, active, created_at, updated_at`

// CreateEngineer inserts a new engineer.
func (r *EngineerRepository) CreateEngineer(ctx context.Context, e persistence.Engineer) error {
	if e.Login == "" {
		return persistence.ErrConstraintViolation
	}

	const query = `
		INSERT INTO engineers (` + engineerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.timestamp()
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx, query,
			e.Login, e.Name, e.Surname, e.Patronymic, e.Position, e.OrgUnit, e.Phone, e.Email,
			joinList(e.Skills), joinList(e.Tags), e.JiraID, e.RemedyID, e.SharepointID,
			boolToInt(e.Utilized), boolToInt(e.Active), now, now,
		)
		return err
	})
}

// UpdateEngineer replaces the profile of an existing engineer.
func (r *EngineerRepository) UpdateEngineer(ctx context.Context, e persistence.Engineer) error {
	const query = `
		UPDATE engineers
		SET name = ?, surname = ?, patronymic = ?, position = ?, org_unit = ?, phone = ?, email = ?,
			skills = ?, tags = ?, jira_id = ?, rem_id = ?, sharepoint_id = ?, utilized = ?, active = ?,
			updated_at = ?
		WHERE login = ?`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		res, err := r.pool.DB().ExecContext(ctx, query,
			e.Name, e.Surname, e.Patronymic, e.Position, e.OrgUnit, e.Phone, e.Email,
			joinList(e.Skills), joinList(e.Tags), e.JiraID, e.RemedyID, e.SharepointID,
			boolToInt(e.Utilized), boolToInt(e.Active), r.timestamp(),
			e.Login,
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

// GetEngineer retrieves an engineer by login.
func (r *EngineerRepository) GetEngineer(ctx context.Context, login string) (persistence.Engineer, error) {
	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+engineerColumns+` FROM engineers WHERE login = ?`, login)
	e, err := scanEngineer(row)
	if err != nil {
		return persistence.Engineer{}, r.mapper.MapError(err)
	}
	return e, nil
}

// ListEngineers returns all engineers ordered by login.
func (r *EngineerRepository) ListEngineers(ctx context.Context) ([]persistence.Engineer, error) {
	rows, err := r.pool.DB().QueryContext(ctx, `SELECT `+engineerColumns+` FROM engineers ORDER BY login ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Engineer, 0)
	for rows.Next() {
		e, err := scanEngineer(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}

// DeleteEngineer removes an engineer with its bookings and work reports.
func (r *EngineerRepository) DeleteEngineer(ctx context.Context, login string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE resource_login = ?`, login); err != nil {
			return r.mapper.MapError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_reports WHERE resource_login = ?`, login); err != nil {
			return r.mapper.MapError(err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM engineers WHERE login = ?`, login)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return r.mapper.MapError(err)
		} else if n == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func scanEngineer(row rowScanner) (persistence.Engineer, error) {
	var (
		e                    persistence.Engineer
		skills, tags         string
		utilized, active     int
		createdAt, updatedAt int64
	)
	err := row.Scan(&e.Login, &e.Name, &e.Surname, &e.Patronymic, &e.Position, &e.OrgUnit, &e.Phone, &e.Email,
		&skills, &tags, &e.JiraID, &e.RemedyID, &e.SharepointID, &utilized, &active, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Engineer{}, err
	}
	e.Skills = splitList(skills)
	e.Tags = splitList(tags)
	e.Utilized = utilized == 1
	e.Active = active == 1
	e.CreatedAt = fromUnix(createdAt)
	e.UpdatedAt = fromUnix(updatedAt)
	return e, nil
}
