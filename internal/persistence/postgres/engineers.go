package postgres

import (
	"context"

	"github.com/example/erm/internal/persistence"
	"github.com/jackc/pgx/v5"
)

const engineerColumns = `login, name, surname, patronymic, position, org_unit, phone, email,
	skills, tags, jira_id, rem_id, sharepoint_id, utilized, active, created_at, updated_at`

// CreateEngineer inserts a new engineer.
func (s *Store) CreateEngineer(ctx context.Context, e persistence.Engineer) error {
	if e.Login == "" {
		return persistence.ErrConstraintViolation
	}
	now := s.timestamp()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engineers (`+engineerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		e.Login, e.Name, e.Surname, e.Patronymic, e.Position, e.OrgUnit, e.Phone, e.Email,
		nonNil(e.Skills), nonNil(e.Tags), e.JiraID, e.RemedyID, e.SharepointID,
		e.Utilized, e.Active, now, now,
	)
	return mapError(err)
}

// UpdateEngineer replaces the profile of an existing engineer.
func (s *Store) UpdateEngineer(ctx context.Context, e persistence.Engineer) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE engineers
		SET name=$2, surname=$3, patronymic=$4, position=$5, org_unit=$6, phone=$7, email=$8,
			skills=$9, tags=$10, jira_id=$11, rem_id=$12, sharepoint_id=$13, utilized=$14, active=$15,
			updated_at=$16
		WHERE login=$1`,
		e.Login, e.Name, e.Surname, e.Patronymic, e.Position, e.OrgUnit, e.Phone, e.Email,
		nonNil(e.Skills), nonNil(e.Tags), e.JiraID, e.RemedyID, e.SharepointID,
		e.Utilized, e.Active, s.timestamp(),
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetEngineer retrieves an engineer by login.
func (s *Store) GetEngineer(ctx context.Context, login string) (persistence.Engineer, error) {
	e, err := scanEngineer(s.pool.QueryRow(ctx, `SELECT `+engineerColumns+` FROM engineers WHERE login=$1`, login))
	if err != nil {
		return persistence.Engineer{}, mapError(err)
	}
	return e, nil
}

// ListEngineers returns all engineers ordered by login.
func (s *Store) ListEngineers(ctx context.Context) ([]persistence.Engineer, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+engineerColumns+` FROM engineers ORDER BY login`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.Engineer, 0)
	for rows.Next() {
		e, err := scanEngineer(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// DeleteEngineer removes an engineer. Bookings and work reports cascade.
func (s *Store) DeleteEngineer(ctx context.Context, login string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM engineers WHERE login=$1`, login)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanEngineer(row pgx.Row) (persistence.Engineer, error) {
	var (
		e                    persistence.Engineer
		createdAt, updatedAt int64
	)
	err := row.Scan(&e.Login, &e.Name, &e.Surname, &e.Patronymic, &e.Position, &e.OrgUnit, &e.Phone, &e.Email,
		&e.Skills, &e.Tags, &e.JiraID, &e.RemedyID, &e.SharepointID, &e.Utilized, &e.Active, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Engineer{}, err
	}
	e.CreatedAt = fromUnix(createdAt)
	e.UpdatedAt = fromUnix(updatedAt)
	return e, nil
}

// nonNil keeps pgx from encoding a nil slice as NULL.
func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
