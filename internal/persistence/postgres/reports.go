package postgres

import (
	"context"
	"fmt"

	"github.com/example/erm/internal/persistence"
)

const reportColumns = `resource_login, company, project_ids, month, year, util_hours, updated_at`

// ListWorkReport returns the rows one engineer reported for a month.
func (s *Store) ListWorkReport(ctx context.Context, login string, year, month int) ([]persistence.WorkReportRow, error) {
	return s.listReports(ctx, `SELECT `+reportColumns+` FROM work_reports
		WHERE resource_login=$1 AND year=$2 AND month=$3
		ORDER BY company, project_ids`, login, year, month)
}

// ListWorkReportsForMonth returns every row reported for a month.
func (s *Store) ListWorkReportsForMonth(ctx context.Context, year, month int) ([]persistence.WorkReportRow, error) {
	return s.listReports(ctx, `SELECT `+reportColumns+` FROM work_reports
		WHERE year=$1 AND month=$2
		ORDER BY resource_login, company, project_ids`, year, month)
}

// SaveWorkReport upserts positive rows and removes rows reported as zero.
func (s *Store) SaveWorkReport(ctx context.Context, login string, year, month int, rows []persistence.WorkReportRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := s.timestamp()
	for _, row := range rows {
		if row.UtilHours > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO work_reports (`+reportColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
				ON CONFLICT (resource_login, company, project_ids, month, year)
				DO UPDATE SET util_hours = EXCLUDED.util_hours, updated_at = EXCLUDED.updated_at`,
				login, row.Company, row.ProjectIDs, month, year, row.UtilHours, now)
		} else {
			_, err = tx.Exec(ctx, `
				DELETE FROM work_reports
				WHERE resource_login=$1 AND company=$2 AND project_ids=$3 AND month=$4 AND year=$5`,
				login, row.Company, row.ProjectIDs, month, year)
		}
		if err != nil {
			return mapError(err)
		}
	}
	return mapError(tx.Commit(ctx))
}

func (s *Store) listReports(ctx context.Context, query string, queryArgs ...any) ([]persistence.WorkReportRow, error) {
	rows, err := s.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]persistence.WorkReportRow, 0)
	for rows.Next() {
		var (
			row       persistence.WorkReportRow
			updatedAt int64
		)
		if err := rows.Scan(&row.ResourceLogin, &row.Company, &row.ProjectIDs, &row.Month, &row.Year, &row.UtilHours, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		row.UpdatedAt = fromUnix(updatedAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}
