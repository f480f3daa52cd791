package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/erm/internal/persistence"
)

// WorkReportRepository implements persistence.WorkReportRepository using SQLite
type WorkReportRepository struct {
	repository
}

const reportColumns = `resource_login, company, project_ids, month, year, util_hours, updated_at`

// ListWorkReport returns the rows one engineer reported for a month.
func (r *WorkReportRepository) ListWorkReport(ctx context.Context, login string, year, month int) ([]persistence.WorkReportRow, error) {
	return r.list(ctx,
		`SELECT `+reportColumns+` FROM work_reports
		WHERE resource_login = ? AND year = ? AND month = ?
		ORDER BY company ASC, project_ids ASC`,
		login, year, month)
}

// ListWorkReportsForMonth returns every row reported for a month.
func (r *WorkReportRepository) ListWorkReportsForMonth(ctx context.Context, year, month int) ([]persistence.WorkReportRow, error) {
	return r.list(ctx,
		`SELECT `+reportColumns+` FROM work_reports
		WHERE year = ? AND month = ?
		ORDER BY resource_login ASC, company ASC, project_ids ASC`,
		year, month)
}

// SaveWorkReport upserts positive rows and removes rows reported as zero.
func (r *WorkReportRepository) SaveWorkReport(ctx context.Context, login string, year, month int, rows []persistence.WorkReportRow) error {
	const upsert = `
		INSERT INTO work_reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (resource_login, company, project_ids, month, year)
		DO UPDATE SET util_hours = excluded.util_hours, updated_at = excluded.updated_at`
	const remove = `
		DELETE FROM work_reports
		WHERE resource_login = ? AND company = ? AND project_ids = ? AND month = ? AND year = ?`

	now := r.timestamp()
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, row := range rows {
				var err error
				if row.UtilHours > 0 {
					_, err = tx.ExecContext(ctx, upsert, login, row.Company, row.ProjectIDs, month, year, row.UtilHours, now)
				} else {
					_, err = tx.ExecContext(ctx, remove, login, row.Company, row.ProjectIDs, month, year)
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *WorkReportRepository) list(ctx context.Context, query string, args ...any) ([]persistence.WorkReportRow, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	out := make([]persistence.WorkReportRow, 0)
	for rows.Next() {
		var (
			row       persistence.WorkReportRow
			updatedAt int64
		)
		if err := rows.Scan(&row.ResourceLogin, &row.Company, &row.ProjectIDs, &row.Month, &row.Year, &row.UtilHours, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		row.UpdatedAt = fromUnix(updatedAt)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return out, nil
}
