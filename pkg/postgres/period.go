package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/portalsekolah/spmb/pkg/db"
)

// GetAdmissionPeriod retrieves one admission period, or db.ErrNotFound
func (d *DB) GetAdmissionPeriod(ctx context.Context, periodID string) (*db.AdmissionPeriod, error) {
	var p db.AdmissionPeriod
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, academic_year, quota, created_at
		FROM admission_period
		WHERE id = $1
	`, periodID).Scan(&p.ID, &p.Name, &p.AcademicYear, &p.Quota, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("admission period %s: %w", periodID, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query admission period: %w", err)
	}
	return &p, nil
}

// ListAdmissionPeriods retrieves all admission periods, newest first
func (d *DB) ListAdmissionPeriods(ctx context.Context) ([]db.AdmissionPeriod, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, academic_year, quota, created_at
		FROM admission_period
		ORDER BY academic_year DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admission periods: %w", err)
	}
	defer rows.Close()

	var periods []db.AdmissionPeriod
	for rows.Next() {
		var p db.AdmissionPeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.AcademicYear, &p.Quota, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admission period: %w", err)
		}
		periods = append(periods, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admission periods: %w", err)
	}

	return periods, nil
}
