package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/portalsekolah/spmb/pkg/db"
)

const applicantColumns = `
	id, registration_number, period_id, full_name, birth_date,
	residence_latitude, residence_longitude, distance_to_school_km,
	guardian_email, status, registered_at,
	priority_rank, priority_group, ranked_distance_km, is_in_zone, recommendation, notes, last_run_id::text
`

// GetEligibleApplicants retrieves the pending and verified applicants of a period
func (d *DB) GetEligibleApplicants(ctx context.Context, periodID string) ([]db.Applicant, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+applicantColumns+`
		FROM applicant
		WHERE period_id = $1 AND status IN ('pending', 'verified')
		ORDER BY registered_at, id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible applicants: %w", err)
	}
	return collectApplicants(rows)
}

// CountAcceptedApplicants counts applicants already accepted in a period
func (d *DB) CountAcceptedApplicants(ctx context.Context, periodID string) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM applicant WHERE period_id = $1 AND status = 'accepted'
	`, periodID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted applicants: %w", err)
	}
	return count, nil
}

func collectApplicants(rows pgx.Rows) ([]db.Applicant, error) {
	defer rows.Close()

	var applicants []db.Applicant
	for rows.Next() {
		var a db.Applicant
		if err := rows.Scan(
			&a.ID, &a.RegistrationNumber, &a.PeriodID, &a.FullName, &a.BirthDate,
			&a.ResidenceLatitude, &a.ResidenceLongitude, &a.DistanceToSchoolKm,
			&a.GuardianEmail, &a.Status, &a.RegisteredAt,
			&a.PriorityRank, &a.PriorityGroup, &a.RankedDistanceKm, &a.IsInZone, &a.Recommendation, &a.Notes, &a.LastRunID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan applicant: %w", err)
		}
		applicants = append(applicants, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applicants: %w", err)
	}

	return applicants, nil
}
