package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/portalsekolah/spmb/pkg/db"
)

// GetSchoolSettings retrieves the school location and zone threshold
func (d *DB) GetSchoolSettings(ctx context.Context) (*db.SchoolSettings, error) {
	var s db.SchoolSettings
	err := d.pool.QueryRow(ctx, `
		SELECT school_name, school_latitude, school_longitude, max_distance_km, updated_at
		FROM site_settings
		WHERE id = 1
	`).Scan(&s.SchoolName, &s.SchoolLatitude, &s.SchoolLongitude, &s.MaxDistanceKm, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("site settings: %w", db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query site settings: %w", err)
	}
	return &s, nil
}
