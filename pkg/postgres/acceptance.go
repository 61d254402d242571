package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/portalsekolah/spmb/pkg/db"
)

const acceptanceRunColumns = `
	id::text, period_id, reference_date, quota, already_accepted,
	accepted_count, waitlisted_count, rejected_count, unclassified_count,
	started_at, committed_at
`

// ApplyAcceptanceRun records an acceptance run and writes every applicant outcome in a single
// transaction. Only applicants still pending or verified are updated; if any outcome cannot be
// applied the whole run is rolled back and a *db.ApplyError lists the applicants that failed.
// A concurrent commit for the same period returns db.ErrConflict.
func (d *DB) ApplyAcceptanceRun(ctx context.Context, run *db.AcceptanceRun, outcomes []db.ApplicantOutcome) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked bool
	if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, run.PeriodID).Scan(&locked); err != nil {
		return fmt.Errorf("failed to acquire period lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("period %s: %w", run.PeriodID, db.ErrConflict)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO acceptance_run (
			id, period_id, reference_date, quota, already_accepted,
			accepted_count, waitlisted_count, rejected_count, unclassified_count,
			started_at, committed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, run.ID, run.PeriodID, run.ReferenceDate, run.Quota, run.AlreadyAccepted,
		run.AcceptedCount, run.WaitlistedCount, run.RejectedCount, run.UnclassifiedCount,
		run.StartedAt.UTC(), run.CommittedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert acceptance run: %w", err)
	}

	var failed []string
	var firstErr error
	for _, o := range outcomes {
		tag, err := tx.Exec(ctx, `
			UPDATE applicant
			SET status = $3,
				priority_rank = $4,
				priority_group = $5,
				ranked_distance_km = $6,
				is_in_zone = $7,
				recommendation = $8,
				notes = $9,
				last_run_id = $2
			WHERE id = $1 AND period_id = $10 AND status IN ('pending', 'verified')
		`, o.ApplicantID, run.ID, o.Status, o.PriorityRank, o.PriorityGroup,
			o.DistanceToSchoolKm, o.IsInZone, o.Recommendation, o.Notes, run.PeriodID)
		if err != nil {
			// The transaction is aborted; nothing after this can succeed
			failed = append(failed, o.ApplicantID)
			firstErr = err
			break
		}
		if tag.RowsAffected() != 1 {
			failed = append(failed, o.ApplicantID)
			if firstErr == nil {
				firstErr = fmt.Errorf("applicant %s is no longer pending or verified", o.ApplicantID)
			}
		}
	}

	if len(failed) > 0 {
		return &db.ApplyError{FailedApplicantIDs: failed, Err: firstErr}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListAcceptanceRuns retrieves the committed runs of a period, oldest first
func (d *DB) ListAcceptanceRuns(ctx context.Context, periodID string) ([]db.AcceptanceRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+acceptanceRunColumns+`
		FROM acceptance_run
		WHERE period_id = $1
		ORDER BY committed_at
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query acceptance runs: %w", err)
	}
	defer rows.Close()

	var runs []db.AcceptanceRun
	for rows.Next() {
		r, err := scanAcceptanceRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating acceptance runs: %w", err)
	}

	return runs, nil
}

// GetCommittedRanking reads back what the latest committed run of a period wrote. Applicants
// ranked by older runs and still verified are left out; their rank belongs to a superseded list.
// All reads share one snapshot. Returns db.ErrNotFound if the period has no committed run.
func (d *DB) GetCommittedRanking(ctx context.Context, periodID string) (*db.CommittedRanking, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	run, err := scanAcceptanceRun(tx.QueryRow(ctx, `
		SELECT `+acceptanceRunColumns+`
		FROM acceptance_run
		WHERE period_id = $1
		ORDER BY committed_at DESC, id DESC
		LIMIT 1
	`, periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("committed run for period %s: %w", periodID, db.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+applicantColumns+`
		FROM applicant
		WHERE period_id = $1 AND last_run_id = $2 AND status <> 'withdrawn'
		ORDER BY priority_rank, id
	`, periodID, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranked applicants: %w", err)
	}
	ranked, err := collectApplicants(rows)
	if err != nil {
		return nil, err
	}

	rows, err = tx.Query(ctx, `
		SELECT `+applicantColumns+`
		FROM applicant
		WHERE period_id = $1 AND status = 'accepted' AND last_run_id IS DISTINCT FROM $2
		ORDER BY priority_rank, id
	`, periodID, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earlier accepted applicants: %w", err)
	}
	earlier, err := collectApplicants(rows)
	if err != nil {
		return nil, err
	}

	return &db.CommittedRanking{Run: *run, Ranked: ranked, EarlierAccepted: earlier}, nil
}

func scanAcceptanceRun(row pgx.Row) (*db.AcceptanceRun, error) {
	var r db.AcceptanceRun
	err := row.Scan(&r.ID, &r.PeriodID, &r.ReferenceDate, &r.Quota, &r.AlreadyAccepted,
		&r.AcceptedCount, &r.WaitlistedCount, &r.RejectedCount, &r.UnclassifiedCount,
		&r.StartedAt, &r.CommittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan acceptance run: %w", err)
	}
	return &r, nil
}
