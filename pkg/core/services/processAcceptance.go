package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/portalsekolah/spmb/internal/config"
	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/db"
	"github.com/portalsekolah/spmb/pkg/lock"
	"github.com/portalsekolah/spmb/pkg/metrics"
)

// AcceptanceStore defines the database operations needed to rank and commit a period
type AcceptanceStore interface {
	GetAdmissionPeriod(ctx context.Context, periodID string) (*db.AdmissionPeriod, error)
	GetEligibleApplicants(ctx context.Context, periodID string) ([]db.Applicant, error)
	CountAcceptedApplicants(ctx context.Context, periodID string) (int, error)
	GetSchoolSettings(ctx context.Context) (*db.SchoolSettings, error)
	ApplyAcceptanceRun(ctx context.Context, run *db.AcceptanceRun, outcomes []db.ApplicantOutcome) error
}

// AcceptanceRequest selects the period to process and how
type AcceptanceRequest struct {
	PeriodID string

	// CustomQuota replaces the period's total seat count for this run
	CustomQuota *int

	DryRun bool
}

// AcceptanceResult is the ranked and allocated list of a period
type AcceptanceResult struct {
	Period        admission.AdmissionPeriod
	ReferenceDate time.Time

	// Quota is the total seat count used, AlreadyAccepted the seats taken by earlier commits
	// and RemainingQuota the seats this run allocated from
	Quota           int
	AlreadyAccepted int
	RemainingQuota  int

	Ranked  []admission.RankedApplicant
	Summary admission.Summary

	// RunID identifies the committed acceptance run; empty for a dry run
	RunID     string
	Committed bool
}

const (
	modeDryRun = "dry_run"
	modeCommit = "commit"
)

// ProcessAcceptance ranks the eligible applicants of a period and assigns each a recommendation.
// A dry run only returns the result and never locks. A commit takes the period lock before the
// applicants are read and holds it until every outcome is written in one transaction; it either
// applies the whole batch or returns an *admission.CommitError and changes nothing.
//
// Seats accepted by earlier commits are kept: this run allocates only what is left of the quota,
// so previously accepted applicants are never displaced.
func ProcessAcceptance(
	ctx context.Context,
	store AcceptanceStore,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	req AcceptanceRequest,
) (*AcceptanceResult, error) {
	mode := modeCommit
	if req.DryRun {
		mode = modeDryRun
	}
	logger = logger.With(zap.String("period_id", req.PeriodID), zap.String("mode", mode))

	result, err := processAcceptance(ctx, store, locker, cfg, logger, m, req)
	m.IncrementRun(mode, runOutcome(err))
	if err != nil {
		return nil, err
	}

	m.SetOutcomes(req.PeriodID, result.Summary.Accepted, result.Summary.Waitlisted, result.Summary.Rejected)
	logger.Info("Acceptance processed",
		zap.Bool("committed", result.Committed),
		zap.String("run_id", result.RunID),
		zap.Int("ranked", result.Summary.Ranked),
		zap.Int("accepted", result.Summary.Accepted),
		zap.Int("waitlisted", result.Summary.Waitlisted),
		zap.Int("rejected", result.Summary.Rejected),
		zap.Int("unclassified", result.Summary.Unclassified))

	return result, nil
}

func processAcceptance(
	ctx context.Context,
	store AcceptanceStore,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	req AcceptanceRequest,
) (*AcceptanceResult, error) {
	startedAt := time.Now()

	resolver, err := admission.NewReferenceDateResolver(cfg.ReferenceDateRule)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching admission period")
	period, err := store.GetAdmissionPeriod(ctx, req.PeriodID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &admission.NotFoundError{Resource: "admission period", ID: req.PeriodID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admission period: %w", err)
	}

	referenceDate, err := resolver.Resolve(period.AcademicYear)
	if err != nil {
		return nil, err
	}
	logger.Debug("Resolved reference date",
		zap.String("academic_year", period.AcademicYear),
		zap.Time("reference_date", referenceDate))

	// A commit holds the period lock from before the snapshot is read until the write is done,
	// so a concurrent commit cannot rank from the same applicants
	if !req.DryRun {
		release, err := acquirePeriodLock(ctx, locker, cfg, logger, req.PeriodID)
		if err != nil {
			return nil, err
		}
		defer func() {
			// The lock must go even if the caller's context has expired
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release period lock", zap.Error(err))
			}
		}()
	}

	snap, err := loadSnapshot(ctx, store, req.PeriodID, logger)
	if err != nil {
		return nil, err
	}

	quota := period.Quota
	if req.CustomQuota != nil {
		quota = *req.CustomQuota
		logger.Info("Using custom quota", zap.Int("custom_quota", quota), zap.Int("period_quota", period.Quota))
	}
	remaining := max(quota-snap.alreadyAccepted, 0)

	ranked := admission.Rank(toEngineApplicants(snap.applicants), referenceDate, toSchoolLocation(snap.settings))
	ranked = admission.AssignOutcomes(ranked, admission.QuotaPolicy{
		Quota:          remaining,
		WaitlistBuffer: cfg.WaitlistBuffer,
	})
	m.ObserveRankDuration(time.Since(startedAt))

	for _, r := range ranked {
		if !r.Classified {
			logger.Warn("Applicant could not be classified",
				zap.String("applicant_id", r.Applicant.ID),
				zap.Strings("defects", r.Defects))
		}
	}

	result := &AcceptanceResult{
		Period:          toEnginePeriod(period),
		ReferenceDate:   referenceDate,
		Quota:           quota,
		AlreadyAccepted: snap.alreadyAccepted,
		RemainingQuota:  remaining,
		Ranked:          ranked,
		Summary:         admission.Summarize(ranked),
	}

	if req.DryRun {
		return result, nil
	}

	runID, err := commitAcceptance(ctx, store, logger, result, startedAt)
	if err != nil {
		return nil, err
	}

	result.RunID = runID
	result.Committed = true
	return result, nil
}

type snapshot struct {
	applicants      []db.Applicant
	settings        *db.SchoolSettings
	alreadyAccepted int
}

// loadSnapshot fetches applicants, site settings and the accepted count concurrently
func loadSnapshot(ctx context.Context, store AcceptanceStore, periodID string, logger *zap.Logger) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		applicants, err := store.GetEligibleApplicants(gctx, periodID)
		if err != nil {
			return fmt.Errorf("failed to fetch applicants: %w", err)
		}
		snap.applicants = applicants
		return nil
	})

	g.Go(func() error {
		settings, err := store.GetSchoolSettings(gctx)
		if errors.Is(err, db.ErrNotFound) {
			return &admission.NotFoundError{Resource: "site settings", ID: "school location"}
		}
		if err != nil {
			return fmt.Errorf("failed to fetch site settings: %w", err)
		}
		snap.settings = settings
		return nil
	})

	g.Go(func() error {
		count, err := store.CountAcceptedApplicants(gctx, periodID)
		if err != nil {
			return fmt.Errorf("failed to count accepted applicants: %w", err)
		}
		snap.alreadyAccepted = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Loaded period snapshot",
		zap.Int("applicants", len(snap.applicants)),
		zap.Int("already_accepted", snap.alreadyAccepted),
		zap.Float64("max_distance_km", snap.settings.MaxDistanceKm))

	return &snap, nil
}

// acquirePeriodLock takes the commit lock of a period. A held lock is a ConflictError.
func acquirePeriodLock(
	ctx context.Context,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	periodID string,
) (func(context.Context) error, error) {
	logger.Debug("Acquiring period lock", zap.Duration("ttl", cfg.LockTTL))
	release, err := locker.Acquire(ctx, lock.PeriodKey(periodID), cfg.LockTTL)
	if errors.Is(err, lock.ErrLockHeld) {
		return nil, &admission.ConflictError{PeriodID: periodID, Reason: "another commit holds the period lock"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire period lock: %w", err)
	}
	return release, nil
}

// commitAcceptance writes the run while the caller holds the period lock. It returns the new run id.
func commitAcceptance(
	ctx context.Context,
	store AcceptanceStore,
	logger *zap.Logger,
	result *AcceptanceResult,
	startedAt time.Time,
) (string, error) {
	periodID := result.Period.ID

	run := &db.AcceptanceRun{
		ID:                uuid.New().String(),
		PeriodID:          periodID,
		ReferenceDate:     result.ReferenceDate,
		Quota:             result.Quota,
		AlreadyAccepted:   result.AlreadyAccepted,
		AcceptedCount:     result.Summary.Accepted,
		WaitlistedCount:   result.Summary.Waitlisted,
		RejectedCount:     result.Summary.Rejected,
		UnclassifiedCount: result.Summary.Unclassified,
		StartedAt:         startedAt,
		CommittedAt:       time.Now(),
	}

	logger.Debug("Writing acceptance run", zap.String("run_id", run.ID), zap.Int("outcomes", len(result.Ranked)))
	err := store.ApplyAcceptanceRun(ctx, run, toOutcomes(result.Ranked))
	if err == nil {
		return run.ID, nil
	}

	if errors.Is(err, db.ErrConflict) {
		return "", &admission.ConflictError{PeriodID: periodID, Reason: "another commit holds the database lock"}
	}

	var applyErr *db.ApplyError
	if errors.As(err, &applyErr) {
		return "", &admission.CommitError{PeriodID: periodID, FailedApplicantIDs: applyErr.FailedApplicantIDs, Err: err}
	}

	// Nothing was written, so every applicant of the batch failed to persist
	return "", &admission.CommitError{PeriodID: periodID, FailedApplicantIDs: applicantIDs(result.Ranked), Err: err}
}

// runOutcome classifies a run error for metrics
func runOutcome(err error) string {
	var (
		conflictErr   *admission.ConflictError
		validationErr *admission.ValidationError
		notFoundErr   *admission.NotFoundError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &conflictErr):
		return "conflict"
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr):
		return "invalid"
	default:
		return "failed"
	}
}
