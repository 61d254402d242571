package db

import "context"

// PeriodStore defines the interface for admission period operations
type PeriodStore interface {
	GetAdmissionPeriod(ctx context.Context, periodID string) (*AdmissionPeriod, error)
	ListAdmissionPeriods(ctx context.Context) ([]AdmissionPeriod, error)
}

// ApplicantStore defines the interface for applicant reads
type ApplicantStore interface {
	GetEligibleApplicants(ctx context.Context, periodID string) ([]Applicant, error)
	CountAcceptedApplicants(ctx context.Context, periodID string) (int, error)
}

// SettingsStore defines the interface for site settings
type SettingsStore interface {
	GetSchoolSettings(ctx context.Context) (*SchoolSettings, error)
}

// AcceptanceStore defines the interface for committing acceptance runs
type AcceptanceStore interface {
	ApplyAcceptanceRun(ctx context.Context, run *AcceptanceRun, outcomes []ApplicantOutcome) error
	ListAcceptanceRuns(ctx context.Context, periodID string) ([]AcceptanceRun, error)
	GetCommittedRanking(ctx context.Context, periodID string) (*CommittedRanking, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	PeriodStore
	ApplicantStore
	SettingsStore
	AcceptanceStore
}
