package db

import "time"

// Applicant status values as stored in the applicant.status column
const (
	StatusPending   = "pending"
	StatusVerified  = "verified"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusWithdrawn = "withdrawn"
)

// AdmissionPeriod is one enrollment cycle
type AdmissionPeriod struct {
	ID           string
	Name         string
	AcademicYear string
	Quota        int
	CreatedAt    time.Time
}

// Applicant is a registered applicant row. Ranking columns are nil until a commit writes them.
type Applicant struct {
	ID                 string
	RegistrationNumber string
	PeriodID           string
	FullName           string
	BirthDate          *time.Time
	ResidenceLatitude  *float64
	ResidenceLongitude *float64
	DistanceToSchoolKm *float64
	GuardianEmail      string
	Status             string
	RegisteredAt       time.Time

	PriorityRank     *int
	PriorityGroup    *int
	RankedDistanceKm *float64
	IsInZone         *bool
	Recommendation   *string
	Notes            string
	LastRunID        *string
}

// SchoolSettings is the single site_settings row owned by the site administrator
type SchoolSettings struct {
	SchoolName      string
	SchoolLatitude  float64
	SchoolLongitude float64
	MaxDistanceKm   float64
	UpdatedAt       time.Time
}

// AcceptanceRun is the audit record of one committed acceptance
type AcceptanceRun struct {
	ID                string
	PeriodID          string
	ReferenceDate     time.Time
	Quota             int
	AlreadyAccepted   int
	AcceptedCount     int
	WaitlistedCount   int
	RejectedCount     int
	UnclassifiedCount int
	StartedAt         time.Time
	CommittedAt       time.Time
}

// CommittedRanking is the read-back of the latest committed run of a period. Ranked holds the
// applicants that run ranked, in rank order. EarlierAccepted holds the applicants accepted by
// earlier runs, which the latest run did not rank.
type CommittedRanking struct {
	Run             AcceptanceRun
	Ranked          []Applicant
	EarlierAccepted []Applicant
}

// ApplicantOutcome is the write-back for one ranked applicant in an acceptance run
type ApplicantOutcome struct {
	ApplicantID        string
	Status             string
	PriorityRank       int
	PriorityGroup      int
	DistanceToSchoolKm float64
	IsInZone           bool
	Recommendation     string
	Notes              string
}
