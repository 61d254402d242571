package admission

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an applicant within an admission period
type Status string

const (
	StatusPending   Status = "pending"
	StatusVerified  Status = "verified"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// IsEligible reports whether an applicant with this status takes part in ranking.
// Only pending and verified applicants are ranked.
func (s Status) IsEligible() bool {
	return s == StatusPending || s == StatusVerified
}

// Recommendation is the outcome the quota allocator assigns to a ranked applicant
type Recommendation string

const (
	RecommendationAccepted Recommendation = "accepted"
	RecommendationWaitlist Recommendation = "waitlist"
	RecommendationRejected Recommendation = "rejected"
)

// Priority groups, 1 is the most favourable
const (
	PriorityGroupIntakeAge  = 1 // 7 years or older at the reference date
	PriorityGroupOneUnder   = 2 // 6 years
	PriorityGroupUnderAge   = 3 // younger than 6, needs dispensation
	priorityGroupUnassigned = 0
)

// Coordinates is a WGS84 position in decimal degrees
type Coordinates struct {
	Latitude  float64 `validate:"min=-90,max=90"`
	Longitude float64 `validate:"min=-180,max=180"`
}

// Applicant is the engine's read-only view of a registered applicant
type Applicant struct {
	ID                 string
	RegistrationNumber string
	FullName           string
	BirthDate          *time.Time

	// Residence is preferred; DistanceToSchoolKm is used when no coordinates were captured
	Residence          *Coordinates
	DistanceToSchoolKm *float64

	Status        Status
	RegisteredAt  time.Time
	PeriodID      string
	GuardianEmail string
}

// AdmissionPeriod is one enrollment cycle with its own quota
type AdmissionPeriod struct {
	ID           string
	Name         string
	AcademicYear string
	Quota        int
}

// SchoolLocation is the reference point and zone threshold owned by site settings
type SchoolLocation struct {
	Coordinates   Coordinates
	MaxDistanceKm float64
}

// Age is elapsed calendar time between a birth date and a reference date
type Age struct {
	Years  int
	Months int
}

// RankedApplicant is the engine's projection of an applicant after ranking and allocation
type RankedApplicant struct {
	Applicant Applicant

	AgeAtReference     Age
	PriorityGroup      int
	DistanceToSchoolKm float64
	IsInZone           bool

	// Classified is false when a data defect kept the applicant out of the normal ordering
	Classified bool
	Defects    []string

	PriorityRank   int
	Recommendation Recommendation
	Notes          string
}

// DisplayDistance returns the distance rounded to two decimal places.
// Ranking always compares DistanceToSchoolKm at full precision.
func (r RankedApplicant) DisplayDistance() string {
	return decimal.NewFromFloat(r.DistanceToSchoolKm).Round(2).StringFixed(2)
}

// Status returns the applicant status the recommendation maps to on commit
func (r RankedApplicant) Status() Status {
	return StatusFor(r.Recommendation)
}

// StatusFor maps a recommendation to the status written back on commit.
// Waitlisted applicants stay verified so later runs can still rank them.
func StatusFor(rec Recommendation) Status {
	switch rec {
	case RecommendationAccepted:
		return StatusAccepted
	case RecommendationRejected:
		return StatusRejected
	default:
		return StatusVerified
	}
}
