package admission

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"
)

// Rank classifies every eligible applicant and returns them in priority order with a
// dense 1-based PriorityRank. Applicants that are not pending or verified are left out.
//
// The order is a single composite key, best first:
//  1. classified before unclassified
//  2. in zone before out of zone
//  3. priority group ascending
//  4. distance to school ascending
//  5. registration time ascending
//  6. id ascending
//
// Unclassified applicants (missing or invalid birth date or location) skip keys 2-4 and
// are ordered by registration time and id after every classified applicant.
//
// Rank performs no I/O and never mutates its input.
func Rank(applicants []Applicant, referenceDate time.Time, school SchoolLocation) []RankedApplicant {
	ranked := make([]RankedApplicant, 0, len(applicants))
	for _, applicant := range applicants {
		if !applicant.Status.IsEligible() {
			continue
		}
		ranked = append(ranked, classify(applicant, referenceDate, school))
	}

	slices.SortFunc(ranked, func(a, b RankedApplicant) int {
		return keyFor(a).compare(keyFor(b))
	})

	for i := range ranked {
		ranked[i].PriorityRank = i + 1
	}

	return ranked
}

// classify evaluates age and zone for one applicant. Defects are recorded, never returned.
func classify(applicant Applicant, referenceDate time.Time, school SchoolLocation) RankedApplicant {
	ranked := RankedApplicant{
		Applicant:  applicant,
		Classified: true,
	}

	ageClass, err := ClassifyAge(applicant.BirthDate, referenceDate)
	if err != nil {
		ranked.Classified = false
		ranked.Defects = append(ranked.Defects, describeDefect(err))
	} else {
		ranked.AgeAtReference = ageClass.Age
		ranked.PriorityGroup = ageClass.Group
	}

	zone, err := evaluateApplicantZone(applicant, school)
	if err != nil {
		ranked.Classified = false
		ranked.Defects = append(ranked.Defects, describeDefect(err))
	} else {
		ranked.DistanceToSchoolKm = zone.DistanceKm
		ranked.IsInZone = zone.IsInZone
	}

	if !ranked.Classified {
		ranked.PriorityGroup = priorityGroupUnassigned
		ranked.Notes = defectNote(ranked.Defects)
	}

	return ranked
}

// sortKey is the generated tuple the ranking order compares
type sortKey struct {
	unclassified bool
	outOfZone    bool
	group        int
	distanceKm   float64
	registeredAt time.Time
	id           string
}

func keyFor(r RankedApplicant) sortKey {
	key := sortKey{
		registeredAt: r.Applicant.RegisteredAt,
		id:           r.Applicant.ID,
	}
	if !r.Classified {
		key.unclassified = true
		return key
	}

	key.outOfZone = !r.IsInZone
	key.group = r.PriorityGroup
	key.distanceKm = r.DistanceToSchoolKm
	return key
}

func (k sortKey) compare(other sortKey) int {
	return cmp.Or(
		compareFalseFirst(k.unclassified, other.unclassified),
		compareFalseFirst(k.outOfZone, other.outOfZone),
		cmp.Compare(k.group, other.group),
		cmp.Compare(k.distanceKm, other.distanceKm),
		k.registeredAt.Compare(other.registeredAt),
		strings.Compare(k.id, other.id),
	)
}

func compareFalseFirst(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func describeDefect(err error) string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Field + " " + validationErr.Reason
	}
	return err.Error()
}

func defectNote(defects []string) string {
	if len(defects) == 0 {
		return ""
	}
	return "unclassified: " + strings.Join(defects, "; ")
}
