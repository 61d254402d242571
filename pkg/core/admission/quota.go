package admission

import (
	"fmt"
	"slices"
	"strings"
)

// QuotaPolicy controls how the allocator turns ranks into recommendations
type QuotaPolicy struct {
	// Quota is the number of seats still available in the period. Values <= 0 accept nobody.
	Quota int

	// WaitlistBuffer limits how many classified applicants past the quota are waitlisted.
	// 0 waitlists everyone past the quota and leaves rejection to a later explicit action.
	WaitlistBuffer int
}

// Summary counts the outcomes of one allocation
type Summary struct {
	Ranked       int
	Accepted     int
	Waitlisted   int
	Rejected     int
	Unclassified int
}

// AssignOutcomes walks a ranked list (as returned by Rank) and assigns a recommendation to each
// applicant. The input is not modified.
//
//   - classified and rank <= quota: accepted
//   - classified and rank > quota + buffer (buffer > 0 only): rejected
//   - everyone else: waitlist
//
// Unclassified applicants are never accepted; they wait for their data to be corrected.
func AssignOutcomes(ranked []RankedApplicant, policy QuotaPolicy) []RankedApplicant {
	quota := max(policy.Quota, 0)
	waitlistLimit := quota + max(policy.WaitlistBuffer, 0)

	result := make([]RankedApplicant, len(ranked))
	waitlistPosition := 0

	for i, r := range ranked {
		r.Defects = slices.Clone(r.Defects)

		switch {
		case !r.Classified:
			waitlistPosition++
			r.Recommendation = RecommendationWaitlist
			r.Notes = joinNotes(
				defectNote(r.Defects),
				fmt.Sprintf("waitlist position %d pending data correction", waitlistPosition),
			)

		case r.PriorityRank <= quota:
			r.Recommendation = RecommendationAccepted
			r.Notes = fmt.Sprintf("accepted at rank %d of %d seats", r.PriorityRank, quota)

		case policy.WaitlistBuffer > 0 && r.PriorityRank > waitlistLimit:
			r.Recommendation = RecommendationRejected
			r.Notes = fmt.Sprintf("rank %d is beyond the quota of %d and waitlist of %d", r.PriorityRank, quota, policy.WaitlistBuffer)

		default:
			waitlistPosition++
			r.Recommendation = RecommendationWaitlist
			r.Notes = fmt.Sprintf("waitlist position %d (rank %d)", waitlistPosition, r.PriorityRank)
		}

		result[i] = r
	}

	return result
}

// Summarize counts recommendations in an allocated list
func Summarize(ranked []RankedApplicant) Summary {
	summary := Summary{Ranked: len(ranked)}
	for _, r := range ranked {
		if !r.Classified {
			summary.Unclassified++
		}
		switch r.Recommendation {
		case RecommendationAccepted:
			summary.Accepted++
		case RecommendationWaitlist:
			summary.Waitlisted++
		case RecommendationRejected:
			summary.Rejected++
		}
	}
	return summary
}

func joinNotes(notes ...string) string {
	nonEmpty := make([]string, 0, len(notes))
	for _, note := range notes {
		if note != "" {
			nonEmpty = append(nonEmpty, note)
		}
	}
	return strings.Join(nonEmpty, "; ")
}
