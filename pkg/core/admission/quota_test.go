package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recommendations(ranked []RankedApplicant) map[string]Recommendation {
	out := make(map[string]Recommendation, len(ranked))
	for _, r := range ranked {
		out[r.Applicant.ID] = r.Recommendation
	}
	return out
}

func TestAssignOutcomes_QuotaOfTwo(t *testing.T) {
	applicants := []Applicant{
		testApplicant("A", sevenYearOld, 1.0, time.Hour),
		testApplicant("B", sevenYearOld, 0.5, 2*time.Hour),
		testApplicant("C", sevenYearOld, 5.0, 0),
	}

	result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: 2})

	assert.Equal(t, []string{"B", "A", "C"}, rankedIDs(result))
	assert.Equal(t, map[string]Recommendation{
		"A": RecommendationAccepted,
		"B": RecommendationAccepted,
		"C": RecommendationWaitlist,
	}, recommendations(result))
	assert.Equal(t, "accepted at rank 1 of 2 seats", result[0].Notes)
	assert.Equal(t, "waitlist position 1 (rank 3)", result[2].Notes)
}

func TestAssignOutcomes_ZeroQuota(t *testing.T) {
	applicants := []Applicant{
		testApplicant("a", sevenYearOld, 1.0, 0),
		testApplicant("b", sevenYearOld, 2.0, 0),
	}

	for _, quota := range []int{0, -3} {
		result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: quota})
		for _, r := range result {
			assert.Equal(t, RecommendationWaitlist, r.Recommendation, "quota %d", quota)
		}
	}
}

func TestAssignOutcomes_QuotaLargerThanApplicants(t *testing.T) {
	applicants := []Applicant{
		testApplicant("a", sevenYearOld, 1.0, 0),
		testApplicant("b", fiveYearOld, 8.0, 0),
	}

	result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: 10})

	for _, r := range result {
		assert.Equal(t, RecommendationAccepted, r.Recommendation)
	}
}

func TestAssignOutcomes_WaitlistBufferRejectsTail(t *testing.T) {
	var applicants []Applicant
	for i, distance := range []float64{0.5, 1.0, 1.5, 2.0, 2.5} {
		applicants = append(applicants, testApplicant(string(rune('a'+i)), sevenYearOld, distance, 0))
	}

	result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: 2, WaitlistBuffer: 2})

	assert.Equal(t, map[string]Recommendation{
		"a": RecommendationAccepted,
		"b": RecommendationAccepted,
		"c": RecommendationWaitlist,
		"d": RecommendationWaitlist,
		"e": RecommendationRejected,
	}, recommendations(result))
	assert.Contains(t, result[4].Notes, "beyond the quota of 2")
}

func TestAssignOutcomes_UnclassifiedNeverAccepted(t *testing.T) {
	noBirth := Applicant{ID: "no-birth", Status: StatusVerified, RegisteredAt: baseRegister}
	applicants := []Applicant{
		noBirth,
		testApplicant("ok", sevenYearOld, 1.0, time.Hour),
	}

	// Quota covers both ranks but the unclassified seat stays empty
	result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: 5, WaitlistBuffer: 1})

	require.Len(t, result, 2)
	assert.Equal(t, RecommendationAccepted, result[0].Recommendation)

	unclassified := result[1]
	assert.Equal(t, "no-birth", unclassified.Applicant.ID)
	assert.Equal(t, RecommendationWaitlist, unclassified.Recommendation)
	assert.Contains(t, unclassified.Notes, "unclassified: birthDate is missing")
	assert.Contains(t, unclassified.Notes, "pending data correction")
}

func TestAssignOutcomes_DoesNotModifyInput(t *testing.T) {
	ranked := Rank([]Applicant{
		{ID: "no-birth", Status: StatusVerified, RegisteredAt: baseRegister},
		testApplicant("ok", sevenYearOld, 1.0, 0),
	}, testReference, testLocation)

	result := AssignOutcomes(ranked, QuotaPolicy{Quota: 1})
	result[1].Defects[0] = "changed"

	assert.Empty(t, ranked[0].Recommendation)
	assert.Empty(t, ranked[1].Recommendation)
	assert.Equal(t, "birthDate is missing", ranked[1].Defects[0])
}

func TestSummarize(t *testing.T) {
	applicants := []Applicant{
		testApplicant("a", sevenYearOld, 0.5, 0),
		testApplicant("b", sevenYearOld, 1.0, 0),
		testApplicant("c", sixYearOld, 1.0, 0),
		testApplicant("d", fiveYearOld, 4.0, 0),
		{ID: "e", Status: StatusPending, RegisteredAt: baseRegister},
	}

	result := AssignOutcomes(Rank(applicants, testReference, testLocation), QuotaPolicy{Quota: 2, WaitlistBuffer: 1})

	assert.Equal(t, Summary{
		Ranked:       5,
		Accepted:     2,
		Waitlisted:   2,
		Rejected:     1,
		Unclassified: 1,
	}, Summarize(result))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		rec      Recommendation
		expected Status
	}{
		{RecommendationAccepted, StatusAccepted},
		{RecommendationRejected, StatusRejected},
		{RecommendationWaitlist, StatusVerified},
	}

	for _, tt := range tests {
		t.Run(string(tt.rec), func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFor(tt.rec))
			assert.Equal(t, tt.expected, RankedApplicant{Recommendation: tt.rec}.Status())
		})
	}
}
