package services

import (
	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/db"
)

// toEngineApplicant converts a stored applicant into the engine's read-only view
func toEngineApplicant(a db.Applicant) admission.Applicant {
	applicant := admission.Applicant{
		ID:                 a.ID,
		RegistrationNumber: a.RegistrationNumber,
		FullName:           a.FullName,
		BirthDate:          a.BirthDate,
		DistanceToSchoolKm: a.DistanceToSchoolKm,
		Status:             admission.Status(a.Status),
		RegisteredAt:       a.RegisteredAt,
		PeriodID:           a.PeriodID,
		GuardianEmail:      a.GuardianEmail,
	}

	// Both coordinates or neither
	if a.ResidenceLatitude != nil && a.ResidenceLongitude != nil {
		applicant.Residence = &admission.Coordinates{
			Latitude:  *a.ResidenceLatitude,
			Longitude: *a.ResidenceLongitude,
		}
	}

	return applicant
}

func toEngineApplicants(applicants []db.Applicant) []admission.Applicant {
	out := make([]admission.Applicant, len(applicants))
	for i, a := range applicants {
		out[i] = toEngineApplicant(a)
	}
	return out
}

func toEnginePeriod(p *db.AdmissionPeriod) admission.AdmissionPeriod {
	return admission.AdmissionPeriod{
		ID:           p.ID,
		Name:         p.Name,
		AcademicYear: p.AcademicYear,
		Quota:        p.Quota,
	}
}

func toSchoolLocation(s *db.SchoolSettings) admission.SchoolLocation {
	return admission.SchoolLocation{
		Coordinates: admission.Coordinates{
			Latitude:  s.SchoolLatitude,
			Longitude: s.SchoolLongitude,
		},
		MaxDistanceKm: s.MaxDistanceKm,
	}
}

// toOutcomes builds the write-back rows for an allocated ranking
func toOutcomes(ranked []admission.RankedApplicant) []db.ApplicantOutcome {
	outcomes := make([]db.ApplicantOutcome, len(ranked))
	for i, r := range ranked {
		outcomes[i] = db.ApplicantOutcome{
			ApplicantID:        r.Applicant.ID,
			Status:             string(r.Status()),
			PriorityRank:       r.PriorityRank,
			PriorityGroup:      r.PriorityGroup,
			DistanceToSchoolKm: r.DistanceToSchoolKm,
			IsInZone:           r.IsInZone,
			Recommendation:     string(r.Recommendation),
			Notes:              r.Notes,
		}
	}
	return outcomes
}

func applicantIDs(ranked []admission.RankedApplicant) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Applicant.ID
	}
	return ids
}
