package admission

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// meanEarthRadiusM is the IUGG mean Earth radius. orb's haversine uses the WGS84 equatorial
// radius, so its result is rescaled.
const meanEarthRadiusM = 6371008.8

// ZoneResult is the outcome of evaluating an applicant's residence against the school zone
type ZoneResult struct {
	DistanceKm float64
	IsInZone   bool
}

// DisplayDistance returns the distance rounded to two decimal places
func (z ZoneResult) DisplayDistance() string {
	return decimal.NewFromFloat(z.DistanceKm).Round(2).StringFixed(2)
}

// EvaluateZone computes the great-circle distance between a residence and the school
// and whether it falls inside the zone. The boundary is inclusive.
//
// Missing or out-of-range coordinates fail soft: the result is out of zone and the
// returned ValidationError describes the defect.
func EvaluateZone(residence *Coordinates, school Coordinates, maxDistanceKm float64) (ZoneResult, error) {
	if residence == nil {
		return ZoneResult{}, &ValidationError{Field: "residenceCoordinates", Reason: "are missing"}
	}
	if err := validate.Struct(residence); err != nil {
		return ZoneResult{}, &ValidationError{Field: "residenceCoordinates", Reason: fmt.Sprintf("are out of range (%.6f, %.6f)", residence.Latitude, residence.Longitude)}
	}

	distanceKm := HaversineKm(*residence, school)
	return ZoneResult{
		DistanceKm: distanceKm,
		IsInZone:   distanceKm <= maxDistanceKm,
	}, nil
}

// evaluateApplicantZone uses the residence when present, otherwise a precomputed distance
func evaluateApplicantZone(applicant Applicant, school SchoolLocation) (ZoneResult, error) {
	if applicant.Residence == nil && applicant.DistanceToSchoolKm != nil {
		distanceKm := *applicant.DistanceToSchoolKm
		if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
			return ZoneResult{}, &ValidationError{Field: "distanceToSchoolKm", Reason: fmt.Sprintf("must be a finite number, got %v", distanceKm)}
		}
		if distanceKm < 0 {
			return ZoneResult{}, &ValidationError{Field: "distanceToSchoolKm", Reason: fmt.Sprintf("must not be negative, got %v", distanceKm)}
		}
		return ZoneResult{
			DistanceKm: distanceKm,
			IsInZone:   distanceKm <= school.MaxDistanceKm,
		}, nil
	}

	return EvaluateZone(applicant.Residence, school.Coordinates, school.MaxDistanceKm)
}

// HaversineKm returns the great-circle distance between two points in kilometres on a sphere
// of the mean Earth radius
func HaversineKm(a, b Coordinates) float64 {
	meters := geo.DistanceHaversine(
		orb.Point{a.Longitude, a.Latitude},
		orb.Point{b.Longitude, b.Latitude},
	)
	return meters * (meanEarthRadiusM / orb.EarthRadius) / 1000
}
