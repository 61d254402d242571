package admission

import (
	"fmt"
	"time"
)

// AgeClass is an applicant's age at the reference date and the priority group it maps to
type AgeClass struct {
	Age   Age
	Group int
}

// ClassifyAge computes elapsed calendar years and months from birthDate to referenceDate
// and maps the result to a priority group:
//   - 7 years or older: group 1
//   - 6 years: group 2
//   - younger: group 3
//
// Someone born in August 2018 is 6y11m on 1 July 2025, not 7.
func ClassifyAge(birthDate *time.Time, referenceDate time.Time) (AgeClass, error) {
	if birthDate == nil {
		return AgeClass{}, &ValidationError{Field: "birthDate", Reason: "is missing"}
	}

	birth := dateOnly(*birthDate)
	reference := dateOnly(referenceDate)
	if birth.After(reference) {
		return AgeClass{}, &ValidationError{
			Field:  "birthDate",
			Reason: fmt.Sprintf("%s is after the reference date %s", birth.Format("2006-01-02"), reference.Format("2006-01-02")),
		}
	}

	age := elapsed(birth, reference)
	return AgeClass{Age: age, Group: priorityGroup(age)}, nil
}

func elapsed(from, to time.Time) Age {
	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())

	// A month is only complete once the day of month has been reached
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}

	return Age{Years: years, Months: months}
}

func priorityGroup(age Age) int {
	switch {
	case age.Years >= 7:
		return PriorityGroupIntakeAge
	case age.Years == 6:
		return PriorityGroupOneUnder
	default:
		return PriorityGroupUnderAge
	}
}

func (a Age) String() string {
	return fmt.Sprintf("%dy%dm", a.Years, a.Months)
}
