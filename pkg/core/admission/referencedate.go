package admission

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultReferenceDateRule anchors ages at July 1st, the start of the school year
const DefaultReferenceDateRule = "FREQ=YEARLY;BYMONTH=7;BYMONTHDAY=1"

var academicYearPattern = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

// ReferenceDateResolver derives the age cut-off date of an admission period from its academic year label
type ReferenceDateResolver struct {
	rule   string
	option rrule.ROption
}

// NewReferenceDateResolver creates a resolver for the given recurrence rule.
// An empty rule falls back to DefaultReferenceDateRule.
func NewReferenceDateResolver(rule string) (*ReferenceDateResolver, error) {
	if rule == "" {
		rule = DefaultReferenceDateRule
	}

	option, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, &ValidationError{Field: "referenceDateRule", Reason: fmt.Sprintf("is not a valid rrule: %v", err)}
	}

	return &ReferenceDateResolver{rule: rule, option: *option}, nil
}

// Rule returns the recurrence rule used by the resolver
func (r *ReferenceDateResolver) Rule() string {
	return r.rule
}

// Resolve returns the first occurrence of the rule inside the first year of the label.
// The label must be "YYYY/YYYY+1".
func (r *ReferenceDateResolver) Resolve(academicYear string) (time.Time, error) {
	firstYear, err := parseAcademicYear(academicYear)
	if err != nil {
		return time.Time{}, err
	}

	yearStart := time.Date(firstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	option := r.option
	option.Dtstart = yearStart
	rule, err := rrule.NewRRule(option)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "referenceDateRule", Reason: fmt.Sprintf("cannot be evaluated: %v", err)}
	}

	occurrences := rule.Between(yearStart, yearEnd, true)
	if len(occurrences) == 0 || !occurrences[0].Before(yearEnd) {
		return time.Time{}, &ValidationError{
			Field:  "referenceDateRule",
			Reason: fmt.Sprintf("has no occurrence in %d", firstYear),
		}
	}

	return dateOnly(occurrences[0]), nil
}

// ResolveReferenceDate returns July 1st of the first year of an "YYYY/YYYY+1" label
func ResolveReferenceDate(academicYear string) (time.Time, error) {
	resolver, err := NewReferenceDateResolver(DefaultReferenceDateRule)
	if err != nil {
		return time.Time{}, err
	}
	return resolver.Resolve(academicYear)
}

func parseAcademicYear(academicYear string) (int, error) {
	matches := academicYearPattern.FindStringSubmatch(academicYear)
	if matches == nil {
		return 0, &ValidationError{Field: "academicYear", Reason: fmt.Sprintf("%q must have the form YYYY/YYYY", academicYear)}
	}

	first, _ := strconv.Atoi(matches[1])
	second, _ := strconv.Atoi(matches[2])
	if second != first+1 {
		return 0, &ValidationError{Field: "academicYear", Reason: fmt.Sprintf("%q must span two consecutive years", academicYear)}
	}

	return first, nil
}

// dateOnly drops the time of day, keeping the calendar date in UTC
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
