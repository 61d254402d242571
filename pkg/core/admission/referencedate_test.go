package admission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReferenceDate_FirstOfJuly(t *testing.T) {
	got, err := ResolveReferenceDate("2025/2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestResolveReferenceDate_InvalidLabels(t *testing.T) {
	tests := []struct {
		name  string
		label string
	}{
		{"empty", ""},
		{"non consecutive years", "2025/2027"},
		{"reversed years", "2026/2025"},
		{"same year", "2025/2025"},
		{"dash separator", "2025-2026"},
		{"two digit years", "25/26"},
		{"letters", "abcd/efgh"},
		{"trailing space", "2025/2026 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveReferenceDate(tt.label)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %T", err)
			assert.Equal(t, "academicYear", validationErr.Field)
		})
	}
}

func TestNewReferenceDateResolver_EmptyRuleUsesDefault(t *testing.T) {
	resolver, err := NewReferenceDateResolver("")
	require.NoError(t, err)
	assert.Equal(t, DefaultReferenceDateRule, resolver.Rule())

	got, err := resolver.Resolve("2024/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestNewReferenceDateResolver_CustomRule(t *testing.T) {
	// A school that measures age on 15 January of the first year
	resolver, err := NewReferenceDateResolver("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=15")
	require.NoError(t, err)

	got, err := resolver.Resolve("2025/2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestNewReferenceDateResolver_InvalidRule(t *testing.T) {
	_, err := NewReferenceDateResolver("INVALID_RRULE_SYNTAX")
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "referenceDateRule", validationErr.Field)
}

func TestReferenceDateResolver_NoOccurrenceInYear(t *testing.T) {
	// The rule ended long before the academic year starts
	resolver, err := NewReferenceDateResolver("FREQ=YEARLY;BYMONTH=7;BYMONTHDAY=1;UNTIL=20200101T000000Z")
	require.NoError(t, err)

	_, err = resolver.Resolve("2025/2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no occurrence in 2025")
}
