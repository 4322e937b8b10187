package user

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrhat05/Doubtroom/core"
)

const (
	minBirthYear = 1900
	minAge       = 13
)

// ParseDOB splits a YYYY-MM-DD date into its day, month and year parts.
// Parts that cannot be found are returned empty.
func ParseDOB(dob string) (day, month, year string) {
	parts := strings.Split(strings.TrimSpace(dob), "-")
	if len(parts) != 3 {
		return "", "", ""
	}
	return parts[2], parts[1], parts[0]
}

// ValidateDate checks a date of birth given as 2-digit day, 2-digit month and 4-digit year.
// The date must exist, not be in the future, and be at least 13 years before now.
func ValidateDate(day, month, year string, now time.Time) error {
	if len(day) != 2 || len(month) != 2 || len(year) != 4 {
		return dobError(core.ErrMissingField, "Date of Birth is required")
	}

	d, dErr := parseDigits(day)
	m, mErr := parseDigits(month)
	y, yErr := parseDigits(year)
	if dErr != nil || mErr != nil || yErr != nil {
		return dobError(core.ErrInvalidFormat, "Please enter valid numbers")
	}

	if d < 1 || d > 31 {
		return dobError(core.ErrInvalidRange, "Day must be between 1 and 31")
	}
	if m < 1 || m > 12 {
		return dobError(core.ErrInvalidRange, "Month must be between 1 and 12")
	}
	if y < minBirthYear || y > now.Year() {
		return dobError(core.ErrInvalidRange, fmt.Sprintf("Year must be between %d and %d", minBirthYear, now.Year()))
	}

	if d > daysIn(time.Month(m), y) {
		return dobError(core.ErrInvalidCalendarDay, "Invalid day for the selected month")
	}

	date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, now.Location())
	if date.After(now) {
		return dobError(core.ErrFutureDate, "Date of Birth cannot be in the future")
	}
	if date.After(now.AddDate(-minAge, 0, 0)) {
		return dobError(core.ErrUnderMinimumAge, fmt.Sprintf("You must be at least %d years old", minAge))
	}
	return nil
}

// ValidateDOB validates a YYYY-MM-DD date of birth.
func ValidateDOB(dob string, now time.Time) error {
	day, month, year := ParseDOB(dob)
	return ValidateDate(day, month, year, now)
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseDigits only accepts ASCII digits: no sign, no spaces.
func parseDigits(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func dobError(kind error, msg string) error {
	return core.NewInputError(kind, "dob", msg)
}
