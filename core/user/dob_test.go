package user

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrhat05/Doubtroom/core"
)

func TestValidateDOB(t *testing.T) {
	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dob      string
		wantKind error
	}{
		{name: "leap day", dob: "2000-02-29"},
		{name: "exactly 13", dob: "2011-06-15"},
		{name: "empty", dob: "", wantKind: core.ErrMissingField},
		{name: "short month", dob: "2000-1-01", wantKind: core.ErrMissingField},
		{name: "not a number", dob: "20a0-01-01", wantKind: core.ErrInvalidFormat},
		{name: "signed day", dob: "2000-01-+1", wantKind: core.ErrInvalidFormat},
		{name: "day zero", dob: "2000-01-00", wantKind: core.ErrInvalidRange},
		{name: "day 32", dob: "2000-01-32", wantKind: core.ErrInvalidRange},
		{name: "month 13", dob: "2000-13-01", wantKind: core.ErrInvalidRange},
		{name: "before 1900", dob: "1899-12-31", wantKind: core.ErrInvalidRange},
		{name: "next year", dob: "2025-01-01", wantKind: core.ErrInvalidRange},
		{name: "no leap day", dob: "2001-02-29", wantKind: core.ErrInvalidCalendarDay},
		{name: "april 31", dob: "2000-04-31", wantKind: core.ErrInvalidCalendarDay},
		{name: "later this year", dob: "2024-12-01", wantKind: core.ErrFutureDate},
		{name: "too young", dob: "2015-01-01", wantKind: core.ErrUnderMinimumAge},
		{name: "13 tomorrow", dob: "2011-06-16", wantKind: core.ErrUnderMinimumAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDOB(tt.dob, now)
			if tt.wantKind == nil {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.True(t, errors.Is(err, tt.wantKind), "got %v, want kind %v", err, tt.wantKind)
				var iErr *core.InputError
				if assert.True(t, errors.As(err, &iErr)) {
					assert.Equal(t, "dob", iErr.Field)
				}
			}
		})
	}
}

func TestParseDOB(t *testing.T) {
	d, m, y := ParseDOB(" 1999-07-04 ")
	assert.Equal(t, []string{"04", "07", "1999"}, []string{d, m, y})

	d, m, y = ParseDOB("04/07/1999")
	assert.Empty(t, d+m+y)
}
