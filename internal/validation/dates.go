package validation

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the accepted input format for date filters.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date. An empty input yields the zero time
// and no error, meaning "no bound".
func ParseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", input)
	}
	return t, nil
}

// ParseDateRange parses both bounds and checks their order.
func ParseDateRange(start, end string) (time.Time, time.Time, error) {
	from, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	to, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			from.Format(DateLayout), to.Format(DateLayout))
	}
	return from, to, nil
}
