package utils

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate resolves a raw date field into a calendar day in the
// configured timezone. Strict "2006-01-02" input is tried first, then
// natural language ("tomorrow", "next friday").
func (as *AppState) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("ParseDate: input is blank")
	}

	loc := as.Config.GetLocation()
	if parsed, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return parsed, nil
	}

	result, err := as.When.Parse(s, time.Now().In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("ParseDate: %w", err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("ParseDate: can't make sense of %q", s)
	}
	t := result.Time.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
