// Package dateparse turns user-typed dates into the normalized DD/MM/YYYY
// form the rest of the bot works with.
package dateparse

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrBadFormat means the text is not DD/MM or DD/MM/YYYY.
	ErrBadFormat = errors.New("date must be DD/MM or DD/MM/YYYY")
	// ErrInvalidDate means the fields parsed but no such calendar day exists.
	ErrInvalidDate = errors.New("no such calendar date")
)

// Layout is the format events are stored and displayed in.
const Layout = "02/01/2006"

// Parse validates raw as DD/MM or DD/MM/YYYY and returns the normalized
// DD/MM/YYYY string. The two-field form uses year; callers inject it so the
// result does not depend on the wall clock.
func Parse(raw string, year int) (string, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")

	fields := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", ErrBadFormat
		}
		fields = append(fields, n)
	}

	var day, month int
	switch len(fields) {
	case 2:
		day, month = fields[0], fields[1]
	case 3:
		day, month, year = fields[0], fields[1], fields[2]
	default:
		return "", ErrBadFormat
	}

	// time.Date normalizes out-of-range components (32/01 becomes 01/02), so
	// a round-trip mismatch means the day does not exist on the calendar.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) || t.Year() != year {
		return "", ErrInvalidDate
	}
	return t.Format(Layout), nil
}
