package stortinget

import (
	"regexp"
	"strconv"
	"time"
)

// Формат дат Microsoft JSON: /Date(<ms>[+-]hhmm)/
var msDateRe = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// ParseDate декодирует дату Stortinget в момент времени UTC.
// Миллисекунды задают локальное время со смещением, поэтому смещение вычитается.
func ParseDate(s string) (time.Time, error) {
	m := msDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, schemaViolation("invalid date %q", s)
	}

	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, schemaViolation("invalid date %q: %v", s, err)
	}

	if offset := m[2]; offset != "" {
		sign := int64(1)
		if offset[0] == '-' {
			sign = -1
		}
		hours, _ := strconv.ParseInt(offset[1:3], 10, 64)
		minutes, _ := strconv.ParseInt(offset[3:5], 10, 64)
		ms -= sign * (hours*60 + minutes) * int64(time.Minute/time.Millisecond)
	}

	return time.UnixMilli(ms).UTC(), nil
}
