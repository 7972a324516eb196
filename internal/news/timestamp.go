package news

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout is the NNTP date/time format used by NEWGROUPS and NEWNEWS.
const timestampLayout = "20060102 150405"

// FormatTimestamp renders spec in the "yyyymmdd hhmmss" form NEWGROUPS expects.
//
// A time.Time is converted to UTC. A time.Duration is subtracted from the
// current UTC time, sampled on every call. A string is assumed to be
// formatted already and is returned untouched.
func FormatTimestamp(spec any) (string, error) {
	switch v := spec.(type) {
	case time.Time:
		return v.UTC().Format(timestampLayout), nil
	case time.Duration:
		return time.Now().UTC().Add(-v).Format(timestampLayout), nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidTimestamp, spec)
	}
}

// SplitTimestamp returns the date and time halves of FormatTimestamp(spec).
func SplitTimestamp(spec any) (date, clock string, err error) {
	s, err := FormatTimestamp(spec)
	if err != nil {
		return "", "", err
	}
	date, clock, _ = strings.Cut(s, " ")
	return date, clock, nil
}
