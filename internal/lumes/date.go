package lumes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layouts used by the Lumes feed. Measurement cells and the publish
// timestamp on the first line use different notations and must not be
// parsed with the same rule.
const (
	measurementLayout = "02.01.2006, 15:04"
	publishLayout     = "02.01.06-15:04:05"
)

var ErrMalformedDate = errors.New("malformed date")

// ParseMeasurementTime parses a measurement cell like "29.09.2017, 10:30".
//
// The feed writes midnight at the end of a day as hour 24 (meteorological
// convention), which the time package rejects. Such values are read as
// 00:00 of the following day.
func ParseMeasurementTime(s string, loc *time.Location) (time.Time, error) {
	addDay := false
	if strings.Contains(s, ", 24:") {
		s = strings.Replace(s, ", 24:", ", 00:", 1)
		addDay = true
	}

	t, err := time.ParseInLocation(measurementLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	if addDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// ParsePublishTime parses the feed's own timestamp from the first line,
// e.g. "29.09.17-10:30:00" (two-digit year, seconds, hyphen separator).
func ParsePublishTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(publishLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}
