package trace

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of "date time offset" as assembled from a record line.
const TimestampLayout = "2006-01-02 15:04:05 -07:00"

// ErrMalformedTimestamp is returned when date and time columns do not form a valid instant.
var ErrMalformedTimestamp = errors.New("trace: malformed timestamp")

// ResolveTimestamp combines the date and time columns into a UTC instant.
// The result must format back to exactly the assembled string.
func ResolveTimestamp(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("%w: empty date or time", ErrMalformedTimestamp)
	}

	value := fmt.Sprintf("%s %s +00:00", date, clock)
	ts, err := time.Parse(TimestampLayout, value)
	// time.Parse accepts fractional seconds the layout does not name
	if err != nil || ts.Format(TimestampLayout) != value {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, value)
	}
	return ts.UTC(), nil
}
