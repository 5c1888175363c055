package id

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ulid.Make draws from a process-wide
// monotonic entropy source, so IDs made in the same millisecond still sort
// in creation order. Sort-key queries on notification_id rely on that.
func New() string {
	return ulid.Make().String()
}

// Time returns the creation timestamp encoded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
