package billing

import (
	"sync/atomic"
	"time"
)

// DefaultLocation is Vietnam time. It has no daylight saving, so a fixed
// zone matches the tz database.
var DefaultLocation = time.FixedZone("ICT", 7*60*60)

var location atomic.Pointer[time.Location]

func init() {
	location.Store(DefaultLocation)
}

// Location returns the zone billing days and months are read in.
func Location() *time.Location {
	return location.Load()
}

// SetLocation changes the zone billing days and months are read in. A nil
// loc restores DefaultLocation.
func SetLocation(loc *time.Location) {
	if loc == nil {
		loc = DefaultLocation
	}
	location.Store(loc)
}

// DayOf returns the calendar day containing the instant t in Location, as
// midnight UTC. The backend stores local midnights as instants, so
// 2025-01-31T17:00:00Z is 1 February.
func DayOf(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
