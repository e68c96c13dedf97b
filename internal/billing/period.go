package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Period is the billing month of an invoice.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

var periodLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"1/2006",
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// ParsePeriod reads a period from the date strings the backend emits.
// Timestamps are instants and are read in Location; plain dates are taken
// as written.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return PeriodOf(DayOf(t)), nil
	}
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(t), nil
		}
	}
	return Period{}, fmt.Errorf("billing: invalid period %q", s)
}

// IsZero reports an unset period.
func (p Period) IsZero() bool { return p.Month == 0 && p.Year == 0 }

// Start returns the first day of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// String formats the period as MM/YYYY.
func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

// UnmarshalJSON accepts {"month","year"} objects and date strings.
func (p *Period) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Period{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			*p = Period{}
			return nil
		}
		parsed, err := ParsePeriod(raw)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}
	type plain Period
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("billing: decode period: %w", err)
	}
	*p = Period(v)
	return nil
}
