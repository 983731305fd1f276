package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultMaxResults applies when no positive result count is requested.
	DefaultMaxResults = 5
	// MaxResultsLimit is the upper bound accepted at the API boundary.
	MaxResultsLimit = 30

	dateLayout     = "2006-01-02"
	compactLayout  = "20060102"
	epochLowerDate = "19700101"
)

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "YYYY-MM-DD" or "YYYYMMDD".
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{dateLayout, compactLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or YYYYMMDD", raw)
}

// Compact renders the date in the upstream YYYYMMDD form.
func (d Date) Compact() string {
	return d.Format(compactLayout)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either supported layout.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FetchOptions shapes one query execution.
type FetchOptions struct {
	MaxResults          int   `json:"maxResults"`
	SubmittedDateAfter  *Date `json:"submittedDateAfter,omitempty"`
	SubmittedDateBefore *Date `json:"submittedDateBefore,omitempty"`
}

// Normalize applies the default result count when none was requested.
func (o FetchOptions) Normalize() FetchOptions {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// DateRange returns the inclusive submittedDate interval bounds in upstream form.
// ok is false when neither bound is set.
func (o FetchOptions) DateRange() (from, to string, ok bool) {
	switch {
	case o.SubmittedDateAfter != nil && o.SubmittedDateBefore != nil:
		return o.SubmittedDateAfter.Compact(), o.SubmittedDateBefore.Compact(), true
	case o.SubmittedDateAfter != nil:
		return o.SubmittedDateAfter.Compact(), "NOW", true
	case o.SubmittedDateBefore != nil:
		return epochLowerDate, o.SubmittedDateBefore.Compact(), true
	default:
		return "", "", false
	}
}

// Clone returns a copy that shares no pointers with o.
func (o FetchOptions) Clone() FetchOptions {
	out := FetchOptions{MaxResults: o.MaxResults}
	if o.SubmittedDateAfter != nil {
		after := *o.SubmittedDateAfter
		out.SubmittedDateAfter = &after
	}
	if o.SubmittedDateBefore != nil {
		before := *o.SubmittedDateBefore
		out.SubmittedDateBefore = &before
	}
	return out
}

// DefaultFetchOptions mirrors the new-channel form: five results from the last year.
func DefaultFetchOptions(now time.Time) FetchOptions {
	today := NewDate(now)
	yearAgo := NewDate(now.AddDate(-1, 0, 0))
	return FetchOptions{
		MaxResults:          DefaultMaxResults,
		SubmittedDateAfter:  &yearAgo,
		SubmittedDateBefore: &today,
	}
}
