package report

import (
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
)

// Period names a calendar-aligned reporting window.
type Period string

// Period constants
const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// ParsePeriod converts a period token. Unknown tokens are a validation error.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", models.ErrValidation, s)
	}
}

// DateRange is an inclusive [Start, End] instant range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Validate rejects a caller-supplied custom range whose end precedes its
// start or whose bounds extend past now.
func (r DateRange) Validate(now time.Time) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: both range bounds are required", models.ErrValidation)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: range end precedes its start", models.ErrValidation)
	}
	if r.Start.After(now) || r.End.After(now) {
		return fmt.Errorf("%w: range must not extend into the future", models.ErrValidation)
	}
	return nil
}

// ResolvePeriod computes the calendar-aligned range for a named period
// around the anchor date. Weeks start on Sunday; month, quarter and year
// boundaries are calendar boundaries in the anchor's location. A natural end
// past now is clamped to exactly now; an anchor past now is rejected.
func ResolvePeriod(p Period, anchor, now time.Time) (DateRange, error) {
	if anchor.After(now) {
		return DateRange{}, fmt.Errorf("%w: period anchor must not be in the future", models.ErrValidation)
	}

	y, m, d := anchor.Date()
	loc := anchor.Location()

	var start, next time.Time
	switch p {
	case PeriodDaily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, -int(anchor.Weekday()))
		next = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 1, 0)
	case PeriodQuarterly:
		qm := time.Month((int(m)-1)/3*3 + 1)
		start = time.Date(y, qm, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(0, 3, 0)
	case PeriodYearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		next = start.AddDate(1, 0, 0)
	default:
		return DateRange{}, fmt.Errorf("%w: unknown period %q", models.ErrValidation, p)
	}

	end := next.Add(-time.Nanosecond)
	if end.After(now) {
		end = now
	}
	return DateRange{Start: start, End: end}, nil
}

// PreviousPeriod computes the most recent fully elapsed range for a named
// period, e.g. last calendar week for PeriodWeekly. Used by scheduled
// reports, which run just after a period closes.
func PreviousPeriod(p Period, now time.Time) (DateRange, error) {
	current, err := ResolvePeriod(p, now, now)
	if err != nil {
		return DateRange{}, err
	}
	anchor := current.Start.Add(-time.Nanosecond)
	return ResolvePeriod(p, anchor, now)
}

// Label renders the range for report headers, e.g.
// "Mar 2, 2025 - Mar 8, 2025". ASCII only: the print renderer writes
// header text with the built-in core fonts.
func (r DateRange) Label() string {
	const day = "Jan 2, 2006"
	if r.Start.Format(day) == r.End.Format(day) {
		return r.Start.Format(day)
	}
	return r.Start.Format(day) + " - " + r.End.Format(day)
}
