// Package timefilter selects records by date and time of day.
package timefilter

import (
	"fmt"
	"strings"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

// Mode picks how a TimeRange is applied.
type Mode string

const (
	// DayWindow keeps records whose date is within [StartDate, EndDate] and
	// whose time of day is within [StartTime, EndTime], each checked on its own.
	DayWindow Mode = "day"
	// Instant keeps records between two absolute instants built from the range.
	Instant Mode = "instant"
)

// ParseMode accepts "day" or "instant"; empty selects DayWindow.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DayWindow:
		return DayWindow, nil
	case Instant:
		return Instant, nil
	}
	return "", fmt.Errorf("unknown time filter mode %q (want day or instant)", s)
}

// endOfMinute widens an inclusive HH:MM end bound to the last microsecond of that minute.
const endOfMinute = 59*time.Second + 999999*time.Microsecond

// Params configures Apply.
type Params struct {
	Mode  Mode
	Range model.TimeRange
	// Zone is an IANA zone name used by Instant mode. Empty means the zone
	// of the collection's first comparable record.
	Zone string
}

// Apply runs the filter selected by p.Mode. Records without a comparable
// timestamp never match.
func Apply(c model.Collection, p Params) (model.Collection, []model.Warning) {
	if p.Mode == Instant {
		return ByInstant(c, p.Range, p.Zone)
	}
	return ByDayWindow(c, p.Range)
}

// ByDayWindow applies the date list and the time-of-day window independently,
// both evaluated in each record's own offset.
func ByDayWindow(c model.Collection, r model.TimeRange) (model.Collection, []model.Warning) {
	warnings := checkRange(r)

	lo, hi := r.StartTime.Offset(), r.EndTime.Offset()
	keep := make([]bool, len(c))
	for i, rec := range c {
		if !rec.HasTimestamp() {
			continue
		}
		d := model.DateOf(rec.Timestamp)
		if d.Compare(r.StartDate) < 0 || d.Compare(r.EndDate) > 0 {
			continue
		}
		clock := model.ClockOf(rec.Timestamp)
		keep[i] = clock >= lo && clock <= hi
	}

	return c.Select(keep), warnings
}

// ByInstant keeps records within [start, end] where start combines StartDate
// and StartTime and end combines EndDate and EndTime plus 59.999999s.
//
// The bounds are built in zone, or in the collection's own zone when zone is
// empty. If zone cannot be resolved both the bounds and the records are
// compared as naive wall-clock times and a warning is returned.
func ByInstant(c model.Collection, r model.TimeRange, zone string) (model.Collection, []model.Warning) {
	warnings := checkRange(r)

	var (
		loc   *time.Location
		naive bool
	)
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			naive = true
			warnings = append(warnings, model.Warnf(model.WarnTimezoneFallback,
				"time zone %q could not be resolved (%v); comparing wall-clock times without offsets", zone, err))
		} else {
			loc = l
		}
	} else {
		loc = collectionZone(c)
	}

	if loc == nil && !naive {
		// No comparable records: nothing can match.
		return model.Collection{}, warnings
	}
	if naive {
		loc = time.UTC
	}

	start, end := Bounds(r, loc)

	keep := make([]bool, len(c))
	for i, rec := range c {
		if !rec.HasTimestamp() {
			continue
		}
		ts := rec.Timestamp
		if naive {
			ts = stripZone(ts)
		}
		keep[i] = !ts.Before(start) && !ts.After(end)
	}

	return c.Select(keep), warnings
}

// Bounds returns the inclusive instants used by Instant mode in loc.
func Bounds(r model.TimeRange, loc *time.Location) (start, end time.Time) {
	start = combine(r.StartDate, r.StartTime, loc)
	end = combine(r.EndDate, r.EndTime, loc).Add(endOfMinute)
	return start, end
}

// combine builds the wall-clock time d at t in loc.
func combine(d model.Date, t model.TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, 0, loc)
}

// collectionZone returns the fixed UTC offset of the first record with a
// timestamp. The record's location itself may carry DST rules that the
// log line never stated.
func collectionZone(c model.Collection) *time.Location {
	for _, rec := range c {
		if rec.HasTimestamp() {
			_, off := rec.Timestamp.Zone()
			return time.FixedZone("", off)
		}
	}
	return nil
}

// stripZone reinterprets t's wall clock as UTC.
func stripZone(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}

func checkRange(r model.TimeRange) []model.Warning {
	if r.StartDate.Compare(r.EndDate) > 0 {
		return []model.Warning{model.Warnf(model.WarnReversedRange,
			"start date %s is after end date %s; no records can match", r.StartDate, r.EndDate)}
	}
	return nil
}
