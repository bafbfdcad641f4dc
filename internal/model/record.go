package model

import "time"

// TimestampLayout is the only header timestamp shape syslens accepts.
// Exports render timestamps with the same layout so lines can be re-parsed.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Sentinels stored or rendered in place of missing header tokens.
const (
	UnknownApp  = "Unknown"
	MissingHost = "-"
)

// LogRecord represents a single parsed syslog line.
type LogRecord struct {
	Timestamp    time.Time `json:"timestamp"`     // zero when the header timestamp could not be parsed
	TimeParsed   bool      `json:"-"`             // set by parsers on success, so year-1 timestamps still count
	RawTimestamp string    `json:"raw_timestamp"` // header timestamp text as it appeared
	Hostname     string    `json:"hostname"`
	AppName      string    `json:"app_name"`
	PID          string    `json:"pid,omitempty"` // digits as captured, empty when absent
	Message      string    `json:"message"`       // message with ANSI color sequences removed
}

// HasTimestamp reports whether the record can take part in time comparisons.
func (r LogRecord) HasTimestamp() bool {
	return r.TimeParsed || !r.Timestamp.IsZero()
}

// TimestampText returns the ISO-8601 text of the timestamp, falling back to
// the raw header text when the timestamp did not parse.
func (r LogRecord) TimestampText() string {
	if r.HasTimestamp() {
		return r.Timestamp.Format(TimestampLayout)
	}
	return r.RawTimestamp
}

// Collection is an ordered set of records, oldest first as encountered.
// Filtering stages always return a new Collection and never modify their input.
type Collection []LogRecord

// Select returns the records whose entry in keep is true, preserving order.
// keep must have the same length as c.
func (c Collection) Select(keep []bool) Collection {
	out := make(Collection, 0, len(c))
	for i, r := range c {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

// RawLine is one line read from a source before parsing.
type RawLine struct {
	Text   string
	Source string
}
