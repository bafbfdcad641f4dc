package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/atikulmunna/syslens/internal/model"
)

// Parser converts a raw log line into a structured LogRecord.
// ok is false when the line is not a record; Parse never fails otherwise.
type Parser interface {
	Parse(line string) (rec model.LogRecord, ok bool)
}

// ---------------------------------------------------------------------------
// Syslog Parser
// ---------------------------------------------------------------------------

// headerPattern matches:
//
//	2023-01-01T10:00:00.000000+00:00 host1 sshd[123]: message
//
// Groups: timestamp, hostname, app name (optional), pid (optional), message.
const headerPattern = `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}[+\-]\d{2}:\d{2})\s+` +
	`([\p{L}\p{N}_.\-]+)\s+` +
	`([\p{L}\p{N}_.]+)?(?:\[(\d+)\])?:\s+` +
	`(.*)$`

var ansiColor = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// SyslogParser handles the ISO-8601 (microsecond, numeric offset) syslog layout.
type SyslogParser struct {
	re *regexp.Regexp
}

func NewSyslogParser() *SyslogParser {
	return &SyslogParser{re: regexp.MustCompile(headerPattern)}
}

func (p *SyslogParser) Parse(line string) (model.LogRecord, bool) {
	line = strings.TrimRight(line, "\r\n")

	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return model.LogRecord{}, false
	}

	rec := model.LogRecord{
		RawTimestamp: m[1],
		Hostname:     m[2],
		AppName:      m[3],
		PID:          m[4],
		Message:      StripANSI(m[5]),
	}

	// The pattern fixes the shape but not the values (month 13, hour 25).
	// Such records are kept with a zero Timestamp.
	if t, err := time.Parse(model.TimestampLayout, m[1]); err == nil {
		rec.Timestamp = fixedOffset(t)
		rec.TimeParsed = true
	}

	if rec.AppName == "" {
		rec.AppName = model.UnknownApp
	}

	return rec, true
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fixedOffset pins t to its numeric offset. time.Parse hands back time.Local
// when the offset happens to match it, which drags in the host's DST rules.
func fixedOffset(t time.Time) time.Time {
	_, off := t.Zone()
	return t.In(time.FixedZone("", off))
}

// StripANSI removes terminal color sequences (ESC [ ... m).
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	return ansiColor.ReplaceAllString(s, "")
}
