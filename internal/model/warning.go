package model

import "fmt"

// WarningKind classifies a non-fatal condition reported next to a result.
type WarningKind string

const (
	WarnNoRecords        WarningKind = "no_records"         // a source produced zero records
	WarnNoLogFiles       WarningKind = "no_log_files"       // an archive held no .log files
	WarnDecompress       WarningKind = "decompress_failed"  // one or more .zst members were skipped
	WarnReversedRange    WarningKind = "reversed_range"     // start date after end date
	WarnTimezoneFallback WarningKind = "timezone_fallback"  // full-instant mode compared naive times
	WarnMaxRows          WarningKind = "max_rows"           // non-positive display limit
	WarnUnparsedTime     WarningKind = "unparsed_timestamp" // records excluded from time filtering
	WarnUnusedOption     WarningKind = "unused_option"      // a time option given without any time bound
)

// Warning is a caller-visible, non-fatal outcome of a pipeline stage.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Warnf builds a Warning with a formatted message.
func Warnf(kind WarningKind, format string, args ...any) Warning {
	return Warning{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
