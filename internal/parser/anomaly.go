package parser

import "fmt"

// Anomaly codes recorded on a hand. None of them abort parsing.
const (
	AnomalyMissingHeader    = "MISSING_HEADER"
	AnomalyMissingHandID    = "MISSING_HAND_ID"
	AnomalyUnknownPlayer    = "UNKNOWN_PLAYER"
	AnomalyLocaleAmount     = "LOCALE_AMOUNT"
	AnomalyDuplicateSection = "DUPLICATE_SECTION"
	AnomalyUnknownSection   = "UNKNOWN_SECTION"
	AnomalyDeadButton       = "DEAD_BUTTON"
	AnomalySeatCount        = "SEAT_COUNT_MISMATCH"
)

const (
	SeverityInfo = "info"
	SeverityWarn = "warn"
)

type HandAnomaly struct {
	Code     string
	Severity string
	Detail   string
}

func newAnomaly(code, severity, format string, args ...any) HandAnomaly {
	return HandAnomaly{Code: code, Severity: severity, Detail: fmt.Sprintf(format, args...)}
}
