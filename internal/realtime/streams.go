package realtime

// Named realtime streams.
const (
	// StreamScans carries one message per validation attempt.
	StreamScans = "scans"
	// StreamAttendance carries periodic attendance summaries.
	StreamAttendance = "attendance"
)

// Events published on StreamScans.
const (
	EventScanAccepted    = "scan.accepted"
	EventScanAlreadyUsed = "scan.already_used"
	EventScanInvalid     = "scan.invalid"
	EventSummary         = "attendance.summary"
)
