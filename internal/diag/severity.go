package diag

// Severity orders diagnostics; higher is worse.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityLabels = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// Label is the lowercase name used in rendered output.
func (s Severity) Label() string {
	if int(s) < len(severityLabels) {
		return severityLabels[s]
	}
	return "unknown"
}

func (s Severity) String() string { return s.Label() }

// MarshalText lets severities appear as strings in JSON payloads.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.Label()), nil }
