package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevNotice is for purely informational notices; never affects exit status.
	SevNotice Severity = iota
	// SevWarning is for warnings; may be promoted to errors by configuration.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNotice:
		return "NOTICE"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
