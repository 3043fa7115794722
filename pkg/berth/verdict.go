package berth

// VerdictState classifies what a detector observed on a single poll.
type VerdictState int

const (
	// NotReady means no evidence either way yet; keep polling.
	NotReady VerdictState = iota

	// Ready means the service is usable. Terminal success.
	Ready

	// TransientError means a recoverable symptom was observed (e.g. the port
	// is not listening yet). Counted against the monitor's transient budget.
	TransientError

	// PersistentError means unambiguous evidence the service failed to come
	// up (crashed process, fatal log line). Terminal failure, never retried.
	PersistentError
)

func (s VerdictState) String() string {
	switch s {
	case NotReady:
		return "not_ready"
	case Ready:
		return "ready"
	case TransientError:
		return "transient_error"
	case PersistentError:
		return "persistent_error"
	default:
		return "unknown"
	}
}

// Verdict is a detector's classification of the service's current state,
// produced fresh on every poll. Detail carries the diagnostic payload
// (matched log line, probe outcome) for error reporting.
type Verdict struct {
	State  VerdictState
	Detail string
}

// IsTerminal reports whether the verdict ends the wait on its own.
func (v Verdict) IsTerminal() bool {
	return v.State == Ready || v.State == PersistentError
}

// IsError reports whether the verdict is an error of either severity.
func (v Verdict) IsError() bool {
	return v.State == TransientError || v.State == PersistentError
}
