package berth

import (
	"fmt"
	"time"
)

// ImageAcquisitionError means the image could not be pulled, built, or found
// locally (depending on policy). No container was created.
type ImageAcquisitionError struct {
	Ref    string
	Policy ImagePolicy
	Err    error
}

func (e *ImageAcquisitionError) Error() string {
	return fmt.Sprintf("acquiring image %q (policy %s): %v", e.Ref, e.Policy, e.Err)
}

func (e *ImageAcquisitionError) Unwrap() error { return e.Err }

// ContainerStartError means the runtime refused to create or start the
// container, or never assigned it a network endpoint. Teardown of any
// partially created container has already been attempted.
type ContainerStartError struct {
	Image string
	Err   error
}

func (e *ContainerStartError) Error() string {
	return fmt.Sprintf("starting container for image %q: %v", e.Image, e.Err)
}

func (e *ContainerStartError) Unwrap() error { return e.Err }

// PersistentStartupError means a detector observed unambiguous evidence the
// service failed to come up, the transient-error budget was exceeded, or a
// detector itself faulted. Never retried.
type PersistentStartupError struct {
	// Verdict is the verdict that terminated the wait.
	Verdict Verdict

	// Escalated is non-empty when the failure came from the transient-error
	// budget rather than a single persistent verdict.
	Escalated string

	// Logs holds log output captured by the controller for diagnosis.
	Logs string

	Elapsed time.Duration
	Err     error
}

func (e *PersistentStartupError) Error() string {
	if e.Escalated != "" {
		return fmt.Sprintf("service failed to start: %s (last: %s)", e.Escalated, e.Verdict.Detail)
	}
	return fmt.Sprintf("service failed to start: %s", e.Verdict.Detail)
}

func (e *PersistentStartupError) Unwrap() error { return e.Err }

// StartupTimeoutError means no terminal verdict was reached within the
// allotted time. LastVerdicts carries the final verdict from each detector,
// in configuration order, for diagnosis without a re-run.
type StartupTimeoutError struct {
	Timeout      time.Duration
	Elapsed      time.Duration
	LastVerdicts []Verdict

	// Logs holds log output captured by the controller for diagnosis.
	Logs string

	Err error
}

func (e *StartupTimeoutError) Error() string {
	return fmt.Sprintf("service not ready after %s (timeout %s): %s",
		e.Elapsed.Round(time.Millisecond), e.Timeout, summarize(e.LastVerdicts))
}

func (e *StartupTimeoutError) Unwrap() error { return e.Err }

func summarize(verdicts []Verdict) string {
	if len(verdicts) == 0 {
		return "no verdicts recorded"
	}
	s := ""
	for i, v := range verdicts {
		if i > 0 {
			s += "; "
		}
		s += fmt.Sprintf("detector %d: %s", i, v.State)
		if v.Detail != "" {
			s += " (" + v.Detail + ")"
		}
	}
	return s
}

// TeardownError means container removal itself failed. It is reported
// distinctly from, and never masks, any startup failure that preceded it:
// the controller attaches it as a secondary error.
type TeardownError struct {
	Container string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("tearing down container %q: %v", e.Container, e.Err)
}

func (e *TeardownError) Unwrap() error { return e.Err }
