package berth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImageAcquisitionErrorMessage(t *testing.T) {
	inner := errors.New("pull access denied")
	err := &ImageAcquisitionError{Ref: "couchdb:latest", Policy: AlwaysPull, Err: inner}

	assert.Contains(t, err.Error(), "couchdb:latest")
	assert.Contains(t, err.Error(), "always-pull")
	assert.ErrorIs(t, err, inner)
}

func TestPersistentStartupErrorMessage(t *testing.T) {
	err := &PersistentStartupError{
		Verdict: Verdict{State: PersistentError, Detail: "no space left on device"},
	}
	assert.Contains(t, err.Error(), "no space left on device")

	escalated := &PersistentStartupError{
		Verdict:   Verdict{State: TransientError, Detail: "connection reset"},
		Escalated: "transient-error budget exceeded (6 > 5)",
	}
	assert.Contains(t, escalated.Error(), "budget exceeded")
	assert.Contains(t, escalated.Error(), "connection reset")
}

func TestStartupTimeoutErrorMessage(t *testing.T) {
	err := &StartupTimeoutError{
		Timeout: 10 * time.Second,
		Elapsed: 10*time.Second + 137*time.Millisecond,
		LastVerdicts: []Verdict{
			{State: NotReady},
			{State: TransientError, Detail: "refused"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "10s")
	assert.Contains(t, msg, "detector 0: not_ready")
	assert.Contains(t, msg, "detector 1: transient_error (refused)")
}

func TestStartupTimeoutErrorNoVerdicts(t *testing.T) {
	err := &StartupTimeoutError{Timeout: time.Second}
	assert.Contains(t, err.Error(), "no verdicts recorded")
}

func TestTeardownErrorMessage(t *testing.T) {
	inner := errors.New("daemon gone")
	err := &TeardownError{Container: "couchdb-abc", Err: inner}

	assert.Contains(t, err.Error(), "couchdb-abc")
	assert.ErrorIs(t, err, inner)
}
