package berth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Monitor defaults.
const (
	DefaultTimeout            = 60 * time.Second
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultMaxTransientErrors = 5
)

// Monitor decides, from repeated detector polling, whether a started
// container has become a usable service. Implementations must return a
// *PersistentStartupError or *StartupTimeoutError on failure and must never
// block past their time budget.
//
// The monitor is replaceable wholesale: services whose readiness semantics
// do not decompose into independent detectors can supply their own.
type Monitor interface {
	WaitUntilReady(ctx context.Context, svc *Service, detectors []Detector) error
}

// PollingMonitor is the default Monitor: a synchronous retry loop that
// evaluates every detector once per tick and reduces the verdicts
// deterministically, regardless of detector order:
//
//   - any persistent_error fails the wait immediately
//   - ready succeeds only if no detector reported an error the same tick
//   - transient errors accumulate against MaxTransientErrors; exceeding the
//     budget escalates to a persistent failure, since repeated transient
//     symptoms without recovery are evidence of a real problem
//
// A tick with no transient verdicts resets the budget: the symptom cleared.
type PollingMonitor struct {
	// Timeout bounds the whole wait. Defaults to DefaultTimeout.
	Timeout time.Duration

	// PollInterval spaces the ticks. Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// MaxTransientErrors is the transient-error budget. Defaults to
	// DefaultMaxTransientErrors.
	MaxTransientErrors int

	// Log is optional; the zero value is silent.
	Log zerolog.Logger
}

func (m *PollingMonitor) timeout() time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return DefaultTimeout
}

func (m *PollingMonitor) pollInterval() time.Duration {
	if m.PollInterval > 0 {
		return m.PollInterval
	}
	return DefaultPollInterval
}

func (m *PollingMonitor) maxTransient() int {
	if m.MaxTransientErrors > 0 {
		return m.MaxTransientErrors
	}
	return DefaultMaxTransientErrors
}

// WaitUntilReady polls the detectors until a terminal verdict or timeout.
func (m *PollingMonitor) WaitUntilReady(ctx context.Context, svc *Service, detectors []Detector) error {
	if len(detectors) == 0 {
		return &PersistentStartupError{
			Verdict: Verdict{State: PersistentError, Detail: "no detectors configured"},
		}
	}

	start := time.Now()
	deadline := start.Add(m.timeout())
	last := make([]Verdict, len(detectors))
	transientBudget := 0

	ticker := time.NewTicker(m.pollInterval())
	defer ticker.Stop()

	for tick := 1; ; tick++ {
		verdicts, err := m.poll(ctx, svc, detectors, last)
		if err != nil {
			// An unexpected detector fault: fail fast rather than retry
			// indefinitely against a broken setup.
			return &PersistentStartupError{
				Verdict: Verdict{State: PersistentError, Detail: err.Error()},
				Elapsed: time.Since(start),
				Err:     err,
			}
		}

		anyReady, anyErr, transients := reduce(verdicts)
		for i, v := range verdicts {
			m.Log.Debug().
				Int("tick", tick).
				Int("detector", i).
				Stringer("state", v.State).
				Str("detail", v.Detail).
				Msg("detector verdict")
		}

		for _, v := range verdicts {
			if v.State == PersistentError {
				return &PersistentStartupError{
					Verdict: v,
					Elapsed: time.Since(start),
				}
			}
		}
		if anyReady && !anyErr {
			m.Log.Debug().Dur("elapsed", time.Since(start)).Msg("service ready")
			return nil
		}

		if transients == 0 {
			transientBudget = 0
		} else {
			transientBudget += transients
			if transientBudget > m.maxTransient() {
				return &PersistentStartupError{
					Verdict: lastTransient(verdicts),
					Elapsed: time.Since(start),
					Escalated: fmt.Sprintf("transient-error budget exceeded (%d > %d)",
						transientBudget, m.maxTransient()),
				}
			}
		}

		if time.Now().After(deadline) {
			return &StartupTimeoutError{
				Timeout:      m.timeout(),
				Elapsed:      time.Since(start),
				LastVerdicts: append([]Verdict(nil), last...),
			}
		}

		select {
		case <-ctx.Done():
			return &StartupTimeoutError{
				Timeout:      m.timeout(),
				Elapsed:      time.Since(start),
				LastVerdicts: append([]Verdict(nil), last...),
				Err:          ctx.Err(),
			}
		case <-ticker.C:
		}
	}
}

// poll runs every detector once, in order, recording each verdict in last.
func (m *PollingMonitor) poll(ctx context.Context, svc *Service, detectors []Detector, last []Verdict) ([]Verdict, error) {
	verdicts := make([]Verdict, len(detectors))
	for i, d := range detectors {
		v, err := d.Classify(ctx, svc)
		if err != nil {
			return nil, fmt.Errorf("detector %d (%T): %w", i, d, err)
		}
		verdicts[i] = v
		last[i] = v
	}
	return verdicts, nil
}

func reduce(verdicts []Verdict) (anyReady, anyErr bool, transients int) {
	for _, v := range verdicts {
		switch v.State {
		case Ready:
			anyReady = true
		case TransientError:
			anyErr = true
			transients++
		case PersistentError:
			anyErr = true
		}
	}
	return anyReady, anyErr, transients
}

func lastTransient(verdicts []Verdict) Verdict {
	out := Verdict{State: TransientError}
	for _, v := range verdicts {
		if v.State == TransientError {
			out = v
		}
	}
	return out
}
