package berth

import "context"

// Detector polls external evidence (log output, a network probe) and
// classifies the current readiness state of a starting service.
//
// Classify is called once per monitor tick. It must never return an error
// for expected "service not up yet" conditions (refused connections, empty
// logs) — those are verdicts. An error signals a genuinely unexpected fault
// (malformed configuration, lost runtime connection) and makes the monitor
// fail fast as if a persistent error had been observed.
type Detector interface {
	Classify(ctx context.Context, svc *Service) (Verdict, error)
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(ctx context.Context, svc *Service) (Verdict, error)

func (f DetectorFunc) Classify(ctx context.Context, svc *Service) (Verdict, error) {
	return f(ctx, svc)
}

// Target is what a detector may probe: the candidate service plus the
// container's log stream. The log cursor is opaque; passing the cursor
// returned by the previous call yields only output produced since then.
type Target interface {
	// Service returns the candidate service. Its endpoint may not be
	// assigned yet early in startup.
	Service() *Service

	// Logs returns accumulated log output after cursor, plus the cursor to
	// use on the next call. An empty cursor reads from the beginning.
	Logs(ctx context.Context, cursor string) (chunk []byte, next string, err error)
}

// DetectorFactory builds a fresh detector instance for one wait. Detectors
// carry per-wait state (log cursors, elapsed-time baselines), so the
// controller instantiates them anew on every StartService call.
type DetectorFactory func(t Target) Detector

// runtimeTarget binds a runtime and container handle into a Target.
type runtimeTarget struct {
	rt  Runtime
	h   Handle
	svc *Service
}

func (t *runtimeTarget) Service() *Service { return t.svc }

func (t *runtimeTarget) Logs(ctx context.Context, cursor string) ([]byte, string, error) {
	return t.rt.LogsSince(ctx, t.h, cursor)
}
