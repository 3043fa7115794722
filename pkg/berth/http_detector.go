package berth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Default probe settings.
const (
	DefaultProbeTimeout = 2 * time.Second
	DefaultRefusedGrace = 10 * time.Second
)

// HTTPProbe configures the HTTP endpoint detector. The probe issues a
// request against the candidate service address on every poll and maps the
// outcome to a verdict.
type HTTPProbe struct {
	// Path is the request path, e.g. "/_up". A leading slash is added if
	// missing.
	Path string

	// Method defaults to GET.
	Method string

	// RequestTimeout bounds a single probe request so one hung request
	// cannot stall the polling loop past its slot. Defaults to
	// DefaultProbeTimeout. This is distinct from the monitor's overall
	// timeout.
	RequestTimeout time.Duration

	// RefusedGrace controls how refused/reset connections are classified:
	// within the grace period after the wait starts they are expected
	// (not_ready); after it they count as transient errors. Zero means
	// DefaultRefusedGrace; negative means never escalate.
	RefusedGrace time.Duration

	// Success reports whether a response indicates readiness.
	// Defaults to status code 200.
	Success func(*http.Response) bool

	// Fatal reports whether a response indicates the service failed
	// irrecoverably. Optional.
	Fatal func(*http.Response) bool
}

// Detector returns a factory for the configured probe.
func (p HTTPProbe) Detector() DetectorFactory {
	return func(t Target) Detector {
		return newHTTPDetector(p, time.Now())
	}
}

type httpDetector struct {
	probe   HTTPProbe
	client  *http.Client
	started time.Time
}

func newHTTPDetector(p HTTPProbe, started time.Time) *httpDetector {
	if p.Method == "" {
		p.Method = http.MethodGet
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = DefaultProbeTimeout
	}
	if p.RefusedGrace == 0 {
		p.RefusedGrace = DefaultRefusedGrace
	}
	if p.Success == nil {
		p.Success = func(resp *http.Response) bool { return resp.StatusCode == http.StatusOK }
	}
	return &httpDetector{
		probe:   p,
		client:  &http.Client{Timeout: p.RequestTimeout},
		started: started,
	}
}

func (d *httpDetector) Classify(ctx context.Context, svc *Service) (Verdict, error) {
	if !svc.hasEndpoint() {
		// No assigned address yet; nothing to probe.
		return Verdict{State: NotReady, Detail: "no endpoint assigned"}, nil
	}

	path := d.probe.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("http://%s:%d%s", svc.Host, svc.Port, path)

	req, err := http.NewRequestWithContext(ctx, d.probe.Method, url, nil)
	if err != nil {
		return Verdict{}, fmt.Errorf("building probe request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return d.classifyRequestError(err), nil
	}
	defer resp.Body.Close()

	detail := fmt.Sprintf("%s %s -> %s", d.probe.Method, url, resp.Status)
	switch {
	case d.probe.Fatal != nil && d.probe.Fatal(resp):
		return Verdict{State: PersistentError, Detail: detail}, nil
	case d.probe.Success(resp):
		return Verdict{State: Ready, Detail: detail}, nil
	default:
		return Verdict{State: NotReady, Detail: detail}, nil
	}
}

// classifyRequestError maps transport-level failures to verdicts. A refused
// connection right after container start is expected; only once the grace
// period has elapsed does it become evidence of trouble.
func (d *httpDetector) classifyRequestError(err error) Verdict {
	if isConnRefused(err) {
		if d.probe.RefusedGrace > 0 && time.Since(d.started) > d.probe.RefusedGrace {
			return Verdict{State: TransientError, Detail: err.Error()}
		}
		return Verdict{State: NotReady, Detail: err.Error()}
	}
	// Timeouts and other transport errors: the service is not answering
	// yet. Never a fault from the detector's point of view.
	return Verdict{State: NotReady, Detail: err.Error()}
}

func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
