package berth

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serviceFor points a Service at a test server.
func serviceFor(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &Service{Name: "test", Host: host, Port: port, Scheme: "http"}
}

func TestHTTPProbeReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/_up", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := newHTTPDetector(HTTPProbe{Path: "_up"}, time.Now())

	v, err := d.Classify(context.Background(), serviceFor(t, srv))
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestHTTPProbeNotReadyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := newHTTPDetector(HTTPProbe{Path: "/_up"}, time.Now())

	v, err := d.Classify(context.Background(), serviceFor(t, srv))
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

func TestHTTPProbeCustomSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := newHTTPDetector(HTTPProbe{
		Path:    "/",
		Success: func(resp *http.Response) bool { return resp.StatusCode < 300 },
	}, time.Now())

	v, err := d.Classify(context.Background(), serviceFor(t, srv))
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestHTTPProbeFatalResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := newHTTPDetector(HTTPProbe{
		Path: "/health",
		Fatal: func(resp *http.Response) bool {
			return resp.StatusCode == http.StatusServiceUnavailable
		},
	}, time.Now())

	v, err := d.Classify(context.Background(), serviceFor(t, srv))
	require.NoError(t, err)
	assert.Equal(t, PersistentError, v.State)
}

func TestHTTPProbeNoEndpointYet(t *testing.T) {
	d := newHTTPDetector(HTTPProbe{Path: "/_up"}, time.Now())

	v, err := d.Classify(context.Background(), &Service{Name: "test"})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

// refusedService returns a service pointing at a port that is closed,
// producing connection-refused on probe.
func refusedService(t *testing.T) *Service {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return &Service{Name: "test", Host: "127.0.0.1", Port: port, Scheme: "http"}
}

func TestHTTPProbeRefusedWithinGrace(t *testing.T) {
	d := newHTTPDetector(HTTPProbe{Path: "/"}, time.Now())

	v, err := d.Classify(context.Background(), refusedService(t))
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

func TestHTTPProbeRefusedAfterGrace(t *testing.T) {
	// Pretend the wait started well beyond the grace period ago.
	d := newHTTPDetector(HTTPProbe{Path: "/", RefusedGrace: 5 * time.Second},
		time.Now().Add(-time.Minute))

	v, err := d.Classify(context.Background(), refusedService(t))
	require.NoError(t, err)
	assert.Equal(t, TransientError, v.State)
}

func TestHTTPProbeRefusedNeverEscalates(t *testing.T) {
	d := newHTTPDetector(HTTPProbe{Path: "/", RefusedGrace: -1},
		time.Now().Add(-time.Hour))

	v, err := d.Classify(context.Background(), refusedService(t))
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

func TestHTTPProbeDefaults(t *testing.T) {
	d := newHTTPDetector(HTTPProbe{}, time.Now())

	assert.Equal(t, http.MethodGet, d.probe.Method)
	assert.Equal(t, DefaultProbeTimeout, d.probe.RequestTimeout)
	assert.Equal(t, DefaultRefusedGrace, d.probe.RefusedGrace)
	assert.NotNil(t, d.probe.Success)
}
