package berth

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkTarget serves scripted log chunks one per Logs call, using the cursor
// as an index into the script.
type chunkTarget struct {
	svc    *Service
	chunks [][]byte
	reads  int
}

func (t *chunkTarget) Service() *Service { return t.svc }

func (t *chunkTarget) Logs(_ context.Context, cursor string) ([]byte, string, error) {
	i := t.reads
	t.reads++
	if i >= len(t.chunks) {
		return nil, cursor, nil
	}
	return t.chunks[i], "next", nil
}

func newLogDetector(t *testing.T, m LogMarkers, chunks ...[]byte) (Detector, *chunkTarget) {
	t.Helper()
	target := &chunkTarget{svc: &Service{}, chunks: chunks}
	return LogWatch(m)(target), target
}

// frame wraps payload in Docker's multiplexed stream framing.
func frame(stream byte, payload string) []byte {
	buf := make([]byte, 8+len(payload))
	buf[0] = stream
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[8:], payload)
	return buf
}

func TestLogWatchReadyMarker(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "Apache CouchDB has started"},
		[]byte("booting...\nApache CouchDB has started on http://any\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
	assert.Contains(t, v.Detail, "Apache CouchDB has started")
}

func TestLogWatchNoMarkerYet(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "ready"},
		[]byte("still booting\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

func TestLogWatchFatalBeatsReadyOnSameLine(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "started", Fatal: "no space left on device"},
		[]byte("started but no space left on device\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, PersistentError, v.State)
}

func TestLogWatchEarliestLineWins(t *testing.T) {
	// The ready line precedes the fatal one in the stream; the verdict
	// reflects stream order, not severity across lines.
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "started", Fatal: "fatal"},
		[]byte("service started\nfatal: disk died\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestLogWatchTransientMarker(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "ready", Transient: "retrying"},
		[]byte("retrying connection to peer\n"),
		[]byte(""),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, TransientError, v.State)

	// The matched line was consumed; an empty follow-up poll must not
	// re-classify it.
	v, err = d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)
}

func TestLogWatchPartialLineAcrossPolls(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "Apache CouchDB has started"},
		[]byte("Apache CouchDB has st"),
		[]byte("arted\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State, "partial line must not match")

	v, err = d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestLogWatchFatalOnLaterPoll(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "ready", Fatal: "FATAL"},
		[]byte("starting up\n"),
		[]byte("FATAL: bad configuration\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)

	v, err = d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, PersistentError, v.State)
	assert.Contains(t, v.Detail, "bad configuration")
}

func TestLogWatchFramedStream(t *testing.T) {
	chunk := append(frame(1, "booting\n"), frame(2, "Ready to accept connections\n")...)
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "Ready to accept connections"},
		chunk,
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestLogWatchFrameSplitAcrossPolls(t *testing.T) {
	whole := frame(1, "Ready to accept connections\n")
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "Ready to accept connections"},
		whole[:10], // header plus two payload bytes
		whole[10:],
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, NotReady, v.State)

	v, err = d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestLogWatchCRLFTrimmed(t *testing.T) {
	d, _ := newLogDetector(t,
		LogMarkers{Ready: "started$"},
		[]byte("service started\r\n"),
	)

	v, err := d.Classify(context.Background(), &Service{})
	require.NoError(t, err)
	assert.Equal(t, Ready, v.State)
}

func TestLogWatchInvalidMarker(t *testing.T) {
	d, _ := newLogDetector(t, LogMarkers{Ready: "["})

	_, err := d.Classify(context.Background(), &Service{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ready marker")
}

func TestDemuxFramesPassthroughPlainText(t *testing.T) {
	payload, rest := demuxFrames([]byte("plain text log\n"))
	assert.Equal(t, "plain text log\n", string(payload))
	assert.Empty(t, rest)
}

func TestSplitLines(t *testing.T) {
	lines, tail := splitLines([]byte("one\ntwo\nthr"))
	require.Len(t, lines, 2)
	assert.Equal(t, "one", string(lines[0]))
	assert.Equal(t, "two", string(lines[1]))
	assert.Equal(t, "thr", string(tail))
}
