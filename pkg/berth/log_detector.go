package berth

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"regexp"
)

// LogMarkers configures the log-based detector. Each marker is a regular
// expression matched against complete log lines. Empty markers are skipped.
type LogMarkers struct {
	// Ready matches the line the service prints once it is usable,
	// e.g. "listening on port".
	Ready string

	// Fatal matches unambiguous startup failure, e.g. a fatal-exception
	// signature or a process-exit marker.
	Fatal string

	// Transient matches retryable warnings that count against the
	// monitor's transient-error budget.
	Transient string
}

// LogWatch returns a factory for a detector that scans the container's log
// stream for the configured markers. Per line, fatal wins over transient,
// transient over ready; the earliest matching line decides the verdict.
//
// Already-classified output is never re-scanned: the detector keeps a log
// cursor across polls and buffers partial trailing lines until the rest of
// the line arrives.
func LogWatch(m LogMarkers) DetectorFactory {
	return func(t Target) Detector {
		return &logDetector{target: t, markers: m}
	}
}

type logDetector struct {
	target  Target
	markers LogMarkers

	ready     *regexp.Regexp
	fatal     *regexp.Regexp
	transient *regexp.Regexp
	compiled  bool

	cursor      string
	pendingRaw  []byte // incomplete trailing stream frame
	pendingText []byte // decoded partial line awaiting its newline
}

func (d *logDetector) Classify(ctx context.Context, svc *Service) (Verdict, error) {
	if err := d.compile(); err != nil {
		return Verdict{}, err
	}

	chunk, next, err := d.target.Logs(ctx, d.cursor)
	if err != nil {
		return Verdict{}, fmt.Errorf("reading container logs: %w", err)
	}
	d.cursor = next

	d.pendingRaw = append(d.pendingRaw, chunk...)
	text, rest := demuxFrames(d.pendingRaw)
	d.pendingRaw = append([]byte(nil), rest...)

	d.pendingText = append(d.pendingText, text...)
	lines, tail := splitLines(d.pendingText)
	d.pendingText = append([]byte(nil), tail...)

	for _, line := range lines {
		switch {
		case d.fatal != nil && d.fatal.Match(line):
			return Verdict{State: PersistentError, Detail: string(line)}, nil
		case d.transient != nil && d.transient.Match(line):
			return Verdict{State: TransientError, Detail: string(line)}, nil
		case d.ready != nil && d.ready.Match(line):
			return Verdict{State: Ready, Detail: string(line)}, nil
		}
	}
	return Verdict{State: NotReady}, nil
}

func (d *logDetector) compile() error {
	if d.compiled {
		return nil
	}
	var err error
	if d.ready, err = compileMarker(d.markers.Ready); err != nil {
		return fmt.Errorf("invalid ready marker: %w", err)
	}
	if d.fatal, err = compileMarker(d.markers.Fatal); err != nil {
		return fmt.Errorf("invalid fatal marker: %w", err)
	}
	if d.transient, err = compileMarker(d.markers.Transient); err != nil {
		return fmt.Errorf("invalid transient marker: %w", err)
	}
	d.compiled = true
	return nil
}

func compileMarker(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// demuxFrames strips Docker's multiplexed stream framing (8-byte header:
// stream byte, three zero bytes, big-endian payload length) from buf,
// returning the decoded payload and any incomplete trailing frame. Streams
// from TTY containers are not framed and pass through unchanged.
func demuxFrames(buf []byte) (payload, rest []byte) {
	if !looksFramed(buf) {
		return buf, nil
	}
	var out []byte
	for len(buf) > 0 {
		if len(buf) < 8 {
			return out, buf
		}
		size := int(binary.BigEndian.Uint32(buf[4:8]))
		if len(buf) < 8+size {
			return out, buf
		}
		out = append(out, buf[8:8+size]...)
		buf = buf[8+size:]
	}
	return out, nil
}

func looksFramed(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	return buf[0] <= 2 && buf[1] == 0 && buf[2] == 0 && buf[3] == 0
}

// splitLines splits text into complete newline-terminated lines and the
// partial remainder. Trailing carriage returns are trimmed.
func splitLines(text []byte) (lines [][]byte, tail []byte) {
	for {
		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			return lines, text
		}
		lines = append(lines, bytes.TrimSuffix(text[:i], []byte("\r")))
		text = text[i+1:]
	}
}
