// Package berthtest provides test doubles for the berth.Runtime boundary so
// lifecycle behavior can be tested without a container daemon.
package berthtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/schmitthub/berth/pkg/berth"
)

// FakeRuntime is a test double for berth.Runtime using the function-field
// pattern: each Runtime method has a corresponding Fn field. If the field
// is set, the fake delegates to it and records the call; if it is nil, the
// call panics with "not implemented", giving fail-loud behavior for
// unexpected calls.
type FakeRuntime struct {
	mu sync.Mutex

	// Calls records the method names invoked on this fake, in order.
	Calls []string

	ResolveImageFn   func(ctx context.Context, spec berth.ImageSpec) (string, error)
	CreateAndStartFn func(ctx context.Context, spec berth.ContainerSpec) (berth.Handle, error)
	EndpointFn       func(ctx context.Context, h berth.Handle, containerPort int) (string, int, error)
	LogsSinceFn      func(ctx context.Context, h berth.Handle, cursor string) ([]byte, string, error)
	StopFn           func(ctx context.Context, h berth.Handle) error
	RemoveFn         func(ctx context.Context, h berth.Handle) error
}

var _ berth.Runtime = (*FakeRuntime)(nil)

func (f *FakeRuntime) record(method string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, method)
	f.mu.Unlock()
}

// CallCount returns how many times method was invoked.
func (f *FakeRuntime) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func notImplemented(method string) {
	panic(fmt.Sprintf("not implemented: %s — set %sFn on FakeRuntime", method, method))
}

func (f *FakeRuntime) ResolveImage(ctx context.Context, spec berth.ImageSpec) (string, error) {
	if f.ResolveImageFn == nil {
		notImplemented("ResolveImage")
	}
	f.record("ResolveImage")
	return f.ResolveImageFn(ctx, spec)
}

func (f *FakeRuntime) CreateAndStart(ctx context.Context, spec berth.ContainerSpec) (berth.Handle, error) {
	if f.CreateAndStartFn == nil {
		notImplemented("CreateAndStart")
	}
	f.record("CreateAndStart")
	return f.CreateAndStartFn(ctx, spec)
}

func (f *FakeRuntime) Endpoint(ctx context.Context, h berth.Handle, containerPort int) (string, int, error) {
	if f.EndpointFn == nil {
		notImplemented("Endpoint")
	}
	f.record("Endpoint")
	return f.EndpointFn(ctx, h, containerPort)
}

func (f *FakeRuntime) LogsSince(ctx context.Context, h berth.Handle, cursor string) ([]byte, string, error) {
	if f.LogsSinceFn == nil {
		notImplemented("LogsSince")
	}
	f.record("LogsSince")
	return f.LogsSinceFn(ctx, h, cursor)
}

func (f *FakeRuntime) Stop(ctx context.Context, h berth.Handle) error {
	if f.StopFn == nil {
		notImplemented("Stop")
	}
	f.record("Stop")
	return f.StopFn(ctx, h)
}

func (f *FakeRuntime) Remove(ctx context.Context, h berth.Handle) error {
	if f.RemoveFn == nil {
		notImplemented("Remove")
	}
	f.record("Remove")
	return f.RemoveFn(ctx, h)
}

// Started returns a FakeRuntime wired for the happy path up to monitoring:
// image resolves to itself, one container starts, and the endpoint resolves
// to host:port. LogsSince returns nothing. Tests override the fields they
// care about.
func Started(host string, port int) *FakeRuntime {
	return &FakeRuntime{
		ResolveImageFn: func(_ context.Context, spec berth.ImageSpec) (string, error) {
			return spec.Ref, nil
		},
		CreateAndStartFn: func(_ context.Context, spec berth.ContainerSpec) (berth.Handle, error) {
			return berth.Handle("fake-" + spec.Name), nil
		},
		EndpointFn: func(_ context.Context, _ berth.Handle, _ int) (string, int, error) {
			return host, port, nil
		},
		LogsSinceFn: func(_ context.Context, _ berth.Handle, cursor string) ([]byte, string, error) {
			return nil, cursor, nil
		},
		StopFn:   func(context.Context, berth.Handle) error { return nil },
		RemoveFn: func(context.Context, berth.Handle) error { return nil },
	}
}

// LogFeed returns a LogsSinceFn that serves chunks one per call, using the
// cursor as an index. Calls past the last chunk return nothing. Useful for
// scripting "a line appears on tick N" scenarios.
func LogFeed(chunks ...string) func(ctx context.Context, h berth.Handle, cursor string) ([]byte, string, error) {
	return func(_ context.Context, _ berth.Handle, cursor string) ([]byte, string, error) {
		i := 0
		if cursor != "" {
			var err error
			if i, err = strconv.Atoi(cursor); err != nil {
				return nil, cursor, fmt.Errorf("bad cursor %q", cursor)
			}
		}
		if i >= len(chunks) {
			return nil, cursor, nil
		}
		return []byte(chunks[i]), strconv.Itoa(i + 1), nil
	}
}
