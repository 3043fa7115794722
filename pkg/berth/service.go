// Package berth provisions short-lived containerised service instances for
// test suites: it starts a container, waits until the service inside it is
// actually usable (not merely running), and guarantees teardown regardless
// of outcome. Readiness is decided by pluggable detectors polled by a
// monitor that separates recoverable noise from real failure.
package berth

import "fmt"

// Credentials is an optional credential set for a started service
// (e.g. a root user created by the image's entrypoint).
type Credentials struct {
	User     string
	Password string
}

// Service describes how to reach a started service instance. It is
// constructed by the controller once the container's host-mapped port is
// known and must be treated as read-only from then on: the monitor and the
// caller only ever read it.
//
// The backing container is referenced by an unexported handle so it never
// crosses the controller boundary.
type Service struct {
	// Name is the service definition name (e.g. "couchdb").
	Name string

	// Host and Port are the host-side coordinates of the mapped service port.
	Host string
	Port int

	// Scheme is the service-specific URL scheme (e.g. "http", "postgres").
	Scheme string

	// Credentials is nil when the service has no default credential set.
	Credentials *Credentials

	handle Handle
}

// URL returns the derived connection URL: scheme://host:port.
func (s *Service) URL() string {
	return fmt.Sprintf("%s://%s:%d", s.Scheme, s.Host, s.Port)
}

// Addr returns the host:port pair.
func (s *Service) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// hasEndpoint reports whether the service has an assigned network endpoint.
// Detectors must treat a service without one as not ready, never as a fault.
func (s *Service) hasEndpoint() bool {
	return s != nil && s.Host != "" && s.Port > 0
}
