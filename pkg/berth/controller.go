package berth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ImagePolicy controls how the controller acquires the image to run.
type ImagePolicy int

const (
	// PullIfMissing uses a local image when present, otherwise pulls.
	PullIfMissing ImagePolicy = iota

	// AlwaysPull pulls from the source repository on every start.
	AlwaysPull

	// LocalOnly fails fast if the image is not present locally. Enables
	// fully offline test runs.
	LocalOnly

	// BuildImage builds the image from the definition's Dockerfile instead
	// of using a registry image.
	BuildImage
)

func (p ImagePolicy) String() string {
	switch p {
	case PullIfMissing:
		return "pull-if-missing"
	case AlwaysPull:
		return "always-pull"
	case LocalOnly:
		return "local-only"
	case BuildImage:
		return "build"
	default:
		return "unknown"
	}
}

// ParseImagePolicy parses the configuration-file spelling of a policy.
func ParseImagePolicy(s string) (ImagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pull-if-missing":
		return PullIfMissing, nil
	case "always-pull":
		return AlwaysPull, nil
	case "local-only":
		return LocalOnly, nil
	case "build":
		return BuildImage, nil
	default:
		return PullIfMissing, fmt.Errorf("unknown image policy %q", s)
	}
}

// Handle is an opaque reference to a container, owned exclusively by the
// controller invocation that created it.
type Handle string

// ImageSpec tells the runtime which image to make available.
type ImageSpec struct {
	// Ref is the image reference (repo:tag). For BuildImage it is the tag
	// applied to the built image.
	Ref string

	Policy ImagePolicy

	// Dockerfile is the build definition, used only with BuildImage.
	Dockerfile string
}

// ContainerSpec tells the runtime what to create and start.
type ContainerSpec struct {
	Image string
	Name  string

	// Port is the service's default exposed container port, to be mapped
	// to an ephemeral host port.
	Port int

	Env []string

	// Cmd overrides the image's default command when set.
	Cmd []string
}

// Runtime is the container-runtime client the controller consumes. It is
// the only boundary to the external runtime; implementations live outside
// this package (see pkg/engine for the Docker-backed one) and fakes in
// berthtest.
//
// Stop and Remove must swallow "already stopped/removed" conditions and
// return nil for them; only genuine runtime failures are errors.
type Runtime interface {
	// ResolveImage makes the requested image available per the policy and
	// returns the reference to run.
	ResolveImage(ctx context.Context, spec ImageSpec) (string, error)

	// CreateAndStart creates and starts a container. On error the returned
	// handle may still be non-empty if a container was partially created;
	// the caller must remove it.
	CreateAndStart(ctx context.Context, spec ContainerSpec) (Handle, error)

	// Endpoint resolves the host-side address of a mapped container port.
	Endpoint(ctx context.Context, h Handle, containerPort int) (host string, hostPort int, err error)

	// LogsSince returns log output accumulated after cursor plus the next
	// cursor. An empty cursor reads from the beginning.
	LogsSince(ctx context.Context, h Handle, cursor string) (chunk []byte, next string, err error)

	Stop(ctx context.Context, h Handle) error
	Remove(ctx context.Context, h Handle) error
}

// Definition describes one service type: which image to run, how to reach
// it, and how to tell that it is ready. Definitions are plain values; see
// pkg/predefined for a table of common services.
type Definition struct {
	// Name identifies the service type (e.g. "couchdb") and prefixes
	// container names.
	Name string

	// Image is the registry reference (repo:tag). Ignored with the
	// BuildImage policy when Dockerfile is set, except as the built tag.
	Image string

	// Dockerfile is the build definition for the BuildImage policy.
	Dockerfile string

	// Port is the container port the service listens on.
	Port int

	// Scheme is the connection URL scheme (e.g. "http", "postgres").
	Scheme string

	// Credentials is the default credential set baked into the image, if any.
	Credentials *Credentials

	// Env is extra environment for the container.
	Env []string

	// Cmd overrides the image's default command when set.
	Cmd []string

	// Detectors are instantiated fresh for every start, in order.
	Detectors []DetectorFactory

	ImagePolicy ImagePolicy

	// Monitor settings; zero values use the PollingMonitor defaults.
	Timeout            time.Duration
	PollInterval       time.Duration
	MaxTransientErrors int

	// StartTries retries the whole start cycle after a timeout or an
	// escalated transient failure, tearing the failed container down in
	// between. Persistent failures never retry. Zero means one attempt.
	StartTries int
}

func (d Definition) validate() error {
	if d.Name == "" {
		return errors.New("definition has no name")
	}
	if d.Port < 1 || d.Port > 65535 {
		return fmt.Errorf("definition %q: port %d out of range", d.Name, d.Port)
	}
	if d.ImagePolicy == BuildImage {
		if d.Dockerfile == "" {
			return fmt.Errorf("definition %q: build policy without a Dockerfile", d.Name)
		}
	} else if d.Image == "" {
		return fmt.Errorf("definition %q: no image reference", d.Name)
	}
	return nil
}

// Controller owns the full lifecycle of one container instance per
// StartService invocation. Controllers are cheap; construct one per service
// definition. Concurrent StartService calls on one controller are
// independent: each owns its own container and monitor loop.
type Controller struct {
	rt      Runtime
	def     Definition
	monitor Monitor
	log     zerolog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithMonitor replaces the default PollingMonitor wholesale.
func WithMonitor(m Monitor) Option {
	return func(c *Controller) { c.monitor = m }
}

// WithLogger sets the controller's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// New constructs a controller for one service definition. Construction is
// explicit: there is no process-wide registry of controllers.
func New(rt Runtime, def Definition, opts ...Option) *Controller {
	c := &Controller{
		rt:  rt,
		def: def,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartService acquires the image, starts a container with the service port
// mapped to an ephemeral host port, and waits until a detector reports the
// service ready. The returned Service has been observed ready; it is never
// returned otherwise. On any failure the container is torn down before the
// error is returned.
func (c *Controller) StartService(ctx context.Context) (*Service, error) {
	if err := c.def.validate(); err != nil {
		return nil, err
	}
	if c.monitor == nil && len(c.def.Detectors) == 0 {
		return nil, fmt.Errorf("definition %q: no detectors and no custom monitor", c.def.Name)
	}

	imageRef, err := c.rt.ResolveImage(ctx, ImageSpec{
		Ref:        c.def.Image,
		Policy:     c.def.ImagePolicy,
		Dockerfile: c.def.Dockerfile,
	})
	if err != nil {
		return nil, &ImageAcquisitionError{Ref: c.def.Image, Policy: c.def.ImagePolicy, Err: err}
	}
	c.log.Debug().Str("service", c.def.Name).Str("image", imageRef).Msg("image acquired")

	tries := c.def.StartTries
	if tries < 1 {
		tries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		svc, err := c.startOnce(ctx, imageRef)
		if err == nil {
			return svc, nil
		}
		lastErr = err
		if !retryable(err) || attempt == tries {
			return nil, err
		}
		c.log.Warn().Err(err).
			Str("service", c.def.Name).
			Int("attempt", attempt).
			Msg("start attempt failed, retrying")
	}
	return nil, lastErr
}

// startOnce runs one full start/monitor cycle, tearing the container down
// on any failure before returning.
func (c *Controller) startOnce(ctx context.Context, imageRef string) (*Service, error) {
	name := fmt.Sprintf("%s-%s", c.def.Name, uuid.NewString())

	h, err := c.rt.CreateAndStart(ctx, ContainerSpec{
		Image: imageRef,
		Name:  name,
		Port:  c.def.Port,
		Env:   c.def.Env,
		Cmd:   c.def.Cmd,
	})
	if err != nil {
		if h != "" {
			c.teardown(ctx, h)
		}
		return nil, &ContainerStartError{Image: imageRef, Err: err}
	}
	c.log.Debug().Str("container", name).Msg("container started")

	host, hostPort, err := c.rt.Endpoint(ctx, h, c.def.Port)
	if err != nil {
		terr := c.teardown(ctx, h)
		return nil, join(&ContainerStartError{
			Image: imageRef,
			Err:   fmt.Errorf("resolving endpoint: %w", err),
		}, terr)
	}

	svc := &Service{
		Name:        c.def.Name,
		Host:        host,
		Port:        hostPort,
		Scheme:      c.def.Scheme,
		Credentials: c.def.Credentials,
		handle:      h,
	}

	target := &runtimeTarget{rt: c.rt, h: h, svc: svc}
	detectors := make([]Detector, len(c.def.Detectors))
	for i, factory := range c.def.Detectors {
		detectors[i] = factory(target)
	}

	mon := c.monitor
	if mon == nil {
		mon = &PollingMonitor{
			Timeout:            c.def.Timeout,
			PollInterval:       c.def.PollInterval,
			MaxTransientErrors: c.def.MaxTransientErrors,
			Log:                c.log,
		}
	}

	if err := mon.WaitUntilReady(ctx, svc, detectors); err != nil {
		c.attachLogs(ctx, h, err)
		terr := c.teardown(ctx, h)
		return nil, join(err, terr)
	}

	c.log.Info().
		Str("service", c.def.Name).
		Str("url", svc.URL()).
		Msg("service ready")
	return svc, nil
}

// StopService stops and removes the container backing the service. It is
// idempotent: a container that is already stopped or removed is not an
// error. Genuine runtime failures surface as a *TeardownError.
func (c *Controller) StopService(ctx context.Context, svc *Service) error {
	if svc == nil || svc.handle == "" {
		return nil
	}
	return c.teardown(ctx, svc.handle)
}

// WithService runs fn with a started service and guarantees teardown
// exactly once, whether fn returns normally or with an error. The body's
// error stays primary; a teardown failure is attached as a secondary error,
// or surfaced itself when the body succeeded.
func (c *Controller) WithService(ctx context.Context, fn func(ctx context.Context, svc *Service) error) (err error) {
	svc, err := c.StartService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		// Teardown must run even when ctx is already cancelled.
		terr := c.StopService(context.WithoutCancel(ctx), svc)
		err = join(err, terr)
	}()
	return fn(ctx, svc)
}

// teardown stops and removes the container, best effort. The stop error is
// deliberately not fatal to removal: removal is forced either way.
func (c *Controller) teardown(ctx context.Context, h Handle) error {
	if err := c.rt.Stop(ctx, h); err != nil {
		c.log.Warn().Err(err).Str("container", string(h)).Msg("stop failed, removing anyway")
	}
	if err := c.rt.Remove(ctx, h); err != nil {
		return &TeardownError{Container: string(h), Err: err}
	}
	c.log.Debug().Str("container", string(h)).Msg("container removed")
	return nil
}

// attachLogs captures container output into the monitor's error so callers
// can diagnose without re-running.
func (c *Controller) attachLogs(ctx context.Context, h Handle, err error) {
	chunk, _, lerr := c.rt.LogsSince(ctx, h, "")
	if lerr != nil {
		c.log.Debug().Err(lerr).Msg("could not capture container logs")
		return
	}
	logs := string(chunk)
	var perr *PersistentStartupError
	var terr *StartupTimeoutError
	switch {
	case errors.As(err, &perr):
		perr.Logs = logs
	case errors.As(err, &terr):
		terr.Logs = logs
	}
}

// retryable reports whether a failed attempt may be retried: timeouts and
// escalated transient failures only. Genuine persistent evidence is final.
func retryable(err error) bool {
	var terr *StartupTimeoutError
	if errors.As(err, &terr) {
		return terr.Err == nil // not a caller cancellation
	}
	var perr *PersistentStartupError
	if errors.As(err, &perr) {
		return perr.Escalated != ""
	}
	return false
}

func join(primary, secondary error) error {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}
	return errors.Join(primary, secondary)
}
