// Package cmdutil provides shared dependencies for CLI commands.
package cmdutil

import (
	"context"

	"github.com/schmitthub/berth/internal/config"
	"github.com/schmitthub/berth/pkg/engine"
)

// Factory provides shared dependencies for CLI commands.
// It is a dependency injection container: the struct defines what
// dependencies exist (the contract), while internal/cmd/factory
// wires the real implementations.
//
// Closure fields are set by the factory constructor and use lazy
// initialization internally. Commands extract only the fields they
// need into per-command Options structs.
type Factory struct {
	// Configuration from flags (set before command execution)
	WorkDir string
	Debug   bool

	// Version info (set at build time via ldflags)
	Version string

	// Dependency providers (closures wired by factory constructor)
	Engine      func(context.Context) (*engine.Engine, error)
	CloseEngine func()

	ConfigLoader func() *config.Loader
	Config       func() (*config.Config, error)
}
