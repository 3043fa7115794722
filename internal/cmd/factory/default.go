// Package factory wires the real dependency implementations into a
// cmdutil.Factory.
package factory

import (
	"context"
	"os"
	"sync"

	"github.com/schmitthub/berth/internal/cmdutil"
	"github.com/schmitthub/berth/internal/config"
	"github.com/schmitthub/berth/pkg/engine"
)

// New creates a fully-wired Factory with lazy-initialized dependency closures.
// Called exactly once at the CLI entry point (cmd/berth).
// Tests should NOT import this package — construct &cmdutil.Factory{} directly.
func New(version string) *cmdutil.Factory {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	f := &cmdutil.Factory{
		Version: version,
		WorkDir: workDir,
	}

	// --- Lazy dependency closures ---

	// Docker engine
	var (
		engineOnce sync.Once
		eng        *engine.Engine
		engineErr  error
	)
	f.Engine = func(ctx context.Context) (*engine.Engine, error) {
		engineOnce.Do(func() {
			eng, engineErr = engine.New(ctx, engine.Options{})
		})
		return eng, engineErr
	}
	f.CloseEngine = func() {
		if eng != nil {
			eng.Close()
		}
	}

	// Config
	var (
		configOnce   sync.Once
		configLoader *config.Loader
		configData   *config.Config
		configErr    error
	)
	f.ConfigLoader = func() *config.Loader {
		configOnce.Do(func() {
			configLoader = config.NewLoader(f.WorkDir)
		})
		return configLoader
	}
	f.Config = func() (*config.Config, error) {
		loader := f.ConfigLoader()
		if configData == nil && configErr == nil {
			configData, configErr = loader.LoadOrDefault()
		}
		return configData, configErr
	}

	return f
}
