package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/pipecanvas/internal/builder"
	"github.com/vk/pipecanvas/internal/canvas"
	"github.com/vk/pipecanvas/internal/config"
	"github.com/vk/pipecanvas/internal/ctxlog"
	"github.com/vk/pipecanvas/internal/plugin"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/workflow"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *plugin.Registry
	config   *Config
	loader   config.Loader

	// onListen is called with the bound address once the editor server
	// accepts connections.
	onListen func(addr string)
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without modules the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...plugin.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := plugin.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "plugins", reg.Names())

	if err := reg.Validate(ctx); err != nil {
		// A plugin whose kind does not match its Go type is a programmer error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfg,
		loader:   loader,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *plugin.Registry {
	return a.registry
}

// Run executes the mode selected by the configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	switch {
	case a.config.WatchURL != "":
		return a.watch(ctx)
	case a.config.Serve:
		return a.serve(ctx)
	default:
		return a.runOnce(ctx)
	}
}

// newEditor creates a controller on a headless surface and a coordinator
// over its pipeline. When a pipeline path is configured the definition is
// loaded and built onto the canvas.
func (a *App) newEditor(ctx context.Context) (*workflow.Controller, *runner.Coordinator, error) {
	ctrl := workflow.New(workflow.Config{
		Registry: a.registry,
		Surface:  canvas.NewRecorder(),
		Logger:   a.logger,
	})
	coord := runner.New(ctrl.Pipeline(), a.logger)
	coord.AddListener(ctrl)

	if a.config.PipelinePath == "" {
		return ctrl, coord, nil
	}
	model, err := a.loader.Load(ctx, a.config.PipelinePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	ids, err := builder.Build(ctx, model, ctrl)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	a.logger.Info("Pipeline loaded.", "path", a.config.PipelinePath, "step_count", len(ids))
	return ctrl, coord, nil
}
