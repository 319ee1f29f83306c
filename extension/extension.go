// Package extension provides a Forge extension entry point for Lectern.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/lecternhq/lectern"
	"github.com/lecternhq/lectern/api"
	"github.com/lecternhq/lectern/plugin"
	"github.com/lecternhq/lectern/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "lectern"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Hierarchical permission resolution engine for knowledge content"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Lectern as a Forge extension.
type Extension struct {
	config      Config
	eng         *lectern.Engine
	apiHandler  *api.API
	logger      *slog.Logger
	lecternOpts []lectern.Option
	plugins     []plugin.Plugin
}

// New creates a Lectern Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Lectern engine.
func (e *Extension) Engine() *lectern.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	// Register the engine in the DI container.
	if err := vessel.Provide(fapp.Container(), func() (*lectern.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("lectern: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Build lectern options.
	opts := make([]lectern.Option, 0, len(e.lecternOpts)+len(e.plugins)+2)
	opts = append(opts, lectern.WithLogger(logger))

	if e.config.MaxTreeDepth > 0 {
		cfg := lectern.DefaultConfig()
		cfg.MaxTreeDepth = e.config.MaxTreeDepth
		opts = append(opts, lectern.WithConfig(cfg))
	}

	// Try to resolve store from DI container, fall back to option-provided store.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, lectern.WithStore(s))
	}

	// Append user-provided options (may override store).
	opts = append(opts, e.lecternOpts...)

	// Register extension hooks.
	for _, x := range e.plugins {
		opts = append(opts, lectern.WithPlugin(x))
	}

	eng, err := lectern.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("lectern: create engine: %w", err)
	}
	e.eng = eng

	// Create API handler.
	e.apiHandler = api.New(eng, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("lectern: register routes: %w", err)
		}
	}

	return nil
}

// Start begins the lectern engine and runs migrations if enabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("lectern: extension not initialized")
	}

	// Run migrations unless disabled.
	if !e.config.DisableMigrate {
		s := e.eng.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("lectern: migration failed: %w", err)
			}
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the lectern engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("lectern: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("lectern: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all lectern API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
