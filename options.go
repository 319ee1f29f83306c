package lectern

import (
	"log/slog"
	"time"

	"github.com/lecternhq/lectern/plugin"
	"github.com/lecternhq/lectern/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithTreeWalker sets the ancestor-path walker.
func WithTreeWalker(tw TreeWalker) Option { return func(e *Engine) { e.treeWalker = tw } }

// WithCache sets the resolution cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}

// WithNow overrides the engine's time source. Tests use this to exercise
// assignment expiry without sleeping.
func WithNow(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
