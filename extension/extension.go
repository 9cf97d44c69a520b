// Package extension provides a Forge extension entry point for Gatehouse.
package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/api"
	"github.com/xraph/gatehouse/cache"
	"github.com/xraph/gatehouse/plugin"
	"github.com/xraph/gatehouse/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "gatehouse"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant access decisions: roles, subscriptions, module entitlements and grants"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Gatehouse as a Forge extension.
type Extension struct {
	config     Config
	eng        *gatehouse.Engine
	apiHandler *api.API
	logger     *slog.Logger
	cache      gatehouse.CapabilityCache
	closer     io.Closer
	engineOpts []gatehouse.Option
	plugins    []plugin.Plugin
}

// New creates a Gatehouse Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
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

// Engine returns the underlying Gatehouse engine.
func (e *Extension) Engine() *gatehouse.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*gatehouse.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("gatehouse: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]gatehouse.Option, 0, len(e.engineOpts)+len(e.plugins)+4)
	opts = append(opts,
		gatehouse.WithLogger(logger),
		gatehouse.WithConfig(e.config.engineConfig()),
	)

	// Store and cache from the DI container, overridable by options.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, gatehouse.WithStore(s))
	}
	c, err := e.resolveCache(fapp, logger)
	if err != nil {
		return err
	}
	if c != nil {
		opts = append(opts, gatehouse.WithCache(c))
	}

	opts = append(opts, e.engineOpts...)
	for _, x := range e.plugins {
		opts = append(opts, gatehouse.WithPlugin(x))
	}

	eng, err := gatehouse.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("gatehouse: create engine: %w", err)
	}
	e.eng = eng
	e.cache = c

	e.apiHandler = api.New(eng, fapp.Router())

	if !e.config.DisableRoutes {
		router := fapp.Router()
		if e.config.BasePath != "" {
			router = router.Group(e.config.BasePath)
		}
		if err := e.apiHandler.RegisterRoutes(router); err != nil {
			return fmt.Errorf("gatehouse: register routes: %w", err)
		}
	}

	return nil
}

// resolveCache picks the capability cache: an explicit option, then the
// DI container, then the configured Redis or in-process cache.
func (e *Extension) resolveCache(fapp forge.App, logger *slog.Logger) (gatehouse.CapabilityCache, error) {
	if e.cache != nil {
		return e.cache, nil
	}
	if c, err := forge.Inject[gatehouse.CapabilityCache](fapp.Container()); err == nil {
		return c, nil
	}
	if e.config.RedisURL != "" {
		c, err := cache.DialRedis(context.Background(), e.config.RedisURL,
			cache.WithRedisTTL(e.config.CacheTTL),
			cache.WithRedisLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("gatehouse: dial capability cache: %w", err)
		}
		e.closer = c
		return c, nil
	}
	if e.config.CacheTTL <= 0 {
		return nil, nil
	}
	return cache.NewMemory(cache.WithTTL(e.config.CacheTTL), cache.WithMaxSize(e.config.CacheSize)), nil
}

// Start runs migrations if enabled, seeds the role catalog and purges
// expired check log entries.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}

	s := e.eng.Store()
	if !e.config.DisableMigrate && s != nil {
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("gatehouse: migration failed: %w", err)
		}
	}

	if err := e.eng.Start(ctx); err != nil {
		return err
	}

	if e.config.CheckLogRetention > 0 && s != nil {
		cutoff := e.eng.Now().Add(-e.config.CheckLogRetention)
		if _, err := s.PurgeCheckLogs(ctx, cutoff); err != nil {
			return fmt.Errorf("gatehouse: purge check logs: %w", err)
		}
	}
	return nil
}

// Stop gracefully shuts down the gatehouse engine and releases a cache
// connection the extension opened.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	err := e.eng.Stop(ctx)
	if e.closer != nil {
		err = errors.Join(err, e.closer.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("gatehouse: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("gatehouse: no store configured")
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

// RegisterRoutes registers all gatehouse API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
