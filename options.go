package conduct

import (
	"context"
	"log/slog"
	"time"
)

// Option configures a Conductor.
type Option func(*Conductor) error

// Storer is the minimal store interface held by the Conductor.
// It covers lifecycle operations only. The full composite interface
// (store.Store) is used in subsystem layers that don't create import
// cycles. Implementations satisfy store.Store which embeds the workflow
// and cron store contracts.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// schedulerRunner is an internal interface for scheduler lifecycle.
type schedulerRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// extensionEmitter is an internal interface for extension lifecycle events.
type extensionEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Conductor is the central coordinator for workflow execution, run
// tracking, and cron scheduling.
//
// Create one with New() and functional options. The Conductor holds
// references to subsystem components via internal interfaces to avoid
// import cycles; use engine.Build to wire everything together.
type Conductor struct {
	config     Config
	logger     *slog.Logger
	store      Storer
	extensions extensionEmitter
	scheduler  schedulerRunner

	// started tracks whether Start has been called.
	started bool
}

// New creates a new Conductor with the given options.
func New(opts ...Option) (*Conductor, error) {
	c := &Conductor{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Logger returns the conductor's logger.
func (c *Conductor) Logger() *slog.Logger { return c.logger }

// Store returns the conductor's store.
func (c *Conductor) Store() Storer { return c.store }

// Config returns a copy of the conductor's configuration.
func (c *Conductor) Config() Config { return c.config }

// SetScheduler sets the cron scheduler (called by the engine package).
func (c *Conductor) SetScheduler(s schedulerRunner) { c.scheduler = s }

// SetExtensions sets the extension emitter (called by the engine package).
func (c *Conductor) SetExtensions(e extensionEmitter) { c.extensions = e }

// Start begins schedule processing. The conductor must have been wired
// by engine.Build first.
func (c *Conductor) Start(ctx context.Context) error {
	if c.scheduler == nil {
		return ErrNotBuilt
	}
	if err := c.scheduler.Start(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Stop gracefully shuts down the conductor.
func (c *Conductor) Stop(ctx context.Context) error {
	if c.scheduler != nil && c.started {
		if err := c.scheduler.Stop(ctx); err != nil {
			c.logger.Error("scheduler stop error", "error", err)
		}
	}
	if c.extensions != nil {
		c.extensions.EmitShutdown(ctx)
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}

// WithTickInterval sets how often the scheduler checks for due schedules.
func WithTickInterval(d time.Duration) Option {
	return func(c *Conductor) error {
		c.config.TickInterval = d
		return nil
	}
}

// WithLogger sets the structured logger for the conductor.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conductor) error {
		c.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for the conductor.
// The store must implement Storer at minimum; typically it will be a
// store.Store which embeds the workflow and cron store interfaces.
func WithStore(s Storer) Option {
	return func(c *Conductor) error {
		c.store = s
		return nil
	}
}

// WithInferenceURL sets the base URL of the external inference service.
func WithInferenceURL(url string) Option {
	return func(c *Conductor) error {
		c.config.InferenceURL = url
		return nil
	}
}

// WithStaticDir sets the directory the API serves static assets from.
func WithStaticDir(dir string) Option {
	return func(c *Conductor) error {
		c.config.StaticDir = dir
		return nil
	}
}
