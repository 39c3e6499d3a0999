package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/feedrelay/internal/api"
	"github.com/stacklok/feedrelay/internal/app/storage"
	"github.com/stacklok/feedrelay/internal/bot"
	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/delivery"
	"github.com/stacklok/feedrelay/internal/status"
	"github.com/stacklok/feedrelay/internal/subscriptions"
	pkgsync "github.com/stacklok/feedrelay/internal/sync"
	"github.com/stacklok/feedrelay/internal/sync/coordinator"
	"github.com/stacklok/feedrelay/internal/sync/state"
	"github.com/stacklok/feedrelay/internal/telemetry"
)

const (
	// InstrumentationName names the tracer used by the sync pipeline
	InstrumentationName = "github.com/stacklok/feedrelay"

	defaultRequestTimeout  = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second
)

// FeedRelayAppOptions is a function that configures the relay app builder
type FeedRelayAppOptions func(*feedRelayAppConfig) error

// feedRelayAppConfig collects the builder inputs.
// It supports dependency injection for testing while providing sensible defaults for production
type feedRelayAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	storageFactory storage.Factory
	syncManager    pkgsync.Manager
	feedWalker     pkgsync.FeedWalker
	transport      Transport
	sink           delivery.Sink

	// HTTP server options
	address         string
	middlewares     []func(http.Handler) http.Handler
	requestTimeout  time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...FeedRelayAppOptions) (*feedRelayAppConfig, error) {
	cfg := &feedRelayAppConfig{
		requestTimeout:  defaultRequestTimeout,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.HTTP.GetAddress()
	}

	return cfg, nil
}

// NewFeedRelayApp wires the relay from its configuration
func NewFeedRelayApp(
	ctx context.Context,
	opts ...FeedRelayAppOptions,
) (*FeedRelayApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	// Single decision point for database vs file storage
	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
		}
	}()

	checkpoints, err := cfg.storageFactory.CreateCheckpointStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
	}
	if err := verifyCheckpointSeeded(ctx, checkpoints); err != nil {
		return nil, err
	}

	registry, err := cfg.storageFactory.CreateRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription registry: %w", err)
	}

	tracker := status.NewTracker(cfg.storageFactory.CreateStatusPersistence())
	if err := tracker.Load(ctx); err != nil {
		slog.Warn("Failed to load previous sync status", "error", err)
	}

	if err := buildTransport(cfg, registry); err != nil {
		return nil, fmt.Errorf("failed to build chat transport: %w", err)
	}

	syncCoordinator, err := buildSyncComponents(ctx, cfg, checkpoints, registry, tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	statusSvc := api.NewStatusService(tracker, checkpoints, registry, cfg.storageFactory.Ping)
	httpServer, err := buildHTTPServer(cfg, statusSvc)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	// Cleanup is now handled by the app
	cleanupNeeded = false

	return &FeedRelayApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			StatusTracker:   tracker,
			Transport:       cfg.transport,
			StorageFactory:  cfg.storageFactory,
		},
		httpServer:      httpServer,
		shutdownTimeout: cfg.shutdownTimeout,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithShutdownTimeout bounds the graceful HTTP shutdown
func WithShutdownTimeout(d time.Duration) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		cfg.shutdownTimeout = d
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithFeedWalker replaces the browser-backed walker
func WithFeedWalker(w pkgsync.FeedWalker) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.feedWalker = w
		return nil
	}
}

// WithTransport replaces the Discord session. A sink must be supplied with it.
func WithTransport(t Transport, sink delivery.Sink) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		if t == nil || sink == nil {
			return fmt.Errorf("transport and sink are both required")
		}
		cfg.transport = t
		cfg.sink = sink
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for sync, command and HTTP metrics
func WithMeterProvider(mp metric.MeterProvider) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) FeedRelayAppOptions {
	return func(cfg *feedRelayAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

func (b *feedRelayAppConfig) tracer() trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(InstrumentationName)
}

// verifyCheckpointSeeded refuses to start a relay that would otherwise
// deliver the whole feed history.
func verifyCheckpointSeeded(ctx context.Context, checkpoints state.CheckpointStore) error {
	checkpoint, err := checkpoints.Get(ctx)
	if errors.Is(err, state.ErrCheckpointNotSeeded) {
		return fmt.Errorf("%w: run 'feedrelay checkpoint seed <sequence>' first", err)
	}
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	slog.Info("Checkpoint loaded", "checkpoint", checkpoint)
	return nil
}

// buildTransport creates the Discord session, its command handlers and the
// delivery sink unless a transport was injected.
func buildTransport(b *feedRelayAppConfig, registry subscriptions.Registry) error {
	if b.transport != nil {
		return nil
	}

	session, err := bot.NewSession(b.config.Discord.Token)
	if err != nil {
		return err
	}

	commandMetrics, err := telemetry.NewCommandMetrics(b.meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create command metrics: %w", err)
	}

	commands := bot.NewCommands(registry, bot.NewChannelNamer(session),
		bot.WithCommandNames(b.config.Discord.GetCommands()),
		bot.WithCommandMetrics(commandMetrics),
	)

	b.transport = bot.New(session, commands, b.config.Discord.GuildID)
	b.sink = delivery.NewDiscordSink(session)
	return nil
}

// buildSyncComponents builds the sync manager and the coordinator running it
func buildSyncComponents(
	ctx context.Context,
	b *feedRelayAppConfig,
	checkpoints state.CheckpointStore,
	registry subscriptions.Registry,
	tracker *status.Tracker,
) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	if b.syncManager == nil {
		if b.feedWalker == nil {
			w, err := NewFeedWalker(b.config, b.tracer())
			if err != nil {
				return nil, fmt.Errorf("failed to create feed walker: %w", err)
			}
			b.feedWalker = w
		}

		itemWriter, err := b.storageFactory.CreateItemWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create item writer: %w", err)
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			checkpoints,
			b.feedWalker,
			registry,
			b.sink,
			itemWriter,
			pkgsync.WithTracer(b.tracer()),
		)
	}

	coordOpts := []coordinator.Option{coordinator.WithStatusTracker(tracker)}

	syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	if syncMetrics != nil {
		coordOpts = append(coordOpts, coordinator.WithSyncMetrics(syncMetrics))
		slog.Info("Sync metrics enabled")
	}

	syncCoordinator := coordinator.New(b.syncManager, coordinator.PolicyFromConfig(b.config), coordOpts...)
	slog.Info("Sync components initialized successfully")

	return syncCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *feedRelayAppConfig, svc api.StatusService) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Prepended so rejected and timed out requests are observed as well
	if b.meterProvider != nil || b.tracerProvider != nil {
		telemetryMiddleware, err := telemetry.HTTPMiddleware(b.tracerProvider, b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry middleware: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{telemetryMiddleware}, b.middlewares...)
		slog.Info("HTTP telemetry middleware enabled")
	}

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
