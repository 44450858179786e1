// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package screening provides the EUDR forest-loss compliance screening
// service for CanopyWatch.
//
// This package contains the main Service type that coordinates all
// components of the API: HTTP routing, the service-account credential
// pool, the zonal-statistics gateway, the parallel dispatch layer, and
// observability infrastructure.
//
// # Usage
//
//	cfg := screening.Config{Port: 12240, ComputeEndpoint: "http://zonal:8085"}
//	svc, err := screening.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package screening

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/CanopyWatch/services/screening/accounts"
	"github.com/AleutianAI/CanopyWatch/services/screening/dispatch"
	"github.com/AleutianAI/CanopyWatch/services/screening/gateway"
	"github.com/AleutianAI/CanopyWatch/services/screening/observability"
	"github.com/AleutianAI/CanopyWatch/services/screening/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the screening service.
//
// # Description
//
// Service abstracts the service lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called
// once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing. Callers
	// must not modify the router.
	Router() *gin.Engine

	// Pool returns the loaded credential pool.
	Pool() *accounts.Pool
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds screening service configuration options.
//
// # Description
//
// Config centralizes all configuration for the screening service.
// Values can be populated from the YAML config file, environment
// variables, or programmatically for testing.
//
// # Required Fields
//
//   - ComputeEndpoint: base URL of the zonal-statistics compute service
//
// Everything else has a sensible default.
type Config struct {
	// Port is the HTTP server port. Default: 12240
	Port int

	// ComputeEndpoint is the base URL of the remote zonal-statistics
	// compute service. Required.
	ComputeEndpoint string

	// CredentialsDir is the directory holding the eudr-<n>.json service
	// account key files. Default: "./credentials"
	CredentialsDir string

	// StrictCredentials makes startup fail when no valid credential is
	// found. When false the service starts degraded and falls back to
	// application default credentials. Default: false
	StrictCredentials bool

	// ParallelEnabled gates parallel batch processing. Default: true
	// unless explicitly disabled via the config file.
	ParallelEnabled bool

	// MaxWorkers caps the parallel worker count. Default: 8
	MaxWorkers int

	// ComputeTimeout bounds a single zonal-statistics round trip.
	// Default: 120s
	ComputeTimeout time.Duration

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "canopy-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	pool          *accounts.Pool
	binder        gateway.Binder
	dispatcher    *dispatch.Dispatcher
	metrics       *observability.ScreeningMetrics
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a new screening Service with the given configuration.
//
// # Description
//
// New initializes all service components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Loads and validates the service-account credential pool
//  5. Creates the zonal-statistics gateway client
//  6. Creates the dispatch layer
//  7. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults, except
//     ComputeEndpoint which is required.
//
// # Outputs
//
//   - Service: Ready-to-run screening service
//   - error: Non-nil if initialization fails
//
// # Limitations
//
//   - An empty credential pool is fatal only when StrictCredentials is
//     set; otherwise the service starts degraded on default credentials.
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if s.config.ComputeEndpoint == "" {
		return nil, fmt.Errorf("compute endpoint is required")
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	if s.config.EnableMetrics {
		s.metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for screening")
	}

	// Load the credential pool
	if err := s.initAccounts(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize credential pool: %w", err)
	}

	// Create the zonal-statistics gateway
	s.binder, err = gateway.NewZonalClient(gateway.Config{
		Endpoint:    s.config.ComputeEndpoint,
		CallTimeout: s.config.ComputeTimeout,
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to create zonal client: %w", err)
	}

	// Create the dispatch layer
	s.dispatcher = dispatch.New(s.pool, s.binder, s.metrics, dispatch.Options{
		ParallelEnabled: s.config.ParallelEnabled,
		MaxWorkers:      s.config.MaxWorkers,
	})

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting screening server",
		"port", s.config.Port,
		"accounts", s.pool.Size(),
		"parallel", s.config.ParallelEnabled,
	)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// Pool returns the loaded credential pool.
func (s *service) Pool() *accounts.Pool {
	return s.pool
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12240
	}
	if cfg.CredentialsDir == "" {
		cfg.CredentialsDir = "./credentials"
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 8
	}
	if cfg.ComputeTimeout == 0 {
		cfg.ComputeTimeout = 120 * time.Second
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "canopy-otel-collector:4317"
	}
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// Uses an insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("screening-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initAccounts loads the credential pool and validates the slot layout.
//
// Missing slots are expected: deployments provision as many eudr-<n>.json
// keys as they have quota for. Invalid slots are logged. An empty pool is
// fatal only in strict mode.
func (s *service) initAccounts() error {
	pool, err := accounts.Load(s.config.CredentialsDir)
	if err != nil {
		return err
	}
	s.pool = pool

	for _, st := range accounts.Scan(s.config.CredentialsDir) {
		if st.State == accounts.SlotInvalid {
			slog.Warn("Credential slot failed validation",
				"slot", st.Name,
				"error", st.Detail,
			)
		}
	}

	if pool.Size() == 0 {
		if s.config.StrictCredentials {
			return fmt.Errorf("no valid credentials in %s", s.config.CredentialsDir)
		}
		slog.Warn("No valid credentials found, running on default credentials",
			"dir", s.config.CredentialsDir)
	}

	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}

	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("screening-service"))
	s.router.MaxMultipartMemory = 8 << 20

	routes.SetupRoutes(s.router, s.dispatcher, s.pool,
		s.config.MaxWorkers, s.config.ParallelEnabled)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
