// Package server wires configuration, storage, messaging and HTTP together.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/Ramsey-B/yarrow/config"
	"github.com/Ramsey-B/yarrow/internal/repositories/alias"
	"github.com/Ramsey-B/yarrow/internal/repositories/center"
	"github.com/Ramsey-B/yarrow/internal/repositories/dispatchnormalized"
	"github.com/Ramsey-B/yarrow/internal/repositories/dispatchrecord"
	"github.com/Ramsey-B/yarrow/internal/repositories/ignored"
	"github.com/Ramsey-B/yarrow/internal/repositories/plannormalized"
	"github.com/Ramsey-B/yarrow/internal/repositories/planrecord"
	"github.com/Ramsey-B/yarrow/internal/repositories/product"
	"github.com/Ramsey-B/yarrow/internal/repositories/store"
	"github.com/Ramsey-B/yarrow/pkg/classifier"
	"github.com/Ramsey-B/yarrow/pkg/corrections"
	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/events"
	"github.com/Ramsey-B/yarrow/pkg/kafka"
	yarrowmiddleware "github.com/Ramsey-B/yarrow/pkg/middleware"
	"github.com/Ramsey-B/yarrow/pkg/pipeline"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
	"github.com/Ramsey-B/yarrow/pkg/routes/health"
	"github.com/Ramsey-B/yarrow/pkg/routes/master"
	"github.com/Ramsey-B/yarrow/pkg/routes/normalize"
	"github.com/Ramsey-B/yarrow/pkg/routes/resolution"
	"github.com/Ramsey-B/yarrow/pkg/startup"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
	"github.com/Ramsey-B/yarrow/pkg/tracing/exporters"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Server owns the process lifecycle: tracing, database, kafka and HTTP.
type Server struct {
	config   *config.Config
	logger   ectologger.Logger
	startup  *startup.Startup
	db       *sqlx.DB
	producer *kafka.Producer
	echo     *echo.Echo
	checker  *health.Checker
	tracer   *sdktrace.TracerProvider
}

// New creates a Server with its startup dependency graph.
func New(cfg *config.Config, logger ectologger.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
	}

	s.startup = startup.NewStartup[any](logger, cfg.StartupMaxAttempts)
	s.startup.AddDependency(&dependency{name: "tracing", start: s.startTracing, stop: s.stopTracing})
	s.startup.AddDependency(&dependency{name: "kafka", start: s.startKafka, stop: s.stopKafka})
	s.startup.AddDependency(&dependency{name: "database", dependsOn: []string{"kafka"}, start: s.startDatabase, stop: s.stopDatabase})
	s.startup.AddDependency(&dependency{name: "http", dependsOn: []string{"tracing", "database"}, start: s.startHTTP, stop: s.stopHTTP})

	return s
}

// Run starts every dependency in order.
func (s *Server) Run(ctx context.Context) error {
	return s.startup.Start(ctx)
}

// Shutdown stops the dependencies in reverse order.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.startup.Stop(ctx)
}

type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func (s *Server) startTracing(ctx context.Context) error {
	if !s.config.TracingEnabled {
		return nil
	}

	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if s.config.TracingOTLPEndpoint != "" {
		otlp, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: s.config.TracingOTLPEndpoint,
			Protocol: s.config.TracingOTLPProtocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return err
		}
		exporter = otlp
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(s.config.AppName)))
	if err != nil {
		return err
	}

	s.tracer = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(s.config.TracingSampleRate)),
	)
	otel.SetTracerProvider(s.tracer)
	tracing.SetTracer(s.tracer.Tracer(s.config.AppName))
	return nil
}

func (s *Server) stopTracing(ctx context.Context) error {
	if s.tracer == nil {
		return nil
	}
	return s.tracer.Shutdown(ctx)
}

func (s *Server) startKafka(ctx context.Context) error {
	if !s.config.KafkaEnabled {
		s.logger.WithContext(ctx).Info("Kafka producer disabled")
		return nil
	}

	s.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      s.config.KafkaBrokers,
		Topic:        s.config.KafkaOutputTopic,
		BatchSize:    s.config.KafkaBatchSize,
		BatchTimeout: time.Duration(s.config.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: s.config.KafkaRequiredAcks,
		Compression:  s.config.KafkaCompression,
	}, s.logger)
	return nil
}

func (s *Server) stopKafka(ctx context.Context) error {
	if s.producer == nil {
		return nil
	}
	return s.producer.Close()
}

func (s *Server) startDatabase(ctx context.Context) error {
	cfg := s.config
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
	s.db = db

	if err := s.migrate(); err != nil {
		return err
	}

	return s.registerDependencies()
}

func (s *Server) stopDatabase(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) migrate() error {
	driver, err := migratepg.WithInstance(s.db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	svc := database.NewMigrationService(s.logger, &database.MigrationConfig{
		MigrationFolderPath: s.config.DatabaseMigrationFolderPath,
		Version:             uint(s.config.DatabaseMigrationVersion),
		Force:               s.config.DatabaseMigrationForce,
		AutoRollback:        s.config.DatabaseMigrationAutoRollback,
	})
	return svc.Migrate(s.config.DatabaseName, driver)
}

// registerDependencies builds the service graph and places the pieces the
// route handlers resolve into the default DI container.
func (s *Server) registerDependencies() error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	db := database.NewDatabaseInstance(s.db, s.logger)
	tx := database.NewTransactor(db, s.logger)

	centers := center.NewRepository(db, s.logger)
	stores := store.NewRepository(db, s.logger)
	products := product.NewRepository(db, s.logger)
	aliases := alias.NewRepository(db, s.logger)
	ignores := ignored.NewRepository(db, s.logger)
	planRecords := planrecord.NewRepository(db, s.logger)
	dispatchRecords := dispatchrecord.NewRepository(db, s.logger)
	planSink := plannormalized.NewRepository(db, s.logger)
	dispatchSink := dispatchnormalized.NewRepository(db, s.logger)

	builder := refindex.NewBuilder(s.logger, centers, stores, products, aliases, ignores)
	classifierSvc := classifier.NewService(s.logger, builder, planRecords, dispatchRecords)

	var pipelineEmitter pipeline.Emitter
	var correctionsEmitter corrections.Emitter
	if s.producer != nil {
		emitter := events.NewEmitter(s.producer, s.logger)
		pipelineEmitter = emitter
		correctionsEmitter = emitter
	}

	pipe := pipeline.New(s.logger, tx, builder, planRecords, planSink, dispatchRecords, dispatchSink, pipelineEmitter)
	correctionsSvc := corrections.NewService(s.logger, tx, centers, stores, products, aliases, ignores, planRecords, dispatchRecords, correctionsEmitter)

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, s.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*center.Repository](container, centers); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*store.Repository](container, stores); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*product.Repository](container, products); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*pipeline.Pipeline](container, pipe); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*classifier.Service](container, classifierSvc); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*corrections.Service](container, correctionsSvc); err != nil {
		return err
	}

	return nil
}

func (s *Server) startHTTP(ctx context.Context) error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = yarrowmiddleware.Error(s.logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(s.config.AppName))
	e.Use(yarrowmiddleware.Context())
	e.Use(yarrowmiddleware.Logger(s.logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowMethods: s.config.AllowMethods,
	}))

	e.Server.ReadTimeout = time.Duration(s.config.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(s.config.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(s.config.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(s.config.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = s.config.MaxHeaderBytes

	s.checker = health.NewChecker(s.db, Version)
	s.checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	normalize.Register(api.Group("/normalize"))
	resolution.Register(api.Group("/resolution"))
	master.Register(api.Group("/masters"))

	s.echo = e

	go func() {
		addr := fmt.Sprintf(":%d", s.config.Port)
		s.logger.WithField("addr", addr).Infof("HTTP server listening on %s", addr)
		if err := e.Start(addr); err != nil {
			s.logger.WithError(err).Error("HTTP server stopped")
		}
	}()

	s.checker.SetReady(true)
	return nil
}

func (s *Server) stopHTTP(ctx context.Context) error {
	if s.echo == nil {
		return nil
	}
	s.checker.SetReady(false)
	return s.echo.Shutdown(ctx)
}
