package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/internal/repositories/adcreative"
	"github.com/Ramsey-B/clover/internal/repositories/adfacts"
	"github.com/Ramsey-B/clover/internal/repositories/adscore"
	"github.com/Ramsey-B/clover/internal/repositories/brand"
	"github.com/Ramsey-B/clover/internal/repositories/channelidentity"
	"github.com/Ramsey-B/clover/internal/repositories/ingestrun"
	"github.com/Ramsey-B/clover/internal/repositories/mediaasset"
	"github.com/Ramsey-B/clover/internal/repositories/pagetotal"
	"github.com/Ramsey-B/clover/internal/repositories/productbrand"
	"github.com/Ramsey-B/clover/internal/repositories/researchrun"
	"github.com/Ramsey-B/clover/pkg/backfill"
	"github.com/Ramsey-B/clover/pkg/creative"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/facts"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/media"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &application{cfg: cfg, logger: logger}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&tracingDependency{app})
	boot.AddDependency(&databaseDependency{app})
	boot.AddDependency(&kafkaDependency{app})
	boot.AddDependency(&httpDependency{app})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	boot.Stop(shutdownCtx)
}

func newLogger(cfg config.Config) ectologger.Logger {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapLogger, err := zapCfg.Build()
	if err != nil {
		zapLogger = zap.NewNop()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// application holds everything the startup dependencies construct and share.
type application struct {
	cfg    config.Config
	logger ectologger.Logger

	sqlDB          *sqlx.DB
	db             database.DB
	tracerProvider *sdktrace.TracerProvider

	processor      *ingest.Processor
	backfillRunner *backfill.Runner
	producer       *kafka.Producer
	consumer       *kafka.Consumer

	brandRepo     *brand.Repository
	identityRepo  *channelidentity.Repository
	adRepo        *adrepo.Repository
	assetRepo     *mediaasset.Repository
	runRepo       *researchrun.Repository
	ingestRepo    *ingestrun.Repository
	pageTotalRepo *pagetotal.Repository

	echo *echo.Echo
}

// wire constructs the repositories, services, and handlers once the database
// is up. Called from the database dependency so later dependencies can rely
// on a fully wired application.
func (app *application) wire() {
	cfg := app.cfg
	logger := app.logger
	db := app.db

	app.brandRepo = brand.NewRepository(db, logger)
	app.identityRepo = channelidentity.NewRepository(db, logger)
	productRepo := productbrand.NewRepository(db, logger)
	app.adRepo = adrepo.NewRepository(db, logger)
	app.assetRepo = mediaasset.NewRepository(db, logger)
	creativeRepo := adcreative.NewRepository(db, logger)
	factsRepo := adfacts.NewRepository(db, logger)
	scoreRepo := adscore.NewRepository(db, logger)
	app.runRepo = researchrun.NewRepository(db, logger)
	app.ingestRepo = ingestrun.NewRepository(db, logger)
	app.pageTotalRepo = pagetotal.NewRepository(db, logger)

	resolver := identity.NewResolver(logger, app.brandRepo, app.identityRepo, productRepo)
	deduplicator := media.NewDeduplicator(logger, app.assetRepo)
	creativeEngine := creative.NewEngine(logger, app.adRepo, creativeRepo)
	factsMaint := facts.NewMaintainer(logger, app.adRepo, factsRepo, scoreRepo)
	engine := ingest.NewEngine(logger, db, app.adRepo, deduplicator, creativeEngine, factsMaint)

	app.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	emitter := events.NewEmitter(logger, app.producer)

	app.processor = ingest.NewProcessor(logger, resolver, engine, app.ingestRepo, app.pageTotalRepo, emitter, cfg.IngestErrorTextMaxChars)
	app.backfillRunner = backfill.NewRunner(logger, app.adRepo, creativeEngine, factsMaint, cfg.BackfillBatchSize)
}

type tracingDependency struct {
	app *application
}

func (d *tracingDependency) GetName() string {
	return "tracing"
}

func (d *tracingDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	if !cfg.TracingEnabled {
		return nil
	}

	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingOTLPEndpoint,
		Protocol: cfg.TracingOTLPProtocol,
		Insecure: cfg.TracingInsecure,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return err
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
	))
	if err != nil {
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	d.app.tracerProvider = tp
	return nil
}

func (d *tracingDependency) Stop(ctx context.Context) error {
	if d.app.tracerProvider == nil {
		return nil
	}
	return d.app.tracerProvider.Shutdown(ctx)
}

type databaseDependency struct {
	app *application
}

func (d *databaseDependency) GetName() string {
	return "database"
}

func (d *databaseDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	sqlDB, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	d.app.sqlDB = sqlDB
	d.app.db = database.NewDatabaseInstance(sqlDB, d.app.logger)

	driver, err := migratepg.WithInstance(sqlDB.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := database.NewMigrationService(d.app.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.app.wire()
	return nil
}

func (d *databaseDependency) Stop(ctx context.Context) error {
	if d.app.sqlDB == nil {
		return nil
	}
	return d.app.sqlDB.Close()
}

type kafkaDependency struct {
	app *application
}

func (d *kafkaDependency) GetName() string {
	return "kafka"
}

func (d *kafkaDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	if !cfg.KafkaConsumerEnabled {
		d.app.logger.Info("Kafka consumer disabled")
		return nil
	}

	d.app.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaInputTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
	}, d.app.logger, d.handleMessage)

	return d.app.consumer.Start(ctx)
}

func (d *kafkaDependency) handleMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	if msg.Batch == nil {
		return errors.New("message has no batch payload")
	}
	_, err := d.app.processor.ProcessBatch(ctx, *msg.Batch)
	return err
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.app.consumer != nil {
		if err := d.app.consumer.Stop(); err != nil {
			return err
		}
	}
	if d.app.producer != nil {
		return d.app.producer.Close()
	}
	return nil
}

type httpDependency struct {
	app *application
}

func (d *httpDependency) GetName() string {
	return "http-server"
}

func (d *httpDependency) Start(ctx context.Context) error {
	app := d.app
	cfg := app.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(app.logger)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(app.logger))

	handlers.NewHealthHandler(app.db).RegisterRoutes(e)

	api := e.Group("/api/v1")
	handlers.NewBrandHandler(app.logger, app.brandRepo, app.identityRepo, app.adRepo).RegisterRoutes(api)
	handlers.NewRunHandler(app.logger, app.runRepo, app.ingestRepo, app.pageTotalRepo).RegisterRoutes(api)
	handlers.NewIngestHandler(app.logger, app.processor, app.backfillRunner).RegisterRoutes(api)
	handlers.NewMediaHandler(app.logger, app.assetRepo).RegisterRoutes(api)

	app.echo = e

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		app.logger.Infof("HTTP server listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	return nil
}

func (d *httpDependency) Stop(ctx context.Context) error {
	if d.app.echo == nil {
		return nil
	}
	return d.app.echo.Shutdown(ctx)
}
