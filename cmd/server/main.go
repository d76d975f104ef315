package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	printingapp "github.com/binara/printsvc/internal/application/printing"
	"github.com/binara/printsvc/internal/domain/printing"
	"github.com/binara/printsvc/internal/infrastructure/config"
	"github.com/binara/printsvc/internal/infrastructure/device"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/infrastructure/persistence"
	"github.com/binara/printsvc/internal/infrastructure/printing/backend"
	"github.com/binara/printsvc/internal/infrastructure/storage"
	"github.com/binara/printsvc/internal/infrastructure/telemetry"
	"github.com/binara/printsvc/internal/interfaces/http/handler"
	"github.com/binara/printsvc/internal/interfaces/http/middleware"
	"github.com/binara/printsvc/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//	@title			Clinic Print Service API
//	@version		1.0
//	@description	Lays out bills and reports and prints them to PDF, GDI spool or ESC/P and ESC/POS printers

//	@host		localhost:8000
//	@BasePath	/api/v1

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting print service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	metrics, err := telemetry.NewPrintMetrics(providers.Meter("printsvc/dispatch"))
	if err != nil {
		log.Fatal("Failed to create print metrics", zap.Error(err))
	}

	checks := map[string]handler.HealthCheck{}

	// Output storage
	outputs, storageCheck, err := newOutputStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize output storage", zap.Error(err))
	}
	checks["storage"] = storageCheck

	// Devices and locking
	devices, err := device.NewManager(deviceConfigs(cfg.Devices), log.Named("device"))
	if err != nil {
		log.Fatal("Failed to configure devices", zap.Error(err))
	}

	var locker device.Locker = device.NewLocalLocker()
	if cfg.Lock.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = client.Close()
		}()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
		locker = device.NewRedisLocker(client, device.RedisLockerConfig{
			KeyPrefix:     cfg.Lock.KeyPrefix,
			TTL:           cfg.Lock.TTL,
			PollInterval:  cfg.Lock.PollInterval,
			RenewInterval: cfg.Lock.RenewInterval,
		}, log.Named("lock"))
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		log.Info("Using redis device locks", zap.String("addr", cfg.Redis.Addr()))
	}

	// Print job history
	var serviceOpts []printingapp.ServiceOption
	if cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
			Logger:   log.Named("gorm"),
			LogLevel: logger.GormLevel(cfg.Log.Level),
			Tracing:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		})
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(); err != nil {
				log.Fatal("Failed to migrate database", zap.Error(err))
			}
		}
		serviceOpts = append(serviceOpts, printingapp.WithJobRepository(persistence.NewGormPrintJobRepository(db.DB)))
		checks["database"] = func(context.Context) error {
			return db.Ping()
		}
		log.Info("Print job history enabled", zap.String("driver", cfg.Database.Driver))
	}

	// Dispatcher and service
	dispatcher := printingapp.NewDispatcher(
		backend.NewDefaultRegistry(backend.VectorOptions{Compress: true, Creator: cfg.App.Name}),
		printingapp.WithDeviceWriter(devices),
		printingapp.WithLocker(locker),
		printingapp.WithOutputStorage(outputs),
		printingapp.WithMetrics(metrics),
		printingapp.WithDispatchConfig(printingapp.DispatchConfig{
			AcquireTimeout:      cfg.Dispatch.AcquireTimeout,
			OpenAttempts:        cfg.Dispatch.OpenAttempts,
			OpenInitialInterval: cfg.Dispatch.OpenInitialInterval,
			OpenMaxInterval:     cfg.Dispatch.OpenMaxInterval,
		}),
		printingapp.WithDispatchLogger(log.Named("dispatch")),
	)

	documents := printingapp.NewDocumentFactory(cfg.Print.ClinicName, cfg.Print.Footer, cfg.Print.Location())
	serviceOpts = append(serviceOpts,
		printingapp.WithOutputs(outputs),
		printingapp.WithServiceLogger(log),
	)
	printService := printingapp.NewPrintService(dispatcher, documents, cfg.Profiles, printingapp.Targets{
		Bill:        cfg.Print.BillTarget,
		Summary:     cfg.Print.SummaryTarget,
		ServiceCost: cfg.Print.ServiceCostTarget,
	}, serviceOpts...)

	if err := checkTargets(printService, cfg); err != nil {
		log.Fatal("Invalid print targets", zap.Error(err))
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		CORS:           cors,
		Tracing:        middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: providers.Enabled()},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, devices.Names(), checks)
	printHandler := handler.NewPrintHandler(printService)

	rootHealth := router.NewDomainGroup("health", "")
	rootHealth.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.RegisterRoot(rootHealth).
		RegisterRoot(handler.LegacyPrintRoutes(printHandler)).
		Register(handler.PrintRoutes(printHandler)).
		Register(handler.SystemRoutes(systemHandler))
	r.Setup()

	// Output retention
	go printService.RunCleanup(ctx, cfg.Storage.CleanupInterval, cfg.Storage.Retention)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	stop()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// loadConfig reads PRINTSVC_CONFIG when set, otherwise the default search path
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("PRINTSVC_CONFIG"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// newOutputStorage builds the configured storage backend and a health check for it
func newOutputStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.OutputStorage, handler.HealthCheck, error) {
	if cfg.Storage.Backend == "s3" {
		s3, err := storage.NewS3Storage(&cfg.Storage.S3,
			storage.WithLogger(log.Named("storage")),
			storage.WithPresignExpiration(cfg.Storage.S3.PresignExpiration),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		log.Info("Using S3 output storage", zap.String("bucket", s3.Bucket()))
		return s3, s3.EnsureBucket, nil
	}

	fs, err := storage.NewFileSystemStorage(&storage.FileSystemConfig{
		BasePath: cfg.Storage.BasePath,
		BaseURL:  cfg.Storage.BaseURL,
		Logger:   log.Named("storage"),
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using filesystem output storage", zap.String("path", fs.BasePath()))
	check := func(context.Context) error {
		_, err := os.Stat(fs.BasePath())
		return err
	}
	return fs, check, nil
}

func deviceConfigs(in []config.DeviceConfig) []device.Config {
	out := make([]device.Config, len(in))
	for i, d := range in {
		out[i] = device.Config{
			Name:         d.Name,
			Transport:    device.Transport(d.Transport),
			Target:       d.Target,
			DialTimeout:  d.DialTimeout,
			WriteTimeout: d.WriteTimeout,
		}
	}
	return out
}

// checkTargets fails startup when a default target names no profile or a
// profile is invalid
func checkTargets(svc *printingapp.PrintService, cfg *config.Config) error {
	for _, name := range []string{cfg.Print.BillTarget, cfg.Print.SummaryTarget, cfg.Print.ServiceCostTarget} {
		p, err := svc.Profile(name, "")
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		if p.Kind.WritesToDevice() && !hasDevice(cfg.Devices, p.DeviceName()) {
			return printing.NewConfigurationError("profile %q uses unknown device %q", name, p.DeviceName())
		}
	}
	return nil
}

func hasDevice(devices []config.DeviceConfig, name string) bool {
	for _, d := range devices {
		if d.Name == name {
			return true
		}
	}
	return false
}
