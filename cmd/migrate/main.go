package main

import (
	"fmt"
	"os"

	"github.com/binara/printsvc/internal/infrastructure/config"
	"github.com/binara/printsvc/internal/infrastructure/logger"
	"github.com/binara/printsvc/internal/infrastructure/persistence"
	"github.com/binara/printsvc/internal/infrastructure/persistence/models"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		logLevel   string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config.toml (default: search ./, /etc/printsvc, /app)")
	pflag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pflag.Usage = printUsage
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log.Named("gorm"),
		LogLevel: logger.GormLevel(logLevel),
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		log.Info("Print job schema is up to date")

	case "status":
		migrator := db.DB.Migrator()
		if !migrator.HasTable(&models.PrintJobModel{}) {
			log.Info("Print job table missing, run 'migrate up'")
			return
		}
		var count int64
		if err := db.DB.Model(&models.PrintJobModel{}).Count(&count).Error; err != nil {
			log.Fatal("Failed to count print jobs", zap.Error(err))
		}
		log.Info("Print job table present", zap.Int64("jobs", count))

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Print job history migration tool

Usage:
  migrate [flags] <command>

Commands:
  up        Create or update the print_jobs table
  status    Report whether the table exists and how many jobs it holds

Flags:
  -c, --config string     Path to config.toml
      --log-level string  Log level: debug, info, warn, error (default: info)

Environment Variables:
  PRINTSVC_DATABASE_DRIVER, PRINTSVC_DATABASE_HOST, PRINTSVC_DATABASE_PATH, ...`)
}
