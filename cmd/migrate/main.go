package main

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/config"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/logger"
	"github.com/clintonochieng072-gif/ClintonStack-websites-sub002/internal/repository"
)

const usage = "usage: migrate <up|down|version|force <version>>"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	for _, w := range cfg.Warnings {
		zl.Warn("config", zap.String("warning", w))
	}

	if len(os.Args) < 2 {
		zl.Fatal(usage)
	}

	mg, err := repository.NewMigrator(cfg.Database.DSN(), cfg.Database.MigrationsDir)
	if err != nil {
		zl.Fatal("failed to open migrations", zap.String("dir", cfg.Database.MigrationsDir), zap.Error(err))
	}
	defer mg.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		if err := mg.Up(); err != nil {
			zl.Fatal("migrate up failed", zap.Error(err))
		}
	case "down":
		if err := mg.Down(); err != nil {
			zl.Fatal("migrate down failed", zap.Error(err))
		}
	case "force":
		if len(os.Args) < 3 {
			zl.Fatal(usage)
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			zl.Fatal("invalid version", zap.String("version", os.Args[2]))
		}
		if err := mg.Force(version); err != nil {
			zl.Fatal("migrate force failed", zap.Int("version", version), zap.Error(err))
		}
	case "version":
	default:
		zl.Fatal("unknown command", zap.String("command", cmd), zap.String("usage", usage))
	}

	version, dirty, err := mg.Version()
	if err != nil {
		zl.Fatal("failed to read schema version", zap.Error(err))
	}
	zl.Info("schema version", zap.String("command", os.Args[1]), zap.Uint("version", version), zap.Bool("dirty", dirty))
}
