package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/database"
	"github.com/josecyberpro/site/internal/logger"
	"github.com/josecyberpro/site/internal/server"
	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/version"
)

func main() {
	// hash-password needs neither config nor a database.
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if len(os.Args) != 3 {
			log.Fatalf("Usage: %s hash-password <password>", os.Args[0])
		}
		hash, err := services.HashPassword(os.Args[2])
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Setup logging with rotation
	logDir := cfg.LogDir
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logDir = "."
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "site.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(mw)
	logger.Init(cfg.Debug, mw)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Log().WithError(err).Warn("close database")
		}
	}()
	if err := database.Migrate(db); err != nil {
		logger.Log().WithError(err).Fatal("migrate database")
	}

	mailer, err := services.NewMailer(cfg.Mail)
	if err != nil {
		logger.Log().WithError(err).Fatal("configure mailer")
	}

	if len(os.Args) > 1 && os.Args[1] == "retry-deliveries" {
		// The scheduler is not needed for a single pass.
		cfg.DeliveryRetrySpec = ""
	}

	srv, err := server.New(db, cfg, mailer)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}
	defer srv.Close()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "retry-deliveries":
			sent, err := srv.Notifications.RetryFailed(context.Background())
			if err != nil {
				logger.Log().WithError(err).Error("retry deliveries")
				os.Exit(1)
			}
			logger.Log().WithField("sent", sent).Info("delivery retry pass finished")
			return
		default:
			log.Fatalf("unknown command %q (expected hash-password or retry-deliveries)", os.Args[1])
		}
	}

	if cfg.UsingDefaultPassword {
		logger.Log().Warnf("ADMIN_PASSWORD is not set; using the development default %q", config.DefaultAdminPassword)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log().WithFields(map[string]interface{}{
		"version": version.Full(),
		"port":    cfg.HTTPPort,
		"mail":    cfg.Mail.Provider,
	}).Infof("starting %s", version.Name)

	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Error("server error")
		os.Exit(1)
	}
}
