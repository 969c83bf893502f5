package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prediction-service/internal/config"
	"prediction-service/internal/crypto"
	"prediction-service/internal/handler"
	"prediction-service/internal/insight"
	"prediction-service/internal/logger"
	"prediction-service/internal/ml_client"
	"prediction-service/internal/models"
	"prediction-service/internal/notifier"
	"prediction-service/internal/repository"
	"prediction-service/internal/server"
	"prediction-service/internal/service"
	"prediction-service/internal/session"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Starting Prediction Service...", zap.String("config", configPath))

	catalog, err := models.CatalogFor(models.Variant(cfg.Features.Variant))
	if err != nil {
		log.Fatal("Failed to resolve feature catalog", zap.Error(err))
	}

	// Initialize predictor
	predictor, mode, err := service.SelectPredictor(cfg.Prediction.Mode, cfg.Prediction.Endpoint, cfg.Timeout(), cfg.Synthetic.Rules)
	if err != nil {
		log.Fatal("Failed to initialize predictor", zap.Error(err))
	}
	if client, ok := predictor.(*ml_client.Client); ok {
		checkEndpoint(client, log)
	}

	insights, err := insight.NewGenerator(cfg.Prediction.Insights, catalog)
	if err != nil {
		log.Fatal("Failed to initialize insight generator", zap.Error(err))
	}

	opts := service.Options{
		Catalog:      catalog,
		StrictRanges: cfg.Features.StrictRanges,
		Predictor:    predictor,
		Mode:         mode,
		Insights:     insights,
		Logger:       log,
	}

	// Initialize prediction history
	var history *service.HistoryService
	if cfg.Database.Enabled {
		if cfg.Database.Type == repository.DriverSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
				log.Fatal("Failed to create data directory", zap.Error(err))
			}
		}

		db, err := repository.Open(cfg.Database.Type, cfg.Database.Path, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := repository.Migrate(db, cfg.Database.Type, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}

		if cfg.Database.EncryptionPassphrase != "" {
			key, err := crypto.DeriveKey(cfg.Database.EncryptionPassphrase, []byte(cfg.Database.EncryptionSalt))
			if err != nil {
				log.Fatal("Failed to derive history encryption key", zap.Error(err))
			}
			opts.EncryptionKey = key
		} else {
			log.Warn("database.encryption_passphrase is empty, feature values are stored in plain text")
		}

		opts.Repo = repository.NewPredictionRepository(db, log)
		history = service.NewHistoryService(opts.Repo, opts.EncryptionKey)
	}

	// Initialize notifier
	if cfg.Notifier.Enabled {
		tg, err := notifier.NewTelegramNotifier(cfg.Notifier.TelegramBotToken, cfg.Notifier.TelegramChatID, log)
		if err != nil {
			log.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
		opts.Notifier = tg
	}

	predictions := service.NewPredictionService(opts)
	sessions := session.NewStore(cfg.Sessions.MaxSessions, cfg.SessionTTL(), catalog, cfg.Features.StrictRanges)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(predictions, history, sessions, log)

	if cfg.Server.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := server.NewServer(apiHandler, server.Options{
		Addr:           ":" + cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, log)

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Prediction Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", string(mode)),
		zap.String("variant", cfg.Features.Variant),
		zap.Bool("history", history != nil))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	predictions.Wait()

	log.Info("Server exited")
}

// checkEndpoint logs whether the prediction service answers. Free hosting
// tiers often sleep, so a failure is only a warning.
func checkEndpoint(client *ml_client.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		log.Warn("Prediction service health check failed",
			zap.String("endpoint", client.Endpoint()),
			zap.Error(err))
		return
	}
	log.Info("Prediction service is reachable", zap.String("endpoint", client.Endpoint()))
}
