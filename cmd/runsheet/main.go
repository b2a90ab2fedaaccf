package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tbeech/runsheet/config"
	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/catalog"
	"github.com/tbeech/runsheet/internal/database"
	"github.com/tbeech/runsheet/internal/notify"
	"github.com/tbeech/runsheet/internal/redis"
	"github.com/tbeech/runsheet/internal/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("RunSheet - Live Service Runner")
	log.Println("==============================")

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Error: Failed to load configuration: %v", err)
		log.Println("")
		log.Println("Environment variables:")
		log.Println("  HTTP_ADDR              - Listen address (default: 127.0.0.1:8475)")
		log.Println("  LOG_LEVEL              - Log level (debug, info, warn, error)")
		log.Println("  DEFAULT_VOLUME         - Default playback volume (0-1, default: 1)")
		log.Println("  PROGRESS_CADENCE_MS    - Playback progress interval (default: 250)")
		log.Println("")
		log.Println("Database configuration:")
		log.Println("  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE")
		log.Println("")
		log.Println("Redis configuration (chapter cache):")
		log.Println("  REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB")
		log.Println("")
		log.Println("Completion announcements (optional):")
		log.Println("  DISCORD_WEBHOOK_ID, DISCORD_WEBHOOK_TOKEN")
		os.Exit(1)
	}

	log.Println("")
	log.Println("Configuration loaded successfully")
	log.Printf("  Listen: %s", cfg.HTTPAddr)
	log.Printf("  Default Volume: %.2f", cfg.DefaultVolume)
	log.Printf("  Progress Cadence: %dms", cfg.ProgressCadenceMs)
	log.Printf("  Database: %s@%s:%d/%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	log.Printf("  Redis: %s:%d/%d", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
	if cfg.WebhookConfigured() {
		log.Printf("  Completion announcements: configured")
	} else {
		log.Printf("  Completion announcements: disabled")
	}

	if err := database.Initialize(&database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}); err != nil {
		log.Fatalf("Error: Database initialization failed: %v", err)
	}

	redisClient, err := redis.Init(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Printf("Warning: Redis initialization failed, chapter cache disabled: %v", err)
		redisClient = nil
	}

	cat := catalog.NewService(
		database.NewSongRepository(),
		database.NewLessonRepository(),
		database.NewScriptureRepository(),
		redisClient,
	)

	plans := database.NewPlanRepository()
	completer := notify.New(plans).WithWebhook(cfg.DiscordWebhookID, cfg.DiscordWebhookToken)

	srv := server.New(server.Options{
		Addr:          cfg.HTTPAddr,
		Plans:         plans,
		Catalog:       cat,
		Backend:       audio.NewStreamBackend(),
		Completer:     completer,
		DefaultVolume: cfg.DefaultVolume,
		Cadence:       time.Duration(cfg.ProgressCadenceMs) * time.Millisecond,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Error: Server error: %v", err)
		}
	case <-sigCh:
	}

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error: Failed to stop server: %v", err)
	}

	if err := database.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
	if err := redis.Close(); err != nil {
		log.Printf("Warning: failed to close redis: %v", err)
	}
}
