package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"video-recognizer/internal/config"
	"video-recognizer/internal/events"
	"video-recognizer/internal/feedback"
	"video-recognizer/internal/handler"
	"video-recognizer/internal/media"
	"video-recognizer/internal/pipeline"
	"video-recognizer/internal/recognizer"
	"video-recognizer/internal/store"
	miniostorage "video-recognizer/internal/storage/minio"
	"video-recognizer/pkg/database/postgres"
	redisclient "video-recognizer/pkg/database/redis"
)

func main() {
	log.Println("Starting video recognition server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Connecting to PostgreSQL...")
	pgPool, err := postgres.NewClient(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()

	if err := postgres.RunMigrations(ctx, pgPool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Connecting to Redis...")
	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	log.Println("Connecting to Minio...")
	minioClient, err := miniostorage.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to connect to Minio: %v", err)
	}

	log.Println("Connecting to RabbitMQ...")
	publisher, err := events.NewPublisher(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	st := store.New(pgPool)
	transcoder := media.NewTranscoder(cfg.FFprobePath, cfg.FFmpegPath)
	recognizerClient := recognizer.NewClient(cfg.RecognizerURL, cfg.RecognizeTimeout)

	pipe, err := pipeline.New(pipeline.Options{
		Store:            st,
		Normalizer:       transcoder,
		Recognizer:       recognizerClient,
		Archiver:         minioClient,
		Publisher:        publisher,
		Cache:            redisClient,
		WorkDir:          cfg.WorkDir,
		TranscodeTimeout: cfg.TranscodeTimeout,
		RecognizeTimeout: cfg.RecognizeTimeout,
		MaxConcurrent:    cfg.MaxConcurrent,
	})
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	feedbackService := feedback.NewService(st, redisClient)

	h := handler.NewHandler(
		pipe,
		feedbackService,
		st,
		redisClient,
		minioClient,
		handler.HealthCheckers{
			Postgres: pgPool,
			Redis:    redisClient,
			Minio:    minioClient,
			Events:   publisher,
		},
		cfg.CacheTTL,
		cfg.PresignExpiry,
	)

	router := gin.Default()
	h.Register(router)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
