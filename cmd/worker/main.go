/**
 * Hub Code Recognition Worker - Main Entry Point
 *
 * Go worker for multi-angle wheel-hub code recognition.
 *
 * Architecture:
 * - Redis-backed job queue consumer (Asynq or direct Redis LIST mode)
 * - Per-image OCR (local Tesseract, cloud service, or fallback chain)
 * - Filter pipeline, line grouping and multi-source fusion
 * - PostgreSQL persistence for jobs and fused results
 */

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wheelvision/hubcode-worker/internal/clients"
	"github.com/wheelvision/hubcode-worker/internal/config"
	"github.com/wheelvision/hubcode-worker/internal/ocr"
	"github.com/wheelvision/hubcode-worker/internal/queue"
	"github.com/wheelvision/hubcode-worker/internal/recognizer"
	"github.com/wheelvision/hubcode-worker/internal/storage"
	"github.com/wheelvision/hubcode-worker/internal/worker"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(".env.hubcode"); err != nil {
		log.Printf("Warning: .env.hubcode not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Hub code recognition worker starting...")
	log.Printf("Configuration loaded: Redis=%s, PostgreSQL=%s, Engine=%s, Workers=%d",
		cfg.RedisURL, cfg.DatabaseURL, cfg.Engine, cfg.WorkerConcurrency)

	// Initialize PostgreSQL
	log.Printf("Connecting to PostgreSQL...")
	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	log.Printf("Storage initialized")

	// Build the OCR engine
	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize OCR engine: %v", err)
	}
	log.Printf("OCR engine initialized: %s", engine.Name())

	// Build the recognizer with immutable config snapshots
	rec, err := recognizer.NewRecognizer(&recognizer.RecognizerConfig{
		Engine:      engine,
		Filter:      cfg.FilterConfig(),
		Fusion:      cfg.FusionConfig(),
		YThreshold:  cfg.YThreshold,
		MaxParallel: cfg.ImageParallelism,
	})
	if err != nil {
		log.Fatalf("Failed to initialize recognizer: %v", err)
	}

	// Initialize job processor
	proc, err := worker.NewJobProcessor(&worker.ProcessorConfig{
		Recognizer:   rec,
		Storage:      store,
		EngineName:   engine.Name(),
		MaxImageSize: cfg.MaxImageSize,
	})
	if err != nil {
		log.Fatalf("Failed to initialize job processor: %v", err)
	}
	log.Printf("Job processor initialized")

	// Initialize and start the queue consumer
	stopConsumer, err := startConsumer(cfg, proc)
	if err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	log.Printf("===========================================")
	log.Printf("Hub Code Recognition Worker is READY")
	log.Printf("===========================================")
	log.Printf("Queue: %s (%s mode)", cfg.QueueName, cfg.QueueMode)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("Engine: %s", engine.Name())
	log.Printf("Fusion: %s (min=%d, max=%d images)", cfg.FusionMethod, cfg.MinImages, cfg.MaxImages)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	log.Printf("Stopping queue consumer...")
	if err := stopConsumer(); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	} else {
		log.Printf("Queue consumer stopped successfully")
	}

	log.Printf("Closing storage...")
	if err := store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	} else {
		log.Printf("Storage closed")
	}

	log.Printf("Shutdown complete")
}

// buildEngine constructs the configured OCR engine.
func buildEngine(cfg *config.Config) (recognizer.Engine, error) {
	tesseract, err := ocr.NewTesseractEngine(&ocr.TesseractConfig{
		Language:  cfg.TesseractLanguage,
		Whitelist: cfg.TesseractWhitelist,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Engine == "tesseract" {
		return tesseract, nil
	}

	client := clients.NewCloudOCRClient(cfg.CloudOCRURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		log.Printf("WARNING: Cloud OCR health check failed: %v", err)
	} else {
		log.Printf("Cloud OCR connection verified: %s", cfg.CloudOCRURL)
	}

	cloud, err := ocr.NewCloudEngine(client, cfg.CloudPreferAccuracy)
	if err != nil {
		return nil, err
	}

	if cfg.Engine == "cloud" {
		return cloud, nil
	}

	// fallback mode: cloud first, Tesseract when the service is down
	return ocr.NewFallbackEngine(cloud, tesseract)
}

// startConsumer starts the queue consumer in the configured mode and
// returns a stop function.
func startConsumer(cfg *config.Config, proc worker.JobProcessorInterface) (func() error, error) {
	if cfg.QueueMode == "redis" {
		consumer, err := queue.NewRedisConsumer(&queue.RedisConsumerConfig{
			RedisURL:          cfg.RedisURL,
			QueueName:         cfg.QueueName,
			Concurrency:       cfg.WorkerConcurrency,
			Processor:         proc,
			ProcessingTimeout: int64(cfg.ProcessingTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis consumer: %w", err)
		}
		if err := consumer.Start(); err != nil {
			return nil, fmt.Errorf("failed to start Redis consumer: %w", err)
		}
		return consumer.Stop, nil
	}

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Processor:         proc,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Asynq consumer: %w", err)
	}

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start Asynq consumer: %w", err)
	}
	return func() error { return consumer.Stop(context.Background()) }, nil
}
