/**
 * Queue Consumer for the hub code recognition worker
 *
 * Consumes recognition jobs from the Redis-backed queue. Uses Asynq for
 * queue management, retries and task routing.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wheelvision/hubcode-worker/internal/errors"
	"github.com/wheelvision/hubcode-worker/internal/worker"
)

// TaskRecognizeHub is the task type of a multi-angle recognition job.
const TaskRecognizeHub = "recognize-hub"

// JobData represents the structure of job data on the queue.
// Inline images are base64 fields in the JSON payload.
type JobData struct {
	JobID      string                 `json:"jobId"`
	VehicleRef string                 `json:"vehicleRef,omitempty"`
	Images     [][]byte               `json:"images,omitempty"`
	ImageURLs  []string               `json:"imageUrls,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer handles job consumption from Redis queue
type Consumer struct {
	client    *asynq.Client
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor worker.JobProcessorInterface
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         worker.JobProcessorInterface
	ProcessingTimeout int64 // Processing timeout in milliseconds (default: 300000 = 5 minutes)
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10, // Priority 10 for main queue
				"default":     1,  // Priority 1 for fallback
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, payload=%s, error=%v",
					task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		client:    client,
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		config:    cfg,
	}

	mux.HandleFunc(TaskRecognizeHub, consumer.handleRecognizeHub)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	log.Printf("Stopping queue consumer...")

	c.server.Shutdown()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}

	log.Printf("Queue consumer stopped")
	return nil
}

// handleRecognizeHub processes a multi-angle recognition job
func (c *Consumer) handleRecognizeHub(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	log.Printf("[Job %s] Processing recognition job: vehicle=%s, inline=%d, urls=%d",
		jobData.JobID, jobData.VehicleRef, len(jobData.Images), len(jobData.ImageURLs))

	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "processing", 0, nil); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to processing: %v", jobData.JobID, err)
	}

	timeout := time.Duration(300000) * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.processor.ProcessJob(processCtx, &worker.JobRequest{
		JobID:      jobData.JobID,
		VehicleRef: jobData.VehicleRef,
		Images:     jobData.Images,
		ImageURLs:  jobData.ImageURLs,
		Metadata:   jobData.Metadata,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Processing timed out after %v (timeout: %v)", jobData.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(jobData.JobID, timeout, err)
			errorMap := timeoutErr.ToMap()

			if updateErr := c.processor.UpdateJobStatus(ctx, jobData.JobID, "failed", 100, errorMap); updateErr != nil {
				log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
			}

			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		log.Printf("[Job %s] Processing failed after %v: %v", jobData.JobID, duration, err)

		if updateErr := c.processor.UpdateJobStatus(ctx, jobData.JobID, "failed", 100, map[string]interface{}{
			"error":          err.Error(),
			"processingTime": duration.Milliseconds(),
		}); updateErr != nil {
			log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, updateErr)
		}

		return fmt.Errorf("recognition job failed: %w", err)
	}

	log.Printf("[Job %s] Processing completed in %v: text=%q, confidence=%.2f, method=%s",
		jobData.JobID, duration, result.MergedText, result.Confidence, result.FusionMethod)

	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "completed", 100, map[string]interface{}{
		"confidence":     result.Confidence,
		"processingTime": duration.Milliseconds(),
		"resultId":       result.ResultID,
		"mergedText":     result.MergedText,
		"fusionMethod":   result.FusionMethod,
		"sourceCount":    result.SourceCount,
	}); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to completed: %v", jobData.JobID, err)
	}

	return nil
}

// GetStatistics returns consumer statistics
func (c *Consumer) GetStatistics() map[string]interface{} {
	return map[string]interface{}{
		"concurrency": c.config.Concurrency,
		"queue":       c.config.QueueName,
		"redisURL":    c.config.RedisURL,
	}
}
