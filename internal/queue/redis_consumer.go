/**
 * Direct Redis Queue Consumer for the hub code recognition worker
 *
 * Compatible with the TypeScript RedisQueue implementation used by the
 * capture stations. Uses simple Redis LIST operations for perfect
 * compatibility.
 */

package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wheelvision/hubcode-worker/internal/errors"
	"github.com/wheelvision/hubcode-worker/internal/worker"
)

// RedisJobData represents a job from the Redis queue
type RedisJobData struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Payload    RedisPayload `json:"payload"`
	CreatedAt  time.Time    `json:"createdAt"`
	Attempts   int          `json:"attempts"`
	MaxRetries int          `json:"maxRetries"`
}

// RedisPayload contains the actual job data
type RedisPayload struct {
	JobID      string                 `json:"jobId"`
	VehicleRef string                 `json:"vehicleRef,omitempty"`
	Images     [][]byte               // Set by custom UnmarshalJSON
	ImageURLs  []string               `json:"imageUrls,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// UnmarshalJSON implements custom JSON unmarshaling for RedisPayload to
// handle image buffer serialization. Supports both base64 string format
// (new) and Node.js Buffer object format (legacy).
func (p *RedisPayload) UnmarshalJSON(data []byte) error {
	type Alias RedisPayload
	aux := &struct {
		Images []interface{} `json:"images,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal RedisPayload: %w", err)
	}

	for i, entry := range aux.Images {
		decoded, err := decodeImageEntry(entry)
		if err != nil {
			return fmt.Errorf("image %d: %w", i, err)
		}
		p.Images = append(p.Images, decoded)
	}

	return nil
}

func decodeImageEntry(entry interface{}) ([]byte, error) {
	switch v := entry.(type) {
	case string:
		// Base64 string format (new format from TypeScript)
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 image: %w", err)
		}
		return decoded, nil

	case map[string]interface{}:
		// Node.js Buffer object format (legacy compatibility)
		if bufferType, ok := v["type"].(string); !ok || bufferType != "Buffer" {
			return nil, fmt.Errorf("invalid Buffer object format (missing or incorrect 'type' field)")
		}
		dataArray, ok := v["data"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("Buffer object missing 'data' array")
		}
		decoded := make([]byte, len(dataArray))
		for i, val := range dataArray {
			byteVal, ok := val.(float64)
			if !ok {
				return nil, fmt.Errorf("invalid byte value in Buffer data array at index %d", i)
			}
			decoded[i] = byte(byteVal)
		}
		return decoded, nil

	default:
		return nil, fmt.Errorf("image must be either base64 string or Buffer object, got %T", v)
	}
}

// RedisConsumer handles job consumption from Redis queue
type RedisConsumer struct {
	client    *redis.Client
	processor worker.JobProcessorInterface
	config    *RedisConsumerConfig
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// RedisConsumerConfig holds consumer configuration
type RedisConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         worker.JobProcessorInterface
	ProcessingTimeout int64 // Processing timeout in milliseconds (default: 300000 = 5 minutes)
}

// NewRedisConsumer creates a new Redis-based queue consumer
func NewRedisConsumer(cfg *RedisConsumerConfig) (*RedisConsumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = "hubcode:jobs"
	}

	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	consumerCtx, cancel := context.WithCancel(context.Background())

	return &RedisConsumer{
		client:    client,
		processor: cfg.Processor,
		config:    cfg,
		ctx:       consumerCtx,
		cancel:    cancel,
	}, nil
}

// Start begins processing jobs from the queue
func (c *RedisConsumer) Start() error {
	log.Printf("Starting Redis queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	for i := 0; i < c.config.Concurrency; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}

	log.Println("Queue consumer started successfully")
	return nil
}

// Stop gracefully stops the consumer
func (c *RedisConsumer) Stop() error {
	log.Println("Stopping queue consumer...")
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// worker is a goroutine that processes jobs
func (c *RedisConsumer) worker(id int) {
	defer c.wg.Done()
	log.Printf("Worker %d started", id)

	for {
		select {
		case <-c.ctx.Done():
			log.Printf("Worker %d stopping", id)
			return
		default:
			if err := c.processNextJob(); err != nil {
				if err.Error() != "no jobs available" {
					log.Printf("Worker %d error: %v", id, err)
				}
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// processNextJob fetches and processes the next job from the queue
func (c *RedisConsumer) processNextJob() error {
	// Block for up to 5 seconds waiting for a job
	result, err := c.client.BRPop(c.ctx, 5*time.Second, c.config.QueueName).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("no jobs available")
		}
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	jobID := result[1]

	jobData, err := c.client.HGet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to get job data: %w", err)
	}

	var job RedisJobData
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	// Create/update job record in PostgreSQL (idempotent upsert).
	if err := c.processor.UpdateJobStatus(c.ctx, job.Payload.JobID, "processing", 0, map[string]interface{}{
		"vehicleRef": job.Payload.VehicleRef,
		"imageCount": len(job.Payload.Images) + len(job.Payload.ImageURLs),
	}); err != nil {
		log.Printf("Note: Could not update job status to processing (job may not exist in DB yet): %v", err)
	}

	c.updateJobStatus(job.Payload.JobID, "processing", nil)

	log.Printf("Processing job %s: vehicle=%s, images=%d",
		job.Payload.JobID, job.Payload.VehicleRef,
		len(job.Payload.Images)+len(job.Payload.ImageURLs))

	processResult, err := c.processJob(&job)
	if err != nil {
		log.Printf("Job %s failed: %v", job.Payload.JobID, err)

		job.Attempts++
		if job.Attempts < job.MaxRetries {
			// Re-queue for retry
			updatedData, _ := json.Marshal(job)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:data", c.config.QueueName), job.ID, updatedData)
			c.client.LPush(c.ctx, c.config.QueueName, job.ID)
			log.Printf("Job %s re-queued for retry (attempt %d/%d)", job.Payload.JobID, job.Attempts, job.MaxRetries)
		} else {
			c.updateJobStatus(job.Payload.JobID, "failed", map[string]interface{}{
				"error":    err.Error(),
				"attempts": job.Attempts,
			})
		}
	} else {
		c.updateJobStatus(job.Payload.JobID, "completed", processResult)
		log.Printf("Job %s completed successfully", job.Payload.JobID)
	}

	return nil
}

// processJob handles the actual recognition
func (c *RedisConsumer) processJob(job *RedisJobData) (*worker.JobResult, error) {
	startTime := time.Now()

	request := &worker.JobRequest{
		JobID:      job.Payload.JobID,
		VehicleRef: job.Payload.VehicleRef,
		Images:     job.Payload.Images,
		ImageURLs:  job.Payload.ImageURLs,
		Metadata:   job.Payload.Metadata,
	}

	timeout := time.Duration(300000) * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	log.Printf("[Job %s] Processing timeout set to: %v", job.Payload.JobID, timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := c.processor.ProcessJob(ctx, request)

	duration := time.Since(startTime)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Processing timed out after %v (timeout: %v)", job.Payload.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(job.Payload.JobID, timeout, err)
			errorMap := timeoutErr.ToMap()

			if updateErr := c.processor.UpdateJobStatus(c.ctx, job.Payload.JobID, "failed", 100, errorMap); updateErr != nil {
				log.Printf("[Job %s] Warning: Failed to update status to failed: %v", job.Payload.JobID, updateErr)
			}

			return nil, fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		return nil, err
	}

	log.Printf("[Job %s] Processing completed in %v", job.Payload.JobID, duration)
	return result, nil
}

// updateJobStatus updates the status of a job in both Redis AND PostgreSQL
func (c *RedisConsumer) updateJobStatus(jobID string, status string, result interface{}) {
	// Update Redis for queue management
	if status == "processing" {
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
	} else if status == "completed" {
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:completed", c.config.QueueName), jobID)
		if result != nil {
			resultData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:results", c.config.QueueName), jobID, resultData)
		}
	} else if status == "failed" {
		c.client.SRem(c.ctx, fmt.Sprintf("%s:processing", c.config.QueueName), jobID)
		c.client.SAdd(c.ctx, fmt.Sprintf("%s:failed", c.config.QueueName), jobID)
		if result != nil {
			errorData, _ := json.Marshal(result)
			c.client.HSet(c.ctx, fmt.Sprintf("%s:errors", c.config.QueueName), jobID, errorData)
		}
	}

	// Update PostgreSQL for persistent job tracking
	if status == "completed" {
		if jobResult, ok := result.(*worker.JobResult); ok {
			log.Printf("[PostgreSQL] Updating job %s to completed with full details", jobID)
			if err := c.processor.UpdateJobStatus(c.ctx, jobID, status, 100, map[string]interface{}{
				"confidence":     jobResult.Confidence,
				"processingTime": jobResult.ProcessingTimeMs,
				"resultId":       jobResult.ResultID,
				"mergedText":     jobResult.MergedText,
				"fusionMethod":   jobResult.FusionMethod,
				"sourceCount":    jobResult.SourceCount,
			}); err != nil {
				log.Printf("[PostgreSQL] ERROR: Failed to update job status: %v", err)
			} else {
				log.Printf("[PostgreSQL] Job %s updated successfully (confidence=%.2f, text=%q)",
					jobID, jobResult.Confidence, jobResult.MergedText)
			}
		} else {
			log.Printf("[PostgreSQL] WARNING: JobResult type assertion failed. Marking as completed without details.")
			if err := c.processor.UpdateJobStatus(c.ctx, jobID, status, 100, nil); err != nil {
				log.Printf("[PostgreSQL] ERROR: Failed to update job status (fallback): %v", err)
			}
		}
	} else if status == "failed" {
		errorMsg := "Unknown error"
		if resultMap, ok := result.(map[string]interface{}); ok {
			if errStr, ok := resultMap["error"].(string); ok {
				errorMsg = errStr
			}
		}

		if err := c.processor.UpdateJobStatus(c.ctx, jobID, status, 0, map[string]interface{}{
			"error": errorMsg,
		}); err != nil {
			log.Printf("WARNING: Failed to update PostgreSQL job status for failed job: %v", err)
		}
	} else if status == "processing" {
		if err := c.processor.UpdateJobStatus(c.ctx, jobID, status, 0, nil); err != nil {
			log.Printf("WARNING: Failed to update PostgreSQL job status to processing: %v", err)
		}
	}

	// Publish event for WebSocket streaming
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	c.client.Publish(c.ctx, fmt.Sprintf("%s:events", c.config.QueueName), eventData)
}

// GetStats returns queue statistics
func (c *RedisConsumer) GetStats() (map[string]int64, error) {
	ctx := context.Background()

	waiting, _ := c.client.LLen(ctx, c.config.QueueName).Result()
	processing, _ := c.client.SCard(ctx, fmt.Sprintf("%s:processing", c.config.QueueName)).Result()
	completed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:completed", c.config.QueueName)).Result()
	failed, _ := c.client.SCard(ctx, fmt.Sprintf("%s:failed", c.config.QueueName)).Result()

	return map[string]int64{
		"waiting":    waiting,
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}
