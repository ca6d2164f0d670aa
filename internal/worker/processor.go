/**
 * Job Processor - recognition job orchestration
 *
 * Loads the images of one job, runs multi-angle recognition and fusion,
 * persists the fused result and keeps job status current.
 */

package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/wheelvision/hubcode-worker/internal/errors"
	"github.com/wheelvision/hubcode-worker/internal/recognizer"
	"github.com/wheelvision/hubcode-worker/internal/storage"
)

// JobProcessorInterface defines the contract the queue consumers call.
type JobProcessorInterface interface {
	ProcessJob(ctx context.Context, req *JobRequest) (*JobResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Recognizer   *recognizer.Recognizer
	Storage      *storage.PostgresClient
	EngineName   string
	MaxImageSize int64
}

// JobRequest is one recognition job: a set of hub images from different
// angles, as inline buffers or URLs.
type JobRequest struct {
	JobID      string
	VehicleRef string
	Images     [][]byte
	ImageURLs  []string
	Metadata   map[string]interface{}
}

// JobResult is the outcome handed back to the queue layer.
type JobResult struct {
	ResultID         string
	MergedText       string
	Confidence       float64
	FusionMethod     string
	SourceCount      int
	ProcessingTimeMs int64
}

// JobProcessor handles recognition jobs
type JobProcessor struct {
	config     *ProcessorConfig
	recognizer *recognizer.Recognizer
	storage    *storage.PostgresClient
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(cfg *ProcessorConfig) (*JobProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("recognizer is required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	return &JobProcessor{
		config:     cfg,
		recognizer: cfg.Recognizer,
		storage:    cfg.Storage,
	}, nil
}

// ProcessJob runs the full recognition pipeline for one job.
func (p *JobProcessor) ProcessJob(ctx context.Context, req *JobRequest) (*JobResult, error) {
	startTime := time.Now()
	log.Printf("[Job %s] Starting recognition (inline=%d, urls=%d)",
		req.JobID, len(req.Images), len(req.ImageURLs))

	images, err := p.loadImages(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.NewEmptyInputError(req.JobID, "job carries no images")
	}
	log.Printf("[Job %s] Loaded %d images", req.JobID, len(images))

	fused := p.recognizer.RecognizeMultiAngle(ctx, images)
	if !fused.Success {
		return nil, errors.NewOCRFailedError(req.JobID, p.config.EngineName,
			fmt.Errorf("%s", fused.Error))
	}

	log.Printf("[Job %s] Fusion complete: text=%q, confidence=%.2f, method=%s, sources=%d",
		req.JobID, fused.MergedText, fused.Confidence, fused.FusionMethod, fused.SourceCount)

	resultID, err := p.storage.StoreRecognition(ctx, &storage.RecognitionRecord{
		JobID:         req.JobID,
		MergedText:    fused.MergedText,
		Confidence:    fused.Confidence,
		FusionMethod:  fused.FusionMethod,
		SourceCount:   fused.SourceCount,
		SourceEngines: []string{p.config.EngineName},
		Candidates:    fused.Alternatives,
		Lines:         fused.Lines,
	})
	if err != nil {
		return nil, errors.NewStorageFailedError(req.JobID, err)
	}

	return &JobResult{
		ResultID:         resultID,
		MergedText:       fused.MergedText,
		Confidence:       fused.Confidence,
		FusionMethod:     fused.FusionMethod,
		SourceCount:      fused.SourceCount,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	}, nil
}

// UpdateJobStatus updates job status in the database
func (p *JobProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, progress int, metadata map[string]interface{}) error {
	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Metadata: metadata,
	}

	if metadata != nil {
		if confidence, ok := metadata["confidence"].(float64); ok {
			update.Confidence = confidence
		}
		if processingTime, ok := metadata["processingTime"].(int64); ok {
			update.ProcessingTimeMs = processingTime
		}
		if resultID, ok := metadata["resultId"].(string); ok {
			update.ResultID = resultID
		}
		if engineUsed, ok := metadata["engineUsed"].(string); ok {
			update.EngineUsed = engineUsed
		}
		if errorMsg, ok := metadata["error"].(string); ok {
			update.ErrorCode = "PROCESSING_ERROR"
			update.ErrorMessage = errorMsg
		}
		if errorCode, ok := metadata["error_code"].(string); ok {
			update.ErrorCode = errorCode
		}
	}

	return p.storage.UpdateJobStatus(ctx, update)
}

// loadImages materializes every image of the job, inline buffers first,
// then URL downloads in submission order. Image order is significant for
// line-position alignment downstream.
func (p *JobProcessor) loadImages(ctx context.Context, req *JobRequest) ([][]byte, error) {
	images := make([][]byte, 0, len(req.Images)+len(req.ImageURLs))

	for i, image := range req.Images {
		if p.config.MaxImageSize > 0 && int64(len(image)) > p.config.MaxImageSize {
			return nil, fmt.Errorf("inline image %d exceeds max size (%d > %d)",
				i, len(image), p.config.MaxImageSize)
		}
		images = append(images, image)
	}

	for _, url := range req.ImageURLs {
		image, err := p.downloadImage(ctx, req.JobID, url)
		if err != nil {
			return nil, errors.NewImageFetchFailedError(req.JobID, url, err)
		}
		images = append(images, image)
	}

	return images, nil
}

// downloadImage fetches one image with exponential-backoff retries.
func (p *JobProcessor) downloadImage(ctx context.Context, jobID string, imageURL string) ([]byte, error) {
	const (
		maxRetries        = 5
		initialBackoffMs  = 1000
		maxBackoffMs      = 32000
		downloadTimeoutMs = 120000
	)

	client := &http.Client{
		Timeout: time.Duration(downloadTimeoutMs) * time.Millisecond,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("[Job %s] Download attempt %d/%d from: %s", jobID, attempt, maxRetries, imageURL)

		data, err := p.fetchOnce(ctx, client, imageURL)
		if err == nil {
			log.Printf("[Job %s] Downloaded %d bytes", jobID, len(data))
			return data, nil
		}
		lastErr = err
		log.Printf("[Job %s] Download attempt %d failed: %v", jobID, attempt, err)

		if attempt < maxRetries {
			backoffMs := initialBackoffMs * int(math.Pow(2, float64(attempt-1)))
			if backoffMs > maxBackoffMs {
				backoffMs = maxBackoffMs
			}
			log.Printf("[Job %s] Retrying in %dms...", jobID, backoffMs)
			select {
			case <-time.After(time.Duration(backoffMs) * time.Millisecond):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during retry backoff")
			}
		}
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", maxRetries, lastErr)
}

func (p *JobProcessor) fetchOnce(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var reader io.Reader = resp.Body
	if p.config.MaxImageSize > 0 {
		reader = io.LimitReader(resp.Body, p.config.MaxImageSize+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if p.config.MaxImageSize > 0 && int64(len(data)) > p.config.MaxImageSize {
		return nil, fmt.Errorf("image exceeds max size %d", p.config.MaxImageSize)
	}
	return data, nil
}
