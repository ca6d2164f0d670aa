/**
 * Cloud OCR Client - remote engraved-text recognition service
 *
 * Delegates hard images to the hosted recognition service. The service
 * runs heavier detection models than the local Tesseract engine and
 * returns word-level regions with quad geometry, which the consolidation
 * pipeline consumes directly.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wheelvision/hubcode-worker/internal/logging"
)

// CloudOCRClient handles communication with the hosted recognition service.
type CloudOCRClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// CloudOCRRequest is a recognition request for one image.
type CloudOCRRequest struct {
	Image          string                 `json:"image"`  // base64 encoded image
	Format         string                 `json:"format"` // "base64" or "url"
	PreferAccuracy bool                   `json:"preferAccuracy"`
	Language       string                 `json:"language,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	JobID          string                 `json:"jobId,omitempty"`
}

// CloudOCRResponse is the service's recognition response envelope.
type CloudOCRResponse struct {
	Success bool         `json:"success"`
	Data    CloudOCRData `json:"data"`
	Message string       `json:"message"`
}

// CloudOCRData carries the recognized regions and call metadata.
type CloudOCRData struct {
	Regions        []CloudOCRRegion `json:"regions"`
	ModelUsed      string           `json:"modelUsed"`
	ProcessingTime int64            `json:"processingTime"` // milliseconds
	JobID          string           `json:"jobId,omitempty"`
}

// CloudOCRRegion is one detected text region with its quad geometry.
type CloudOCRRegion struct {
	Text       string       `json:"text"`
	Confidence float64      `json:"confidence"`
	Quad       []CloudPoint `json:"quad,omitempty"`
}

// CloudPoint is one corner of a region quad in pixel space.
type CloudPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewCloudOCRClient creates a client for the given service base URL.
func NewCloudOCRClient(baseURL string) *CloudOCRClient {
	return &CloudOCRClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // detection models can take time on large images
		},
		logger: logging.NewLogger("CloudOCRClient"),
	}
}

// RecognizeImage sends one image for recognition and returns the detected
// regions.
func (c *CloudOCRClient) RecognizeImage(ctx context.Context, image []byte, req *CloudOCRRequest) (*CloudOCRData, error) {
	if req == nil {
		req = &CloudOCRRequest{}
	}
	req.Image = base64.StdEncoding.EncodeToString(image)
	req.Format = "base64"

	c.logger.Info("Requesting cloud recognition",
		"imageSize", len(image),
		"preferAccuracy", req.PreferAccuracy)

	endpoint := fmt.Sprintf("%s/api/v1/recognize", c.baseURL)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cloud recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloud recognition returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope CloudOCRResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("cloud recognition failed: %s", envelope.Message)
	}

	c.logger.Info("Cloud recognition complete",
		"regions", len(envelope.Data.Regions),
		"model", envelope.Data.ModelUsed,
		"durationMs", envelope.Data.ProcessingTime)

	return &envelope.Data, nil
}

// HealthCheck verifies the service is reachable.
func (c *CloudOCRClient) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
