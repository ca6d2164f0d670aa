/**
 * PostgreSQL Client - persistence for recognition jobs and results
 *
 * Handles job status upserts and storage of fused recognition results.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	_ "github.com/lib/pq"

	"github.com/wheelvision/hubcode-worker/internal/recognizer"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Confidence       float64
	ProcessingTimeMs int64
	ResultID         string
	ErrorCode        string
	ErrorMessage     string
	EngineUsed       string
	Metadata         map[string]interface{}
}

// RecognitionRecord is one fused recognition outcome persisted per job.
type RecognitionRecord struct {
	ID            string
	JobID         string
	MergedText    string
	Confidence    float64
	FusionMethod  string
	SourceCount   int
	SourceEngines []string
	Candidates    []recognizer.Alternative
	Lines         []recognizer.FusedLine
}

// sanitizeConfidence rounds confidence to 4 decimal places to prevent PostgreSQL float precision errors
// PostgreSQL FLOAT type can represent values with excessive precision (e.g., 0.9632000000000001)
// which causes "invalid input syntax for type integer" errors when used in certain contexts.
// This function enforces bounded precision by rounding to 4 decimals and clamping to [0.0, 1.0].
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// UpdateJobStatus upserts job status in the database. The worker may see
// a job before the API created its record, so the first update creates it.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}
	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	sanitizedConfidence := sanitizeConfidence(update.Confidence)

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Explicit NUMERIC(5,4) casting keeps confidence at bounded precision.
	query := `
		INSERT INTO hubcode.recognition_jobs (
			id, vehicle_ref, status, confidence, processing_time_ms,
			result_id, error_code, error_message, engine_used, metadata,
			created_at, updated_at
		) VALUES (
			$1::uuid, COALESCE($10, 'unknown'),
			$2, NULLIF($3::NUMERIC(5,4), 0), NULLIF($4, 0),
			CASE WHEN $5 = '' THEN NULL ELSE $5::uuid END,
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''),
			COALESCE($9::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			confidence = COALESCE(NULLIF(EXCLUDED.confidence::NUMERIC(5,4), 0), hubcode.recognition_jobs.confidence),
			processing_time_ms = COALESCE(NULLIF(EXCLUDED.processing_time_ms, 0), hubcode.recognition_jobs.processing_time_ms),
			result_id = CASE
				WHEN EXCLUDED.result_id IS NOT NULL THEN EXCLUDED.result_id
				ELSE hubcode.recognition_jobs.result_id
			END,
			error_code = NULLIF(EXCLUDED.error_code, ''),
			error_message = NULLIF(EXCLUDED.error_message, ''),
			engine_used = NULLIF(EXCLUDED.engine_used, ''),
			metadata = COALESCE(EXCLUDED.metadata, hubcode.recognition_jobs.metadata),
			vehicle_ref = COALESCE(EXCLUDED.vehicle_ref, hubcode.recognition_jobs.vehicle_ref),
			updated_at = NOW()
		RETURNING id
	`

	var vehicleRef string
	if update.Metadata != nil {
		if v, ok := update.Metadata["vehicleRef"].(string); ok {
			vehicleRef = v
		}
	}

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,
		update.Status,
		sanitizedConfidence,
		update.ProcessingTimeMs,
		update.ResultID,
		update.ErrorCode,
		update.ErrorMessage,
		update.EngineUsed,
		metadataJSON,
		vehicleRef,
	).Scan(&returnedID)

	if err == sql.ErrNoRows {
		return fmt.Errorf("job not found: %s", update.JobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s, confidence=%.4f): %w",
			update.JobID, update.Status, sanitizedConfidence, err)
	}

	return nil
}

// StoreRecognition persists a fused recognition result and returns its ID.
func (p *PostgresClient) StoreRecognition(ctx context.Context, record *RecognitionRecord) (string, error) {
	if record.JobID == "" {
		return "", fmt.Errorf("job ID is required")
	}
	if record.MergedText == "" {
		return "", fmt.Errorf("merged text is required")
	}

	candidatesJSON, err := json.Marshal(record.Candidates)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidates: %w", err)
	}
	linesJSON, err := json.Marshal(record.Lines)
	if err != nil {
		return "", fmt.Errorf("failed to marshal lines: %w", err)
	}

	recordID := record.ID
	if recordID == "" {
		recordID = uuid.New().String()
	}

	query := `
		INSERT INTO hubcode.recognition_results (
			id, job_id, merged_text, confidence, fusion_method,
			source_count, source_engines, candidates, lines, created_at
		) VALUES ($1::uuid, $2::uuid, $3, $4::NUMERIC(5,4), $5, $6, $7, $8::jsonb, $9::jsonb, NOW())
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		recordID,
		record.JobID,
		record.MergedText,
		sanitizeConfidence(record.Confidence),
		record.FusionMethod,
		record.SourceCount,
		pq.Array(record.SourceEngines),
		candidatesJSON,
		linesJSON,
	).Scan(&returnedID)

	if err != nil {
		return "", fmt.Errorf("failed to store recognition result: %w", err)
	}

	return returnedID, nil
}

// GetRecognition retrieves a stored recognition result by ID.
func (p *PostgresClient) GetRecognition(ctx context.Context, resultID string) (*RecognitionRecord, error) {
	if resultID == "" {
		return nil, fmt.Errorf("result ID is required")
	}

	query := `
		SELECT
			id, job_id, merged_text, confidence, fusion_method,
			source_count, source_engines, candidates, lines
		FROM hubcode.recognition_results
		WHERE id = $1::uuid
	`

	var record RecognitionRecord
	var engines pq.StringArray
	var candidatesJSON, linesJSON []byte

	err := p.db.QueryRowContext(ctx, query, resultID).Scan(
		&record.ID,
		&record.JobID,
		&record.MergedText,
		&record.Confidence,
		&record.FusionMethod,
		&record.SourceCount,
		&engines,
		&candidatesJSON,
		&linesJSON,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recognition result not found: %s", resultID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recognition result: %w", err)
	}

	record.SourceEngines = []string(engines)
	if len(candidatesJSON) > 0 {
		if err := json.Unmarshal(candidatesJSON, &record.Candidates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidates: %w", err)
		}
	}
	if len(linesJSON) > 0 {
		if err := json.Unmarshal(linesJSON, &record.Lines); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lines: %w", err)
		}
	}

	return &record, nil
}

// GetJobByID retrieves a job by ID
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id, vehicle_ref, status, confidence, processing_time_ms,
			result_id, error_code, error_message, engine_used, metadata,
			created_at, updated_at
		FROM hubcode.recognition_jobs
		WHERE id = $1::uuid
	`

	var (
		id, vehicleRef                    string
		status                            sql.NullString
		confidence                        sql.NullFloat64
		processingTimeMs                  sql.NullInt64
		resultID, errorCode, errorMessage sql.NullString
		engineUsed                        sql.NullString
		metadataJSON                      []byte
		createdAt, updatedAt              time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &vehicleRef, &status, &confidence, &processingTimeMs,
		&resultID, &errorCode, &errorMessage, &engineUsed,
		&metadataJSON, &createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":         id,
		"vehicleRef": vehicleRef,
		"status":     status.String,
		"createdAt":  createdAt,
		"updatedAt":  updatedAt,
		"metadata":   metadata,
	}

	if confidence.Valid {
		result["confidence"] = confidence.Float64
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	if resultID.Valid {
		result["resultId"] = resultID.String
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}
	if engineUsed.Valid {
		result["engineUsed"] = engineUsed.String
	}

	return result, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
