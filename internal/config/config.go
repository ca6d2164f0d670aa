/**
 * Configuration for the hub code recognition worker
 *
 * Loads configuration from environment variables. Recognition thresholds
 * fall back to the pipeline defaults when unset; callers take immutable
 * snapshots via FilterConfig() and FusionConfig() before dispatching
 * concurrent work.
 */

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/wheelvision/hubcode-worker/internal/recognizer"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL  string
	QueueName string
	QueueMode string // "asynq" or "redis"

	// PostgreSQL configuration
	DatabaseURL string

	// OCR engine configuration
	Engine             string // "tesseract", "cloud" or "fallback"
	CloudOCRURL        string
	CloudPreferAccuracy bool
	TesseractLanguage  string
	TesseractWhitelist string

	// Worker configuration
	WorkerConcurrency int
	MaxImageSize      int64
	ProcessingTimeout int
	ImageParallelism  int

	// Filter pipeline thresholds
	MinConfidence       float64
	MinLength           int
	MaxLength           int
	AllowedChars        string
	EnableCharFilter    bool
	EnableCorrection    bool
	EnableDeduplication bool
	SimilarityThreshold float64
	MinResults          int
	EnableRegionFilter  bool
	MinAreaRatio        float64
	MaxAreaRatio        float64
	MinAspectRatio      float64
	MaxAspectRatio      float64
	CenterRegionOnly    bool
	CenterRegionRatio   float64

	// Fusion configuration
	FusionMethod         string
	MinImages            int
	MaxImages            int
	ReturnAlternatives   bool
	AlternativeThreshold float64

	// Line grouping
	YThreshold float64

	// Node environment
	NodeEnv string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	filterDefaults := recognizer.DefaultFilterConfig()
	fusionDefaults := recognizer.DefaultFusionConfig()

	cfg := &Config{
		RedisURL:    getEnvOrDefault("REDIS_URL", "redis://hubcode-redis:6379"),
		QueueName:   getEnvOrDefault("QUEUE_NAME", "hubcode:jobs"),
		QueueMode:   getEnvOrDefault("QUEUE_MODE", "asynq"),
		DatabaseURL: getEnvOrThrow("DATABASE_URL"),

		Engine:              getEnvOrDefault("OCR_ENGINE", "tesseract"),
		CloudOCRURL:         getEnvOrDefault("CLOUD_OCR_URL", ""),
		CloudPreferAccuracy: getEnvAsBoolOrDefault("CLOUD_PREFER_ACCURACY", false),
		TesseractLanguage:   getEnvOrDefault("TESSERACT_LANGUAGE", "eng"),
		TesseractWhitelist:  getEnvOrDefault("TESSERACT_WHITELIST", ""),

		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		MaxImageSize:      getEnvAsInt64OrDefault("MAX_IMAGE_SIZE", 33554432), // 32MB
		ProcessingTimeout: getEnvAsIntOrDefault("PROCESSING_TIMEOUT", 300000), // 5 minutes
		ImageParallelism:  getEnvAsIntOrDefault("IMAGE_PARALLELISM", 4),

		MinConfidence:       getEnvAsFloatOrDefault("MIN_CONFIDENCE", filterDefaults.MinConfidence),
		MinLength:           getEnvAsIntOrDefault("MIN_LENGTH", filterDefaults.MinLength),
		MaxLength:           getEnvAsIntOrDefault("MAX_LENGTH", filterDefaults.MaxLength),
		AllowedChars:        getEnvOrDefault("ALLOWED_CHARS", filterDefaults.AllowedChars),
		EnableCharFilter:    getEnvAsBoolOrDefault("ENABLE_CHAR_FILTER", filterDefaults.EnableCharFilter),
		EnableCorrection:    getEnvAsBoolOrDefault("ENABLE_CORRECTION", filterDefaults.EnableCorrection),
		EnableDeduplication: getEnvAsBoolOrDefault("ENABLE_DEDUPLICATION", filterDefaults.EnableDeduplication),
		SimilarityThreshold: getEnvAsFloatOrDefault("SIMILARITY_THRESHOLD", filterDefaults.SimilarityThreshold),
		MinResults:          getEnvAsIntOrDefault("MIN_RESULTS", filterDefaults.MinResults),
		EnableRegionFilter:  getEnvAsBoolOrDefault("ENABLE_REGION_FILTER", filterDefaults.EnableRegionFilter),
		MinAreaRatio:        getEnvAsFloatOrDefault("MIN_AREA_RATIO", filterDefaults.Region.MinAreaRatio),
		MaxAreaRatio:        getEnvAsFloatOrDefault("MAX_AREA_RATIO", filterDefaults.Region.MaxAreaRatio),
		MinAspectRatio:      getEnvAsFloatOrDefault("MIN_ASPECT_RATIO", filterDefaults.Region.MinAspectRatio),
		MaxAspectRatio:      getEnvAsFloatOrDefault("MAX_ASPECT_RATIO", filterDefaults.Region.MaxAspectRatio),
		CenterRegionOnly:    getEnvAsBoolOrDefault("CENTER_REGION_ONLY", filterDefaults.Region.CenterRegionOnly),
		CenterRegionRatio:   getEnvAsFloatOrDefault("CENTER_REGION_RATIO", filterDefaults.Region.CenterRegionRatio),

		FusionMethod:         getEnvOrDefault("FUSION_METHOD", fusionDefaults.Method),
		MinImages:            getEnvAsIntOrDefault("MIN_IMAGES", fusionDefaults.MinImages),
		MaxImages:            getEnvAsIntOrDefault("MAX_IMAGES", fusionDefaults.MaxImages),
		ReturnAlternatives:   getEnvAsBoolOrDefault("RETURN_ALTERNATIVES", fusionDefaults.ReturnAlternatives),
		AlternativeThreshold: getEnvAsFloatOrDefault("ALTERNATIVE_THRESHOLD", fusionDefaults.AlternativeThreshold),

		YThreshold: getEnvAsFloatOrDefault("Y_THRESHOLD", recognizer.DefaultYThreshold),

		NodeEnv: getEnvOrDefault("NODE_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.QueueMode {
	case "asynq", "redis":
	default:
		return fmt.Errorf("QUEUE_MODE must be asynq or redis, got %q", c.QueueMode)
	}

	switch c.Engine {
	case "tesseract":
	case "cloud", "fallback":
		if c.CloudOCRURL == "" {
			return fmt.Errorf("CLOUD_OCR_URL is required when OCR_ENGINE=%s", c.Engine)
		}
	default:
		return fmt.Errorf("OCR_ENGINE must be tesseract, cloud or fallback, got %q", c.Engine)
	}

	switch c.FusionMethod {
	case recognizer.MethodVoting, recognizer.MethodWeighted, recognizer.MethodSmart, recognizer.MethodMerge:
	default:
		return fmt.Errorf("FUSION_METHOD must be one of voting, weighted, smart, merge, got %q", c.FusionMethod)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxImageSize < 1024 || c.MaxImageSize > 1073741824 { // 1KB to 1GB
		return fmt.Errorf("MAX_IMAGE_SIZE must be between 1KB and 1GB, got %d", c.MaxImageSize)
	}

	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be in [0,1], got %f", c.MinConfidence)
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %f", c.SimilarityThreshold)
	}

	if c.MaxImages < 1 {
		return fmt.Errorf("MAX_IMAGES must be at least 1, got %d", c.MaxImages)
	}

	return nil
}

// FilterConfig returns an immutable per-call snapshot of the filter
// pipeline settings.
func (c *Config) FilterConfig() recognizer.FilterConfig {
	return recognizer.FilterConfig{
		MinConfidence:       c.MinConfidence,
		MinLength:           c.MinLength,
		MaxLength:           c.MaxLength,
		AllowedChars:        c.AllowedChars,
		EnableCharFilter:    c.EnableCharFilter,
		EnableCorrection:    c.EnableCorrection,
		EnableDeduplication: c.EnableDeduplication,
		SimilarityThreshold: c.SimilarityThreshold,
		MinResults:          c.MinResults,
		EnableRegionFilter:  c.EnableRegionFilter,
		Region: recognizer.RegionFilterConfig{
			MinAreaRatio:      c.MinAreaRatio,
			MaxAreaRatio:      c.MaxAreaRatio,
			MinAspectRatio:    c.MinAspectRatio,
			MaxAspectRatio:    c.MaxAspectRatio,
			CenterRegionOnly:  c.CenterRegionOnly,
			CenterRegionRatio: c.CenterRegionRatio,
		},
	}
}

// FusionConfig returns an immutable per-call snapshot of the fusion
// settings.
func (c *Config) FusionConfig() recognizer.FusionConfig {
	return recognizer.FusionConfig{
		Method:               c.FusionMethod,
		MinImages:            c.MinImages,
		MaxImages:            c.MaxImages,
		ReturnAlternatives:   c.ReturnAlternatives,
		AlternativeThreshold: c.AlternativeThreshold,
	}
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or returns error
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
