package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelvision/hubcode-worker/internal/recognizer"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "hubcode:jobs", cfg.QueueName)
	assert.Equal(t, "asynq", cfg.QueueMode)
	assert.Equal(t, "tesseract", cfg.Engine)
	assert.Equal(t, 10, cfg.WorkerConcurrency)

	defaults := recognizer.DefaultFilterConfig()
	assert.Equal(t, defaults, cfg.FilterConfig())

	fusionDefaults := recognizer.DefaultFusionConfig()
	assert.Equal(t, fusionDefaults, cfg.FusionConfig())

	assert.Equal(t, recognizer.DefaultYThreshold, cfg.YThreshold)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")
	t.Setenv("MIN_CONFIDENCE", "0.75")
	t.Setenv("ENABLE_REGION_FILTER", "true")
	t.Setenv("FUSION_METHOD", "smart")
	t.Setenv("MAX_IMAGES", "6")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	filter := cfg.FilterConfig()
	assert.Equal(t, 0.75, filter.MinConfidence)
	assert.True(t, filter.EnableRegionFilter)

	fusion := cfg.FusionConfig()
	assert.Equal(t, recognizer.MethodSmart, fusion.Method)
	assert.Equal(t, 6, fusion.MaxImages)
}

func TestLoadConfigMalformedValueFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")
	t.Setenv("MIN_CONFIDENCE", "not-a-number")
	t.Setenv("WORKER_CONCURRENCY", "many")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, recognizer.DefaultFilterConfig().MinConfidence, cfg.MinConfidence)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
}

func TestLoadConfigRejectsBadFusionMethod(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")
	t.Setenv("FUSION_METHOD", "majority")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FUSION_METHOD")
}

func TestLoadConfigCloudEngineRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")
	t.Setenv("OCR_ENGINE", "cloud")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLOUD_OCR_URL")
}

func TestValidateBounds(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hubcode")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.WorkerConcurrency = 0
	assert.Error(t, cfg.Validate())

	cfg.WorkerConcurrency = 10
	cfg.MinConfidence = 1.5
	assert.Error(t, cfg.Validate())

	cfg.MinConfidence = 0.6
	cfg.MaxImages = 0
	assert.Error(t, cfg.Validate())
}
