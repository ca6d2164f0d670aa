package recognizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine returns canned observations keyed by image content.
type stubEngine struct {
	observations map[string][]TextObservation
	err          error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Observe(ctx context.Context, image []byte) ([]TextObservation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.observations[string(image)], nil
}

func newTestRecognizer(t *testing.T, engine Engine) *Recognizer {
	t.Helper()
	rec, err := NewRecognizer(&RecognizerConfig{
		Engine: engine,
		Filter: DefaultFilterConfig(),
		Fusion: DefaultFusionConfig(),
	})
	require.NoError(t, err)
	return rec
}

func TestNewRecognizerValidation(t *testing.T) {
	_, err := NewRecognizer(nil)
	assert.Error(t, err)

	_, err = NewRecognizer(&RecognizerConfig{})
	assert.Error(t, err)
}

func TestRecognizeImageFiltersAndGroups(t *testing.T) {
	engine := &stubEngine{observations: map[string][]TextObservation{
		"front": {
			quadObs("AT60202", 0.9, 100, 100, 300, 140),
			quadObs("noise", 0.1, 100, 400, 200, 440),
		},
	}}
	rec := newTestRecognizer(t, engine)

	result := rec.RecognizeImage(context.Background(), []byte("front"))

	require.True(t, result.Success)
	assert.Equal(t, "stub", result.EngineUsed)
	require.Len(t, result.Observations, 1)
	assert.Equal(t, "AT60202", result.Observations[0].Text)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, "AT60202", result.Lines[0].Text)
}

func TestRecognizeImageEngineFailureIsStructured(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("camera feed corrupt")}
	rec := newTestRecognizer(t, engine)

	result := rec.RecognizeImage(context.Background(), []byte("front"))

	assert.False(t, result.Success)
	assert.Equal(t, "camera feed corrupt", result.Error)
	assert.Empty(t, result.Observations)
}

func TestRecognizeImageEmptyImage(t *testing.T) {
	rec := newTestRecognizer(t, &stubEngine{})

	result := rec.RecognizeImage(context.Background(), nil)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestRecognizeBatchPreservesOrderAndTagsSource(t *testing.T) {
	engine := &stubEngine{observations: map[string][]TextObservation{
		"a": {obs("AT60202", 0.9)},
		"b": {obs("AT60203", 0.8)},
		"c": {obs("AT60204", 0.7)},
	}}
	rec := newTestRecognizer(t, engine)

	results := rec.RecognizeBatch(context.Background(), [][]byte{
		[]byte("a"), []byte("b"), []byte("c"),
	})

	require.Len(t, results, 3)
	assert.Equal(t, "AT60202", results[0].Observations[0].Text)
	assert.Equal(t, "AT60203", results[1].Observations[0].Text)
	assert.Equal(t, "AT60204", results[2].Observations[0].Text)
	for i, result := range results {
		require.True(t, result.Success)
		for _, o := range result.Observations {
			assert.Equal(t, i, o.SourceImage)
		}
	}
}

func TestRecognizeMultiAngleFusesBatch(t *testing.T) {
	engine := &stubEngine{observations: map[string][]TextObservation{
		"a": {obs("AT60202", 0.9)},
		"b": {obs("AT60202", 0.8)},
		"c": {obs("AT60203", 0.85)},
	}}
	rec := newTestRecognizer(t, engine)

	fused := rec.RecognizeMultiAngle(context.Background(), [][]byte{
		[]byte("a"), []byte("b"), []byte("c"),
	})

	require.True(t, fused.Success)
	assert.Equal(t, "AT60202", fused.MergedText)
	assert.Equal(t, 3, fused.SourceCount)
	assert.Equal(t, MethodVoting, fused.FusionMethod)
}
