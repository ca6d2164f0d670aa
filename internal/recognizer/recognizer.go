/**
 * Recognizer - per-image recognition orchestration
 *
 * Drives an OCR engine over one or more hub images, runs the filter
 * pipeline and line grouping on each result, and hands multi-angle
 * batches to fusion.
 */

package recognizer

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Engine produces raw text observations for one image. Implementations
// wrap a local or cloud OCR backend; the pipeline treats them identically.
type Engine interface {
	Name() string
	Observe(ctx context.Context, image []byte) ([]TextObservation, error)
}

// Recognizer runs an Engine and the consolidation pipeline. It holds no
// per-call state and is safe for concurrent use.
type Recognizer struct {
	engine      Engine
	filter      FilterConfig
	fusion      FusionConfig
	yThreshold  float64
	maxParallel int
}

// RecognizerConfig configures a Recognizer.
type RecognizerConfig struct {
	Engine      Engine
	Filter      FilterConfig
	Fusion      FusionConfig
	YThreshold  float64
	MaxParallel int
}

// NewRecognizer creates a recognizer from cfg.
func NewRecognizer(cfg *RecognizerConfig) (*Recognizer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("an OCR engine is required")
	}

	yThreshold := cfg.YThreshold
	if yThreshold <= 0 {
		yThreshold = DefaultYThreshold
	}
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}

	return &Recognizer{
		engine:      cfg.Engine,
		filter:      cfg.Filter,
		fusion:      cfg.Fusion,
		yThreshold:  yThreshold,
		maxParallel: maxParallel,
	}, nil
}

// RecognizeImage runs the engine on one image and consolidates its
// observations. Engine failures become a failed result, not an error;
// only a nil receiver or missing image is a programming error.
func (r *Recognizer) RecognizeImage(ctx context.Context, image []byte) ImageResult {
	if len(image) == 0 {
		return ImageResult{Success: false, Error: "empty image data"}
	}

	observations, err := r.engine.Observe(ctx, image)
	if err != nil {
		log.Printf("recognition failed (%s): %v", r.engine.Name(), err)
		return ImageResult{
			Success:    false,
			Error:      err.Error(),
			EngineUsed: r.engine.Name(),
		}
	}

	filtered := FilterAndRank(observations, r.filter)
	return ImageResult{
		Success:      true,
		EngineUsed:   r.engine.Name(),
		Observations: filtered,
		Lines:        GroupLines(filtered, r.yThreshold),
	}
}

// RecognizeBatch recognizes every image concurrently, bounded by the
// configured parallelism. Results keep submission order; each failed
// image yields a failed entry without aborting the batch.
func (r *Recognizer) RecognizeBatch(ctx context.Context, images [][]byte) []ImageResult {
	results := make([]ImageResult, len(images))
	if len(images) == 0 {
		return results
	}

	sem := make(chan struct{}, r.maxParallel)
	var wg sync.WaitGroup
	for i, image := range images {
		wg.Add(1)
		go func(i int, image []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := r.RecognizeImage(ctx, image)
			for j := range result.Observations {
				result.Observations[j].SourceImage = i
			}
			results[i] = result
		}(i, image)
	}
	wg.Wait()

	return results
}

// RecognizeMultiAngle recognizes a multi-angle batch and fuses the
// per-image results into one answer.
func (r *Recognizer) RecognizeMultiAngle(ctx context.Context, images [][]byte) FusedResult {
	results := r.RecognizeBatch(ctx, images)
	return Fuse(results, r.fusion)
}
