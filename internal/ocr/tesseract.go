/**
 * Tesseract Engine - local OCR for offline/fast recognition
 *
 * Free, offline word-level recognition using Tesseract. Used as the
 * default engine and as fallback when the cloud service is unavailable.
 */

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"github.com/wheelvision/hubcode-worker/internal/recognizer"
)

// TesseractEngine produces word-level observations through Tesseract.
type TesseractEngine struct {
	language  string
	whitelist string
}

// TesseractConfig holds Tesseract engine configuration.
type TesseractConfig struct {
	Language  string // Tesseract language model, default "eng"
	Whitelist string // optional character whitelist for engraved codes
}

// NewTesseractEngine creates a Tesseract-backed engine.
func NewTesseractEngine(cfg *TesseractConfig) (*TesseractEngine, error) {
	if cfg == nil {
		cfg = &TesseractConfig{}
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}

	return &TesseractEngine{
		language:  language,
		whitelist: cfg.Whitelist,
	}, nil
}

// Name identifies the engine in results and logs.
func (t *TesseractEngine) Name() string {
	return "tesseract"
}

// Observe runs word-level recognition on one image. Tesseract reports
// confidence in percent; observations carry it normalized to [0,1].
func (t *TesseractEngine) Observe(ctx context.Context, image []byte) ([]recognizer.TextObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if t.whitelist != "" {
		if err := client.SetWhitelist(t.whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	observations := make([]recognizer.TextObservation, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}

		confidence := box.Confidence / 100
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		observations = append(observations, recognizer.TextObservation{
			Text:         box.Word,
			Confidence:   confidence,
			BoundingQuad: rectQuad(float64(box.Box.Min.X), float64(box.Box.Min.Y), float64(box.Box.Max.X), float64(box.Box.Max.Y)),
		})
	}

	return observations, nil
}

// rectQuad converts an axis-aligned box to a clockwise quad from top-left.
func rectQuad(minX, minY, maxX, maxY float64) []recognizer.Point {
	return []recognizer.Point{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}
