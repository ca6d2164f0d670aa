/**
 * Cloud Engine - recognition backed by the hosted service
 *
 * Wraps CloudOCRClient behind the Engine interface so the pipeline
 * treats remote and local recognition identically.
 */

package ocr

import (
	"context"
	"fmt"

	"github.com/wheelvision/hubcode-worker/internal/clients"
	"github.com/wheelvision/hubcode-worker/internal/recognizer"
)

// CloudEngine produces observations through the hosted recognition
// service.
type CloudEngine struct {
	client         *clients.CloudOCRClient
	preferAccuracy bool
}

// NewCloudEngine wraps an existing client.
func NewCloudEngine(client *clients.CloudOCRClient, preferAccuracy bool) (*CloudEngine, error) {
	if client == nil {
		return nil, fmt.Errorf("cloud OCR client is required")
	}
	return &CloudEngine{client: client, preferAccuracy: preferAccuracy}, nil
}

// Name identifies the engine in results and logs.
func (c *CloudEngine) Name() string {
	return "cloud"
}

// Observe sends the image to the service and converts the returned
// regions to observations. Regions without geometry pass through with an
// empty quad; the pipeline handles them.
func (c *CloudEngine) Observe(ctx context.Context, image []byte) ([]recognizer.TextObservation, error) {
	data, err := c.client.RecognizeImage(ctx, image, &clients.CloudOCRRequest{
		PreferAccuracy: c.preferAccuracy,
	})
	if err != nil {
		return nil, err
	}

	observations := make([]recognizer.TextObservation, 0, len(data.Regions))
	for _, region := range data.Regions {
		obs := recognizer.TextObservation{
			Text:       region.Text,
			Confidence: region.Confidence,
		}
		for _, p := range region.Quad {
			obs.BoundingQuad = append(obs.BoundingQuad, recognizer.Point{X: p.X, Y: p.Y})
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// FallbackEngine tries a primary engine and falls back to a secondary on
// error. The secondary's name is reported when it produced the result.
type FallbackEngine struct {
	primary   recognizer.Engine
	secondary recognizer.Engine
}

// NewFallbackEngine chains two engines.
func NewFallbackEngine(primary, secondary recognizer.Engine) (*FallbackEngine, error) {
	if primary == nil || secondary == nil {
		return nil, fmt.Errorf("both engines are required")
	}
	return &FallbackEngine{primary: primary, secondary: secondary}, nil
}

// Name identifies the engine chain.
func (f *FallbackEngine) Name() string {
	return fmt.Sprintf("%s+%s", f.primary.Name(), f.secondary.Name())
}

// Observe runs the primary engine, then the secondary if the primary
// fails or finds nothing.
func (f *FallbackEngine) Observe(ctx context.Context, image []byte) ([]recognizer.TextObservation, error) {
	observations, err := f.primary.Observe(ctx, image)
	if err == nil && len(observations) > 0 {
		return observations, nil
	}
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return f.secondary.Observe(ctx, image)
}
