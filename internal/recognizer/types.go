/**
 * Core Types - Shared data structures for wheel-hub code recognition
 *
 * Common types used by the filter pipeline, line grouping, the confusion
 * corrector and multi-source fusion.
 */

package recognizer

// Point is a pixel coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextObservation is one detected text region reported by an OCR engine.
// Observations are immutable inputs to the pipeline; every stage produces
// new values instead of mutating in place.
type TextObservation struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`              // normalized to [0,1]
	BoundingQuad []Point `json:"boundingQuad,omitempty"`  // 4 corners, clockwise from top-left; may be absent
	SourceImage  int     `json:"sourceImage"`             // index of the producing image in a batch
	Corrected    bool    `json:"corrected,omitempty"`
	OriginalText string  `json:"originalText,omitempty"`
}

// HasQuad reports whether the observation carries usable geometry.
func (o TextObservation) HasQuad() bool {
	return len(o.BoundingQuad) >= 2
}

// quadBounds returns the axis-aligned extent of the bounding quad.
func (o TextObservation) quadBounds() (minX, minY, maxX, maxY float64) {
	minX, minY = o.BoundingQuad[0].X, o.BoundingQuad[0].Y
	maxX, maxY = minX, minY
	for _, p := range o.BoundingQuad[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY
}

// Center returns the bounding quad center, or the origin when the
// observation has no usable geometry.
func (o TextObservation) Center() Point {
	if !o.HasQuad() {
		return Point{}
	}
	minX, minY, maxX, maxY := o.quadBounds()
	return Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
}

// Line is a row of observations merged into one logical text unit.
// Members are sorted by horizontal center ascending; Text joins their
// texts left to right with single spaces.
type Line struct {
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"` // mean of member confidences
	Members    []TextObservation `json:"items"`
}

// CharEdit records one character substitution applied by the corrector.
type CharEdit struct {
	Position int  `json:"position"`
	From     rune `json:"from"`
	To       rune `json:"to"`
}

// CorrectionCandidate is one ranked correction produced for an input text.
type CorrectionCandidate struct {
	Text         string     `json:"text"`
	Confidence   float64    `json:"confidence"`
	Edits        []CharEdit `json:"edits,omitempty"`
	PatternMatch bool       `json:"patternMatch"`
}

// BatchCorrection is the per-record output of ConfusionCorrector.BatchCorrect.
type BatchCorrection struct {
	Text         string     `json:"text"`
	Confidence   float64    `json:"confidence"`
	OriginalText string     `json:"originalText"`
	PatternMatch bool       `json:"patternMatch"`
	Edits        []CharEdit `json:"edits,omitempty"`
	Alternatives []string   `json:"alternatives,omitempty"`
}

// RegionFilterConfig holds the geometric thresholds of the region filter.
type RegionFilterConfig struct {
	MinAreaRatio      float64
	MaxAreaRatio      float64
	MinAspectRatio    float64
	MaxAspectRatio    float64
	CenterRegionOnly  bool
	CenterRegionRatio float64
}

// FilterConfig configures the per-image filter pipeline. It is an
// immutable value: callers build a snapshot and pass it into every call,
// so concurrent recognitions never share mutable settings.
type FilterConfig struct {
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
	Region              RegionFilterConfig
}

// DefaultFilterConfig returns the pipeline defaults.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinConfidence:       0.6,
		MinLength:           1,
		MaxLength:           30,
		EnableCharFilter:    true,
		EnableCorrection:    true,
		EnableDeduplication: true,
		SimilarityThreshold: 0.9,
		MinResults:          0,
		EnableRegionFilter:  false,
		Region: RegionFilterConfig{
			MinAreaRatio:      0.0001,
			MaxAreaRatio:      0.1,
			MinAspectRatio:    0.2,
			MaxAspectRatio:    10,
			CenterRegionOnly:  false,
			CenterRegionRatio: 0.6,
		},
	}
}

// Fusion method names accepted by Fuse.
const (
	MethodVoting   = "voting"
	MethodWeighted = "weighted"
	MethodSmart    = "smart"
	MethodMerge    = "merge"
)

// FusionConfig configures multi-source fusion. Like FilterConfig it is a
// per-call immutable snapshot.
type FusionConfig struct {
	Method               string
	MinImages            int
	MaxImages            int
	ReturnAlternatives   bool
	AlternativeThreshold float64
}

// DefaultFusionConfig returns the fusion defaults.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{
		Method:               MethodVoting,
		MinImages:            2,
		MaxImages:            10,
		ReturnAlternatives:   true,
		AlternativeThreshold: 0.85,
	}
}

// DefaultYThreshold is the row-clustering tolerance for line grouping,
// in the same pixel units as the bounding quads.
const DefaultYThreshold = 50.0

// ImageResult is the outcome of recognizing one image: the filtered,
// ranked candidates plus the row-grouped line view.
type ImageResult struct {
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	ImageRef     string            `json:"imageRef,omitempty"`
	EngineUsed   string            `json:"engineUsed,omitempty"`
	Observations []TextObservation `json:"results"`
	Lines        []Line            `json:"lines,omitempty"`
}

// Alternative is a runner-up candidate reported alongside a fused winner.
type Alternative struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score,omitempty"`
	Confidence float64 `json:"confidence"`
}

// FusedLine is one positionally fused line across images.
type FusedLine struct {
	Text            string  `json:"text"`
	Confidence      float64 `json:"confidence"`
	OccurrenceCount int     `json:"occurrenceCount"`
}

// FusedResult is the final multi-image output. Failure is a structured
// result, never a panic: callers must check Success.
type FusedResult struct {
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	MergedText   string        `json:"mergedText"`
	Confidence   float64       `json:"confidence"`
	SourceCount  int           `json:"sourceCount"`
	FusionMethod string        `json:"fusionMethod"`
	Lines        []FusedLine   `json:"lines,omitempty"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}
