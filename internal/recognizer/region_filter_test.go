package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadObs(text string, confidence, minX, minY, maxX, maxY float64) TextObservation {
	return TextObservation{
		Text:       text,
		Confidence: confidence,
		BoundingQuad: []Point{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
		},
	}
}

// anchorObs pins the inferred image extent to 1000x1000 without itself
// being label-like: tiny area, off the soft heuristics.
func anchorObs() TextObservation {
	return quadObs("AT", 0.9, 990, 990, 1000, 1000)
}

func regionTestConfig() RegionFilterConfig {
	return DefaultFilterConfig().Region
}

func TestFilterByRegionEngravedBandSurvivesLabelHeuristic(t *testing.T) {
	// 30x20 box in a 1000x1000 image: areaRatio 0.0006, inside the
	// engraved band. All digits, length 8, aspect 1.5 would trip the
	// long-numeric-label rule without the exemption.
	engraved := quadObs("12345678", 0.9, 485, 490, 515, 510)

	filtered := filterByRegion([]TextObservation{anchorObs(), engraved}, regionTestConfig())

	texts := make([]string, 0, len(filtered))
	for _, f := range filtered {
		texts = append(texts, f.Text)
	}
	assert.Contains(t, texts, "12345678")
}

func TestFilterByRegionRejectsLongNumericLabel(t *testing.T) {
	// 100x100 centered box: areaRatio 0.01, above the engraved band.
	label := quadObs("1234567", 0.9, 450, 450, 550, 550)

	filtered := filterByRegion([]TextObservation{anchorObs(), label}, regionTestConfig())

	for _, f := range filtered {
		assert.NotEqual(t, "1234567", f.Text)
	}
}

func TestFilterByRegionRejectsPeripheralSticker(t *testing.T) {
	// 100x100 box at the top-left corner: center within 15% of the edge,
	// areaRatio 0.01 > 0.005.
	sticker := quadObs("GOODYEAR", 0.9, 0, 0, 100, 100)

	filtered := filterByRegion([]TextObservation{anchorObs(), sticker}, regionTestConfig())

	for _, f := range filtered {
		assert.NotEqual(t, "GOODYEAR", f.Text)
	}
}

func TestFilterByRegionRejectsLargeRegularBlob(t *testing.T) {
	// 200x100 centered box: areaRatio 0.02 > 0.015, aspect 2.0.
	blob := quadObs("CONTINENTAL", 0.9, 400, 450, 600, 550)

	filtered := filterByRegion([]TextObservation{anchorObs(), blob}, regionTestConfig())

	for _, f := range filtered {
		assert.NotEqual(t, "CONTINENTAL", f.Text)
	}
}

func TestFilterByRegionHardBoundsIgnoreExemption(t *testing.T) {
	cfg := regionTestConfig()
	cfg.MaxAreaRatio = 0.0004 // below the engraved band floor

	engraved := quadObs("12345678", 0.9, 485, 490, 515, 510) // areaRatio 0.0006

	filtered := filterByRegion([]TextObservation{anchorObs(), engraved}, cfg)

	for _, f := range filtered {
		assert.NotEqual(t, "12345678", f.Text)
	}
}

func TestFilterByRegionPassesObservationsWithoutQuads(t *testing.T) {
	noQuad := TextObservation{Text: "AT60202", Confidence: 0.9}

	filtered := filterByRegion([]TextObservation{anchorObs(), noQuad}, regionTestConfig())

	texts := make([]string, 0, len(filtered))
	for _, f := range filtered {
		texts = append(texts, f.Text)
	}
	assert.Contains(t, texts, "AT60202")
}

func TestFilterByRegionNoExtentPassesEverythingThrough(t *testing.T) {
	input := []TextObservation{
		{Text: "AT60202", Confidence: 0.9},
		{Text: "1234567", Confidence: 0.8},
	}

	filtered := filterByRegion(input, regionTestConfig())

	require.Len(t, filtered, 2)
	assert.Equal(t, input, filtered)
}

func TestFilterByRegionCenterRegionOnly(t *testing.T) {
	cfg := regionTestConfig()
	cfg.CenterRegionOnly = true
	cfg.CenterRegionRatio = 0.6

	centered := quadObs("AT60202", 0.9, 485, 490, 515, 510)
	// Small box near the corner: distRatio close to 1.
	peripheral := quadObs("AT60999", 0.9, 950, 950, 970, 964)

	filtered := filterByRegion([]TextObservation{anchorObs(), centered, peripheral}, cfg)

	texts := make([]string, 0, len(filtered))
	for _, f := range filtered {
		texts = append(texts, f.Text)
	}
	assert.Contains(t, texts, "AT60202")
	assert.NotContains(t, texts, "AT60999")
}
