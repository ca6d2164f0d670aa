package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(text string, confidence float64) TextObservation {
	return TextObservation{Text: text, Confidence: confidence}
}

func TestFilterAndRankDropsLowConfidence(t *testing.T) {
	cfg := DefaultFilterConfig()
	results := FilterAndRank([]TextObservation{
		obs("AT60202", 0.9),
		obs("AT60203", 0.3),
	}, cfg)

	require.Len(t, results, 1)
	assert.Equal(t, "AT60202", results[0].Text)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Confidence, cfg.MinConfidence)
	}
}

func TestFilterAndRankLengthBounds(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MinLength = 5
	cfg.MaxLength = 8

	results := FilterAndRank([]TextObservation{
		obs("AT60202", 0.9),
		obs("AB", 0.9),
		obs("  AT60202202022  ", 0.9),
	}, cfg)

	require.Len(t, results, 1)
	assert.Equal(t, "AT60202", results[0].Text)
}

func TestFilterAndRankCharFilterStripsAndDrops(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.AllowedChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	cfg.EnableCorrection = false

	results := FilterAndRank([]TextObservation{
		obs("AT-60202", 0.9),
		obs("***", 0.9),
	}, cfg)

	require.Len(t, results, 1)
	assert.Equal(t, "AT60202", results[0].Text)
}

func TestFilterAndRankCorrectionFlagsObservation(t *testing.T) {
	cfg := DefaultFilterConfig()

	results := FilterAndRank([]TextObservation{
		obs("AT6O2O2", 0.9),
	}, cfg)

	require.Len(t, results, 1)
	assert.Equal(t, "AT60202", results[0].Text)
	assert.True(t, results[0].Corrected)
	assert.Equal(t, "AT6O2O2", results[0].OriginalText)
}

func TestFilterAndRankDeduplicationKeepsFirst(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.EnableCorrection = false

	results := FilterAndRank([]TextObservation{
		obs("AT60202", 0.9),
		obs("AT60203", 0.85), // one edit away, similarity 6/7 < 0.9 threshold, kept
		obs("AT60202", 0.7),  // exact duplicate, dropped
	}, cfg)

	require.Len(t, results, 2)
	texts := []string{results[0].Text, results[1].Text}
	assert.Contains(t, texts, "AT60202")
	assert.Contains(t, texts, "AT60203")
}

func TestFilterAndRankIdempotentWithoutBackfill(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MinResults = 0

	input := []TextObservation{
		obs("AT60202", 0.9),
		obs("9177", 0.8),
		obs("MICHELIN", 0.7),
	}

	once := FilterAndRank(input, cfg)
	twice := FilterAndRank(once, cfg)
	assert.Equal(t, once, twice)
}

func TestFilterAndRankBackfillTruncatesToMinResults(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.MinConfidence = 0.8
	cfg.MinLength = 5
	cfg.MinResults = 2
	cfg.EnableCorrection = false

	results := FilterAndRank([]TextObservation{
		obs("AT60202", 0.9), // survives the filters
		obs("B123456", 0.7), // backfill candidate
		obs("XYZ", 0.75),    // too short for backfill
	}, cfg)

	require.Len(t, results, 2)
	assert.Equal(t, "AT60202", results[0].Text)
	assert.Equal(t, "B123456", results[1].Text)
}

func TestFilterAndRankRankingPrefersSerialShape(t *testing.T) {
	cfg := DefaultFilterConfig()
	cfg.EnableCorrection = false

	results := FilterAndRank([]TextObservation{
		obs("MICHELIN", 0.95),
		obs("AT60202", 0.65),
	}, cfg)

	require.Len(t, results, 2)
	// 0.65 + 2.0 (serial shape) + 0.5 (length) outranks 0.95 alone.
	assert.Equal(t, "AT60202", results[0].Text)
	assert.Equal(t, "MICHELIN", results[1].Text)
}

func TestFilterAndRankEmptyInput(t *testing.T) {
	assert.Empty(t, FilterAndRank(nil, DefaultFilterConfig()))
}

func TestRankBonusValues(t *testing.T) {
	tests := []struct {
		text  string
		bonus float64
	}{
		{"AT60202", 2.5},  // serial shape + length 6-8
		{"ATX123", 2.0},   // AT prefix only + length 6-8
		{"9177", 0.5},     // all digits, length outside 6-8
		{"91770021", 1.0}, // all digits + length 6-8
		{"MICHELIN", 0.5}, // length 6-8 only
		{"XY", 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.bonus, rankBonus(tt.text), 1e-9, "text %q", tt.text)
	}
}

func TestTextSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, textSimilarity("", ""))
	assert.Equal(t, 1.0, textSimilarity("AT60202", "AT60202"))
	assert.InDelta(t, 6.0/7.0, textSimilarity("AT60202", "AT60203"), 1e-9)
	assert.Equal(t, 0.0, textSimilarity("ABC", "XYZ"))
}

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("abc", "abc"))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 1, levenshteinDistance("AT60202", "AT60203"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}
