package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectGrammarMatchReturnsBoostedOriginal(t *testing.T) {
	c := NewConfusionCorrector()

	candidates := c.Correct("AT12345", 0.8)

	require.Len(t, candidates, 1)
	assert.Equal(t, "AT12345", candidates[0].Text)
	assert.True(t, candidates[0].PatternMatch)
	assert.InDelta(t, 0.96, candidates[0].Confidence, 1e-9)
	assert.Empty(t, candidates[0].Edits)
}

func TestCorrectDoubleSubstitutionRecoversSerial(t *testing.T) {
	c := NewConfusionCorrector()

	candidates := c.Correct("AT9O2O2", 0.8)

	require.NotEmpty(t, candidates)
	best := candidates[0]
	assert.Equal(t, "AT90202", best.Text)
	assert.True(t, best.PatternMatch)
	assert.InDelta(t, 0.8*1.5, best.Confidence, 1e-9)
	require.Len(t, best.Edits, 2)
	assert.Equal(t, 3, best.Edits[0].Position)
	assert.Equal(t, 'O', best.Edits[0].From)
	assert.Equal(t, '0', best.Edits[0].To)
	assert.Equal(t, 5, best.Edits[1].Position)
}

func TestCorrectRetainsAtMostFiveCandidates(t *testing.T) {
	c := NewConfusionCorrector()

	// Every character has confusions, so the search space is large.
	candidates := c.Correct("680586", 0.7)

	assert.LessOrEqual(t, len(candidates), 5)
}

func TestCorrectNoGrammarMatchKeepsOriginalFirst(t *testing.T) {
	c := NewConfusionCorrector()

	candidates := c.Correct("ZZZZ", 0.7)

	require.NotEmpty(t, candidates)
	// No substitution reaches a grammar, so the unedited input keeps the
	// highest confidence.
	assert.Equal(t, "ZZZZ", candidates[0].Text)
	assert.False(t, candidates[0].PatternMatch)
	assert.InDelta(t, 0.7, candidates[0].Confidence, 1e-9)
}

func TestCorrectSortsPatternMatchesFirst(t *testing.T) {
	c := NewConfusionCorrector()

	candidates := c.Correct("AT6O2O2", 0.8)

	seenNonMatch := false
	for _, cand := range candidates {
		if !cand.PatternMatch {
			seenNonMatch = true
		} else {
			assert.False(t, seenNonMatch, "pattern match after non-match")
		}
	}
}

func TestCorrectEmptyText(t *testing.T) {
	c := NewConfusionCorrector()
	assert.Nil(t, c.Correct("", 0.9))
}

func TestBatchCorrectReportsPerRecordMetadata(t *testing.T) {
	c := NewConfusionCorrector()

	corrections := c.BatchCorrect([]TextObservation{
		{Text: "AT9O2O2", Confidence: 0.8},
		{Text: "AT12345", Confidence: 0.9},
	})

	require.Len(t, corrections, 2)

	first := corrections[0]
	assert.Equal(t, "AT90202", first.Text)
	assert.Equal(t, "AT9O2O2", first.OriginalText)
	assert.True(t, first.PatternMatch)
	assert.LessOrEqual(t, len(first.Alternatives), 2)

	second := corrections[1]
	assert.Equal(t, "AT12345", second.Text)
	assert.Equal(t, "AT12345", second.OriginalText)
	assert.True(t, second.PatternMatch)
	assert.Empty(t, second.Alternatives)
}

func TestMatchesGrammarShapes(t *testing.T) {
	tests := []struct {
		text  string
		match bool
	}{
		{"AT12345", true},  // two letters, five digits
		{"ABC1234", true},  // three letters, four digits
		{"1234A5", true},   // four digits, letter, digit
		{"1234AB5", true},  // four digits, two letters, digit
		{"AT6O2O2", false}, // letters where digits belong
		{"MICHELIN", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.match, matchesGrammar(tt.text), "text %q", tt.text)
	}
}
