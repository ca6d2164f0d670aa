package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupLinesClustersByVerticalCenter(t *testing.T) {
	observations := []TextObservation{
		quadObs("60202", 0.8, 200, 100, 300, 140), // row 1, right fragment
		quadObs("AT", 0.9, 100, 110, 150, 150),    // row 1, left fragment
		quadObs("MICHELIN", 0.7, 100, 400, 400, 440),
	}

	lines := GroupLines(observations, 50)

	require.Len(t, lines, 2)
	assert.Equal(t, "AT 60202", lines[0].Text)
	assert.InDelta(t, 0.85, lines[0].Confidence, 1e-9)
	require.Len(t, lines[0].Members, 2)
	assert.Equal(t, "AT", lines[0].Members[0].Text)
	assert.Equal(t, "60202", lines[0].Members[1].Text)

	assert.Equal(t, "MICHELIN", lines[1].Text)
	assert.InDelta(t, 0.7, lines[1].Confidence, 1e-9)
}

func TestGroupLinesAnchorIsFirstMember(t *testing.T) {
	// Each fragment is within threshold of its neighbor, but the third is
	// beyond the first row's anchor, so it starts a new row.
	observations := []TextObservation{
		quadObs("A", 0.9, 0, 0, 10, 20),    // center y 10
		quadObs("B", 0.9, 20, 40, 30, 60),  // center y 50, joins row anchored at 10
		quadObs("C", 0.9, 40, 60, 50, 100), // center y 80, 70 beyond the anchor
	}

	lines := GroupLines(observations, 50)

	require.Len(t, lines, 2)
	assert.Equal(t, "A B", lines[0].Text)
	assert.Equal(t, "C", lines[1].Text)
}

func TestGroupLinesRowsOrderedTopToBottom(t *testing.T) {
	observations := []TextObservation{
		quadObs("BOTTOM", 0.9, 0, 800, 100, 840),
		quadObs("TOP", 0.9, 0, 100, 100, 140),
	}

	lines := GroupLines(observations, 50)

	require.Len(t, lines, 2)
	assert.Equal(t, "TOP", lines[0].Text)
	assert.Equal(t, "BOTTOM", lines[1].Text)
}

func TestGroupLinesObservationWithoutQuadSortsToOrigin(t *testing.T) {
	observations := []TextObservation{
		quadObs("AT60202", 0.9, 100, 500, 300, 540),
		{Text: "LOOSE", Confidence: 0.5},
	}

	lines := GroupLines(observations, 50)

	require.Len(t, lines, 2)
	assert.Equal(t, "LOOSE", lines[0].Text)
	assert.Equal(t, "AT60202", lines[1].Text)
}

func TestGroupLinesEmptyInput(t *testing.T) {
	assert.Nil(t, GroupLines(nil, 50))
}

func TestGroupLinesNonPositiveThresholdUsesDefault(t *testing.T) {
	observations := []TextObservation{
		quadObs("AT", 0.9, 0, 0, 10, 20),
		quadObs("60202", 0.9, 20, 30, 60, 50), // center y 40, within default 50
	}

	lines := GroupLines(observations, 0)

	require.Len(t, lines, 1)
	assert.Equal(t, "AT 60202", lines[0].Text)
}
