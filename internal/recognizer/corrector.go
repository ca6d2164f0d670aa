/**
 * Confusion Corrector - substitution-search correction of misread codes
 *
 * Explores the space of plausible character substitutions around an OCR
 * reading and ranks the candidates against the known wheel-code grammars.
 * Heavier than the in-pipeline correction stage, intended for final
 * candidates rather than raw observations.
 */

package recognizer

import (
	"regexp"
	"sort"
)

// confusionMap lists, per character, the characters an engraved-metal OCR
// engine commonly reads instead. The map is asymmetric on purpose.
var confusionMap = map[rune][]rune{
	'0': {'O', 'Q', 'D'},
	'O': {'0', 'Q', 'D'},
	'1': {'I', 'l', '|', 'i'},
	'I': {'1', 'l', '|'},
	'2': {'Z', '3'},
	'3': {'8', '2'},
	'4': {'A', '6'},
	'5': {'S', '6'},
	'6': {'G', '8', '5', '4', '9'},
	'7': {'T', '1', '6'},
	'8': {'B', '3', '6'},
	'9': {'g', 'q', '6'},
	'B': {'8', 'R'},
	'G': {'6', 'C'},
	'S': {'5', '8'},
	'Z': {'2', '7'},
	'T': {'7', '1'},
	'A': {'4'},
}

// codeGrammars are the shapes valid wheel codes take. A candidate matching
// any grammar is strongly preferred.
var codeGrammars = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}\d{5}$`),
	regexp.MustCompile(`^[A-Z]{3}\d{4}$`),
	regexp.MustCompile(`^\d{4}[A-Z]\d$`),
	regexp.MustCompile(`^\d{4}[A-Z]{2}\d$`),
}

const (
	maxCorrectionCandidates = 5
	maxBatchAlternatives    = 2
)

// ConfusionCorrector generates and ranks substitution candidates for a
// recognized text. It is stateless and safe for concurrent use.
type ConfusionCorrector struct{}

// NewConfusionCorrector returns a ready corrector.
func NewConfusionCorrector() *ConfusionCorrector {
	return &ConfusionCorrector{}
}

// Correct returns up to five ranked correction candidates for text with
// the given base confidence. When the input already matches a grammar it
// is returned alone with a boosted confidence.
func (c *ConfusionCorrector) Correct(text string, confidence float64) []CorrectionCandidate {
	if text == "" {
		return nil
	}

	if matchesGrammar(text) {
		return []CorrectionCandidate{{
			Text:         text,
			Confidence:   confidence * 1.2,
			PatternMatch: true,
		}}
	}

	candidates := []CorrectionCandidate{{
		Text:         text,
		Confidence:   confidence,
		PatternMatch: false,
	}}
	seen := map[string]bool{text: true}

	runes := []rune(text)

	// Single substitutions.
	for i, r := range runes {
		for _, alt := range confusionMap[r] {
			variant := substituted(runes, i, alt)
			if seen[variant] {
				continue
			}
			seen[variant] = true
			candidates = append(candidates, scoreCandidate(variant, confidence,
				[]CharEdit{{Position: i, From: r, To: alt}}))
		}
	}

	// Double substitutions, only worthwhile for longer texts.
	if len(runes) >= 5 {
		for i := 0; i < len(runes); i++ {
			for _, altI := range confusionMap[runes[i]] {
				for j := i + 1; j < len(runes); j++ {
					for _, altJ := range confusionMap[runes[j]] {
						pair := make([]rune, len(runes))
						copy(pair, runes)
						pair[i] = altI
						pair[j] = altJ
						variant := string(pair)
						if seen[variant] {
							continue
						}
						seen[variant] = true
						candidates = append(candidates, scoreCandidate(variant, confidence, []CharEdit{
							{Position: i, From: runes[i], To: altI},
							{Position: j, From: runes[j], To: altJ},
						}))
					}
				}
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].PatternMatch != candidates[b].PatternMatch {
			return candidates[a].PatternMatch
		}
		return candidates[a].Confidence > candidates[b].Confidence
	})

	if len(candidates) > maxCorrectionCandidates {
		candidates = candidates[:maxCorrectionCandidates]
	}
	return candidates
}

// BatchCorrect corrects each observation independently and reports the
// best candidate per record, with up to two runner-up texts.
func (c *ConfusionCorrector) BatchCorrect(observations []TextObservation) []BatchCorrection {
	corrections := make([]BatchCorrection, 0, len(observations))
	for _, obs := range observations {
		candidates := c.Correct(obs.Text, obs.Confidence)
		if len(candidates) == 0 {
			corrections = append(corrections, BatchCorrection{
				Text:         obs.Text,
				Confidence:   obs.Confidence,
				OriginalText: obs.Text,
			})
			continue
		}

		best := candidates[0]
		record := BatchCorrection{
			Text:         best.Text,
			Confidence:   best.Confidence,
			OriginalText: obs.Text,
			PatternMatch: best.PatternMatch,
			Edits:        best.Edits,
		}
		for _, alt := range candidates[1:] {
			if len(record.Alternatives) >= maxBatchAlternatives {
				break
			}
			record.Alternatives = append(record.Alternatives, alt.Text)
		}
		corrections = append(corrections, record)
	}
	return corrections
}

func scoreCandidate(text string, baseConfidence float64, edits []CharEdit) CorrectionCandidate {
	candidate := CorrectionCandidate{
		Text:       text,
		Confidence: baseConfidence,
		Edits:      edits,
	}
	if matchesGrammar(text) {
		candidate.PatternMatch = true
		candidate.Confidence *= 1.5
		return candidate
	}
	for range edits {
		candidate.Confidence *= 0.9
	}
	return candidate
}

func matchesGrammar(text string) bool {
	for _, grammar := range codeGrammars {
		if grammar.MatchString(text) {
			return true
		}
	}
	return false
}

func substituted(runes []rune, i int, r rune) string {
	out := make([]rune, len(runes))
	copy(out, runes)
	out[i] = r
	return string(out)
}
