/**
 * Result Filter Pipeline
 *
 * Transforms the raw observations of one image into a ranked, deduplicated
 * candidate list. Stages run in a fixed order; each consumes the previous
 * stage's output, so the order must not change.
 */

package recognizer

import (
	"log"
	"regexp"
	"sort"
	"strings"
)

var atSerialPattern = regexp.MustCompile(`^AT[0-9]{3,}$`)

// FilterAndRank runs the per-image filter pipeline:
// region filter, confidence filter, length filter, character allow-list,
// correction, deduplication, backfill to a minimum count, final ranking.
// The input slice is never mutated.
func FilterAndRank(observations []TextObservation, cfg FilterConfig) []TextObservation {
	if len(observations) == 0 {
		return nil
	}

	original := observations
	results := observations

	if cfg.EnableRegionFilter {
		results = filterByRegion(results, cfg.Region)
	}

	results = filterByConfidence(results, cfg.MinConfidence)
	results = filterByLength(results, cfg.MinLength, cfg.MaxLength)

	if cfg.EnableCharFilter {
		results = filterByChars(results, cfg.AllowedChars)
	}
	if cfg.EnableCorrection {
		results = correctObservations(results)
	}
	if cfg.EnableDeduplication {
		results = deduplicate(results, cfg.SimilarityThreshold)
	}
	if cfg.MinResults > 0 && len(results) < cfg.MinResults {
		results = backfill(results, original, cfg)
	}

	return rank(results)
}

// filterByConfidence drops observations below the confidence floor.
func filterByConfidence(observations []TextObservation, minConfidence float64) []TextObservation {
	filtered := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		if obs.Confidence >= minConfidence {
			filtered = append(filtered, obs)
		}
	}
	log.Printf("confidence filter: %d -> %d", len(observations), len(filtered))
	return filtered
}

// filterByLength drops observations whose trimmed text length falls
// outside [minLength, maxLength].
func filterByLength(observations []TextObservation, minLength, maxLength int) []TextObservation {
	filtered := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		length := len(strings.TrimSpace(obs.Text))
		if length >= minLength && length <= maxLength {
			filtered = append(filtered, obs)
		}
	}
	log.Printf("length filter: %d -> %d", len(observations), len(filtered))
	return filtered
}

// filterByChars strips characters outside the allow-list and drops
// observations whose text becomes empty. An empty allow-list disables
// the stage.
func filterByChars(observations []TextObservation, allowedChars string) []TextObservation {
	if allowedChars == "" {
		return observations
	}

	filtered := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		stripped := stripDisallowed(obs.Text, allowedChars)
		if stripped == "" {
			continue
		}
		if stripped != obs.Text {
			next := obs
			next.Text = stripped
			filtered = append(filtered, next)
			continue
		}
		filtered = append(filtered, obs)
	}
	log.Printf("character filter: %d -> %d", len(observations), len(filtered))
	return filtered
}

func stripDisallowed(text, allowedChars string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(allowedChars, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// deduplicate keeps the first of every group of near-identical texts.
// Two texts are duplicates when their normalized edit-distance
// similarity reaches the threshold.
func deduplicate(observations []TextObservation, threshold float64) []TextObservation {
	if len(observations) == 0 {
		return observations
	}

	unique := make([]TextObservation, 0, len(observations))
	seen := make([]string, 0, len(observations))

	for _, obs := range observations {
		duplicate := false
		for _, kept := range seen {
			if textSimilarity(obs.Text, kept) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, obs)
			seen = append(seen, obs.Text)
		}
	}

	log.Printf("deduplication: %d -> %d", len(observations), len(unique))
	return unique
}

// backfill supplements a short result list from the pre-filter pool,
// highest confidence first, skipping near-duplicates and short texts.
// When anything was added the list is cut to exactly cfg.MinResults.
func backfill(results []TextObservation, original []TextObservation, cfg FilterConfig) []TextObservation {
	existing := make([]string, 0, len(results)+cfg.MinResults)
	for _, obs := range results {
		existing = append(existing, obs.Text)
	}

	pool := make([]TextObservation, len(original))
	copy(pool, original)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Confidence > pool[j].Confidence
	})

	supplemented := make([]TextObservation, 0, cfg.MinResults)
	for _, obs := range pool {
		if len(results)+len(supplemented) >= cfg.MinResults {
			break
		}

		duplicate := false
		for _, kept := range existing {
			if textSimilarity(obs.Text, kept) >= cfg.SimilarityThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		text := obs.Text
		if cfg.AllowedChars != "" {
			text = stripDisallowed(text, cfg.AllowedChars)
		}
		if len(text) < 4 {
			continue
		}

		next := obs
		next.Text = text
		supplemented = append(supplemented, next)
		existing = append(existing, text)
	}

	if len(supplemented) == 0 {
		return results
	}

	results = append(results, supplemented...)
	if len(results) > cfg.MinResults {
		results = results[:cfg.MinResults]
	}
	log.Printf("backfill: supplemented %d candidates to reach %d", len(supplemented), len(results))
	return results
}

// rank orders candidates by confidence plus domain bonuses. The score is
// used for ordering only and is not retained on the output.
func rank(observations []TextObservation) []TextObservation {
	if len(observations) == 0 {
		return observations
	}

	ranked := make([]TextObservation, len(observations))
	copy(ranked, observations)

	scores := make(map[int]float64, len(ranked))
	for i, obs := range ranked {
		scores[i] = obs.Confidence + rankBonus(obs.Text)
	}

	order := make([]int, len(ranked))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := make([]TextObservation, len(ranked))
	for i, idx := range order {
		out[i] = ranked[idx]
	}
	return out
}

func rankBonus(text string) float64 {
	bonus := 0.0
	if atSerialPattern.MatchString(text) {
		bonus += 2.0
	} else if strings.HasPrefix(text, "AT") {
		bonus += 1.5
	}
	if l := len(text); l >= 6 && l <= 8 {
		bonus += 0.5
	}
	if isAllDigits(text) {
		bonus += 0.5
	}
	return bonus
}
