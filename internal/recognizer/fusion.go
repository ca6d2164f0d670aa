/**
 * Multi-Source Fusion - combine per-image candidate sets into one answer
 *
 * Wheel hubs are photographed from several angles; each angle yields an
 * independent candidate list. Fusion pools the lists, scores candidates
 * under the configured strategy and reports one merged answer plus the
 * positionally fused line view.
 */

package recognizer

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// fusionCandidate is an intermediate scored text group.
type fusionCandidate struct {
	text          string
	score         float64
	count         int
	avgConfidence float64
}

// pooled is one flattened observation tagged with its source image.
type pooled struct {
	text        string
	confidence  float64
	sourceImage int
}

// Fuse combines N per-image results into a single answer using the
// configured strategy. Failures are reported as a structured result with
// Success=false; Fuse never panics on malformed input.
func Fuse(results []ImageResult, cfg FusionConfig) FusedResult {
	switch cfg.Method {
	case MethodVoting, MethodWeighted, MethodSmart, MethodMerge:
	default:
		return failedFusion(cfg.Method, fmt.Sprintf("unsupported fusion method %q", cfg.Method))
	}

	if len(results) == 0 {
		return failedFusion(cfg.Method, "no image results to fuse")
	}

	if cfg.MaxImages > 0 && len(results) > cfg.MaxImages {
		log.Printf("fusion: %d images exceed limit %d, using the first %d",
			len(results), cfg.MaxImages, cfg.MaxImages)
		results = results[:cfg.MaxImages]
	}
	if len(results) < cfg.MinImages {
		log.Printf("fusion: only %d images provided, below the recommended minimum %d",
			len(results), cfg.MinImages)
	}

	pool := flatten(results)
	if len(pool) == 0 {
		return failedFusion(cfg.Method, "no successful image results to fuse")
	}

	var fused FusedResult
	switch cfg.Method {
	case MethodVoting:
		fused = fuseByVoting(pool, cfg)
	case MethodWeighted:
		fused = fuseByWeight(pool, cfg)
	case MethodSmart:
		fused = fuseBySmart(pool, cfg)
	case MethodMerge:
		fused = fuseByMerge(pool)
	}

	fused.Success = true
	fused.FusionMethod = cfg.Method
	fused.SourceCount = len(results)
	fused.Lines = fuseLines(results)
	if !cfg.ReturnAlternatives {
		fused.Alternatives = nil
	}
	return fused
}

func failedFusion(method, reason string) FusedResult {
	log.Printf("fusion failed: %s", reason)
	return FusedResult{Success: false, Error: reason, FusionMethod: method}
}

// flatten concatenates every candidate of every successful image into one
// pool, preserving image order.
func flatten(results []ImageResult) []pooled {
	var pool []pooled
	for i, r := range results {
		if !r.Success {
			continue
		}
		for _, obs := range r.Observations {
			if obs.Text == "" {
				continue
			}
			pool = append(pool, pooled{
				text:        obs.Text,
				confidence:  obs.Confidence,
				sourceImage: i,
			})
		}
	}
	return pool
}

// groupByText groups the pool by exact text, preserving first-seen order.
func groupByText(pool []pooled) []fusionCandidate {
	index := make(map[string]int)
	var groups []fusionCandidate
	totals := make(map[string]float64)

	for _, entry := range pool {
		i, ok := index[entry.text]
		if !ok {
			i = len(groups)
			index[entry.text] = i
			groups = append(groups, fusionCandidate{text: entry.text})
		}
		groups[i].count++
		totals[entry.text] += entry.confidence
	}

	for i := range groups {
		groups[i].avgConfidence = totals[groups[i].text] / float64(groups[i].count)
	}
	return groups
}

// fuseByVoting scores each text group by frequency, average confidence
// and a length weight that favors plausible code lengths.
func fuseByVoting(pool []pooled, cfg FusionConfig) FusedResult {
	groups := groupByText(pool)
	total := float64(len(pool))

	for i := range groups {
		frequency := float64(groups[i].count) / total
		lengthWeight := float64(len(groups[i].text)) / 3
		if lengthWeight > 1.5 {
			lengthWeight = 1.5
		}
		groups[i].score = frequency * groups[i].avgConfidence * lengthWeight
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].score > groups[b].score
	})

	winner := groups[0]
	return FusedResult{
		MergedText:   winner.text,
		Confidence:   winner.avgConfidence,
		Alternatives: scoreAlternatives(groups[1:], winner.score, cfg.AlternativeThreshold),
	}
}

// fuseByWeight ranks text groups by total confidence weight and reports
// the winning group's average confidence.
func fuseByWeight(pool []pooled, cfg FusionConfig) FusedResult {
	groups := groupByText(pool)
	for i := range groups {
		groups[i].score = groups[i].avgConfidence * float64(groups[i].count)
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].score > groups[b].score
	})

	winner := groups[0]
	return FusedResult{
		MergedText:   winner.text,
		Confidence:   winner.avgConfidence,
		Alternatives: scoreAlternatives(groups[1:], winner.score, cfg.AlternativeThreshold),
	}
}

// fuseBySmart takes the single most confident pool entry and reports
// distinct runner-up texts above the confidence threshold.
func fuseBySmart(pool []pooled, cfg FusionConfig) FusedResult {
	sorted := make([]pooled, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].confidence > sorted[b].confidence
	})

	winner := sorted[0]

	var alternatives []Alternative
	seen := map[string]bool{winner.text: true}
	for _, entry := range sorted[1:] {
		if seen[entry.text] {
			continue
		}
		if entry.confidence < winner.confidence*cfg.AlternativeThreshold {
			continue
		}
		seen[entry.text] = true
		alternatives = append(alternatives, Alternative{
			Text:       entry.text,
			Confidence: entry.confidence,
		})
	}

	return FusedResult{
		MergedText:   winner.text,
		Confidence:   winner.confidence,
		Alternatives: alternatives,
	}
}

// fuseByMerge joins every distinct text at its maximum confidence,
// ordered by descending confidence. Merge reports no alternatives since
// every text already appears in the merged output.
func fuseByMerge(pool []pooled) FusedResult {
	best := make(map[string]float64)
	order := make([]string, 0, len(pool))
	for _, entry := range pool {
		if current, ok := best[entry.text]; !ok {
			best[entry.text] = entry.confidence
			order = append(order, entry.text)
		} else if entry.confidence > current {
			best[entry.text] = entry.confidence
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return best[order[a]] > best[order[b]]
	})

	total := 0.0
	for _, text := range order {
		total += best[text]
	}

	return FusedResult{
		MergedText: strings.Join(order, " "),
		Confidence: total / float64(len(order)),
	}
}

func scoreAlternatives(groups []fusionCandidate, winnerScore, threshold float64) []Alternative {
	var alternatives []Alternative
	for _, g := range groups {
		if g.score < winnerScore*threshold {
			continue
		}
		alternatives = append(alternatives, Alternative{
			Text:       g.text,
			Score:      g.score,
			Confidence: g.avgConfidence,
		})
	}
	return alternatives
}

// lineGroup accumulates similar line texts collected at one row position.
// The representative upgrades to the highest-confidence member seen.
type lineGroup struct {
	representative string
	confidence     float64
	count          int
	totalConf      float64
}

// fuseLines aligns per-image line lists by row index and picks, per row,
// the text variant agreed on by the most images. Row-index alignment is
// naive on purpose; the photographed hub rows appear in the same order
// from every angle.
func fuseLines(results []ImageResult) []FusedLine {
	maxLines := 0
	for _, r := range results {
		if !r.Success {
			continue
		}
		if len(r.Lines) > maxLines {
			maxLines = len(r.Lines)
		}
	}
	if maxLines == 0 {
		return nil
	}

	var fused []FusedLine
	for position := 0; position < maxLines; position++ {
		var collected []Line
		for _, r := range results {
			if !r.Success || position >= len(r.Lines) {
				continue
			}
			collected = append(collected, r.Lines[position])
		}
		if len(collected) == 0 {
			continue
		}

		var groups []*lineGroup
		for _, line := range collected {
			var target *lineGroup
			for _, g := range groups {
				if similarLineText(line.Text, g.representative) {
					target = g
					break
				}
			}
			if target == nil {
				groups = append(groups, &lineGroup{
					representative: line.Text,
					confidence:     line.Confidence,
					count:          1,
					totalConf:      line.Confidence,
				})
				continue
			}
			target.count++
			target.totalConf += line.Confidence
			if line.Confidence > target.confidence {
				target.representative = line.Text
				target.confidence = line.Confidence
			}
		}

		winner := groups[0]
		for _, g := range groups[1:] {
			if g.count > winner.count {
				winner = g
				continue
			}
			if g.count == winner.count && g.totalConf/float64(g.count) > winner.totalConf/float64(winner.count) {
				winner = g
			}
		}

		if winner.representative == "" {
			continue
		}
		fused = append(fused, FusedLine{
			Text:            winner.representative,
			Confidence:      winner.totalConf / float64(winner.count),
			OccurrenceCount: winner.count,
		})
	}

	return fused
}

// similarLineText reports whether two line texts describe the same row:
// identical, identical modulo spacing and case, or close in both length
// and edit distance.
func similarLineText(a, b string) bool {
	if a == b {
		return true
	}
	na := strings.ToUpper(strings.ReplaceAll(a, " ", ""))
	nb := strings.ToUpper(strings.ReplaceAll(b, " ", ""))
	if na == nb {
		return true
	}

	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return true
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > 0.3*float64(longer) {
		return false
	}
	return textSimilarity(a, b) >= 0.8
}
