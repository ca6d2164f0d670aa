/**
 * Line Grouping - reconstruct text rows from scattered observations
 *
 * OCR engines report engraved characters as independent fragments. The
 * grouper clusters fragments whose vertical centers fall within a pixel
 * tolerance of the row anchor and joins each row left to right.
 */

package recognizer

import "sort"

// GroupLines clusters observations into horizontal rows. A fragment joins
// an existing row when its vertical center lies within yThreshold pixels
// of the row's first member. Rows are ordered top to bottom, members left
// to right. A non-positive yThreshold falls back to the default.
func GroupLines(observations []TextObservation, yThreshold float64) []Line {
	if len(observations) == 0 {
		return nil
	}
	if yThreshold <= 0 {
		yThreshold = DefaultYThreshold
	}

	sorted := make([]TextObservation, len(observations))
	copy(sorted, observations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Center().Y < sorted[j].Center().Y
	})

	type row struct {
		anchorY float64
		members []TextObservation
	}

	var rows []*row
	for _, obs := range sorted {
		y := obs.Center().Y

		var target *row
		for _, r := range rows {
			if y-r.anchorY <= yThreshold && r.anchorY-y <= yThreshold {
				target = r
				break
			}
		}
		if target == nil {
			rows = append(rows, &row{anchorY: y, members: []TextObservation{obs}})
			continue
		}
		target.members = append(target.members, obs)
	}

	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		sort.SliceStable(r.members, func(i, j int) bool {
			return r.members[i].Center().X < r.members[j].Center().X
		})

		text := ""
		total := 0.0
		for i, m := range r.members {
			if i > 0 {
				text += " "
			}
			text += m.Text
			total += m.Confidence
		}

		lines = append(lines, Line{
			Text:       text,
			Confidence: total / float64(len(r.members)),
			Members:    r.members,
		})
	}

	return lines
}
