/**
 * Region Filter - geometric rejection of sticker/label-like detections
 *
 * Hub codes are engraved into the metal surface and occupy a narrow area
 * band relative to the image. Stickers, tire labels and peripheral
 * markings are larger, more regular, or sit near the image edge. The
 * filter classifies each observation from its bounding quad features and
 * rejects label-like regions.
 */

package recognizer

import (
	"log"
	"math"
	"unicode"
)

// regionFeatures are the per-observation geometry measurements the rules
// operate on.
type regionFeatures struct {
	text        string
	areaRatio   float64
	aspectRatio float64
	distRatio   float64
	centerX     float64
	centerY     float64
	imageWidth  float64
	imageHeight float64
}

// regionRule is one rejection heuristic. Rules are evaluated in order so
// each stays independently testable. Hard rules are never overridden by
// the engraved-text exemption band; soft rules are.
type regionRule struct {
	name   string
	hard   bool
	reject func(f regionFeatures, cfg RegionFilterConfig) bool
}

var regionRules = []regionRule{
	{
		name: "area too small",
		hard: true,
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return f.areaRatio < cfg.MinAreaRatio
		},
	},
	{
		name: "area too large",
		hard: true,
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return f.areaRatio > cfg.MaxAreaRatio
		},
	},
	{
		name: "aspect too narrow",
		hard: true,
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return f.aspectRatio < cfg.MinAspectRatio
		},
	},
	{
		name: "aspect too wide",
		hard: true,
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return f.aspectRatio > cfg.MaxAspectRatio
		},
	},
	{
		name: "outside center region",
		hard: true,
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return cfg.CenterRegionOnly && f.distRatio > 1-cfg.CenterRegionRatio
		},
	},
	{
		name: "long numeric label",
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return isAllDigits(f.text) && len(f.text) >= 7 &&
				f.aspectRatio >= 0.8 && f.aspectRatio <= 3.0
		},
	},
	{
		name: "large regular blob",
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			return f.areaRatio > 0.015 && f.aspectRatio >= 0.8 && f.aspectRatio <= 4.0
		},
	},
	{
		name: "peripheral sticker",
		reject: func(f regionFeatures, cfg RegionFilterConfig) bool {
			const edgeThreshold = 0.15
			nearEdge := f.centerX < f.imageWidth*edgeThreshold ||
				f.centerX > f.imageWidth*(1-edgeThreshold) ||
				f.centerY < f.imageHeight*edgeThreshold ||
				f.centerY > f.imageHeight*(1-edgeThreshold)
			return nearEdge && f.areaRatio > 0.005
		},
	},
}

// Area-ratio band characteristic of engraved hub text. Observations in
// this band survive the soft label heuristics, but not the hard bounds.
const (
	engravedAreaRatioMin = 0.0005
	engravedAreaRatioMax = 0.008
)

// filterByRegion drops observations whose geometry looks like a sticker
// or label rather than engraved hub text. Observations without a usable
// bounding quad pass through unfiltered.
func filterByRegion(observations []TextObservation, cfg RegionFilterConfig) []TextObservation {
	if len(observations) == 0 {
		return nil
	}

	// Infer the image extent from the observed quads.
	var imageWidth, imageHeight float64
	for _, obs := range observations {
		if !obs.HasQuad() {
			continue
		}
		_, _, maxX, maxY := obs.quadBounds()
		if maxX > imageWidth {
			imageWidth = maxX
		}
		if maxY > imageHeight {
			imageHeight = maxY
		}
	}

	if imageWidth == 0 || imageHeight == 0 {
		log.Printf("region filter: unable to infer image extent, passing %d observations through", len(observations))
		return observations
	}

	imageArea := imageWidth * imageHeight
	centerX := imageWidth / 2
	centerY := imageHeight / 2
	maxDist := math.Hypot(centerX, centerY)

	filtered := make([]TextObservation, 0, len(observations))
	for _, obs := range observations {
		if !obs.HasQuad() {
			filtered = append(filtered, obs)
			continue
		}

		minX, minY, maxX, maxY := obs.quadBounds()
		width := maxX - minX
		height := maxY - minY

		f := regionFeatures{
			text:        obs.Text,
			areaRatio:   width * height / imageArea,
			centerX:     (minX + maxX) / 2,
			centerY:     (minY + maxY) / 2,
			imageWidth:  imageWidth,
			imageHeight: imageHeight,
		}
		if height > 0 {
			f.aspectRatio = width / height
		}
		if maxDist > 0 {
			f.distRatio = math.Hypot(f.centerX-centerX, f.centerY-centerY) / maxDist
		} else {
			f.distRatio = 1
		}

		exempt := f.areaRatio >= engravedAreaRatioMin && f.areaRatio <= engravedAreaRatioMax

		rejected := false
		for _, rule := range regionRules {
			if !rule.reject(f, cfg) {
				continue
			}
			if !rule.hard && exempt {
				continue
			}
			log.Printf("region filter: rejecting %q (%s, area=%.4f, aspect=%.2f)",
				obs.Text, rule.name, f.areaRatio, f.aspectRatio)
			rejected = true
			break
		}

		if !rejected {
			filtered = append(filtered, obs)
		}
	}

	log.Printf("region filter: %d -> %d", len(observations), len(filtered))
	return filtered
}

func isAllDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
