package detector

import (
	"strings"

	"github.com/panelglot/panelglot/internal/geometry"
)

// mergedRegion is an intermediate paragraph-level region built from one or
// more raw detections.
type mergedRegion struct {
	Box        geometry.Box
	Text       string
	Confidence float64
}

// mergeDetections folds word-level detections into paragraph-level regions.
// Each detection's box is the union of its word boxes (falling back to the
// engine-provided box), and detections whose expanded boxes overlap are
// merged into one region. Merging preserves detection order; a merged
// region's confidence is the minimum of its parts so the downstream filter
// stays conservative.
func mergeDetections(raw []RawDetection, gapPx float64) []mergedRegion {
	if len(raw) == 0 {
		return nil
	}

	regions := make([]mergedRegion, 0, len(raw))
	for _, det := range raw {
		box := det.Box
		for _, wb := range det.WordBoxes {
			box = box.Union(wb)
		}
		regions = append(regions, mergedRegion{
			Box:        box,
			Text:       det.Text,
			Confidence: det.Confidence,
		})
	}

	// Repeatedly merge the first overlapping pair until stable. Detection
	// counts per page are small, so the quadratic scan is fine.
	for {
		merged := false
		for i := 0; i < len(regions) && !merged; i++ {
			for j := i + 1; j < len(regions); j++ {
				if !regions[i].Box.Expand(gapPx).Intersects(regions[j].Box) {
					continue
				}
				regions[i] = combine(regions[i], regions[j])
				regions = append(regions[:j], regions[j+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			return regions
		}
	}
}

func combine(a, b mergedRegion) mergedRegion {
	text := a.Text
	if b.Text != "" {
		if text != "" {
			text = strings.Join([]string{text, b.Text}, "\n")
		} else {
			text = b.Text
		}
	}
	conf := a.Confidence
	if b.Confidence < conf {
		conf = b.Confidence
	}
	return mergedRegion{
		Box:        a.Box.Union(b.Box),
		Text:       text,
		Confidence: conf,
	}
}
