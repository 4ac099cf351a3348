package services

import (
	"math"
	"strings"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// NormaliseRecognition turns a raw recognition response into a
// validated, confidence-annotated extraction record.
//
// It is a pure function over its input. Persistence of the record is
// the caller's responsibility.
//
// Per-line tolerance is an explicit policy, not an incidental
// catch-all: a line with a missing or malformed confidence keeps its
// text with confidence 0; a malformed polygon is dropped from the line;
// a line whose trimmed text is empty is skipped entirely. Only when
// skipping empties the whole set does the result become an error.
//
// Failure modes:
//   - domain.ErrNoResult: the backend returned nothing for the image.
//   - domain.ErrNoText: zero recognised lines, or every line empty
//     after trimming.
func NormaliseRecognition(imageName string, raw *domain.RawRecognition) (*domain.ExtractionRecord, error) {
	if raw == nil {
		return nil, domain.ErrNoResult
	}
	if len(raw.Texts) == 0 {
		return nil, domain.ErrNoText
	}

	lines := make([]domain.Line, 0, len(raw.Texts))
	for i, text := range raw.Texts {
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Debug("skipping empty line at slot %d", i)
			continue
		}

		line := domain.Line{
			Text:       text,
			Confidence: confidenceAt(raw.Scores, i),
			Quad:       quadAt(raw.Polys, i),
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, domain.ErrNoText
	}

	logger.Debug("normalised %d/%d recognised lines for %s", len(lines), len(raw.Texts), imageName)
	return domain.NewExtractionRecord(imageName, lines), nil
}

// confidenceAt returns the score for slot i, defaulting to 0 when the
// slot is missing or the value is unusable. Scores are clamped to [0,1].
func confidenceAt(scores []float64, i int) float64 {
	if i >= len(scores) {
		return 0
	}
	score := scores[i]
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// quadAt returns the bounding polygon for slot i, or nil when absent
// or malformed. A bad polygon never rejects the line.
func quadAt(polys [][][2]float64, i int) *domain.Quad {
	if i >= len(polys) {
		return nil
	}
	poly := polys[i]
	if len(poly) != 4 {
		return nil
	}
	var quad domain.Quad
	for c, corner := range poly {
		quad[c] = domain.Point{X: corner[0], Y: corner[1]}
	}
	return &quad
}
