package domain

import (
	"fmt"
	"strings"
)

// Point is one corner of a detected text region.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is the quadrilateral bounding a recognised line.
// Corners are in the order the recognition backend produced them.
type Quad [4]Point

// Line is one recognised text line with its confidence score.
type Line struct {
	// Text is the recognised text, trimmed. Never empty.
	Text string `json:"text"`

	// Confidence is the recognition confidence in [0,1].
	// Defaults to 0 when the backend omitted a score for this line.
	Confidence float64 `json:"confidence"`

	// Quad is the bounding polygon, when the backend provided one.
	Quad *Quad `json:"quad,omitempty"`
}

// ExtractionRecord is the normalised OCR output for one image.
//
// Lines preserves recognition order (top-to-bottom as produced by the
// backend, never re-sorted). A record always has at least one line; an
// empty or all-rejected recognition result yields an error instead of
// an empty record.
type ExtractionRecord struct {
	// ImageName is the source image's file name. Used as the key when
	// the record is exported standalone.
	ImageName string `json:"image_name"`

	// Lines are the recognised lines in recognition order.
	Lines []Line `json:"lines"`

	// FullText is the space-joined concatenation of all line texts.
	FullText string `json:"full_text"`

	// Formatted is the newline-joined "text (confidence: pp%)" form.
	Formatted string `json:"formatted"`
}

// NewExtractionRecord builds a record from already-validated lines,
// computing the derived FullText and Formatted fields.
func NewExtractionRecord(imageName string, lines []Line) *ExtractionRecord {
	texts := make([]string, len(lines))
	detailed := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
		detailed[i] = fmt.Sprintf("%s (confidence: %.2f%%)", line.Text, line.Confidence*100)
	}

	return &ExtractionRecord{
		ImageName: imageName,
		Lines:     lines,
		FullText:  strings.Join(texts, " "),
		Formatted: strings.Join(detailed, "\n"),
	}
}

// DisplayBlock composes the human-readable chat block for the record.
// This is what an extraction Turn shows in the transcript.
func (r *ExtractionRecord) DisplayBlock() string {
	var sb strings.Builder
	sb.WriteString("OCR Results from ")
	sb.WriteString(r.ImageName)
	sb.WriteString(":\n\n")
	sb.WriteString("Extracted Text:\n")
	sb.WriteString(r.FullText)
	sb.WriteString("\n\n")
	sb.WriteString("Detailed Results:\n")
	sb.WriteString(r.Formatted)
	return sb.String()
}

// RawRecognition is the opaque per-image response from the recognition
// backend before normalisation. Any of the slices may be missing,
// shorter than Texts, or carry malformed entries; that is a valid and
// expected input, not a protocol violation.
type RawRecognition struct {
	// Texts are the recognised strings in detection order.
	Texts []string `json:"rec_texts"`

	// Scores are per-line confidences, indexed like Texts.
	Scores []float64 `json:"rec_scores"`

	// Polys are per-line bounding quadrilaterals as corner pairs,
	// indexed like Texts.
	Polys [][][2]float64 `json:"rec_polys"`
}
