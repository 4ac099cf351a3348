package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

func TestNormaliseRecognition_Success(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"INVOICE", "#42"},
		Scores: []float64{0.99, 0.87},
		Polys: [][][2]float64{
			{{0, 0}, {10, 0}, {10, 5}, {0, 5}},
			{{0, 6}, {10, 6}, {10, 11}, {0, 11}},
		},
	}

	record, err := NormaliseRecognition("invoice.png", raw)

	require.NoError(t, err)
	require.Len(t, record.Lines, 2)
	assert.Equal(t, "INVOICE", record.Lines[0].Text)
	assert.InDelta(t, 0.99, record.Lines[0].Confidence, 0.0001)
	require.NotNil(t, record.Lines[0].Quad)
	assert.Equal(t, domain.Point{X: 10, Y: 5}, record.Lines[0].Quad[2])
	assert.Equal(t, "INVOICE #42", record.FullText)
}

func TestNormaliseRecognition_NilResult(t *testing.T) {
	record, err := NormaliseRecognition("a.png", nil)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestNormaliseRecognition_NoTexts(t *testing.T) {
	record, err := NormaliseRecognition("a.png", &domain.RawRecognition{})

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNoText)
}

func TestNormaliseRecognition_AllLinesEmptyAfterTrim(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"  ", "\t", "\n"},
		Scores: []float64{0.9, 0.9, 0.9},
	}

	record, err := NormaliseRecognition("a.png", raw)

	assert.Nil(t, record)
	assert.ErrorIs(t, err, domain.ErrNoText)
}

func TestNormaliseRecognition_SkipsEmptyLinesKeepsRest(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"first", "   ", "third"},
		Scores: []float64{0.9, 0.8, 0.7},
	}

	record, err := NormaliseRecognition("a.png", raw)

	require.NoError(t, err)
	require.Len(t, record.Lines, 2)
	assert.Equal(t, "first", record.Lines[0].Text)
	assert.Equal(t, "third", record.Lines[1].Text)
	// The surviving third line keeps its own score, not the gap's.
	assert.InDelta(t, 0.7, record.Lines[1].Confidence, 0.0001)
}

func TestNormaliseRecognition_TrimsWhitespace(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"  padded  "},
		Scores: []float64{1},
	}

	record, err := NormaliseRecognition("a.png", raw)

	require.NoError(t, err)
	assert.Equal(t, "padded", record.Lines[0].Text)
}

func TestNormaliseRecognition_ConfidenceDefaults(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{name: "missing score slot", scores: nil, expected: 0},
		{name: "NaN", scores: []float64{math.NaN()}, expected: 0},
		{name: "positive infinity", scores: []float64{math.Inf(1)}, expected: 0},
		{name: "negative infinity", scores: []float64{math.Inf(-1)}, expected: 0},
		{name: "negative", scores: []float64{-0.5}, expected: 0},
		{name: "above one clamped", scores: []float64{1.5}, expected: 1},
		{name: "valid passes through", scores: []float64{0.42}, expected: 0.42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &domain.RawRecognition{
				Texts:  []string{"line"},
				Scores: tt.scores,
			}

			record, err := NormaliseRecognition("a.png", raw)

			require.NoError(t, err)
			assert.InDelta(t, tt.expected, record.Lines[0].Confidence, 0.0001)
		})
	}
}

func TestNormaliseRecognition_MalformedPolygonDropped(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"line"},
		Scores: []float64{0.9},
		Polys:  [][][2]float64{{{0, 0}, {1, 0}}}, // only 2 corners
	}

	record, err := NormaliseRecognition("a.png", raw)

	require.NoError(t, err)
	assert.Nil(t, record.Lines[0].Quad)
	assert.Equal(t, "line", record.Lines[0].Text)
}

func TestNormaliseRecognition_MissingPolySlot(t *testing.T) {
	raw := &domain.RawRecognition{
		Texts:  []string{"one", "two"},
		Scores: []float64{0.9, 0.8},
		Polys: [][][2]float64{
			{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		},
	}

	record, err := NormaliseRecognition("a.png", raw)

	require.NoError(t, err)
	assert.NotNil(t, record.Lines[0].Quad)
	assert.Nil(t, record.Lines[1].Quad)
}
