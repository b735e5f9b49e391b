package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float32
	}{
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "  \n\t ", want: 0},
		{name: "plain text", text: "hello world", want: 0.2},
		{name: "date token", text: "born 01-02-1990", want: 0.4},
		{name: "label token", text: "NAME JANE DOE", want: 0.35},
		{name: "label is case insensitive", text: "name jane doe", want: 0.35},
		{name: "date and label", text: "DOB 01/02/1990", want: 0.55},
		{
			name: "long document with everything",
			text: "ID CARD\nNAME JANE DOE\nNO AB123456\nDOB 01-02-1990\n" + strings.Repeat("line of extracted text\n", 5),
			want: 0.65,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HeuristicConfidence(tt.text), 0.001)
		})
	}
}

func TestHeuristicConfidenceNeverExceedsOne(t *testing.T) {
	text := "NAME X DOB 01-01-2000 " + strings.Repeat("x", 200)
	got := HeuristicConfidence(text)
	assert.LessOrEqual(t, got, float32(1.0))
	assert.Greater(t, got, float32(0))
}

func TestHeuristicConfidenceCountsLabelOnce(t *testing.T) {
	one := HeuristicConfidence("NAME")
	many := HeuristicConfidence("NAME DOB ISS EXP")
	assert.InDelta(t, one, many, 0.001, "multiple labels add no more than one")
}
