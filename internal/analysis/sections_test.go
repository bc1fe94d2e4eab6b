package analysis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lenslabs/paperlens/internal/analysis"
)

func TestRelevantSections_NoHeadings(t *testing.T) {
	assert.Empty(t, analysis.RelevantSections("plain text without any of the headings"))
}

func TestRelevantSections_JoinsMatches(t *testing.T) {
	text := "Limitations\nWe only tested on small corpora.\n" +
		"Middle filler paragraph.\n" +
		"Future Directions\nScaling to larger models."

	got := analysis.RelevantSections(text)
	assert.Contains(t, got, "small corpora")
	assert.Contains(t, got, "larger models")
}

func TestRelevantSections_WindowIsBounded(t *testing.T) {
	text := "Conclusion\n" + strings.Repeat("x", 5000)

	got := analysis.RelevantSections(text)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), len("Conclusion")+1000)
}
