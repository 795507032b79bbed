package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRubricWeightsSumToHundred(t *testing.T) {
	total := 0
	seen := map[string]bool{}
	for _, criterion := range Rubric() {
		require.False(t, seen[criterion.Key], "duplicate key %s", criterion.Key)
		seen[criterion.Key] = true
		total += criterion.Weight
	}
	require.Len(t, seen, 5)
	require.Equal(t, 100, total)
}

func TestBuildRubricPromptIsDeterministic(t *testing.T) {
	first := BuildRubricPrompt("Climate Change", "Global warming is a serious issue.")
	second := BuildRubricPrompt("Climate Change", "Global warming is a serious issue.")
	require.Equal(t, first, second)
}

func TestBuildRubricPromptEmbedsRubricAndSchema(t *testing.T) {
	prompt := BuildRubricPrompt("Climate Change", "Global warming is a serious issue.")

	require.Contains(t, prompt, "Climate Change")
	require.Contains(t, prompt, "Global warming is a serious issue.")
	require.Contains(t, prompt, "Grammar (20%)")
	require.Contains(t, prompt, "Formatting (10%)")
	require.Contains(t, prompt, "from 0 to 100")
	for _, criterion := range Rubric() {
		require.Contains(t, prompt, `"`+criterion.Key+`": {"score": <int_0_to_100>`)
	}
	for _, field := range []string{`"criteria_scores"`, `"word_count"`, `"overall_feedback"`, `"overall_rating": <int_0_to_100>`} {
		require.Contains(t, prompt, field)
	}
	require.False(t, strings.Contains(prompt, "0 to 10 "), "prompt must use a single score scale")
}
