package ai

import (
	"fmt"
	"strings"
)

// ScoreScaleMax is the upper bound of every criterion score and of the overall rating.
const ScoreScaleMax = 100

// Rubric criterion keys as they appear in the feedback payload.
const (
	CriterionGrammar           = "grammar"
	CriterionRelevancy         = "relevancy_and_cohesion"
	CriterionClarity           = "clarity_and_content_development_with_respect_to_title"
	CriterionSentenceFormation = "sentence_formation"
	CriterionFormatting        = "formatting"
)

// Criterion is one weighted rubric category.
type Criterion struct {
	Key         string
	Label       string
	Weight      int
	Description string
}

var rubric = []Criterion{
	{
		Key:         CriterionGrammar,
		Label:       "Grammar",
		Weight:      20,
		Description: "spelling, punctuation, sentence structure and the mechanics of writing",
	},
	{
		Key:         CriterionRelevancy,
		Label:       "Relevancy and Cohesion with Title",
		Weight:      25,
		Description: "how well the content stays on the topic of the title and flows logically",
	},
	{
		Key:         CriterionClarity,
		Label:       "Clarity and Content Development with respect to Title",
		Weight:      25,
		Description: "depth of ideas, supporting evidence, originality and clarity in relation to the title",
	},
	{
		Key:         CriterionSentenceFormation,
		Label:       "Sentence Formation",
		Weight:      20,
		Description: "variety and complexity of sentence structures and conciseness",
	},
	{
		Key:         CriterionFormatting,
		Label:       "Formatting",
		Weight:      10,
		Description: "appropriate Markdown usage (headings, lists, blockquotes), readability and presentation",
	},
}

// Rubric returns a copy of the grading criteria in prompt order.
func Rubric() []Criterion {
	out := make([]Criterion, len(rubric))
	copy(out, rubric)
	return out
}

func rubricIndex(key string) int {
	for i, criterion := range rubric {
		if criterion.Key == key {
			return i
		}
	}
	return -1
}

// BuildRubricPrompt renders the grading prompt for an essay. The output depends only on its inputs.
func BuildRubricPrompt(title, content string) string {
	builder := strings.Builder{}
	builder.WriteString("You are an experienced writing examiner who evaluates student essays.\n")
	builder.WriteString("Assess the essay below. The content is written in Markdown.\n\n")
	builder.WriteString("# Title\n")
	builder.WriteString(title)
	builder.WriteString("\n\n# Essay\n---\n")
	builder.WriteString(content)
	builder.WriteString("\n---\n\n")

	fmt.Fprintf(&builder, "## Criteria\nScore each criterion from 0 to %d (0 = very poor, %d = excellent) and justify the score briefly.\n\n", ScoreScaleMax, ScoreScaleMax)
	for i, criterion := range rubric {
		fmt.Fprintf(&builder, "%d. %s (%d%%): %s.\n", i+1, criterion.Label, criterion.Weight, criterion.Description)
	}

	builder.WriteString("\n## Summary\n")
	builder.WriteString("- word_count: the number of words in the essay.\n")
	builder.WriteString("- overall_feedback: 4 to 6 sentences on the main strengths and the areas to improve.\n")
	fmt.Fprintf(&builder, "- overall_rating: a single number from 0 to %d computed by applying the weights above.\n\n", ScoreScaleMax)

	builder.WriteString("## Output\nRespond with only the following JSON object, no other text, with every string properly escaped:\n\n")
	builder.WriteString("{\n  \"criteria_scores\": {\n")
	for i, criterion := range rubric {
		separator := ","
		if i == len(rubric)-1 {
			separator = ""
		}
		fmt.Fprintf(&builder, "    %q: {\"score\": <int_0_to_%d>, \"justification\": \"<string>\"}%s\n", criterion.Key, ScoreScaleMax, separator)
	}
	builder.WriteString("  },\n")
	builder.WriteString("  \"word_count\": <int>,\n")
	builder.WriteString("  \"overall_feedback\": \"<string>\",\n")
	fmt.Fprintf(&builder, "  \"overall_rating\": <int_0_to_%d>\n}\n", ScoreScaleMax)

	return builder.String()
}
