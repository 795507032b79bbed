package ai

import (
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

const gradedReply = `{
  "criteria_scores": {
    "formatting": {"score": 70, "justification": "Plain paragraphs."},
    "grammar": {"score": 85, "justification": "Few errors."},
    "relevancy_and_cohesion": {"score": 80, "justification": "On topic."},
    "clarity_and_content_development_with_respect_to_title": {"score": 75, "justification": "Thin evidence."},
    "sentence_formation": {"score": 78, "justification": "Some variety."}
  },
  "word_count": 6,
  "overall_feedback": "A short but focused essay.",
  "overall_rating": 78
}`

const feedbackSchema = `{
  "oneOf": [
    {
      "type": "object",
      "required": ["criteria_scores", "word_count", "overall_feedback", "overall_rating"],
      "properties": {
        "criteria_scores": {
          "type": "object",
          "additionalProperties": {
            "type": "object",
            "required": ["score", "justification"],
            "properties": {
              "score": {"type": "number"},
              "justification": {"type": "string"}
            }
          }
        },
        "word_count": {"type": "integer", "minimum": 0},
        "overall_feedback": {"type": "string"},
        "overall_rating": {"type": ["number", "null"]}
      },
      "not": {"required": ["error"]}
    },
    {
      "type": "object",
      "required": ["error"],
      "properties": {
        "error": {"type": "string"},
        "raw_response": {"type": "string"}
      },
      "additionalProperties": false
    }
  ]
}`

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`, ok: true},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`, ok: true},
		{name: "chatty fence", in: "Sure! ```json\n{\"a\":{\"b\":2}}\n``` Hope it helps", want: `{"a":{"b":2}}`, ok: true},
		{name: "noise around braces", in: `Result: {"a":1} thanks`, want: `{"a":1}`, ok: true},
		{name: "unterminated fence", in: "```json\n{\"a\":1}", want: `{"a":1}`, ok: true},
		{name: "fence without braces", in: "```json\nno json here\n```", ok: false},
		{name: "no braces", in: "I cannot grade this essay.", ok: false},
		{name: "reversed braces", in: "} oops {", ok: false},
		{
			name: "fence quoted inside fenced reply",
			in:   "```json\n{\"formatting\":{\"justification\":\"Wrap code in ``` fences.\"},\"overall_rating\":78}\n```",
			want: "{\"formatting\":{\"justification\":\"Wrap code in ``` fences.\"},\"overall_rating\":78}",
			ok:   true,
		},
		{
			name: "fence quoted inside bare object",
			in:   "{\"formatting\":{\"justification\":\"Use ``` blocks\"}}",
			want: "{\"formatting\":{\"justification\":\"Use ``` blocks\"}}",
			ok:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSON(tc.in)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestParseAssessmentGraded(t *testing.T) {
	result := ParseAssessment("Sure! ```json\n" + gradedReply + "\n```")
	graded, ok := result.(Graded)
	require.True(t, ok, "expected graded result, got %T", result)
	require.Equal(t, StatusOK, graded.Status())

	require.Len(t, graded.Criteria, 5)
	keys := make([]string, 0, len(graded.Criteria))
	for _, c := range graded.Criteria {
		keys = append(keys, c.Key)
	}
	require.Equal(t, []string{
		CriterionGrammar,
		CriterionRelevancy,
		CriterionClarity,
		CriterionSentenceFormation,
		CriterionFormatting,
	}, keys)

	grammar, ok := graded.Criterion(CriterionGrammar)
	require.True(t, ok)
	require.Equal(t, float64(85), grammar.Score)
	require.Equal(t, "Few errors.", grammar.Justification)
	require.Equal(t, 6, graded.WordCount)
	require.NotNil(t, graded.OverallRating)
	require.Equal(t, float64(78), *graded.OverallRating)
}

func TestParseAssessmentPassesOutOfRangeScores(t *testing.T) {
	result := ParseAssessment(`{"criteria_scores":{"grammar":{"score":140,"justification":"x"}},"overall_rating":-5}`)
	graded, ok := result.(Graded)
	require.True(t, ok)
	require.Equal(t, float64(140), graded.Criteria[0].Score)
	require.Equal(t, float64(-5), *graded.OverallRating)
}

func TestParseAssessmentNonNumericRating(t *testing.T) {
	result := ParseAssessment(`{"overall_feedback":"ok","overall_rating":"78"}`)
	graded, ok := result.(Graded)
	require.True(t, ok)
	require.Nil(t, graded.OverallRating)
	require.Nil(t, OverallRating(result))
}

func TestParseAssessmentKeepsQuotedFences(t *testing.T) {
	replies := []string{
		"```json\n{\"criteria_scores\":{\"formatting\":{\"score\":60,\"justification\":\"Wrap code in ``` fences.\"}},\"overall_rating\":78}\n```",
		"{\"criteria_scores\":{\"formatting\":{\"score\":60,\"justification\":\"Use ``` blocks\"}},\"overall_rating\":78}",
	}

	for _, reply := range replies {
		result := ParseAssessment(reply)
		graded, ok := result.(Graded)
		require.True(t, ok, "expected graded result, got %#v", result)
		formatting, ok := graded.Criterion(CriterionFormatting)
		require.True(t, ok)
		require.Equal(t, float64(60), formatting.Score)
		require.Contains(t, formatting.Justification, "```")
		require.Equal(t, float64(78), *graded.OverallRating)
	}
}

func TestParseAssessmentSkipsNonNumericScores(t *testing.T) {
	result := ParseAssessment(`{"criteria_scores":{"grammar":{"score":"85","justification":"Few errors."},"formatting":{"score":60,"justification":"ok"}}}`)
	graded, ok := result.(Graded)
	require.True(t, ok)
	require.Len(t, graded.Criteria, 1)
	_, found := graded.Criterion(CriterionGrammar)
	require.False(t, found)
	formatting, found := graded.Criterion(CriterionFormatting)
	require.True(t, found)
	require.Equal(t, float64(60), formatting.Score)
}

func TestParseAssessmentFailures(t *testing.T) {
	noBraces := ParseAssessment("```json\nnothing to see\n```")
	failure, ok := noBraces.(ParseFailure)
	require.True(t, ok)
	require.Equal(t, StatusParseError, failure.Status())
	require.Equal(t, "```json\nnothing to see\n```", failure.RawResponse)

	malformed := ParseAssessment(`{"overall_rating": 78,}`)
	failure, ok = malformed.(ParseFailure)
	require.True(t, ok)
	require.Contains(t, failure.Message, "parsing error")
	require.Equal(t, `{"overall_rating": 78,}`, failure.RawResponse)
}

func TestFeedbackPayloadRoundTrip(t *testing.T) {
	original := ParseAssessment(gradedReply)

	payload, err := FeedbackPayload(original)
	require.NoError(t, err)

	decoded, err := DecodeFeedback(payload)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
	require.Equal(t, OverallRating(original), OverallRating(decoded))
}

func TestFeedbackPayloadFailureShapes(t *testing.T) {
	payload, err := FeedbackPayload(APIFailure{Message: "AI API error: timeout"})
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"AI API error: timeout"}`, string(payload))

	decoded, err := DecodeFeedback(payload)
	require.NoError(t, err)
	require.Equal(t, APIFailure{Message: "AI API error: timeout"}, decoded)

	payload, err = FeedbackPayload(ParseFailure{Message: "bad", RawResponse: "raw"})
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"bad","raw_response":"raw"}`, string(payload))

	decoded, err = DecodeFeedback(payload)
	require.NoError(t, err)
	require.Equal(t, ParseFailure{Message: "bad", RawResponse: "raw"}, decoded)
}

func TestDecodeFeedbackRejectsGarbage(t *testing.T) {
	_, err := DecodeFeedback(nil)
	require.Error(t, err)
	_, err = DecodeFeedback([]byte("not json"))
	require.Error(t, err)
	_, err = DecodeFeedback([]byte("null"))
	require.Error(t, err)
}

func TestFeedbackPayloadMatchesContract(t *testing.T) {
	schema, err := jsonschema.CompileString("feedback.schema.json", feedbackSchema)
	require.NoError(t, err)

	results := []Result{
		ParseAssessment(gradedReply),
		ParseAssessment(`{"overall_feedback":"missing rating"}`),
		ParseFailure{Message: "AI feedback format issue", RawResponse: "nope"},
		APIFailure{Message: "AI API error: quota exceeded"},
	}

	for _, result := range results {
		payload, err := FeedbackPayload(result)
		require.NoError(t, err)

		var document interface{}
		require.NoError(t, json.Unmarshal(payload, &document))
		require.NoError(t, schema.Validate(document), "payload %s", payload)
	}
}
