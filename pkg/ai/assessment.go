package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Status classifies the outcome of one assessment attempt.
type Status string

const (
	StatusOK         Status = "ok"
	StatusParseError Status = "parse_error"
	StatusAPIError   Status = "api_error"
)

// Result is the outcome of one assessment: Graded, ParseFailure or APIFailure.
type Result interface {
	Status() Status
	isResult()
}

// CriterionScore is the model's verdict for one rubric criterion.
type CriterionScore struct {
	Key           string
	Score         float64
	Justification string
}

// Graded is a successfully parsed assessment. Scores are passed through as the model reported them.
type Graded struct {
	Criteria        []CriterionScore
	WordCount       int
	OverallFeedback string
	// OverallRating is nil when the model did not report a numeric rating.
	OverallRating *float64
}

// ParseFailure means the model replied but no usable JSON object could be read.
type ParseFailure struct {
	Message     string
	RawResponse string
}

// APIFailure means the model call itself failed.
type APIFailure struct {
	Message string
}

func (Graded) Status() Status       { return StatusOK }
func (ParseFailure) Status() Status { return StatusParseError }
func (APIFailure) Status() Status   { return StatusAPIError }

func (Graded) isResult()       {}
func (ParseFailure) isResult() {}
func (APIFailure) isResult()   {}

// Criterion returns the score recorded for key.
func (g Graded) Criterion(key string) (CriterionScore, bool) {
	for _, c := range g.Criteria {
		if c.Key == key {
			return c, true
		}
	}
	return CriterionScore{}, false
}

type criterionWire struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

type gradedWire struct {
	CriteriaScores  map[string]criterionWire `json:"criteria_scores"`
	WordCount       int                      `json:"word_count"`
	OverallFeedback string                   `json:"overall_feedback"`
	OverallRating   *float64                 `json:"overall_rating"`
}

type parseFailureWire struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

type apiFailureWire struct {
	Error string `json:"error"`
}

// FeedbackPayload serializes a result into the stored feedback JSON.
func FeedbackPayload(result Result) ([]byte, error) {
	switch r := result.(type) {
	case Graded:
		scores := make(map[string]criterionWire, len(r.Criteria))
		for _, c := range r.Criteria {
			scores[c.Key] = criterionWire{Score: c.Score, Justification: c.Justification}
		}
		return json.Marshal(gradedWire{
			CriteriaScores:  scores,
			WordCount:       r.WordCount,
			OverallFeedback: r.OverallFeedback,
			OverallRating:   r.OverallRating,
		})
	case ParseFailure:
		return json.Marshal(parseFailureWire{Error: r.Message, RawResponse: r.RawResponse})
	case APIFailure:
		return json.Marshal(apiFailureWire{Error: r.Message})
	default:
		return nil, fmt.Errorf("unsupported assessment result %T", result)
	}
}

// OverallRating returns the rating to persist: set only for graded results carrying a numeric rating.
func OverallRating(result Result) *float64 {
	graded, ok := result.(Graded)
	if !ok || graded.OverallRating == nil {
		return nil
	}
	rating := *graded.OverallRating
	return &rating
}

// DecodeFeedback reads a stored feedback payload back into a Result.
func DecodeFeedback(data []byte) (Result, error) {
	if len(data) == 0 {
		return nil, errors.New("feedback payload is empty")
	}

	var object map[string]interface{}
	if err := json.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	if object == nil {
		return nil, errors.New("feedback payload is not an object")
	}

	if message, failed := object["error"]; failed {
		text := fmt.Sprint(message)
		if raw, ok := object["raw_response"]; ok {
			rawText, _ := raw.(string)
			return ParseFailure{Message: text, RawResponse: rawText}, nil
		}
		return APIFailure{Message: text}, nil
	}

	return gradedFromObject(object), nil
}

// ParseAssessment extracts and decodes the JSON object in a model reply.
func ParseAssessment(text string) Result {
	body, ok := ExtractJSON(text)
	if !ok {
		return ParseFailure{Message: "AI feedback format issue: no JSON object found", RawResponse: text}
	}

	var object map[string]interface{}
	if err := json.Unmarshal([]byte(body), &object); err != nil {
		return ParseFailure{Message: fmt.Sprintf("AI feedback parsing error: %v", err), RawResponse: text}
	}

	return gradedFromObject(object)
}

// ExtractJSON locates the JSON object in a reply. A ``` fence (with or without a json tag) is
// unwrapped only when it opens before the object, so fences quoted inside strings are kept.
func ExtractJSON(text string) (string, bool) {
	body := strings.TrimSpace(text)
	if fence := strings.Index(body, "```"); fence >= 0 && fence < strings.Index(body, "{") {
		rest := body[fence+3:]
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		if end := strings.LastIndex(rest, "```"); end > strings.LastIndex(rest, "}") {
			rest = rest[:end]
		}
		body = rest
	}

	open := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if open < 0 || end < open {
		return "", false
	}
	return body[open : end+1], true
}

func gradedFromObject(object map[string]interface{}) Graded {
	graded := Graded{}

	if scores, ok := object["criteria_scores"].(map[string]interface{}); ok {
		keys := make([]string, 0, len(scores))
		for key := range scores {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			return criterionLess(keys[i], keys[j])
		})

		for _, key := range keys {
			entry := CriterionScore{Key: key}
			switch value := scores[key].(type) {
			case map[string]interface{}:
				score, ok := numberOf(value["score"])
				if !ok {
					continue
				}
				entry.Score = score
				entry.Justification, _ = value["justification"].(string)
			case float64:
				entry.Score = value
			default:
				continue
			}
			graded.Criteria = append(graded.Criteria, entry)
		}
	}

	if count, ok := numberOf(object["word_count"]); ok && count > 0 {
		graded.WordCount = int(math.Round(count))
	}
	graded.OverallFeedback, _ = object["overall_feedback"].(string)
	if rating, ok := numberOf(object["overall_rating"]); ok {
		graded.OverallRating = &rating
	}

	return graded
}

// criterionLess orders rubric keys by rubric position and unknown keys alphabetically after them.
func criterionLess(a, b string) bool {
	ia, ib := rubricIndex(a), rubricIndex(b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia < ib
	case ia >= 0:
		return true
	case ib >= 0:
		return false
	default:
		return a < b
	}
}

func numberOf(value interface{}) (float64, bool) {
	number, ok := value.(float64)
	return number, ok
}
