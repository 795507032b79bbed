package dto

import (
	"time"

	"github.com/noah-isme/truskill-essay-api/internal/models"
	"github.com/noah-isme/truskill-essay-api/pkg/ai"
	"github.com/noah-isme/truskill-essay-api/pkg/richtext"
)

// FeedbackStatusUnreadable marks stored feedback that could not be decoded.
const FeedbackStatusUnreadable = "unreadable"

// EssaySubmitRequest is the JSON body of an essay submission. Blank titles and
// empty editor markup are rejected by the grading service rather than the validator.
type EssaySubmitRequest struct {
	Title   string `json:"title" validate:"max=255"`
	Content string `json:"content" validate:"max=200000"`
}

// CriterionFeedback is one rubric line of decoded feedback.
type CriterionFeedback struct {
	Key           string  `json:"key"`
	Label         string  `json:"label"`
	Weight        int     `json:"weight"`
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// FeedbackView is the client-facing form of stored feedback.
type FeedbackView struct {
	Status          string              `json:"status"`
	Criteria        []CriterionFeedback `json:"criteria,omitempty"`
	WordCount       int                 `json:"word_count,omitempty"`
	OverallFeedback string              `json:"overall_feedback,omitempty"`
	OverallRating   *float64            `json:"overall_rating,omitempty"`
	Error           string              `json:"error,omitempty"`
}

// GradingOutcome is returned from a submission.
type GradingOutcome struct {
	Outcome        string        `json:"outcome"`
	EssayID        uint          `json:"essay_id,omitempty"`
	SubmissionTime *time.Time    `json:"submission_time,omitempty"`
	WordCount      int           `json:"word_count"`
	OverallRating  *float64      `json:"overall_rating"`
	Degraded       bool          `json:"content_degraded,omitempty"`
	Feedback       *FeedbackView `json:"feedback,omitempty"`
	Message        string        `json:"message"`
}

// EssayResponse summarises an essay in history listings.
type EssayResponse struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	SubmissionTime time.Time `json:"submission_time"`
	WordCount      int       `json:"word_count"`
	OverallRating  *float64  `json:"overall_rating"`
	FeedbackStatus string    `json:"feedback_status"`
}

// EssayDetailResponse is a single essay with rendered content and decoded feedback.
type EssayDetailResponse struct {
	EssayResponse
	StudentID       uint         `json:"student_id"`
	ContentMarkdown string       `json:"content_markdown"`
	ContentHTML     string       `json:"content_html"`
	Feedback        FeedbackView `json:"feedback"`
}

// StudentProfileResponse is the read-only view of the caller's profile.
type StudentProfileResponse struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	CollegeName string `json:"college_name"`
	FullName    string `json:"full_name"`
	Department  string `json:"department"`
	Branch      string `json:"branch"`
	RollNumber  string `json:"roll_number"`
	Email       string `json:"email"`
	Complete    bool   `json:"complete"`
}

// CollegeEssayResponse is one row of a college report.
type CollegeEssayResponse struct {
	EssayResponse
	StudentID       uint         `json:"student_id"`
	StudentUsername string       `json:"student_username"`
	StudentFullName string       `json:"student_full_name"`
	Department      string       `json:"department"`
	Branch          string       `json:"branch"`
	RollNumber      string       `json:"roll_number"`
	ContentMarkdown string       `json:"content_markdown"`
	Feedback        FeedbackView `json:"feedback"`
}

// CollegeReportResponse lists a college's essays newest first.
type CollegeReportResponse struct {
	CollegeName string                 `json:"college_name"`
	Essays      []CollegeEssayResponse `json:"essays"`
}

// NewFeedbackView converts an assessment result for clients, labelling criteria from the rubric.
func NewFeedbackView(result ai.Result) FeedbackView {
	switch r := result.(type) {
	case ai.Graded:
		labels := map[string]ai.Criterion{}
		for _, criterion := range ai.Rubric() {
			labels[criterion.Key] = criterion
		}

		criteria := make([]CriterionFeedback, 0, len(r.Criteria))
		for _, score := range r.Criteria {
			item := CriterionFeedback{Key: score.Key, Label: score.Key, Score: score.Score, Justification: score.Justification}
			if criterion, ok := labels[score.Key]; ok {
				item.Label = criterion.Label
				item.Weight = criterion.Weight
			}
			criteria = append(criteria, item)
		}

		return FeedbackView{
			Status:          string(r.Status()),
			Criteria:        criteria,
			WordCount:       r.WordCount,
			OverallFeedback: r.OverallFeedback,
			OverallRating:   r.OverallRating,
		}
	case ai.ParseFailure:
		return FeedbackView{Status: string(r.Status()), Error: r.Message}
	case ai.APIFailure:
		return FeedbackView{Status: string(r.Status()), Error: r.Message}
	default:
		return UnreadableFeedback()
	}
}

// UnreadableFeedback is shown for stored payloads that fail to decode.
func UnreadableFeedback() FeedbackView {
	return FeedbackView{Status: FeedbackStatusUnreadable, Error: "Could not parse feedback."}
}

// DecodeStoredFeedback decodes an essay's feedback column, never failing.
func DecodeStoredFeedback(essay models.Essay) (FeedbackView, ai.Result) {
	result, err := ai.DecodeFeedback(essay.Feedback)
	if err != nil {
		return UnreadableFeedback(), nil
	}
	return NewFeedbackView(result), result
}

// NewEssayResponse maps a stored essay into its history entry.
func NewEssayResponse(essay models.Essay) EssayResponse {
	view, result := DecodeStoredFeedback(essay)
	return EssayResponse{
		ID:             essay.ID,
		Title:          essay.Title,
		SubmissionTime: essay.SubmissionTime,
		WordCount:      richtext.WordCount(essay.ContentMarkdown),
		OverallRating:  ratingWithFallback(essay, result),
		FeedbackStatus: view.Status,
	}
}

// NewEssayResponses maps a slice of essays preserving order.
func NewEssayResponses(essays []models.Essay) []EssayResponse {
	responses := make([]EssayResponse, 0, len(essays))
	for _, essay := range essays {
		responses = append(responses, NewEssayResponse(essay))
	}
	return responses
}

// NewEssayDetailResponse maps an essay with its already rendered HTML.
func NewEssayDetailResponse(essay models.Essay, contentHTML string) EssayDetailResponse {
	view, _ := DecodeStoredFeedback(essay)
	return EssayDetailResponse{
		EssayResponse:   NewEssayResponse(essay),
		StudentID:       essay.StudentID,
		ContentMarkdown: essay.ContentMarkdown,
		ContentHTML:     contentHTML,
		Feedback:        view,
	}
}

// NewStudentProfileResponse maps a student account and profile.
func NewStudentProfileResponse(student models.Student) StudentProfileResponse {
	return StudentProfileResponse{
		UserID:      student.ID,
		Username:    student.Username,
		CollegeName: student.CollegeName,
		FullName:    student.Profile.FullName,
		Department:  student.Profile.Department,
		Branch:      student.Profile.Branch,
		RollNumber:  student.Profile.RollNumber,
		Email:       student.Profile.Email,
		Complete:    student.Profile.IsComplete(),
	}
}

// ratingWithFallback prefers the stored column and falls back to the rating inside graded feedback.
func ratingWithFallback(essay models.Essay, result ai.Result) *float64 {
	if essay.IsRated() {
		return essay.OverallRating
	}
	return ai.OverallRating(result)
}

// NewCollegeReportResponse maps report rows preserving order.
func NewCollegeReportResponse(collegeName string, rows []models.CollegeEssayReport) CollegeReportResponse {
	essays := make([]CollegeEssayResponse, 0, len(rows))
	for _, row := range rows {
		essay := models.Essay{
			ID:              row.EssayID,
			StudentID:       row.StudentID,
			Title:           row.EssayTitle,
			ContentMarkdown: row.ContentMarkdown,
			SubmissionTime:  row.SubmissionTime,
			Feedback:        row.Feedback,
			OverallRating:   row.OverallRating,
		}
		view, _ := DecodeStoredFeedback(essay)
		essays = append(essays, CollegeEssayResponse{
			EssayResponse:   NewEssayResponse(essay),
			StudentID:       row.StudentID,
			StudentUsername: row.StudentUsername,
			StudentFullName: valueOf(row.StudentFullName),
			Department:      valueOf(row.StudentDepartment),
			Branch:          valueOf(row.StudentBranch),
			RollNumber:      valueOf(row.StudentRollNumber),
			ContentMarkdown: row.ContentMarkdown,
			Feedback:        view,
		})
	}
	return CollegeReportResponse{CollegeName: collegeName, Essays: essays}
}

func valueOf(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
