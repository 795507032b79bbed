package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/truskill-essay-api/internal/models"
)

func TestNewEssayResponseRating(t *testing.T) {
	stored := 70.0
	rated := models.Essay{ID: 1, OverallRating: &stored, Feedback: datatypes.JSON(`{"overall_rating":64}`)}
	require.True(t, rated.IsRated())
	require.Equal(t, 70.0, *NewEssayResponse(rated).OverallRating)

	fallback := models.Essay{ID: 2, Feedback: datatypes.JSON(`{"overall_rating":64}`)}
	require.False(t, fallback.IsRated())
	require.Equal(t, 64.0, *NewEssayResponse(fallback).OverallRating)

	failed := models.Essay{ID: 3, Feedback: datatypes.JSON(`{"error":"AI API error: timeout"}`)}
	require.Nil(t, NewEssayResponse(failed).OverallRating)
}

func TestNewCollegeReportResponse(t *testing.T) {
	name := "Asha Rao"
	rows := []models.CollegeEssayReport{
		{EssayID: 2, EssayTitle: "Latest", SubmissionTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), ContentMarkdown: "two words", StudentUsername: "ravi", Feedback: datatypes.JSON(`not json`)},
		{EssayID: 1, EssayTitle: "First", ContentMarkdown: "one", StudentUsername: "asha", StudentFullName: &name, Feedback: datatypes.JSON(`{"overall_rating":81}`)},
	}

	report := NewCollegeReportResponse("Truskill College", rows)
	require.Equal(t, "Truskill College", report.CollegeName)
	require.Len(t, report.Essays, 2)

	require.Equal(t, uint(2), report.Essays[0].ID)
	require.Equal(t, 2, report.Essays[0].WordCount)
	require.Empty(t, report.Essays[0].StudentFullName)
	require.Equal(t, FeedbackStatusUnreadable, report.Essays[0].FeedbackStatus)

	require.Equal(t, "Asha Rao", report.Essays[1].StudentFullName)
	require.Equal(t, 81.0, *report.Essays[1].OverallRating)
	require.Equal(t, "ok", report.Essays[1].Feedback.Status)
}

func TestNewCollegeReportResponseEmpty(t *testing.T) {
	report := NewCollegeReportResponse("Truskill College", nil)
	require.NotNil(t, report.Essays)
	require.Empty(t, report.Essays)
}
