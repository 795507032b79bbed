package models

import (
	"time"

	"gorm.io/datatypes"
)

// Essay is a student's submitted essay together with the AI feedback it received.
// Rows are written once and never updated.
type Essay struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	StudentID       uint           `gorm:"not null;index:idx_essays_student_submitted,priority:1" json:"student_id"`
	Title           string         `gorm:"type:text;not null" json:"title"`
	ContentMarkdown string         `gorm:"type:text;not null" json:"content_markdown"`
	SubmissionTime  time.Time      `gorm:"not null;index:idx_essays_student_submitted,priority:2,sort:desc" json:"submission_time"`
	Feedback        datatypes.JSON `json:"feedback"`
	OverallRating   *float64       `json:"overall_rating"`
}

// IsRated reports whether a numeric overall rating was stored.
func (e Essay) IsRated() bool {
	return e.OverallRating != nil
}

// CollegeEssayReport is one essay joined with its author's account and profile for college reporting.
// Profile columns are nil when the student never filled in a profile.
type CollegeEssayReport struct {
	EssayID           uint
	EssayTitle        string
	SubmissionTime    time.Time
	OverallRating     *float64
	Feedback          datatypes.JSON
	ContentMarkdown   string
	StudentID         uint
	StudentUsername   string
	CollegeName       string
	StudentFullName   *string
	StudentDepartment *string
	StudentBranch     *string
	StudentRollNumber *string
}
