package models

import "time"

// Student account roles.
const (
	UserTypeStudent      = "student"
	UserTypeCollegeAdmin = "college_admin"
	UserTypeSuperAdmin   = "super_admin"
)

// Student represents an account that can submit essays.
type Student struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"size:255;uniqueIndex;not null" json:"username"`
	UserType    string         `gorm:"size:32;not null" json:"user_type"`
	CollegeName string         `gorm:"size:255" json:"college_name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Profile     StudentProfile `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"profile"`
}

// StudentProfile holds the personal details a student fills in. Branch, roll number and email are optional.
type StudentProfile struct {
	UserID     uint   `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FullName   string `gorm:"size:255;not null" json:"full_name"`
	Department string `gorm:"size:255;not null" json:"department"`
	Branch     string `gorm:"size:255" json:"branch"`
	RollNumber string `gorm:"size:64" json:"roll_number"`
	Email      string `gorm:"size:255" json:"email"`
}

// IsComplete reports whether the required profile fields are filled in.
func (p StudentProfile) IsComplete() bool {
	return p.FullName != "" && p.Department != ""
}
