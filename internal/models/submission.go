package models

import "time"

const (
	// SubmissionStatusPending indicates the submission awaits teacher review.
	SubmissionStatusPending = "pending"
	// SubmissionStatusReviewed indicates the teacher has reviewed the submission.
	SubmissionStatusReviewed = "reviewed"
)

// Submission is a student's answer to an assignment. At most one submission exists per
// (assignment, student) pair; the unique index backs concurrent duplicate submits.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"uniqueIndex:idx_assignment_student;not null" json:"assignment_id"`
	StudentID    uint       `gorm:"uniqueIndex:idx_assignment_student;index;not null" json:"student_id"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	SubmittedAt  time.Time  `gorm:"index" json:"submitted_at"`
	Status       string     `gorm:"size:10;index;not null;default:pending" json:"status"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	Assignment   Assignment `gorm:"foreignKey:AssignmentID" json:"-"`
	Student      User       `gorm:"foreignKey:StudentID" json:"-"`
}

// IsReviewed reports whether the submission has been reviewed.
func (s Submission) IsReviewed() bool {
	return s.Status == SubmissionStatusReviewed
}

// IsLate reports whether the work arrived after the assignment deadline. Always false
// when the assignment has no due date.
func (s Submission) IsLate() bool {
	if s.Assignment.DueDate == nil {
		return false
	}
	return s.SubmittedAt.After(*s.Assignment.DueDate)
}
