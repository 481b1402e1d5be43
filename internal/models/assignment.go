package models

import "time"

// Assignment is a graded piece of work scoped to a course. Only the owning course's
// teacher may create, update, or delete it.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:200;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	CourseID    uint         `gorm:"index;not null" json:"course_id"`
	DueDate     *time.Time   `gorm:"index" json:"due_date"`
	Points      uint         `gorm:"not null;default:100" json:"points"`
	IsActive    bool         `gorm:"index;not null;default:true" json:"is_active"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Course      Course       `gorm:"foreignKey:CourseID" json:"-"`
	Submissions []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPastDue reports whether the deadline has already passed at the reference time.
// Assignments without a due date never become past due.
func (a Assignment) IsPastDue(reference time.Time) bool {
	if a.DueDate == nil {
		return false
	}
	return reference.After(*a.DueDate)
}
