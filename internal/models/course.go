package models

import "time"

// Course groups assignments under an owning teacher. Enrollments and assignments are
// cascade-deleted with the course.
type Course struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Title        string       `gorm:"size:200;not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	TeacherID    uint         `gorm:"index;not null" json:"teacher_id"`
	Slug         string       `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	IsActive     bool         `gorm:"index;not null;default:true" json:"is_active"`
	ThumbnailURL string       `gorm:"size:512" json:"thumbnail_url"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Teacher      User         `gorm:"foreignKey:TeacherID" json:"-"`
	Enrollments  []Enrollment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Assignments  []Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsOwnedBy reports whether the given user created the course.
func (c Course) IsOwnedBy(userID uint) bool {
	return c.TeacherID == userID
}

// Enrollment joins a student to a course. Unique per (course, student) pair; the
// database index is the source of truth for duplicate enrollment races.
type Enrollment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"uniqueIndex:idx_course_student;not null" json:"course_id"`
	StudentID  uint      `gorm:"uniqueIndex:idx_course_student;index;not null" json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	Course     Course    `gorm:"foreignKey:CourseID" json:"-"`
	Student    User      `gorm:"foreignKey:StudentID" json:"-"`
}
