package dto

import (
	"time"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// CourseCreateRequest is the payload for creating a course.
type CourseCreateRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"omitempty,max=10000"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseUpdateRequest is the partial-update payload for a course. The slug never
// changes after creation.
type CourseUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=10000"`
	IsActive     *bool   `json:"is_active"`
	ThumbnailURL *string `json:"thumbnail_url" validate:"omitempty,url,max=512"`
}

// CourseResponse serializes a course with its live enrollment count.
type CourseResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TeacherID       uint      `json:"teacher_id"`
	Slug            string    `json:"slug"`
	IsActive        bool      `json:"is_active"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	EnrollmentCount int64     `json:"enrollment_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CourseListResponse wraps a page of courses with the unpaged total.
type CourseListResponse struct {
	Items []CourseResponse `json:"items"`
	Total int64            `json:"total"`
}

// EnrollmentResponse serializes an enrollment record.
type EnrollmentResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	StudentID   uint      `json:"student_id"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	IsActive    bool      `json:"is_active"`
}

// NewCourseResponse converts a Course model into a DTO.
func NewCourseResponse(model models.Course, enrollmentCount int64) CourseResponse {
	return CourseResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		TeacherID:       model.TeacherID,
		Slug:            model.Slug,
		IsActive:        model.IsActive,
		ThumbnailURL:    model.ThumbnailURL,
		EnrollmentCount: enrollmentCount,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewEnrollmentResponse converts an Enrollment model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		CourseTitle: model.Course.Title,
		StudentID:   model.StudentID,
		EnrolledAt:  model.EnrolledAt,
		IsActive:    model.IsActive,
	}
}

// NewEnrollmentResponseSlice converts enrollment models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}

	return responses
}
