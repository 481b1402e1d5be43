package dto

import (
	"time"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// AssignmentCreateRequest is the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"omitempty,max=10000"`
	CourseID    uint    `json:"course_id" validate:"required,gt=0"`
	DueDate     *string `json:"due_date" validate:"omitempty"`
	Points      *uint   `json:"points" validate:"omitempty,gt=0"`
}

// AssignmentUpdateRequest is the partial-update payload for an assignment.
type AssignmentUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	DueDate     *string `json:"due_date" validate:"omitempty"`
	Points      *uint   `json:"points" validate:"omitempty,gt=0"`
	IsActive    *bool   `json:"is_active"`
}

// AssignmentResponse serializes an assignment with its live submission count.
type AssignmentResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	CourseID        uint       `json:"course_id"`
	CourseTitle     string     `json:"course_title"`
	DueDate         *time.Time `json:"due_date"`
	Points          uint       `json:"points"`
	IsActive        bool       `json:"is_active"`
	SubmissionCount int64      `json:"submission_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AssignmentListResponse wraps a page of assignments with the unpaged total.
type AssignmentListResponse struct {
	Items []AssignmentResponse `json:"items"`
	Total int64                `json:"total"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment, submissionCount int64) AssignmentResponse {
	return AssignmentResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		CourseID:        model.CourseID,
		CourseTitle:     model.Course.Title,
		DueDate:         model.DueDate,
		Points:          model.Points,
		IsActive:        model.IsActive,
		SubmissionCount: submissionCount,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
