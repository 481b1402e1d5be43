package dto

import (
	"time"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// SubmissionCreateRequest is the payload for submitting an assignment. The file, when
// present, travels as a multipart part alongside these fields.
type SubmissionCreateRequest struct {
	Content string `json:"content" form:"content" validate:"required,min=1"`
}

// SubmissionReviewRequest is the payload for reviewing a submission.
type SubmissionReviewRequest struct {
	Feedback string `json:"feedback" validate:"required,min=1,max=10000"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint       `json:"id"`
	Title    string     `json:"title"`
	CourseID uint       `json:"course_id"`
	DueDate  *time.Time `json:"due_date"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SubmissionResponse serializes a submission with its derived lateness flag.
type SubmissionResponse struct {
	ID          uint           `json:"id"`
	Content     string         `json:"content"`
	FileURL     string         `json:"file_url"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Status      string         `json:"status"`
	Feedback    string         `json:"feedback"`
	ReviewedAt  *time.Time     `json:"reviewed_at"`
	IsLate      bool           `json:"is_late"`
	Assignment  AssignmentLite `json:"assignment"`
	Student     StudentLite    `json:"student"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:          model.ID,
		Content:     model.Content,
		FileURL:     model.FileURL,
		SubmittedAt: model.SubmittedAt,
		Status:      model.Status,
		Feedback:    model.Feedback,
		ReviewedAt:  model.ReviewedAt,
		IsLate:      model.IsLate(),
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			CourseID: model.Assignment.CourseID,
			DueDate:  model.Assignment.DueDate,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:       model.Student.ID,
			Username: model.Student.Username,
			Email:    model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
