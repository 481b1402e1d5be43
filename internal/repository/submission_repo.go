package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// SubmissionFilter narrows submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	Status       *string
	Sort         string
}

// SubmissionRepository defines persistence operations for submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Exists(ctx context.Context, assignmentID, studentID uint) (bool, error)
	ListForTeacher(ctx context.Context, teacherID uint, filter SubmissionFilter) ([]models.Submission, error)
	ListForStudent(ctx context.Context, studentID uint, filter SubmissionFilter) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates a GORM-backed submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Assignment.Course").
		Preload("Student")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Exists(ctx context.Context, assignmentID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// ListForTeacher scopes submissions to assignments under courses the teacher owns.
func (r *submissionRepository) ListForTeacher(ctx context.Context, teacherID uint, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx).
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.teacher_id = ?", teacherID)

	return r.list(query, filter)
}

// ListForStudent scopes submissions to the student's own work.
func (r *submissionRepository) ListForStudent(ctx context.Context, studentID uint, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx).Where("submissions.student_id = ?", studentID)
	return r.list(query, filter)
}

func (r *submissionRepository) list(query *gorm.DB, filter SubmissionFilter) ([]models.Submission, error) {
	if filter.AssignmentID != nil {
		query = query.Where("submissions.assignment_id = ?", *filter.AssignmentID)
	}

	if filter.Status != nil {
		query = query.Where("submissions.status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order(normalizeSubmissionSort(filter.Sort)).Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func normalizeSubmissionSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "submitted_at", "submitted_at:asc":
		return "submissions.submitted_at ASC"
	case "reviewed_at", "reviewed_at:asc":
		return "submissions.reviewed_at ASC"
	case "-reviewed_at", "reviewed_at:desc":
		return "submissions.reviewed_at DESC"
	default:
		return "submissions.submitted_at DESC"
	}
}
