package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// AssignmentFilter describes search, scoping, and pagination options.
type AssignmentFilter struct {
	CourseID *uint
	IsActive *bool
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	ListForTeacher(ctx context.Context, teacherID uint, filter AssignmentFilter) ([]models.Assignment, int64, error)
	ListForStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, int64, error)
	SubmissionCounts(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed assignment repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Preload("Course").First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

// ListForTeacher scopes assignments to courses owned by the teacher.
func (r *assignmentRepository) ListForTeacher(ctx context.Context, teacherID uint, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Where("courses.teacher_id = ?", teacherID)

	return r.list(query, filter)
}

// ListForStudent scopes assignments to active ones under active courses the student is
// enrolled in.
func (r *assignmentRepository) ListForStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id").
		Where("enrollments.student_id = ?", studentID).
		Where("courses.is_active = ?", true).
		Where("assignments.is_active = ?", true)

	return r.list(query, filter)
}

func (r *assignmentRepository) list(query *gorm.DB, filter AssignmentFilter) ([]models.Assignment, int64, error) {
	if filter.CourseID != nil {
		query = query.Where("assignments.course_id = ?", *filter.CourseID)
	}

	if filter.IsActive != nil {
		query = query.Where("assignments.is_active = ?", *filter.IsActive)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(assignments.title) LIKE ? OR LOWER(assignments.description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeAssignmentSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var assignments []models.Assignment
	if err := query.Preload("Course").Find(&assignments).Error; err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

// SubmissionCounts returns the live submission count per assignment id.
func (r *assignmentRepository) SubmissionCounts(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return counts, nil
	}

	rows := []struct {
		AssignmentID uint
		Total        int64
	}{}

	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("assignment_id, COUNT(*) AS total").
		Where("assignment_id IN ?", assignmentIDs).
		Group("assignment_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AssignmentID] = row.Total
	}

	return counts, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Save(assignment).Error
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Select("Submissions").Delete(&models.Assignment{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeAssignmentSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "due_date", "due_date:asc":
		return "assignments.due_date ASC"
	case "-due_date", "due_date:desc":
		return "assignments.due_date DESC"
	case "title", "title:asc":
		return "assignments.title ASC"
	case "-title", "title:desc":
		return "assignments.title DESC"
	case "created_at", "created_at:asc":
		return "assignments.created_at ASC"
	default:
		return "assignments.created_at DESC"
	}
}
