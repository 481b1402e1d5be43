package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// CourseFilter describes search and pagination options for course listings.
type CourseFilter struct {
	Search   string
	IsActive *bool
	Sort     string
	Page     int
	PageSize int
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetBySlug(ctx context.Context, slug string) (models.Course, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListForTeacher(ctx context.Context, teacherID uint, filter CourseFilter) ([]models.Course, int64, error)
	ListActive(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	EnrollmentCounts(ctx context.Context, courseIDs []uint) (map[uint]int64, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) GetBySlug(ctx context.Context, slug string) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&course).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Course{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *courseRepository) ListForTeacher(ctx context.Context, teacherID uint, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Where("teacher_id = ?", teacherID)
	return r.list(query, filter)
}

func (r *courseRepository) ListActive(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Where("is_active = ?", true)
	return r.list(query, filter)
}

func (r *courseRepository) list(query *gorm.DB, filter CourseFilter) ([]models.Course, int64, error) {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeCourseSort(filter.Sort))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// EnrollmentCounts returns the live enrollment count per course id.
func (r *courseRepository) EnrollmentCounts(ctx context.Context, courseIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	rows := []struct {
		CourseID uint
		Total    int64
	}{}

	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CourseID] = row.Total
	}

	return counts, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Select cascades one association level, so submissions under the
		// course's assignments are removed explicitly.
		subQuery := tx.Model(&models.Assignment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("assignment_id IN (?)", subQuery).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Select("Enrollments", "Assignments").Delete(&models.Course{ID: id})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func normalizeCourseSort(sort string) string {
	switch strings.ToLower(strings.TrimSpace(sort)) {
	case "title", "title:asc":
		return "title ASC"
	case "-title", "title:desc":
		return "title DESC"
	case "created_at", "created_at:asc":
		return "created_at ASC"
	default:
		return "created_at DESC"
	}
}
