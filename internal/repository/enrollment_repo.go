package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
)

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	Get(ctx context.Context, courseID, studentID uint) (models.Enrollment, error)
	Exists(ctx context.Context, courseID, studentID uint) (bool, error)
	ListStudents(ctx context.Context, courseID uint) ([]models.User, error)
	ListForStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error)
	ListForTeacher(ctx context.Context, teacherID uint) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, courseID, studentID uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Get(ctx context.Context, courseID, studentID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		First(&enrollment).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Exists(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *enrollmentRepository) ListStudents(ctx context.Context, courseID uint) ([]models.User, error) {
	var students []models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.course_id = ?", courseID).
		Preload("Profile").
		Order("users.username ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *enrollmentRepository) ListForStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("student_id = ?", studentID).
		Preload("Course").
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) ListForTeacher(ctx context.Context, teacherID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.teacher_id = ?", teacherID).
		Preload("Course").
		Preload("Student").
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, courseID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Delete(&models.Enrollment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
