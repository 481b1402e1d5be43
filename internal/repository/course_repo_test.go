package repository_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/repository"
)

func newCourseRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
	))

	return db
}

func TestCourseRepositoryDeleteCascadesToSubmissions(t *testing.T) {
	db := newCourseRepoDB(t)
	repo := repository.NewCourseRepository(db)

	course := models.Course{Title: "Biology", Slug: "biology", TeacherID: 1, IsActive: true}
	require.NoError(t, db.Create(&course).Error)

	assignment := models.Assignment{Title: "Essay", CourseID: course.ID, Points: 100, IsActive: true}
	require.NoError(t, db.Create(&assignment).Error)

	enrollment := models.Enrollment{CourseID: course.ID, StudentID: 2, EnrolledAt: time.Now(), IsActive: true}
	require.NoError(t, db.Create(&enrollment).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    2,
		Content:      "my essay",
		SubmittedAt:  time.Now(),
		Status:       models.SubmissionStatusPending,
	}
	require.NoError(t, db.Create(&submission).Error)

	require.NoError(t, repo.Delete(context.Background(), course.ID))

	var counts [3]int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("course_id = ?", course.ID).Count(&counts[0]).Error)
	require.NoError(t, db.Model(&models.Assignment{}).Where("course_id = ?", course.ID).Count(&counts[1]).Error)
	require.NoError(t, db.Model(&models.Submission{}).Where("assignment_id = ?", assignment.ID).Count(&counts[2]).Error)
	require.Zero(t, counts[0])
	require.Zero(t, counts[1])
	require.Zero(t, counts[2])
}

func TestCourseRepositoryDeleteUnknownCourse(t *testing.T) {
	db := newCourseRepoDB(t)
	repo := repository.NewCourseRepository(db)

	err := repo.Delete(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
