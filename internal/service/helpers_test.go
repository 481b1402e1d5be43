package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) add(username, role string) models.User {
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	user.ID = m.nextID
	user.Profile = models.Profile{UserID: user.ID, Role: role}
	user.Profile.ID = m.nextID
	m.users[user.ID] = user
	m.nextID++
	return user
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *memoryUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepo) CreateWithProfile(ctx context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.nextID
	user.Profile.ID = m.nextID
	user.Profile.UserID = user.ID
	m.users[user.ID] = *user
	m.nextID++
	return nil
}

func (m *memoryUserRepo) Update(ctx context.Context, user *models.User) error {
	existing, ok := m.users[user.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	// The real repository omits the Profile association and leaves the caller's
	// struct untouched.
	stored := *user
	stored.Profile = existing.Profile
	m.users[user.ID] = stored
	return nil
}

func (m *memoryUserRepo) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	user, ok := m.users[profile.UserID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Profile = *profile
	m.users[profile.UserID] = user
	return nil
}

func (m *memoryUserRepo) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = passwordHash
	m.users[userID] = user
	return nil
}

type memoryCourseRepo struct {
	courses     map[uint]models.Course
	nextID      uint
	enrollments *memoryEnrollmentRepo
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) GetBySlug(ctx context.Context, slug string) (models.Course, error) {
	for _, course := range m.courses {
		if course.Slug == slug {
			return course, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (m *memoryCourseRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := m.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (m *memoryCourseRepo) ListForTeacher(ctx context.Context, teacherID uint, filter repository.CourseFilter) ([]models.Course, int64, error) {
	return m.list(filter, func(course models.Course) bool {
		return course.TeacherID == teacherID
	})
}

func (m *memoryCourseRepo) ListActive(ctx context.Context, filter repository.CourseFilter) ([]models.Course, int64, error) {
	return m.list(filter, func(course models.Course) bool {
		return course.IsActive
	})
}

func (m *memoryCourseRepo) list(filter repository.CourseFilter, keep func(models.Course) bool) ([]models.Course, int64, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	results := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		if !keep(course) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(course.Title), search) {
			continue
		}
		results = append(results, course)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryCourseRepo) EnrollmentCounts(ctx context.Context, courseIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(courseIDs))
	if m.enrollments == nil {
		return counts, nil
	}
	for _, id := range courseIDs {
		for _, enrollment := range m.enrollments.entries {
			if enrollment.CourseID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *memoryCourseRepo) Create(ctx context.Context, course *models.Course) error {
	for _, existing := range m.courses {
		if existing.Slug == course.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	m.courses[course.ID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

type memoryEnrollmentRepo struct {
	entries []models.Enrollment
	nextID  uint
	users   *memoryUserRepo
	courses *memoryCourseRepo
}

func newMemoryEnrollmentRepo(users *memoryUserRepo, courses *memoryCourseRepo) *memoryEnrollmentRepo {
	repo := &memoryEnrollmentRepo{nextID: 1, users: users, courses: courses}
	courses.enrollments = repo
	return repo
}

func (m *memoryEnrollmentRepo) Get(ctx context.Context, courseID, studentID uint) (models.Enrollment, error) {
	for _, enrollment := range m.entries {
		if enrollment.CourseID == courseID && enrollment.StudentID == studentID {
			return m.hydrate(enrollment), nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Exists(ctx context.Context, courseID, studentID uint) (bool, error) {
	_, err := m.Get(ctx, courseID, studentID)
	return err == nil, nil
}

func (m *memoryEnrollmentRepo) ListStudents(ctx context.Context, courseID uint) ([]models.User, error) {
	students := make([]models.User, 0)
	for _, enrollment := range m.entries {
		if enrollment.CourseID != courseID {
			continue
		}
		if user, ok := m.users.users[enrollment.StudentID]; ok {
			students = append(students, user)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Username < students[j].Username })
	return students, nil
}

func (m *memoryEnrollmentRepo) ListForStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, enrollment := range m.entries {
		if enrollment.StudentID == studentID {
			results = append(results, m.hydrate(enrollment))
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) ListForTeacher(ctx context.Context, teacherID uint) ([]models.Enrollment, error) {
	results := make([]models.Enrollment, 0)
	for _, enrollment := range m.entries {
		course, ok := m.courses.courses[enrollment.CourseID]
		if ok && course.TeacherID == teacherID {
			results = append(results, m.hydrate(enrollment))
		}
	}
	return results, nil
}

func (m *memoryEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	for _, existing := range m.entries {
		if existing.CourseID == enrollment.CourseID && existing.StudentID == enrollment.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, *enrollment)
	return nil
}

func (m *memoryEnrollmentRepo) Delete(ctx context.Context, courseID, studentID uint) error {
	for i, enrollment := range m.entries {
		if enrollment.CourseID == courseID && enrollment.StudentID == studentID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) hydrate(enrollment models.Enrollment) models.Enrollment {
	if course, ok := m.courses.courses[enrollment.CourseID]; ok {
		enrollment.Course = course
	}
	if user, ok := m.users.users[enrollment.StudentID]; ok {
		enrollment.Student = user
	}
	return enrollment
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
	courses     *memoryCourseRepo
	enrollments *memoryEnrollmentRepo
	submissions *memorySubmissionRepo
}

func newMemoryAssignmentRepo(courses *memoryCourseRepo, enrollments *memoryEnrollmentRepo) *memoryAssignmentRepo {
	return &memoryAssignmentRepo{
		assignments: make(map[uint]models.Assignment),
		nextID:      1,
		courses:     courses,
		enrollments: enrollments,
	}
}

func (m *memoryAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	if course, ok := m.courses.courses[assignment.CourseID]; ok {
		assignment.Course = course
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) ListForTeacher(ctx context.Context, teacherID uint, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	return m.list(filter, func(assignment models.Assignment) bool {
		course, ok := m.courses.courses[assignment.CourseID]
		return ok && course.TeacherID == teacherID
	})
}

func (m *memoryAssignmentRepo) ListForStudent(ctx context.Context, studentID uint, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	return m.list(filter, func(assignment models.Assignment) bool {
		if !assignment.IsActive {
			return false
		}
		course, ok := m.courses.courses[assignment.CourseID]
		if !ok || !course.IsActive {
			return false
		}
		enrolled, _ := m.enrollments.Exists(context.Background(), assignment.CourseID, studentID)
		return enrolled
	})
}

func (m *memoryAssignmentRepo) list(filter repository.AssignmentFilter, keep func(models.Assignment) bool) ([]models.Assignment, int64, error) {
	results := make([]models.Assignment, 0, len(m.assignments))
	for _, assignment := range m.assignments {
		if !keep(assignment) {
			continue
		}
		if filter.CourseID != nil && assignment.CourseID != *filter.CourseID {
			continue
		}
		if course, ok := m.courses.courses[assignment.CourseID]; ok {
			assignment.Course = course
		}
		results = append(results, assignment)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, int64(len(results)), nil
}

func (m *memoryAssignmentRepo) SubmissionCounts(ctx context.Context, assignmentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(assignmentIDs))
	if m.submissions == nil {
		return counts, nil
	}
	for _, id := range assignmentIDs {
		for _, submission := range m.submissions.submissions {
			if submission.AssignmentID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	assignment.CreatedAt = time.Now()
	m.assignments[assignment.ID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
	assignments *memoryAssignmentRepo
	users       *memoryUserRepo
}

func newMemorySubmissionRepo(assignments *memoryAssignmentRepo, users *memoryUserRepo) *memorySubmissionRepo {
	repo := &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		nextID:      1,
		assignments: assignments,
		users:       users,
	}
	assignments.submissions = repo
	return repo
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return m.hydrate(submission), nil
}

func (m *memorySubmissionRepo) Exists(ctx context.Context, assignmentID, studentID uint) (bool, error) {
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memorySubmissionRepo) ListForTeacher(ctx context.Context, teacherID uint, filter repository.SubmissionFilter) ([]models.Submission, error) {
	return m.list(filter, func(submission models.Submission) bool {
		assignment, ok := m.assignments.assignments[submission.AssignmentID]
		if !ok {
			return false
		}
		course, ok := m.assignments.courses.courses[assignment.CourseID]
		return ok && course.TeacherID == teacherID
	}), nil
}

func (m *memorySubmissionRepo) ListForStudent(ctx context.Context, studentID uint, filter repository.SubmissionFilter) ([]models.Submission, error) {
	return m.list(filter, func(submission models.Submission) bool {
		return submission.StudentID == studentID
	}), nil
}

func (m *memorySubmissionRepo) list(filter repository.SubmissionFilter, keep func(models.Submission) bool) []models.Submission {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if !keep(submission) {
			continue
		}
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		results = append(results, m.hydrate(submission))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

func (m *memorySubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	m.submissions[submission.ID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.submissions[submission.ID] = *submission
	return nil
}

func (m *memorySubmissionRepo) hydrate(submission models.Submission) models.Submission {
	if assignment, ok := m.assignments.assignments[submission.AssignmentID]; ok {
		if course, ok := m.assignments.courses.courses[assignment.CourseID]; ok {
			assignment.Course = course
		}
		submission.Assignment = assignment
	}
	if user, ok := m.users.users[submission.StudentID]; ok {
		submission.Student = user
	}
	return submission
}

func courseListFilter() repository.CourseFilter {
	return repository.CourseFilter{}
}

type stubRecorder struct {
	entries []ActivityEntry
}

func (r *stubRecorder) Record(_ context.Context, entry ActivityEntry) {
	r.entries = append(r.entries, entry)
}
