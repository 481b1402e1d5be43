package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/cache"
	"github.com/edutrack/edutrack-go-api/internal/dto"
	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/observability"
	"github.com/edutrack/edutrack-go-api/internal/policy"
	"github.com/edutrack/edutrack-go-api/internal/repository"
	"github.com/edutrack/edutrack-go-api/internal/utils"
)

var (
	// ErrCourseNotFound indicates the requested course does not exist or is hidden
	// from the actor.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEnrollmentNotFound indicates no enrollment exists for the pair.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrAlreadyEnrolled indicates the student is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrPermissionDenied indicates the actor is authenticated but not authorized.
	ErrPermissionDenied = errors.New("permission denied")
)

// CourseService exposes course and enrollment use cases.
type CourseService interface {
	Create(ctx context.Context, actorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	List(ctx context.Context, actorID uint, filter repository.CourseFilter) (dto.CourseListResponse, error)
	GetBySlug(ctx context.Context, actorID uint, slug string) (dto.CourseResponse, error)
	Update(ctx context.Context, actorID uint, slug string, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actorID uint, slug string) error
	Enroll(ctx context.Context, actorID uint, slug string) (dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, actorID uint, slug string) error
	ListStudents(ctx context.Context, actorID uint, slug string) ([]dto.UserBriefResponse, error)
	ListEnrollments(ctx context.Context, actorID uint) ([]dto.EnrollmentResponse, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	invalidator *cache.Invalidator
	cacheClient *redis.Client
	cacheTTL    time.Duration
	recorder    ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	invalidator *cache.Invalidator,
	cacheClient *redis.Client,
	cacheTTL time.Duration,
	recorder ActivityRecorder,
	logger zerolog.Logger,
) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		users:       users,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		invalidator: invalidator,
		cacheClient: cacheClient,
		cacheTTL:    cacheTTL,
		recorder:    recorder,
		logger:      logger.With().Str("component", "course_service").Logger(),
		tracer:      otel.Tracer("github.com/edutrack/edutrack-go-api/internal/service/course"),
		now:         time.Now,
	}
}

func (s *courseService) Create(ctx context.Context, actorID uint, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.create")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.CourseResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !policy.CanCreateCourse(actor) {
		span.SetStatus(codes.Error, "actor is not a teacher")
		return dto.CourseResponse{}, ErrPermissionDenied
	}

	slug, err := s.assignSlug(ctx, payload.Title)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Title:        payload.Title,
		Description:  sanitizeText(s.sanitizer, payload.Description),
		TeacherID:    actor.ID,
		Slug:         slug,
		IsActive:     true,
		ThumbnailURL: payload.ThumbnailURL,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		span.RecordError(err)
		return dto.CourseResponse{}, err
	}

	s.invalidator.CourseSaved(ctx, course.ID)
	s.record(ctx, actor, "created", "course", course.ID)

	span.SetAttributes(attribute.String("course.slug", course.Slug))
	s.logger.Info().Uint("course_id", course.ID).Str("slug", course.Slug).Msg("course created")

	return dto.NewCourseResponse(course, 0), nil
}

// assignSlug derives a unique slug from the title, suffixing an incrementing integer
// on collision.
func (s *courseService) assignSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "course"
	}

	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.courses.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (s *courseService) List(ctx context.Context, actorID uint, filter repository.CourseFilter) (dto.CourseListResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	if actor.IsTeacher() {
		courses, total, err := s.courses.ListForTeacher(ctx, actor.ID, filter)
		if err != nil {
			return dto.CourseListResponse{}, err
		}
		return s.buildList(ctx, courses, total)
	}

	// Students see every active course. The default listing is cached and the cache
	// entry is dropped on any course mutation.
	cacheable := filter == (repository.CourseFilter{})
	if cacheable {
		if cached, ok := s.cachedList(ctx); ok {
			return cached, nil
		}
	}

	courses, total, err := s.courses.ListActive(ctx, filter)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	response, err := s.buildList(ctx, courses, total)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	if cacheable {
		s.storeList(ctx, response)
	}

	return response, nil
}

func (s *courseService) cachedList(ctx context.Context) (dto.CourseListResponse, bool) {
	if s.cacheClient == nil {
		return dto.CourseListResponse{}, false
	}

	cached, err := s.cacheClient.Get(ctx, cache.CourseListKey()).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read course list cache")
		}
		return dto.CourseListResponse{}, false
	}

	var response dto.CourseListResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return dto.CourseListResponse{}, false
	}

	return response, true
}

func (s *courseService) storeList(ctx context.Context, response dto.CourseListResponse) {
	if s.cacheClient == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.cacheClient.Set(ctx, cache.CourseListKey(), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store course list cache")
	}
}

func (s *courseService) buildList(ctx context.Context, courses []models.Course, total int64) (dto.CourseListResponse, error) {
	ids := make([]uint, 0, len(courses))
	for _, course := range courses {
		ids = append(ids, course.ID)
	}

	counts, err := s.courses.EnrollmentCounts(ctx, ids)
	if err != nil {
		return dto.CourseListResponse{}, err
	}

	items := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		items = append(items, dto.NewCourseResponse(course, counts[course.ID]))
	}

	return dto.CourseListResponse{Items: items, Total: total}, nil
}

func (s *courseService) GetBySlug(ctx context.Context, actorID uint, slug string) (dto.CourseResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !policy.CanReadCourse(actor) {
		return dto.CourseResponse{}, ErrCourseNotFound
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	counts, err := s.courses.EnrollmentCounts(ctx, []uint{course.ID})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course, counts[course.ID]), nil
}

func (s *courseService) Update(ctx context.Context, actorID uint, slug string, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !policy.CanManageCourse(actor, course) {
		return dto.CourseResponse{}, ErrPermissionDenied
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = sanitizeText(s.sanitizer, *payload.Description)
	}
	if payload.IsActive != nil {
		course.IsActive = *payload.IsActive
	}
	if payload.ThumbnailURL != nil {
		course.ThumbnailURL = *payload.ThumbnailURL
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.invalidator.CourseSaved(ctx, course.ID)
	s.record(ctx, actor, "updated", "course", course.ID)

	counts, err := s.courses.EnrollmentCounts(ctx, []uint{course.ID})
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(course, counts[course.ID]), nil
}

func (s *courseService) Delete(ctx context.Context, actorID uint, slug string) error {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return err
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return err
	}

	if !policy.CanManageCourse(actor, course) {
		return ErrPermissionDenied
	}

	if err := s.courses.Delete(ctx, course.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.invalidator.CourseSaved(ctx, course.ID)
	s.record(ctx, actor, "deleted", "course", course.ID)

	s.logger.Info().Uint("course_id", course.ID).Msg("course deleted")

	return nil
}

func (s *courseService) Enroll(ctx context.Context, actorID uint, slug string) (dto.EnrollmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "course.enroll")
	defer span.End()

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if !policy.CanEnroll(actor) {
		span.SetStatus(codes.Error, "actor is not a student")
		return dto.EnrollmentResponse{}, ErrPermissionDenied
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	if exists, err := s.enrollments.Exists(ctx, course.ID, actor.ID); err != nil {
		return dto.EnrollmentResponse{}, err
	} else if exists {
		span.SetStatus(codes.Error, "duplicate enrollment")
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	}

	enrollment := models.Enrollment{
		CourseID:   course.ID,
		StudentID:  actor.ID,
		EnrolledAt: s.now(),
		IsActive:   true,
	}

	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		// The unique index settles races between concurrent enroll requests.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		span.RecordError(err)
		return dto.EnrollmentResponse{}, err
	}
	enrollment.Course = course

	s.invalidator.EnrollmentChanged(ctx, course.ID)
	s.record(ctx, actor, "enrolled", "course", course.ID)
	observability.EnrollmentEvents().WithLabelValues("enrolled").Inc()

	span.SetAttributes(attribute.Int("course.id", int(course.ID)))
	s.logger.Info().Uint("course_id", course.ID).Uint("student_id", actor.ID).Msg("student enrolled")

	return dto.NewEnrollmentResponse(enrollment), nil
}

func (s *courseService) Unenroll(ctx context.Context, actorID uint, slug string) error {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return err
	}

	if !policy.CanEnroll(actor) {
		return ErrPermissionDenied
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.enrollments.Delete(ctx, course.ID, actor.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.invalidator.EnrollmentChanged(ctx, course.ID)
	s.record(ctx, actor, "unenrolled", "course", course.ID)
	observability.EnrollmentEvents().WithLabelValues("unenrolled").Inc()

	s.logger.Info().Uint("course_id", course.ID).Uint("student_id", actor.ID).Msg("student unenrolled")

	return nil
}

func (s *courseService) ListStudents(ctx context.Context, actorID uint, slug string) ([]dto.UserBriefResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	course, err := s.loadCourse(ctx, slug)
	if err != nil {
		return nil, err
	}

	if !policy.CanListStudents(actor, course) {
		return nil, ErrPermissionDenied
	}

	students, err := s.enrollments.ListStudents(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewUserBriefResponseSlice(students), nil
}

func (s *courseService) ListEnrollments(ctx context.Context, actorID uint) ([]dto.EnrollmentResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		enrollments []models.Enrollment
		listErr     error
	)
	if actor.IsTeacher() {
		enrollments, listErr = s.enrollments.ListForTeacher(ctx, actor.ID)
	} else {
		enrollments, listErr = s.enrollments.ListForStudent(ctx, actor.ID)
	}
	if listErr != nil {
		return nil, listErr
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *courseService) actorFor(ctx context.Context, actorID uint) (policy.Actor, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, ErrUserNotFound
		}
		return policy.Actor{}, err
	}

	return policy.ActorFor(user), nil
}

func (s *courseService) loadCourse(ctx context.Context, slug string) (models.Course, error) {
	course, err := s.courses.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *courseService) record(ctx context.Context, actor policy.Actor, action, entityType string, entityID uint) {
	if s.recorder == nil {
		return
	}

	id := entityID
	s.recorder.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
	})
}
