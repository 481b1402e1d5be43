package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/cache"
	"github.com/edutrack/edutrack-go-api/internal/dto"
	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/policy"
	"github.com/edutrack/edutrack-go-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist or is hidden
// from the actor.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentService exposes assignment use cases.
type AssignmentService interface {
	Create(ctx context.Context, actorID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	List(ctx context.Context, actorID uint, filter repository.AssignmentFilter) (dto.AssignmentListResponse, error)
	Get(ctx context.Context, actorID uint, id uint) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actorID uint, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actorID uint, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	invalidator *cache.Invalidator
	recorder    ActivityRecorder
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	validate *validator.Validate,
	invalidator *cache.Invalidator,
	recorder ActivityRecorder,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		enrollments: enrollments,
		users:       users,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		invalidator: invalidator,
		recorder:    recorder,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) Create(ctx context.Context, actorID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrCourseNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	if !policy.CanManageAssignment(actor, course) {
		return dto.AssignmentResponse{}, ErrPermissionDenied
	}

	dueDate, err := parseDueDate(payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: sanitizeText(s.sanitizer, payload.Description),
		CourseID:    course.ID,
		DueDate:     dueDate,
		Points:      100,
		IsActive:    true,
	}
	if payload.Points != nil {
		assignment.Points = *payload.Points
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}
	assignment.Course = course

	s.invalidator.AssignmentSaved(ctx, assignment.ID, course.ID)
	s.record(ctx, actor, "created", "assignment", assignment.ID)

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", course.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, 0), nil
}

func (s *assignmentService) List(ctx context.Context, actorID uint, filter repository.AssignmentFilter) (dto.AssignmentListResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	var (
		assignments []models.Assignment
		total       int64
		listErr     error
	)
	if actor.IsTeacher() {
		assignments, total, listErr = s.assignments.ListForTeacher(ctx, actor.ID, filter)
	} else {
		assignments, total, listErr = s.assignments.ListForStudent(ctx, actor.ID, filter)
	}
	if listErr != nil {
		return dto.AssignmentListResponse{}, listErr
	}

	ids := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		ids = append(ids, assignment.ID)
	}

	counts, err := s.assignments.SubmissionCounts(ctx, ids)
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	items := make([]dto.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		items = append(items, dto.NewAssignmentResponse(assignment, counts[assignment.ID]))
	}

	return dto.AssignmentListResponse{Items: items, Total: total}, nil
}

func (s *assignmentService) Get(ctx context.Context, actorID uint, id uint) (dto.AssignmentResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.loadAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	enrolled, err := s.enrollments.Exists(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	// Visibility is a filter: actors outside the course see a missing resource, not a
	// denial.
	if !policy.CanReadAssignment(actor, assignment.Course, enrolled) {
		return dto.AssignmentResponse{}, ErrAssignmentNotFound
	}

	counts, err := s.assignments.SubmissionCounts(ctx, []uint{assignment.ID})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, counts[assignment.ID]), nil
}

func (s *assignmentService) Update(ctx context.Context, actorID uint, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.loadAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !policy.CanManageAssignment(actor, assignment.Course) {
		return dto.AssignmentResponse{}, ErrPermissionDenied
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = sanitizeText(s.sanitizer, *payload.Description)
	}
	if payload.DueDate != nil {
		dueDate, err := parseDueDate(payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = dueDate
	}
	if payload.Points != nil {
		assignment.Points = *payload.Points
	}
	if payload.IsActive != nil {
		assignment.IsActive = *payload.IsActive
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.invalidator.AssignmentSaved(ctx, assignment.ID, assignment.CourseID)
	s.record(ctx, actor, "updated", "assignment", assignment.ID)

	counts, err := s.assignments.SubmissionCounts(ctx, []uint{assignment.ID})
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment, counts[assignment.ID]), nil
}

func (s *assignmentService) Delete(ctx context.Context, actorID uint, id uint) error {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return err
	}

	assignment, err := s.loadAssignment(ctx, id)
	if err != nil {
		return err
	}

	if !policy.CanManageAssignment(actor, assignment.Course) {
		return ErrPermissionDenied
	}

	if err := s.assignments.Delete(ctx, assignment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.invalidator.AssignmentSaved(ctx, assignment.ID, assignment.CourseID)
	s.record(ctx, actor, "deleted", "assignment", assignment.ID)

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment deleted")

	return nil
}

func (s *assignmentService) actorFor(ctx context.Context, actorID uint) (policy.Actor, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, ErrUserNotFound
		}
		return policy.Actor{}, err
	}

	return policy.ActorFor(user), nil
}

func (s *assignmentService) loadAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *assignmentService) record(ctx context.Context, actor policy.Actor, action, entityType string, entityID uint) {
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

// parseDueDate accepts an RFC3339 timestamp or nil. Past due dates are allowed so
// teachers can record work that was already due.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("invalid due date: %w", err)
	}

	return &parsed, nil
}
