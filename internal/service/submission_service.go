package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
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
)

var (
	// ErrSubmissionNotFound indicates the requested submission does not exist or is
	// hidden from the actor.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAlreadySubmitted indicates the student has already submitted this assignment.
	ErrAlreadySubmitted = errors.New("assignment already submitted")
	// ErrAssignmentInactive indicates the assignment no longer accepts submissions.
	ErrAssignmentInactive = errors.New("assignment is not accepting submissions")
	// ErrAttachmentTooLarge indicates the attachment exceeded the size limit.
	ErrAttachmentTooLarge = errors.New("attachment exceeds maximum allowed size")
	// ErrAttachmentTypeNotAllowed indicates the attachment MIME type is not permitted.
	ErrAttachmentTypeNotAllowed = errors.New("attachment type not allowed")
)

const maxAttachmentBytes = int64(10 * 1024 * 1024)

// FileUploader abstracts attachment storage destinations.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService exposes submission and review use cases.
type SubmissionService interface {
	Submit(ctx context.Context, actorID uint, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, actorID uint, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, actorID uint, id uint) (dto.SubmissionResponse, error)
	Review(ctx context.Context, actorID uint, id uint, payload dto.SubmissionReviewRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	uploader    FileUploader
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	invalidator *cache.Invalidator
	recorder    ActivityRecorder
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. The uploader may be
// nil, in which case file attachments are rejected.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	uploader FileUploader,
	validate *validator.Validate,
	invalidator *cache.Invalidator,
	recorder ActivityRecorder,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		enrollments: enrollments,
		users:       users,
		uploader:    uploader,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		invalidator: invalidator,
		recorder:    recorder,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/edutrack/edutrack-go-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, actorID uint, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()

	span.SetAttributes(attribute.Int("assignment.id", int(assignmentID)))

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmissionResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.loadAssignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Checked in a fixed order: lifecycle state first, then authorization, then
	// duplicate detection, so callers get a stable error for a given situation.
	if !assignment.IsActive {
		span.SetStatus(codes.Error, "assignment inactive")
		return dto.SubmissionResponse{}, ErrAssignmentInactive
	}

	enrolled, err := s.enrollments.Exists(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !policy.CanSubmit(actor, assignment.Course, enrolled) {
		span.SetStatus(codes.Error, "actor cannot submit")
		return dto.SubmissionResponse{}, ErrPermissionDenied
	}

	if exists, err := s.submissions.Exists(ctx, assignment.ID, actor.ID); err != nil {
		return dto.SubmissionResponse{}, err
	} else if exists {
		span.SetStatus(codes.Error, "duplicate submission")
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	}

	fileURL, err := s.storeAttachment(ctx, span, actor.ID, assignment.ID, file)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		Content:      sanitizeText(s.sanitizer, payload.Content),
		FileURL:      fileURL,
		SubmittedAt:  s.now(),
		Status:       models.SubmissionStatusPending,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// The unique index settles races between concurrent submit requests.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	s.invalidator.SubmissionSaved(ctx, submission.ID, assignment.ID)
	s.record(ctx, actor, "submitted", "submission", submission.ID)

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	timeliness := "on_time"
	if created.IsLate() {
		timeliness = "late"
	}
	observability.Submissions().WithLabelValues(timeliness).Inc()

	span.SetStatus(codes.Ok, "submitted")
	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assignment_id", assignment.ID).
		Uint("student_id", actor.ID).
		Bool("is_late", created.IsLate()).
		Msg("assignment submitted")

	return dto.NewSubmissionResponse(created), nil
}

// storeAttachment validates and uploads the optional attachment, returning its URL.
func (s *submissionService) storeAttachment(ctx context.Context, span trace.Span, studentID, assignmentID uint, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}

	if s.uploader == nil {
		return "", ErrAttachmentTypeNotAllowed
	}

	if file.Size > maxAttachmentBytes {
		span.SetStatus(codes.Error, "attachment too large")
		return "", ErrAttachmentTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, maxAttachmentBytes+1)); err != nil {
		span.RecordError(err)
		return "", err
	}
	if int64(buf.Len()) > maxAttachmentBytes {
		span.SetStatus(codes.Error, "attachment too large")
		return "", ErrAttachmentTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("submission.attachment_mime", mime.String()))
	if !isAllowedAttachment(mime.String()) {
		span.SetStatus(codes.Error, "attachment type not allowed")
		return "", ErrAttachmentTypeNotAllowed
	}

	name := attachmentName(studentID, assignmentID, file.Filename)
	url, err := s.uploader.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "attachment upload failed")
		return "", err
	}

	return url, nil
}

func (s *submissionService) List(ctx context.Context, actorID uint, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		submissions []models.Submission
		listErr     error
	)
	if actor.IsTeacher() {
		submissions, listErr = s.submissions.ListForTeacher(ctx, actor.ID, filter)
	} else {
		submissions, listErr = s.submissions.ListForStudent(ctx, actor.ID, filter)
	}
	if listErr != nil {
		return nil, listErr
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, actorID uint, id uint) (dto.SubmissionResponse, error) {
	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Visibility is a filter: other students' submissions look like missing
	// resources.
	if !policy.CanReadSubmission(actor, submission, submission.Assignment.Course) {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Review(ctx context.Context, actorID uint, id uint, payload dto.SubmissionReviewRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.review")
	defer span.End()

	span.SetAttributes(attribute.Int("submission.id", int(id)))

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubmissionResponse{}, err
	}

	actor, err := s.actorFor(ctx, actorID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !policy.CanReviewSubmission(actor, submission.Assignment.Course) {
		span.SetStatus(codes.Error, "actor cannot review")
		return dto.SubmissionResponse{}, ErrPermissionDenied
	}

	// Re-reviewing overwrites the earlier feedback and timestamp.
	reviewedAt := s.now()
	submission.Status = models.SubmissionStatusReviewed
	submission.Feedback = sanitizeText(s.sanitizer, payload.Feedback)
	submission.ReviewedAt = &reviewedAt

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	s.invalidator.SubmissionSaved(ctx, submission.ID, submission.AssignmentID)
	s.record(ctx, actor, "reviewed", "submission", submission.ID)

	span.SetStatus(codes.Ok, "reviewed")
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("teacher_id", actor.ID).
		Msg("submission reviewed")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) actorFor(ctx context.Context, actorID uint) (policy.Actor, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return policy.Actor{}, ErrUserNotFound
		}
		return policy.Actor{}, err
	}

	return policy.ActorFor(user), nil
}

func (s *submissionService) loadAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) record(ctx context.Context, actor policy.Actor, action, entityType string, entityID uint) {
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

func attachmentName(studentID, assignmentID uint, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("submission_%d_%d%s", assignmentID, studentID, ext)
}

func isAllowedAttachment(mime string) bool {
	lower := strings.ToLower(strings.TrimSpace(mime))
	if strings.HasPrefix(lower, "image/") || strings.HasPrefix(lower, "text/") {
		return true
	}
	switch lower {
	case "application/pdf", "application/zip", "application/x-zip-compressed":
		return true
	default:
		return false
	}
}
