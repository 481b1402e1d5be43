package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Invalidator deletes cache entries after successful mutations. Every hook is best
// effort: Redis failures are logged and swallowed, and a nil client is a no-op, so
// invalidation never fails or blocks the triggering mutation.
type Invalidator struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewInvalidator constructs an Invalidator around the given Redis client.
func NewInvalidator(client *redis.Client, logger zerolog.Logger) *Invalidator {
	return &Invalidator{
		client: client,
		logger: logger.With().Str("component", "cache_invalidator").Logger(),
	}
}

// CourseSaved drops the course entry and the course list after a course mutation.
func (i *Invalidator) CourseSaved(ctx context.Context, courseID uint) {
	i.drop(ctx, CourseKey(courseID), CourseListKey())
}

// EnrollmentChanged drops roster and course entries after enroll or unenroll.
func (i *Invalidator) EnrollmentChanged(ctx context.Context, courseID uint) {
	i.drop(ctx, CourseEnrollmentsKey(courseID), CourseKey(courseID))
}

// AssignmentSaved drops the assignment entry and the owning course's assignment list.
func (i *Invalidator) AssignmentSaved(ctx context.Context, assignmentID, courseID uint) {
	i.drop(ctx, AssignmentKey(assignmentID), CourseAssignmentsKey(courseID))
}

// SubmissionSaved drops the submission entry, the owning assignment's submission list,
// and the assignment entry whose submission count changed.
func (i *Invalidator) SubmissionSaved(ctx context.Context, submissionID, assignmentID uint) {
	i.drop(ctx, SubmissionKey(submissionID), AssignmentSubmissionsKey(assignmentID), AssignmentKey(assignmentID))
}

func (i *Invalidator) drop(ctx context.Context, keys ...string) {
	if i == nil || i.client == nil {
		return
	}

	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		i.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
