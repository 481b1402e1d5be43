// Package cache owns the Redis key layout and the post-commit invalidation hooks
// fired after successful mutations. Key construction lives here so the format cannot
// drift between components.
package cache

import "fmt"

// CourseKey addresses a single cached course representation.
func CourseKey(courseID uint) string {
	return fmt.Sprintf("course_%d", courseID)
}

// CourseListKey addresses the cached list of active courses.
func CourseListKey() string {
	return "course_list"
}

// CourseEnrollmentsKey addresses the cached roster of a course.
func CourseEnrollmentsKey(courseID uint) string {
	return fmt.Sprintf("course_%d_enrollments", courseID)
}

// CourseAssignmentsKey addresses the cached assignment list of a course.
func CourseAssignmentsKey(courseID uint) string {
	return fmt.Sprintf("course_%d_assignments", courseID)
}

// AssignmentKey addresses a single cached assignment representation.
func AssignmentKey(assignmentID uint) string {
	return fmt.Sprintf("assignment_%d", assignmentID)
}

// AssignmentSubmissionsKey addresses the cached submission list of an assignment.
func AssignmentSubmissionsKey(assignmentID uint) string {
	return fmt.Sprintf("assignment_%d_submissions", assignmentID)
}

// SubmissionKey addresses a single cached submission representation.
func SubmissionKey(submissionID uint) string {
	return fmt.Sprintf("submission_%d", submissionID)
}
