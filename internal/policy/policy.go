// Package policy centralises the authorization rules for the API. Services consult
// these predicates instead of checking roles ad hoc, so the full rule set stays
// auditable in one place. Collection reads are scoped in the repository layer and
// degrade to empty result sets rather than errors.
package policy

import "github.com/edutrack/edutrack-go-api/internal/models"

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// ActorFor builds an Actor from a loaded user record.
func ActorFor(user models.User) Actor {
	return Actor{ID: user.ID, Role: user.Profile.Role}
}

// IsTeacher reports whether the actor carries the teacher role.
func (a Actor) IsTeacher() bool {
	return a.Role == models.RoleTeacher
}

// IsStudent reports whether the actor carries the student role.
func (a Actor) IsStudent() bool {
	return a.Role == models.RoleStudent
}

// CanCreateCourse allows only teachers to create courses.
func CanCreateCourse(actor Actor) bool {
	return actor.IsTeacher()
}

// CanManageCourse allows updates and deletes only by the owning teacher.
func CanManageCourse(actor Actor, course models.Course) bool {
	return course.IsOwnedBy(actor.ID)
}

// CanReadCourse allows any authenticated actor to view a course.
func CanReadCourse(actor Actor) bool {
	return actor.ID != 0
}

// CanEnroll allows only students to enroll in or leave courses.
func CanEnroll(actor Actor) bool {
	return actor.IsStudent()
}

// CanListStudents restricts the course roster to the owning teacher.
func CanListStudents(actor Actor, course models.Course) bool {
	return course.IsOwnedBy(actor.ID)
}

// CanManageAssignment allows assignment writes only by the owning course's teacher.
func CanManageAssignment(actor Actor, course models.Course) bool {
	return course.IsOwnedBy(actor.ID)
}

// CanReadAssignment allows the course teacher and enrolled students to view an
// assignment.
func CanReadAssignment(actor Actor, course models.Course, enrolled bool) bool {
	if course.IsOwnedBy(actor.ID) {
		return true
	}
	return actor.IsStudent() && enrolled
}

// CanSubmit allows enrolled students, never the teacher, to create a submission.
func CanSubmit(actor Actor, course models.Course, enrolled bool) bool {
	if course.IsOwnedBy(actor.ID) {
		return false
	}
	return actor.IsStudent() && enrolled
}

// CanReadSubmission allows the submitting student and the course teacher.
func CanReadSubmission(actor Actor, submission models.Submission, course models.Course) bool {
	if course.IsOwnedBy(actor.ID) {
		return true
	}
	return submission.StudentID == actor.ID
}

// CanReviewSubmission restricts review to the owning course's teacher.
func CanReviewSubmission(actor Actor, course models.Course) bool {
	return course.IsOwnedBy(actor.ID)
}
