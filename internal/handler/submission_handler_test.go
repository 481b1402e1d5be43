package handler_test

import (
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-go-api/internal/dto"
)

func submitContent(t *testing.T, app *fiber.App, accessToken string, assignmentID uint, content string) dto.SubmissionResponse {
	t.Helper()

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/assignments/"+strconv.FormatUint(uint64(assignmentID), 10)+"/submit", dto.SubmissionCreateRequest{
		Content: content,
	}, accessToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	return body.Data
}

func TestSubmissionHandlerListScoping(t *testing.T) {
	app := setupApp(t)

	_, teacherToken := registerAndLogin(t, app, "alice", "teacher")
	_, bobToken := registerAndLogin(t, app, "bob", "student")
	_, carolToken := registerAndLogin(t, app, "carol", "student")

	course := createCourse(t, app, teacherToken, "Biology")
	enrollInCourse(t, app, bobToken, course.Slug)
	enrollInCourse(t, app, carolToken, course.Slug)

	assignment := createAssignment(t, app, teacherToken, dto.AssignmentCreateRequest{
		Title:    "Lab Report",
		CourseID: course.ID,
	})

	submitContent(t, app, bobToken, assignment.ID, "Bob's report")
	submitContent(t, app, carolToken, assignment.ID, "Carol's report")

	teacherList, err := app.Test(authedRequest(t, "GET", "/api/v1/submissions", nil, teacherToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, teacherList.StatusCode)

	var teacherBody struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, teacherList, &teacherBody)
	require.Len(t, teacherBody.Data, 2)

	bobList, err := app.Test(authedRequest(t, "GET", "/api/v1/submissions", nil, bobToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, bobList.StatusCode)

	var bobBody struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, bobList, &bobBody)
	require.Len(t, bobBody.Data, 1)
	require.Equal(t, "bob", bobBody.Data[0].Student.Username)
}

func TestSubmissionHandlerClassmateCannotRead(t *testing.T) {
	app := setupApp(t)

	_, teacherToken := registerAndLogin(t, app, "alice", "teacher")
	_, bobToken := registerAndLogin(t, app, "bob", "student")
	_, carolToken := registerAndLogin(t, app, "carol", "student")

	course := createCourse(t, app, teacherToken, "Biology")
	enrollInCourse(t, app, bobToken, course.Slug)
	enrollInCourse(t, app, carolToken, course.Slug)

	assignment := createAssignment(t, app, teacherToken, dto.AssignmentCreateRequest{
		Title:    "Lab Report",
		CourseID: course.ID,
	})

	submission := submitContent(t, app, bobToken, assignment.ID, "Bob's report")

	resp, err := app.Test(authedRequest(t, "GET", "/api/v1/submissions/"+strconv.FormatUint(uint64(submission.ID), 10), nil, carolToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func TestSubmissionHandlerStatusFilter(t *testing.T) {
	app := setupApp(t)

	_, teacherToken := registerAndLogin(t, app, "alice", "teacher")
	_, bobToken := registerAndLogin(t, app, "bob", "student")
	_, carolToken := registerAndLogin(t, app, "carol", "student")

	course := createCourse(t, app, teacherToken, "Biology")
	enrollInCourse(t, app, bobToken, course.Slug)
	enrollInCourse(t, app, carolToken, course.Slug)

	assignment := createAssignment(t, app, teacherToken, dto.AssignmentCreateRequest{
		Title:    "Lab Report",
		CourseID: course.ID,
	})

	reviewedSubmission := submitContent(t, app, bobToken, assignment.ID, "Bob's report")
	submitContent(t, app, carolToken, assignment.ID, "Carol's report")

	reviewResp, err := app.Test(authedRequest(t, "PATCH", "/api/v1/submissions/"+strconv.FormatUint(uint64(reviewedSubmission.ID), 10)+"/review", dto.SubmissionReviewRequest{
		Feedback: "Good start.",
	}, teacherToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, reviewResp.StatusCode)
	require.NoError(t, reviewResp.Body.Close())

	pendingResp, err := app.Test(authedRequest(t, "GET", "/api/v1/submissions?status=pending", nil, teacherToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, pendingResp.StatusCode)

	var pending struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, pendingResp, &pending)
	require.Len(t, pending.Data, 1)
	require.Equal(t, "carol", pending.Data[0].Student.Username)
}
