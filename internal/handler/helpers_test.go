package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-go-api/internal/cache"
	"github.com/edutrack/edutrack-go-api/internal/config"
	"github.com/edutrack/edutrack-go-api/internal/dto"
	"github.com/edutrack/edutrack-go-api/internal/handler"
	"github.com/edutrack/edutrack-go-api/internal/middleware"
	"github.com/edutrack/edutrack-go-api/internal/models"
	"github.com/edutrack/edutrack-go-api/internal/repository"
	"github.com/edutrack/edutrack-go-api/internal/router"
	"github.com/edutrack/edutrack-go-api/internal/service"
	"github.com/edutrack/edutrack-go-api/internal/token"
)

const testJWTSecret = "access-secret"

type handlerTestUploader struct{}

func (u *handlerTestUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://files.test/" + name, nil
}

// setupApp builds the full HTTP stack on an in-memory database so tests can
// exercise routes exactly the way clients do.
func setupApp(t *testing.T) *fiber.App {
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
		&models.ActivityLog{},
	))

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	issuer := token.NewIssuer(testJWTSecret, "refresh-secret", 15*time.Minute, 168*time.Hour)
	invalidator := cache.NewInvalidator(client, logger)
	uploader := &handlerTestUploader{}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, issuer, validate, logger)
	userService := service.NewUserService(userRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, userRepo, validate, invalidator, client, time.Minute, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, userRepo, validate, invalidator, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, enrollmentRepo, userRepo, uploader, validate, invalidator, activityService, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "EduTrack Test"}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		UserHandler:       handler.NewUserHandler(userService, authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, submissionService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:     middleware.JWTProtected(testJWTSecret),
	})

	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func authedRequest(t *testing.T, method, path string, payload interface{}, accessToken string) *http.Request {
	t.Helper()

	req := jsonRequest(t, method, path, payload)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return req
}

// registerAndLogin creates an account through the public auth endpoints and
// returns the user id with a valid access token.
func registerAndLogin(t *testing.T, app *fiber.App, username, role string) (uint, string) {
	t.Helper()

	password := "pw-" + username + "-123"
	registerResp, err := app.Test(jsonRequest(t, "POST", "/api/v1/auth/register", dto.RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  password,
		Password2: password,
		Role:      role,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, registerResp.StatusCode)

	var registered struct {
		Success bool             `json:"success"`
		Data    dto.UserResponse `json:"data"`
	}
	decodeResponse(t, registerResp, &registered)
	require.True(t, registered.Success)
	require.NotZero(t, registered.Data.ID)

	loginResp, err := app.Test(jsonRequest(t, "POST", "/api/v1/auth/login", dto.LoginRequest{
		Username: username,
		Password: password,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, loginResp.StatusCode)

	var tokens struct {
		Data dto.TokenResponse `json:"data"`
	}
	decodeResponse(t, loginResp, &tokens)
	require.NotEmpty(t, tokens.Data.AccessToken)

	return registered.Data.ID, tokens.Data.AccessToken
}

// createCourse creates a course as the given teacher and returns its slug.
func createCourse(t *testing.T, app *fiber.App, accessToken, title string) dto.CourseResponse {
	t.Helper()

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/courses", dto.CourseCreateRequest{
		Title:       title,
		Description: "Course about " + title,
	}, accessToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.CourseResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.NotZero(t, body.Data.ID)

	return body.Data
}

func enrollInCourse(t *testing.T, app *fiber.App, accessToken, slug string) {
	t.Helper()

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/courses/"+slug+"/enroll", nil, accessToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(t, resp.Body.Close())
}

func createAssignment(t *testing.T, app *fiber.App, accessToken string, payload dto.AssignmentCreateRequest) dto.AssignmentResponse {
	t.Helper()

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/assignments", payload, accessToken), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.NotZero(t, body.Data.ID)

	return body.Data
}
