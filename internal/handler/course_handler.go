package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edutrack/edutrack-go-api/internal/dto"
	"github.com/edutrack/edutrack-go-api/internal/repository"
	"github.com/edutrack/edutrack-go-api/internal/service"
	"github.com/edutrack/edutrack-go-api/internal/utils"
)

// CourseHandler wires course and enrollment HTTP routes.
type CourseHandler struct {
	service service.CourseService
	logger  zerolog.Logger
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(service service.CourseService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service: service,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches course endpoints to the router group.
func (h *CourseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:slug", h.get)
	router.Put("/:slug", h.update)
	router.Patch("/:slug", h.update)
	router.Delete("/:slug", h.delete)
	router.Post("/:slug/enroll", h.enroll)
	router.Post("/:slug/unenroll", h.unenroll)
	router.Get("/:slug/students", h.listStudents)
}

// RegisterEnrollments attaches the flat enrollment listing.
func (h *CourseHandler) RegisterEnrollments(router fiber.Router) {
	router.Get("", h.listEnrollments)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	filter := repository.CourseFilter{
		Search:   c.Query("search"),
		IsActive: queryBoolPtr(c, "is_active"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page"),
		PageSize: c.QueryInt("page_size"),
	}

	courses, err := h.service.List(c.Context(), userID, filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.Context(), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "course created", course)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	course, err := h.service.GetBySlug(c.Context(), userID, c.Params("slug"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Update(c.Context(), userID, c.Params("slug"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Delete(c.Context(), userID, c.Params("slug")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course deleted", fiber.Map{"slug": c.Params("slug")})
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	enrollment, err := h.service.Enroll(c.Context(), userID, c.Params("slug"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "enrolled", enrollment)
}

func (h *CourseHandler) unenroll(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	if err := h.service.Unenroll(c.Context(), userID, c.Params("slug")); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "unenrolled", nil)
}

func (h *CourseHandler) listStudents(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	students, err := h.service.ListStudents(c.Context(), userID, c.Params("slug"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *CourseHandler) listEnrollments(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	enrollments, err := h.service.ListEnrollments(c.Context(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled in this course")
	case errors.Is(err, service.ErrPermissionDenied):
		return utils.SendError(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusUnauthorized, "unknown user")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
