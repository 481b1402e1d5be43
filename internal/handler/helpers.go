package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

// currentUserID returns the authenticated user's id bound by the JWT middleware.
func currentUserID(c *fiber.Ctx) (uint, error) {
	if id, ok := c.Locals("user_id").(uint); ok && id != 0 {
		return id, nil
	}
	return 0, errors.New("authentication required")
}

func queryBoolPtr(c *fiber.Ctx, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func queryUintPtr(c *fiber.Ctx, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil
	}
	value := uint(parsed)
	return &value
}
