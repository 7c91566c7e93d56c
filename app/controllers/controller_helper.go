package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// jsonError writes the uniform API error shape: a stable machine-readable
// code plus a human message.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

// getPagination reads page/limit query params with sane bounds.
func getPagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", 25)
	if limit < 1 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}
