package utils

import "github.com/gofiber/fiber/v2"

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// Listed wraps a search/listing page together with the pre-pagination total.
func Listed(c *fiber.Ctx, items interface{}, total int64, skip, limit int) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"skip":  skip,
			"limit": limit,
			"total": total,
		},
	})
}
