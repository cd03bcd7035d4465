package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const defaultLimit = 10

type PaginationParams struct {
	Skip  int
	Limit int
}

// ParsePagination reads skip/limit query params. The default limit is 10 and
// there is deliberately no upper bound on limit.
func ParsePagination(c *fiber.Ctx) PaginationParams {
	skip := parseIntDefault(c.Query("skip"), 0)
	limit := parseIntDefault(c.Query("limit"), defaultLimit)

	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = defaultLimit
	}

	return PaginationParams{Skip: skip, Limit: limit}
}

func ApplyPagination(db *gorm.DB, p PaginationParams) *gorm.DB {
	return db.Offset(p.Skip).Limit(p.Limit)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
