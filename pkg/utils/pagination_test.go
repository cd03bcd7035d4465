package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func parsePaginationFor(t *testing.T, query string) PaginationParams {
	t.Helper()

	var got PaginationParams
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/?"+query, nil)
	if _, err := app.Test(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return got
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name  string
		query string
		skip  int
		limit int
	}{
		{"defaults", "", 0, 10},
		{"explicit window", "skip=20&limit=5", 20, 5},
		{"large limit is allowed", "limit=500", 0, 500},
		{"negative skip clamps to zero", "skip=-3", 0, 10},
		{"zero limit falls back", "limit=0", 0, 10},
		{"non-numeric values fall back", "skip=abc&limit=xyz", 0, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parsePaginationFor(t, tc.query)
			if got.Skip != tc.skip || got.Limit != tc.limit {
				t.Errorf("got skip=%d limit=%d, want skip=%d limit=%d", got.Skip, got.Limit, tc.skip, tc.limit)
			}
		})
	}
}
