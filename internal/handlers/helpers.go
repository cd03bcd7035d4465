package handlers

import (
	"strings"
	"time"

	"github.com/docman/backend/internal/models"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so user input matches
// literally. Queries using it must carry an ESCAPE '\' clause.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

func isValidSharePermission(value string) bool {
	switch models.SharePermission(strings.ToLower(strings.TrimSpace(value))) {
	case models.SharePermissionRead, models.SharePermissionWrite:
		return true
	default:
		return false
	}
}

// parseTimestamp accepts RFC 3339 or a bare date, the two shapes clients
// send for search date bounds.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
