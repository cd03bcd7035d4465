package handlers

import (
	"net/http"
	"testing"
)

func TestUserSearch(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "finder@x.com", "password123")

	alice, _ := createTestUser(t, env.db, "alice@corp.com", "password123")
	env.db.Model(alice).Update("full_name", "Alice Anderson")
	inactive, _ := createTestUser(t, env.db, "ghost@corp.com", "password123")
	env.db.Model(inactive).Update("is_active", false)

	t.Run("matches email substring", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=alice", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		items := body["data"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected 1 match, got %d", len(items))
		}
		if items[0].(map[string]any)["email"] != "alice@corp.com" {
			t.Fatalf("wrong user matched: %v", items[0])
		}
	})

	t.Run("matches full name case-insensitively", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=ANDERSON", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		if items := body["data"].([]any); len(items) != 1 {
			t.Fatalf("expected 1 match, got %d", len(items))
		}
	})

	t.Run("inactive users are never listed", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=ghost", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		if items := body["data"].([]any); len(items) != 0 {
			t.Fatalf("inactive user leaked into search results: %v", items)
		}
	})

	t.Run("results never include password hashes", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=corp", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		for _, item := range body["data"].([]any) {
			if _, leaked := item.(map[string]any)["passwordHash"]; leaked {
				t.Fatal("password hash leaked")
			}
		}
	})

	t.Run("limit is capped", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=corp&limit=5000", nil, authHeaders(token))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/users/search?q=alice", nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
	})
}
