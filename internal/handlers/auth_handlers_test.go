package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/docman/backend/internal/models"
	"gorm.io/gorm"
)

func TestRegister(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("creates user and hides password hash", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "a@x.com",
			"password": "password123",
			"fullName": "Alice Example",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)

		data := body["data"].(map[string]any)
		if data["email"] != "a@x.com" {
			t.Fatalf("expected email a@x.com, got %v", data["email"])
		}
		if data["id"] == nil || data["id"] == "" {
			t.Fatalf("expected generated id, got %v", data["id"])
		}
		if _, leaked := data["passwordHash"]; leaked {
			t.Fatal("password hash must not appear in the response")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "a@x.com",
			"password": "password123",
			"fullName": "Another Alice",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "email already registered")
	})

	t.Run("unique index backstops concurrent duplicates", func(t *testing.T) {
		dup := &models.User{Email: "a@x.com", PasswordHash: "x", FullName: "Dup", IsActive: true}
		if err := env.db.Create(dup).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
			t.Fatalf("expected gorm.ErrDuplicatedKey from the email index, got %v", err)
		}
	})

	t.Run("email match is case-sensitive as stored", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "A@x.com",
			"password": "password123",
			"fullName": "Upper Alice",
		}, nil)
		assertStatus(t, resp, http.StatusCreated)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "not-an-email",
			"password": "password123",
			"fullName": "No Email",
		}, nil)
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("rejects short password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "short@x.com",
			"password": "short",
			"fullName": "Short Password",
		}, nil)
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("rejects blank full name", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/v1/users", map[string]any{
			"email":    "noname@x.com",
			"password": "password123",
			"fullName": "   ",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "fullName is required")

		var count int64
		env.db.Model(&models.User{}).Where("email = ?", "noname@x.com").Count(&count)
		if count != 0 {
			t.Fatal("user with a blank name must not be persisted")
		}
	})
}

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := createTestUser(t, env.db, "login@x.com", "password123")

	t.Run("issues bearer token via form credentials", func(t *testing.T) {
		form := strings.NewReader("username=login@x.com&password=password123")
		resp := performRequest(t, env.app, http.MethodPost, "/api/v1/login/access-token", form, map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		})
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if data["token_type"] != "bearer" {
			t.Fatalf("expected token_type bearer, got %v", data["token_type"])
		}
		token, _ := data["access_token"].(string)
		if token == "" {
			t.Fatal("expected a non-empty access_token")
		}

		// The issued token must authenticate /me.
		meResp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, authHeaders(token))
		assertStatus(t, meResp, http.StatusOK)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		for _, creds := range []string{
			"username=login@x.com&password=wrongpass",
			"username=nobody@x.com&password=password123",
		} {
			resp := performRequest(t, env.app, http.MethodPost, "/api/v1/login/access-token", strings.NewReader(creds), map[string]string{
				"Content-Type": "application/x-www-form-urlencoded",
			})
			body := decodeJSONMap(t, resp)
			assertStatus(t, resp, http.StatusUnauthorized)
			assertEnvelopeError(t, body, "incorrect email or password")
		}
	})

	t.Run("inactive account gets the same generic rejection", func(t *testing.T) {
		if err := env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed deactivating user: %v", err)
		}
		t.Cleanup(func() {
			env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", true)
		})

		form := strings.NewReader("username=login@x.com&password=password123")
		resp := performRequest(t, env.app, http.MethodPost, "/api/v1/login/access-token", form, map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		})
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "incorrect email or password")
	})
}

func TestMe(t *testing.T) {
	env := setupTestEnv(t)
	user, token := createTestUser(t, env.db, "me@x.com", "password123")

	t.Run("returns the authenticated profile", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if data["id"] != user.ID.String() {
			t.Fatalf("expected id %s, got %v", user.ID, data["id"])
		}
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, authHeaders("not-a-jwt"))
		assertStatus(t, resp, http.StatusUnauthorized)
	})

	t.Run("scheme without a space is rejected", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, map[string]string{
			"Authorization": "Bearer" + token,
		})
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid authorization format")
	})

	t.Run("bare scheme is rejected", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/v1/me", nil, map[string]string{
			"Authorization": "Bearer ",
		})
		assertStatus(t, resp, http.StatusUnauthorized)
	})

	t.Run("partial profile update", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/v1/me", map[string]any{
			"fullName": "Renamed User",
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if data["fullName"] != "Renamed User" {
			t.Fatalf("expected updated fullName, got %v", data["fullName"])
		}
		if data["email"] != "me@x.com" {
			t.Fatalf("email must be untouched, got %v", data["email"])
		}
	})
}

func TestChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "pw@x.com", "password123")

	t.Run("rejects wrong old password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/v1/password", map[string]any{
			"oldPassword": "wrong",
			"newPassword": "newpassword1",
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusBadRequest)
	})

	t.Run("rotates the password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/v1/password", map[string]any{
			"oldPassword": "password123",
			"newPassword": "newpassword1",
		}, authHeaders(token))
		assertStatus(t, resp, http.StatusOK)

		form := strings.NewReader("username=pw@x.com&password=newpassword1")
		loginResp := performRequest(t, env.app, http.MethodPost, "/api/v1/login/access-token", form, map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
		})
		assertStatus(t, loginResp, http.StatusOK)
	})
}
