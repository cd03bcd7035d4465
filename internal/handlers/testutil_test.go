package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/docman/backend/internal/middleware"
	"github.com/docman/backend/internal/models"
	"github.com/docman/backend/internal/services"
	"github.com/docman/backend/pkg/logger"
	"github.com/docman/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
		utils.ConfigureEncryption("test-secret")
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.DocumentShare{},
		&models.MFAConfig{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	accessService := services.NewAccessService(db)

	authHandler := NewAuthHandler(db)
	usersHandler := NewUsersHandler(db)
	documentsHandler := NewDocumentsHandler(db, accessService, stubPresigner{})
	sharesHandler := NewSharesHandler(db, accessService)
	mfaHandler := NewMFAHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	api.Post("/users", authHandler.Register)
	api.Post("/login/access-token", authHandler.Login)
	api.Post("/login/mfa", mfaHandler.LoginMFA)
	api.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	api.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	api.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)
	api.Get("/users/search", authMiddleware.RequireAuth, usersHandler.Search)

	docRoutes := api.Group("/documents", authMiddleware.RequireAuth)
	docRoutes.Post("/", documentsHandler.Create)
	docRoutes.Get("/search/", documentsHandler.Search)
	docRoutes.Get("/:id/download-url", documentsHandler.DownloadURL)
	docRoutes.Get("/:id/shares", documentsHandler.ListShares)
	docRoutes.Get("/:id", documentsHandler.Get)
	docRoutes.Put("/:id", documentsHandler.Update)
	docRoutes.Delete("/:id", documentsHandler.Delete)

	shareRoutes := api.Group("/shares", authMiddleware.RequireAuth)
	shareRoutes.Post("/", sharesHandler.Create)
	shareRoutes.Delete("/:id", sharesHandler.Revoke)

	api.Get("/shared", authMiddleware.RequireAuth, sharesHandler.ListSharedWithMe)

	mfaRoutes := api.Group("/mfa", authMiddleware.RequireAuth)
	mfaRoutes.Get("/status", mfaHandler.Status)
	mfaRoutes.Post("/totp/setup", mfaHandler.SetupTOTP)
	mfaRoutes.Post("/totp/verify", mfaHandler.VerifyTOTP)
	mfaRoutes.Post("/totp/disable", mfaHandler.DisableTOTP)

	return &testEnv{app: app, db: db}
}

type stubPresigner struct{}

func (stubPresigner) PresignedDownloadURL(_ context.Context, objectKey string) (string, error) {
	return "https://storage.test/" + objectKey + "?signed", nil
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test User",
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestDocument(t *testing.T, db *gorm.DB, owner *models.User, title string, tags []string) *models.Document {
	t.Helper()

	doc := &models.Document{
		Title:    title,
		Tags:     tags,
		Location: "docs/" + title,
		OwnerID:  owner.ID,
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("failed creating test document: %v", err)
	}
	return doc
}

func shareTestDocument(t *testing.T, db *gorm.DB, doc *models.Document, recipient *models.User, permission models.SharePermission) *models.DocumentShare {
	t.Helper()

	share := &models.DocumentShare{
		DocumentID: doc.ID,
		UserID:     recipient.ID,
		Permission: permission,
	}
	if err := db.Create(share).Error; err != nil {
		t.Fatalf("failed creating test share: %v", err)
	}
	return share
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
