package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docman/backend/internal/config"
	"github.com/docman/backend/internal/database"
	"github.com/docman/backend/internal/handlers"
	"github.com/docman/backend/internal/middleware"
	"github.com/docman/backend/internal/services"
	"github.com/docman/backend/internal/storage"
	"github.com/docman/backend/pkg/logger"
	"github.com/docman/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
	utils.ConfigureEncryption(cfg.JWT.Secret)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	accessService := services.NewAccessService(db)

	authHandler := handlers.NewAuthHandler(db)
	usersHandler := handlers.NewUsersHandler(db)
	documentsHandler := handlers.NewDocumentsHandler(db, accessService, storageClient)
	sharesHandler := handlers.NewSharesHandler(db, accessService)
	mfaHandler := handlers.NewMFAHandler(db)

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
