package handlers

import (
	"errors"
	"strings"

	"github.com/docman/backend/internal/middleware"
	"github.com/docman/backend/internal/models"
	"github.com/docman/backend/internal/services"
	"github.com/docman/backend/pkg/logger"
	"github.com/docman/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SharesHandler struct {
	DB     *gorm.DB
	Access *services.AccessService
}

func NewSharesHandler(db *gorm.DB, access *services.AccessService) *SharesHandler {
	return &SharesHandler{DB: db, Access: access}
}

type createShareRequest struct {
	DocumentID uuid.UUID              `json:"documentID"`
	UserID     uuid.UUID              `json:"userID"`
	Permission models.SharePermission `json:"permission"`
}

// Create grants a user access to a document. The existence check is a fast
// path; the unique index on (document_id, user_id) is the authoritative
// guard against concurrent duplicate grants.
func (h *SharesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createShareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Permission == "" {
		req.Permission = models.SharePermissionRead
	}
	if !isValidSharePermission(string(req.Permission)) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid permission")
	}
	req.Permission = models.SharePermission(strings.ToLower(strings.TrimSpace(string(req.Permission))))

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", req.DocumentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanShare(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "only owners can share documents")
	}

	if req.UserID == currentUser.ID {
		return utils.Error(c, fiber.StatusBadRequest, "cannot share with yourself")
	}

	var target models.User
	if err := h.DB.First(&target, "id = ?", req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "target user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading target user")
	}

	var existingCount int64
	if err := h.DB.Model(&models.DocumentShare{}).
		Where("document_id = ? AND user_id = ?", doc.ID, req.UserID).
		Count(&existingCount).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing share")
	}
	if existingCount > 0 {
		return utils.Error(c, fiber.StatusConflict, "document already shared with this user")
	}

	share := models.DocumentShare{
		DocumentID: doc.ID,
		UserID:     req.UserID,
		Permission: req.Permission,
	}

	if err := h.DB.Create(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Error(c, fiber.StatusConflict, "document already shared with this user")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating share")
	}

	logger.InfoWithUser(currentUser.ID.String(), "document_shared", map[string]interface{}{
		"document_id":    doc.ID.String(),
		"shared_with":    req.UserID.String(),
		"permission":     string(req.Permission),
		"share_id":       share.ID.String(),
		"document_title": doc.Title,
	})

	return utils.Success(c, fiber.StatusCreated, share)
}

// Revoke removes a grant. Only the owner of the referenced document may do
// so; recipients cannot drop their own access through this endpoint.
func (h *SharesHandler) Revoke(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shareID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid share id")
	}

	var share models.DocumentShare
	if err := h.DB.First(&share, "id = ?", shareID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "share not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading share")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", share.DocumentID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanShare(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "only owners can revoke access")
	}

	if err := h.DB.Delete(&models.DocumentShare{}, "id = ?", share.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting share")
	}

	logger.InfoWithUser(currentUser.ID.String(), "share_revoked", map[string]interface{}{
		"share_id":    share.ID.String(),
		"document_id": share.DocumentID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share revoked"})
}

// ListSharedWithMe pages through documents the caller can see purely via
// shares.
func (h *SharesHandler) ListSharedWithMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shareSubquery := h.DB.
		Model(&models.DocumentShare{}).
		Select("document_id").
		Where("user_id = ?", currentUser.ID)

	query := h.DB.Model(&models.Document{}).
		Where("id IN (?)", shareSubquery).
		Where("owner_id != ?", currentUser.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting shared documents")
	}

	p := utils.ParsePagination(c)

	docs := []models.Document{}
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&docs).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading shared documents")
	}

	return utils.Listed(c, docs, total, p.Skip, p.Limit)
}
