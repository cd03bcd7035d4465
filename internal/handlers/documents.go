package handlers

import (
	"context"
	"strings"

	"github.com/docman/backend/internal/middleware"
	"github.com/docman/backend/internal/models"
	"github.com/docman/backend/internal/services"
	"github.com/docman/backend/pkg/logger"
	"github.com/docman/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Presigner turns a bare object key into a time-limited download URL.
type Presigner interface {
	PresignedDownloadURL(ctx context.Context, objectKey string) (string, error)
}

type DocumentsHandler struct {
	DB      *gorm.DB
	Access  *services.AccessService
	Storage Presigner
}

func NewDocumentsHandler(db *gorm.DB, access *services.AccessService, storage Presigner) *DocumentsHandler {
	return &DocumentsHandler{DB: db, Access: access, Storage: storage}
}

type createDocumentRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
}

func (h *DocumentsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}
	if req.Location == "" {
		return utils.Error(c, fiber.StatusBadRequest, "location is required")
	}

	doc := models.Document{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Location:    req.Location,
		OwnerID:     currentUser.ID,
	}

	if err := h.DB.Create(&doc).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating document")
	}

	logger.InfoWithUser(currentUser.ID.String(), "document_created", map[string]interface{}{
		"document_id": doc.ID.String(),
		"title":       doc.Title,
	})

	return utils.Success(c, fiber.StatusCreated, doc)
}

// Get resolves lookup before authorization: a missing row is 404 for
// everyone, an existing row the caller may not view is 403. Document
// existence is not hidden from authenticated users, only its content.
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	docID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanView(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "not enough permissions")
	}

	return utils.Success(c, fiber.StatusOK, doc)
}

type updateDocumentRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Location    *string   `json:"location"`
}

// Update applies partial semantics over PUT: only fields present in the body
// change, everything else is left untouched. Last writer wins under
// concurrent updates.
func (h *DocumentsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	docID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanWrite(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "not enough permissions")
	}

	var req updateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		doc.Title = title
	}
	if req.Description != nil {
		doc.Description = req.Description
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			return utils.Error(c, fiber.StatusBadRequest, "location cannot be empty")
		}
		doc.Location = location
	}

	if err := h.DB.Save(&doc).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating document")
	}

	return utils.Success(c, fiber.StatusOK, doc)
}

// Delete is owner-only. The row and its shares go in one transaction; the
// response carries the pre-deletion snapshot.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	docID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanDelete(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "only owners can delete documents")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.DocumentShare{}, "document_id = ?", doc.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", doc.ID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting document")
	}

	logger.InfoWithUser(currentUser.ID.String(), "document_deleted", map[string]interface{}{
		"document_id": doc.ID.String(),
		"title":       doc.Title,
	})

	return utils.Success(c, fiber.StatusOK, doc)
}

// Search lists documents visible to the caller: their own plus any shared
// with them. All filters AND together; the total reflects the filtered set
// before pagination.
func (h *DocumentsHandler) Search(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	shareSubquery := h.DB.
		Model(&models.DocumentShare{}).
		Select("document_id").
		Where("user_id = ?", currentUser.ID)

	query := h.DB.Model(&models.Document{}).
		Where("owner_id = ? OR id IN (?)", currentUser.ID, shareSubquery)

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		searchValue := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchValue, searchValue)
	}

	// Every requested tag must be present; tags are stored as a JSON array
	// so element containment is a quoted-substring match. Tag values match
	// literally, never as LIKE patterns.
	for _, raw := range c.Context().QueryArgs().PeekMulti("tag") {
		tag := strings.TrimSpace(string(raw))
		if tag == "" {
			continue
		}
		query = query.Where(`tags LIKE ? ESCAPE '\'`, `%"`+escapeLike(tag)+`"%`)
	}

	if raw := strings.TrimSpace(c.Query("start_date")); raw != "" {
		start, err := parseTimestamp(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid start_date")
		}
		query = query.Where("created_at >= ?", start)
	}
	if raw := strings.TrimSpace(c.Query("end_date")); raw != "" {
		end, err := parseTimestamp(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid end_date")
		}
		query = query.Where("created_at <= ?", end)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting documents")
	}

	p := utils.ParsePagination(c)

	docs := []models.Document{}
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&docs).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed searching documents")
	}

	return utils.Listed(c, docs, total, p.Skip, p.Limit)
}

// DownloadURL presigns the document's location when it is a bare object key.
// Locations that already carry a scheme are returned untouched; the core
// never dereferences them.
func (h *DocumentsHandler) DownloadURL(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	docID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanView(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "not enough permissions")
	}

	if strings.Contains(doc.Location, "://") {
		return utils.Success(c, fiber.StatusOK, fiber.Map{"url": doc.Location})
	}

	if h.Storage == nil {
		return utils.Error(c, fiber.StatusInternalServerError, "object storage not configured")
	}

	url, err := h.Storage.PresignedDownloadURL(c.Context(), doc.Location)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed presigning download URL")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

// ListShares shows the owner the grants on a document.
func (h *DocumentsHandler) ListShares(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	docID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid document id")
	}

	var doc models.Document
	if err := h.DB.First(&doc, "id = ?", docID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "document not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading document")
	}

	if !h.Access.CanShare(c.Context(), currentUser.ID, &doc) {
		return utils.Error(c, fiber.StatusForbidden, "only owners can list shares")
	}

	shares := []models.DocumentShare{}
	if err := h.DB.Preload("User").Where("document_id = ?", doc.ID).Order("created_at ASC").Find(&shares).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading shares")
	}

	return utils.Success(c, fiber.StatusOK, shares)
}
