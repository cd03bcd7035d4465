package services

import (
	"context"

	"github.com/docman/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessService decides what a user may do with a document. Decisions are
// evaluated fresh on every call; nothing is cached. Ownership always
// dominates: share rows never diminish an owner's rights.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// CanView reports whether the user owns the document or holds a share of any
// permission level.
func (a *AccessService) CanView(ctx context.Context, userID uuid.UUID, doc *models.Document) bool {
	if doc.OwnerID == userID {
		return true
	}
	return a.hasShare(ctx, userID, doc.ID, nil)
}

// CanWrite reports whether the user owns the document or holds a write share.
// A read-only share never satisfies it.
func (a *AccessService) CanWrite(ctx context.Context, userID uuid.UUID, doc *models.Document) bool {
	if doc.OwnerID == userID {
		return true
	}
	write := models.SharePermissionWrite
	return a.hasShare(ctx, userID, doc.ID, &write)
}

// CanDelete is owner-exclusive, regardless of any share permissions.
func (a *AccessService) CanDelete(ctx context.Context, userID uuid.UUID, doc *models.Document) bool {
	return doc.OwnerID == userID
}

// CanShare is owner-exclusive: only the owner grants or revokes access.
func (a *AccessService) CanShare(ctx context.Context, userID uuid.UUID, doc *models.Document) bool {
	return doc.OwnerID == userID
}

func (a *AccessService) hasShare(ctx context.Context, userID, documentID uuid.UUID, permission *models.SharePermission) bool {
	query := a.DB.WithContext(ctx).
		Model(&models.DocumentShare{}).
		Where("document_id = ? AND user_id = ?", documentID, userID)
	if permission != nil {
		query = query.Where("permission = ?", *permission)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
