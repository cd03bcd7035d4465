package models

import "github.com/google/uuid"

type SharePermission string

const (
	SharePermissionRead  SharePermission = "read"
	SharePermissionWrite SharePermission = "write"
)

// DocumentShare grants a non-owner user access to a document. The composite
// unique index is the backstop for concurrent duplicate grants: the handler's
// existence check is only a fast path, the index violation is authoritative.
type DocumentShare struct {
	BaseModel
	DocumentID uuid.UUID       `json:"documentID" gorm:"type:uuid;not null;uniqueIndex:idx_document_shares_document_user"`
	UserID     uuid.UUID       `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_document_shares_document_user"`
	Permission SharePermission `json:"permission" gorm:"type:varchar(20);not null;default:'read'"`

	Document Document `json:"document,omitempty" gorm:"foreignKey:DocumentID;references:ID"`
	User     User     `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (DocumentShare) TableName() string {
	return "document_shares"
}
