package models

import "github.com/google/uuid"

type Document struct {
	BaseModel
	Title       string    `json:"title" gorm:"type:varchar(255);not null;index"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Tags        []string  `json:"tags,omitempty" gorm:"serializer:json;type:text"`
	Location    string    `json:"location" gorm:"type:text;not null"`
	OwnerID     uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`

	Owner  User            `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Shares []DocumentShare `json:"-" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}
