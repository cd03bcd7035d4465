package models

import (
	"time"

	"github.com/google/uuid"
)

// MFAConfig stores a user's TOTP enrolment. TOTPSecret is AES-GCM encrypted
// at rest; it never leaves the server after the initial provisioning response.
type MFAConfig struct {
	BaseModel
	UserID         uuid.UUID  `json:"userID" gorm:"type:uuid;not null;uniqueIndex"`
	TOTPSecret     string     `json:"-" gorm:"type:text"`
	TOTPEnabled    bool       `json:"totpEnabled" gorm:"not null;default:false"`
	TOTPVerifiedAt *time.Time `json:"totpVerifiedAt,omitempty"`
}
