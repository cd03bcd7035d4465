package models

type User struct {
	BaseModel
	Email        string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"type:text;not null"`
	FullName     string `json:"fullName" gorm:"type:varchar(255);not null"`
	IsActive     bool   `json:"isActive" gorm:"not null;default:true"`

	Documents      []Document      `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	SharesReceived []DocumentShare `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
