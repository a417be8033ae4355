package model

import (
	"time"

	"gorm.io/gorm"
)

// ActivationToken 注册和重新激活时通过邮件发送的一次性凭证
type ActivationToken struct {
	Token     string    `gorm:"primaryKey;type:varchar(36)" json:"token"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t *ActivationToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Token == "" {
		t.Token = GenerateUUID()
	}
	return
}
