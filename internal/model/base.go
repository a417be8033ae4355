package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 不带软删除：用户与题目的删除需要触发外键级联
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func GenerateUUID() string {
	return uuid.New().String()
}
