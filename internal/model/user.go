package model

import (
	"time"
)

// AccountState 由 IsActive 和 LastLogin 推导
type AccountState string

const (
	StateUnconfirmed AccountState = "unconfirmed"
	StateActive      AccountState = "active"
	StateDeactivated AccountState = "deactivated"
)

// swagger:model User
type User struct {
	BaseModel
	Username  string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	IsActive  bool       `gorm:"not null" json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

// DateJoined 注册时间
func (u *User) DateJoined() time.Time {
	return u.CreatedAt
}

func (u *User) State() AccountState {
	switch {
	case u.IsActive:
		return StateActive
	case u.LastLogin == nil:
		return StateUnconfirmed
	default:
		return StateDeactivated
	}
}
