package model

import (
	"time"
)

type UserRole string

const (
	RoleSeeker UserRole = "seeker"
	RoleAdmin  UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string     `gorm:"size:100;not null" json:"name"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      UserRole   `gorm:"size:20;default:'seeker'" json:"role"`
	Industry  string     `gorm:"size:100" json:"industry"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (User) TableName() string {
	return "users"
}
