package model

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager || r == RoleAdmin
}

type UserProfile struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Email        string    `gorm:"column:email" json:"email"`
	FullName     string    `gorm:"column:full_name" json:"full_name"`
	Role         Role      `gorm:"column:role" json:"role"`
	DepartmentID *string   `gorm:"column:department_id;type:uuid" json:"department_id"`
	ManagerEmail *string   `gorm:"column:manager_email" json:"manager_email"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleEmployee
	}
	return nil
}
