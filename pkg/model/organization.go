package model

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

type Plant struct {
	ID             string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;type:uuid" json:"organization_id"`
	Name           string    `gorm:"column:name" json:"name"`
	Location       string    `gorm:"column:location" json:"location"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Plant) TableName() string {
	return "plants"
}

func (p *Plant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type Department struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	PlantID   string    `gorm:"column:plant_id;type:uuid" json:"plant_id"`
	Name      string    `gorm:"column:name" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

type Job struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	DepartmentID string    `gorm:"column:department_id;type:uuid" json:"department_id"`
	Title        string    `gorm:"column:title" json:"title"`
	Description  string    `gorm:"column:description" json:"description"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}
