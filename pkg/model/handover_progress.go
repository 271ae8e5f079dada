package model

import (
	"time"

	"gorm.io/gorm"
)

type HandoverProgress struct {
	ID          string     `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	HandoverID  string     `gorm:"column:handover_id;type:uuid" json:"handover_id"`
	TaskKey     string     `gorm:"column:task_key" json:"task_key"`
	Title       string     `gorm:"column:title" json:"title"`
	Position    int        `gorm:"column:position" json:"position"`
	IsCompleted bool       `gorm:"column:is_completed" json:"is_completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CompletedBy *string    `gorm:"column:completed_by" json:"completed_by"`
	Notes       string     `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (HandoverProgress) TableName() string {
	return "handover_progress"
}

func (p *HandoverProgress) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// CompletionPercentage rounds completed/total to a whole percentage. A
// handover without tasks reports 0.
func CompletionPercentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (completed*100 + total/2) / total
}

// TaskSummary counts the progress rows of one handover.
type TaskSummary struct {
	HandoverID string `gorm:"column:handover_id" json:"-"`
	Total      int    `gorm:"column:total" json:"total"`
	Completed  int    `gorm:"column:completed" json:"completed"`
}
