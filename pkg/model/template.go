package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TemplateTask is one step of a handover template.
type TemplateTask struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TaskList is stored as a jsonb array.
type TaskList []TemplateTask

// Scan implements sql.Scanner.
func (l *TaskList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = TaskList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TaskList", value)
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer.
func (l TaskList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

type Template struct {
	ID           string    `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	JobID        *string   `gorm:"column:job_id;type:uuid" json:"job_id"`
	Name         string    `gorm:"column:name" json:"name"`
	Description  string    `gorm:"column:description" json:"description"`
	Instructions string    `gorm:"column:instructions" json:"instructions"`
	Tasks        TaskList  `gorm:"column:tasks;type:jsonb" json:"tasks"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// Progress returns the initial progress rows for a handover created from
// this template.
func (t *Template) Progress(handoverID string) []HandoverProgress {
	rows := make([]HandoverProgress, 0, len(t.Tasks))
	for i, task := range t.Tasks {
		key := task.Key
		if key == "" {
			key = fmt.Sprintf("task-%d", i+1)
		}
		rows = append(rows, HandoverProgress{
			HandoverID: handoverID,
			TaskKey:    key,
			Title:      task.Title,
			Position:   i,
		})
	}
	return rows
}
