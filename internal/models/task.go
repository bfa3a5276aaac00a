package models

import "time"

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// TaskStatus tracks the progress of a task.
type TaskStatus string

const (
	TaskNotStarted TaskStatus = "NOT_STARTED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// Task belongs to a project and is assigned to exactly one user.
type Task struct {
	BaseModel

	Name        string       `gorm:"not null" json:"name"`
	Description string       `json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(8);not null" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(16);not null" json:"status"`
	DueDate     *time.Time   `gorm:"index" json:"due_date"`

	ProjectID string  `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"-"`

	AssigneeID string `gorm:"type:uuid;not null;index" json:"assignee_id"`
	Assignee   User   `gorm:"foreignKey:AssigneeID" json:"assignee"`

	Labels []Label `gorm:"many2many:task_labels;" json:"labels,omitempty"`
}
