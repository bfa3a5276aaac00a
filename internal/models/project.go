package models

import "time"

// ProjectStatus tracks the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectInitiated  ProjectStatus = "INITIATED"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
)

// Project is the unit of scoped access control. Membership rows grant users
// a per-project access level.
type Project struct {
	BaseModel

	Name        string        `gorm:"uniqueIndex;not null" json:"name"`
	Description string        `json:"description"`
	StartDate   time.Time     `gorm:"not null" json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
	Status      ProjectStatus `gorm:"type:varchar(16);not null" json:"status"`

	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}
