package models

// Comment is a note left by a user on a task. Only the author (or an
// administrator) may edit or remove it.
type Comment struct {
	BaseModel

	TaskID string `gorm:"type:uuid;not null;index" json:"task_id"`
	Task   Task   `gorm:"foreignKey:TaskID" json:"-"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`

	Text string `gorm:"not null" json:"text"`
}
