package models

// Label is a global tag that can be attached to any task.
type Label struct {
	BaseModel

	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Color string `json:"color"`
}
