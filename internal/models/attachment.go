package models

// Attachment records a file stored in the object store for a task.
// The binary content lives behind storage.FileStore; only the key and
// descriptive metadata are persisted here.
type Attachment struct {
	BaseModel

	TaskID string `gorm:"type:uuid;not null;index" json:"task_id"`
	Task   Task   `gorm:"foreignKey:TaskID" json:"-"`

	StorageKey string `gorm:"uniqueIndex;not null" json:"-"`
	Filename   string `gorm:"not null" json:"filename"`
	Size       int64  `json:"size"`

	UploadedByID string `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	UploadedBy   User   `gorm:"foreignKey:UploadedByID" json:"uploaded_by"`
}
