package models

// AccessLevel is the per-project role granted by a membership.
// Levels form a strict total order: VIEWER < MEMBER < MANAGER.
type AccessLevel string

const (
	AccessViewer  AccessLevel = "VIEWER"
	AccessMember  AccessLevel = "MEMBER"
	AccessManager AccessLevel = "MANAGER"
)

// Rank returns the numeric position of the level in the hierarchy.
// Unknown levels rank below VIEWER.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessViewer:
		return 1
	case AccessMember:
		return 2
	case AccessManager:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the level is one of the defined constants.
func (l AccessLevel) Valid() bool {
	return l.Rank() > 0
}

// ProjectMember links a user to a project with an access level.
// A user has at most one membership per project.
type ProjectMember struct {
	BaseModel

	ProjectID string  `gorm:"type:uuid;not null;uniqueIndex:idx_project_user,priority:1" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"-"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_project_user,priority:2" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`

	Level AccessLevel `gorm:"type:varchar(16);not null" json:"level"`
}
