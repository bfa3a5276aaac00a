package models

// UserRole defines the global role assigned to a user account.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User describes a platform account identified by its email address.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Role UserRole `gorm:"type:varchar(16);not null;default:USER" json:"role"`

	Memberships []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
}

// IsAdmin reports whether the user holds the global administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
