package models

type RoleName string

const (
	RoleUser  RoleName = "USER"
	RoleAdmin RoleName = "ADMIN"
)

func (r RoleName) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User holds the login handle with its "@" prefix, so it can never collide
// with a display name.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	FirstName    string `gorm:"not null"                 json:"first_name"`
	LastName     string `gorm:"not null"                 json:"last_name"`
	AvatarURL    string `json:"avatar_url"`
}

type Role struct {
	ID   uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name RoleName `gorm:"unique;not null"          json:"name"`
}

// UserRole links a user to its single effective role. The unique index on
// UserID keeps authorization decisions unambiguous.
type UserRole struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null"     json:"user_id"`
	RoleID uint `gorm:"not null"                 json:"role_id"`
}

type ProfileImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	URL       string `gorm:"index;not null"           json:"url"`
	AuthorID  uint   `gorm:"not null"                 json:"author_id"`
	PostID    *uint  `json:"post_id"`
	CommentID *uint  `json:"comment_id"`
}
