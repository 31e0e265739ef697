package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Name         string `json:"name"`
	Roles        []Role `gorm:"many2many:user_roles"     json:"roles,omitempty"`
}

type Role struct {
	ID          uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"uniqueIndex;not null"     json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

type Permission struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null"     json:"name"`
	Description string `json:"description"`
}

// RefreshToken is one row per issued refresh token. Rows are never deleted:
// rotation and logout only flip Revoked, so the table doubles as an audit
// trail of every session.
type RefreshToken struct {
	ID         uint      `gorm:"primaryKey"           json:"id"`
	JTI        string    `gorm:"uniqueIndex;not null" json:"jti"`
	TokenHash  string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID     uint      `gorm:"index;not null"       json:"user_id"`
	DeviceInfo string    `json:"device_info"`
	ExpiresAt  time.Time `gorm:"not null"             json:"expires_at"`
	Revoked    bool      `gorm:"default:false"        json:"revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

type Organization struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

type Project struct {
	ID             uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string        `gorm:"not null"                 json:"name"`
	Description    string        `json:"description"`
	OrganizationID uint          `gorm:"index"                    json:"organization_id"`
	Organization   *Organization `json:"organization,omitempty"`
	OwnerID        uint          `gorm:"index"                    json:"owner_id"`
	Owner          *User         `json:"owner,omitempty"`
	Boards         []Board       `json:"boards,omitempty"`
}

type Board struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string `gorm:"not null"                 json:"name"`
	ProjectID uint   `gorm:"index;not null"           json:"project_id"`
	Lists     []List `json:"lists,omitempty"`
}

type List struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null"                 json:"name"`
	BoardID  uint   `gorm:"index;not null"           json:"board_id"`
	Position int    `gorm:"not null;default:0"       json:"position"`
}

type Issue struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `json:"description"`
	ListID      uint      `gorm:"index;not null"           json:"list_id"`
	List        *List     `json:"list,omitempty"`
	AssigneeID  *uint     `gorm:"index"                    json:"assignee_id"`
	Assignee    *User     `json:"assignee,omitempty"`
	Position    int       `gorm:"not null;default:0"       json:"position"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Body      string    `gorm:"not null"                 json:"body"`
	IssueID   uint      `gorm:"index;not null"           json:"issue_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Action    string    `gorm:"index;not null"           json:"action"`
	UserID    uint      `gorm:"index"                    json:"user_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
