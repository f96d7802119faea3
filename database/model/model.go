// Package model defines the persisted entities of blogpanel.
package model

import (
	"time"
)

// Role is a security role. Roles are totally ordered: a role grants
// every role ranked below it.
type Role string

const (
	RoleNone       Role = ""
	RoleUser       Role = "ROLE_USER"
	RoleModerator  Role = "ROLE_MODERATOR"
	RoleEditor     Role = "ROLE_EDITOR"
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleSuperAdmin Role = "ROLE_SUPER_ADMIN"
)

// Roles lists every role from lowest to highest.
var Roles = []Role{RoleUser, RoleModerator, RoleEditor, RoleAdmin, RoleSuperAdmin}

var roleLabels = map[Role]string{
	RoleUser:       "User",
	RoleModerator:  "Moderator",
	RoleEditor:     "Editor",
	RoleAdmin:      "Admin",
	RoleSuperAdmin: "Super Admin",
}

// Rank is the 1-based position of r in Roles, 0 for unknown roles.
func (r Role) Rank() int {
	for i, role := range Roles {
		if role == r {
			return i + 1
		}
	}
	return 0
}

// IsValid reports whether r is one of Roles.
func (r Role) IsValid() bool {
	return r.Rank() > 0
}

// IsGranted reports whether r is at least the required role.
func (r Role) IsGranted(required Role) bool {
	if required == RoleNone {
		return true
	}
	return r.Rank() > 0 && r.Rank() >= required.Rank()
}

func (r Role) Label() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return string(r)
}

type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"size:180;uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"size:180;uniqueIndex;not null"`
	Password     string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"size:32"`
	Locale       string    `json:"locale" gorm:"size:16"`
	IsVerified   bool      `json:"isVerified"`
	IsRestricted bool      `json:"isRestricted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsGranted reports whether the user holds at least the required role.
func (u *User) IsGranted(required Role) bool {
	return u != nil && u.Role.IsGranted(required)
}

type Post struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Body      string    `json:"body" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Comment struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	PostId    int       `json:"postId" gorm:"index;not null"`
	AuthorId  int       `json:"authorId" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Post   *Post `json:"post,omitempty" gorm:"foreignKey:PostId;constraint:OnDelete:CASCADE"`
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorId;constraint:OnDelete:CASCADE"`
}

type File struct {
	Id          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsPublished bool      `json:"isPublished"`
	RoleAccess  Role      `json:"roleAccess" gorm:"size:32"`
	Private     bool      `json:"private"`
	StorageKey  string    `json:"-" gorm:"size:64;uniqueIndex"`
	ContentType string    `json:"contentType" gorm:"size:255"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VisibleTo reports whether viewer (nil for anonymous) may download the file.
// Admins see everything; everyone else needs a published, non-private
// file and the role named by RoleAccess.
func (f *File) VisibleTo(viewer *User) bool {
	if viewer.IsGranted(RoleAdmin) {
		return true
	}
	if !f.IsPublished || f.Private {
		return false
	}
	if f.RoleAccess == RoleNone {
		return true
	}
	return viewer.IsGranted(f.RoleAccess)
}

type AuditLog struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int       `json:"userId" gorm:"index"`
	Username   string    `json:"username"`
	Action     string    `json:"action" gorm:"size:32"`
	Resource   string    `json:"resource" gorm:"size:32"`
	ResourceId int       `json:"resourceId"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"userAgent"`
	Details    string    `json:"details" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
}

// All returns every entity migrated on startup.
func All() []any {
	return []any{
		&User{},
		&Post{},
		&Comment{},
		&File{},
		&AuditLog{},
	}
}
