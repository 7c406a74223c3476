package models

import "time"

// UserRole represents the closed set of portal roles. Lower rank means more
// privilege.
type UserRole string

const (
	RoleSuperUser UserRole = "SUPER_USER"
	RoleAdmin     UserRole = "ADMIN"
	RoleTeacher   UserRole = "TEACHER"
	RoleStudent   UserRole = "STUDENT"
)

var roleRank = map[UserRole]int{
	RoleSuperUser: 0,
	RoleAdmin:     1,
	RoleTeacher:   2,
	RoleStudent:   3,
}

// roleCapabilities is the static capability table. Each role maps to the set
// of role-equivalent rights it confers.
var roleCapabilities = map[UserRole][]UserRole{
	RoleSuperUser: {RoleSuperUser, RoleAdmin, RoleTeacher, RoleStudent},
	RoleAdmin:     {RoleAdmin, RoleStudent},
	RoleTeacher:   {RoleTeacher, RoleStudent},
	RoleStudent:   {RoleStudent},
}

// Valid reports whether the role belongs to the closed enum.
func (r UserRole) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Capabilities returns the capability set conferred by the role.
func (r UserRole) Capabilities() []UserRole {
	return roleCapabilities[r]
}

// HasCapability reports whether the role confers the given capability tag.
func (r UserRole) HasCapability(tag UserRole) bool {
	for _, c := range roleCapabilities[r] {
		if c == tag {
			return true
		}
	}
	return false
}

// HasPermissionOver reports whether r ranks at or above other in the
// privilege order SUPER_USER < ADMIN < TEACHER < STUDENT.
func (r UserRole) HasPermissionOver(other UserRole) bool {
	ra, ok := roleRank[r]
	if !ok {
		return false
	}
	rb, ok := roleRank[other]
	if !ok {
		return false
	}
	return ra <= rb
}

// IsAdmin reports admin-level privilege.
func (r UserRole) IsAdmin() bool {
	return r == RoleSuperUser || r == RoleAdmin
}

// IsTeacher reports teacher-or-above privilege.
func (r UserRole) IsTeacher() bool {
	return r == RoleTeacher || r.IsAdmin()
}

// IsStudent reports whether the role is exactly STUDENT.
func (r UserRole) IsStudent() bool {
	return r == RoleStudent
}

// User represents a registered principal stored in the users table. Email and
// registration code are each unique among users.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Registration *string   `db:"registration" json:"registration,omitempty"`
	Enabled      bool      `db:"access_enabled" json:"access_enabled"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Enabled  *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
