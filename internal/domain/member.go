package domain

import "time"

// Roles relevant to the core. Workflow roles (officer, secretary, chair,
// treasurer) are enforced by the caller layer; the core only distinguishes
// admins for agenda notifications.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// Member is the slice of the user record the core reads. Account management
// lives outside this engine.
type Member struct {
	ID          int64     `json:"id" db:"id"`
	FullName    string    `json:"full_name" db:"full_name"`
	Email       string    `json:"email" db:"email"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Role        string    `json:"role" db:"role"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Notification is a persisted fire-and-forget message to a member.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Setting is one keyed configuration row.
type Setting struct {
	Key      string `json:"setting_key" db:"setting_key"`
	Value    string `json:"setting_value" db:"setting_value"`
	Category string `json:"category" db:"category"`
}
