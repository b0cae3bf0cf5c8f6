package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent     Role = "student"
	RoleTeacher     Role = "teacher"
	RoleParent      Role = "parent"
	RoleAdmin       Role = "admin"
	RoleDupla       Role = "dupla"
	RoleConvivencia Role = "convivencia"
	RoleDirector    Role = "director"
	RoleInspector   Role = "inspector"
	RoleUTP         Role = "utp"
)

// staff roles may manage alerts, incidents and mailbox threads.
var staffRoles = map[Role]bool{
	RoleAdmin:       true,
	RoleDupla:       true,
	RoleConvivencia: true,
	RoleDirector:    true,
	RoleInspector:   true,
	RoleUTP:         true,
}

func (r Role) IsStaff() bool { return staffRoles[r] }

// resolver roles may mark alerts as resolved.
func (r Role) CanResolveAlerts() bool {
	return r == RoleDupla || r == RoleConvivencia || r == RoleDirector || r == RoleAdmin
}

type Profile struct {
	ID            uuid.UUID  `db:"id"`
	InstitutionID uuid.UUID  `db:"institution_id"`
	Name          string     `db:"name"`
	Email         string     `db:"email"`
	Role          Role       `db:"role"`
	PasswordHash  string     `db:"password_hash"`
	CourseID      *uuid.UUID `db:"course_id"` // students only
	Active        bool       `db:"is_active"`
	CreatedAt     time.Time  `db:"created_at"`
}

type Course struct {
	ID            uuid.UUID `db:"id"`
	InstitutionID uuid.UUID `db:"institution_id"`
	Name          string    `db:"name"`
	CreatedAt     time.Time `db:"created_at"`
}
