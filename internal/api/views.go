package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// profileView is the wire shape of a profile; the password hash never leaves
// the server.
type profileView struct {
	ID            uuid.UUID   `json:"id"`
	InstitutionID uuid.UUID   `json:"institution_id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Role          models.Role `json:"role"`
	CourseID      *uuid.UUID  `json:"course_id,omitempty"`
	Active        bool        `json:"active"`
	CreatedAt     time.Time   `json:"created_at"`
}

func viewProfile(p *models.Profile) profileView {
	return profileView{
		ID:            p.ID,
		InstitutionID: p.InstitutionID,
		Name:          p.Name,
		Email:         p.Email,
		Role:          p.Role,
		CourseID:      p.CourseID,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
	}
}
