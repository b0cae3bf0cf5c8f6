package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

const identityKey = "identity"

var (
	roleStudent = models.RoleStudent
	roleTeacher = models.RoleTeacher
	roleAdmin   = models.RoleAdmin
)

var errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "correo o contraseña incorrectos")

type claims struct {
	Role          models.Role `json:"role"`
	InstitutionID uuid.UUID   `json:"institution_id"`
	jwt.RegisteredClaims
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string      `json:"token"`
	Profile profileView `json:"profile"`
}

func (s *server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := db.GetProfileByEmail(c.Request().Context(), s.opts.DB, strings.ToLower(req.Email))
	if errors.Is(err, db.ErrNotFound) {
		return errInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
		return errInvalidCredentials
	}

	token, err := s.generateToken(p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Profile: viewProfile(p)})
}

func (s *server) generateToken(p *models.Profile) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:          p.Role,
		InstitutionID: p.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	})
	return t.SignedString([]byte(s.opts.JWTSecret))
}

// authMiddleware parses the bearer token and reloads the profile so that role
// changes and deactivation take effect on the next request, not on token
// expiry.
func (s *server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		var cl claims
		_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(s.opts.JWTSecret), nil
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		profileID, err := uuid.Parse(cl.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		p, err := db.GetProfile(c.Request().Context(), s.opts.DB, profileID)
		if errors.Is(err, db.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		if err != nil {
			return err
		}
		if !p.Active {
			return echo.NewHTTPError(http.StatusUnauthorized, "cuenta desactivada")
		}

		id := ctxutil.Identity{
			ProfileID:     p.ID,
			Role:          p.Role,
			InstitutionID: p.InstitutionID,
		}
		c.Set(identityKey, id)
		c.SetRequest(c.Request().WithContext(ctxutil.WithIdentity(c.Request().Context(), id)))
		return next(c)
	}
}

func ident(c echo.Context) ctxutil.Identity {
	id, _ := c.Get(identityKey).(ctxutil.Identity)
	return id
}

func requireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := ident(c)
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return echo.ErrForbidden
		}
	}
}

func requireStaff(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !ident(c).Role.IsStaff() {
			return echo.ErrForbidden
		}
		return next(c)
	}
}

func requireStaffOrTeacher(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := ident(c)
		if !id.Role.IsStaff() && id.Role != models.RoleTeacher {
			return echo.ErrForbidden
		}
		return next(c)
	}
}
