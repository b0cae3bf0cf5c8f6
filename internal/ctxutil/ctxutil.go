package ctxutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// private key to avoid collisions
type key int

const keyIdentity key = iota

// Identity is the resolved caller of a request: who, which role, which
// institution. It is passed explicitly into every service call instead of
// being re-queried ad hoc.
type Identity struct {
	ProfileID     uuid.UUID
	Role          models.Role
	InstitutionID uuid.UUID
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v := ctx.Value(keyIdentity)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

var DefaultDBTimeout = 5 * time.Second

// WithDBTimeout — standard timeout for DB round trips. If the parent deadline
// is tighter, keep the remainder.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
