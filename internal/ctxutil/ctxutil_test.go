package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func TestIdentityRoundTrip(t *testing.T) {
	id := Identity{
		ProfileID:     uuid.New(),
		Role:          models.RoleTeacher,
		InstitutionID: uuid.New(),
	}
	got, ok := IdentityFrom(WithIdentity(context.Background(), id))
	if !ok {
		t.Fatal("identity not found after WithIdentity")
	}
	if got != id {
		t.Fatalf("identity = %+v, want %+v", got, id)
	}

	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatal("bare context must carry no identity")
	}
}

func TestWithDBTimeoutKeepsTighterParent(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	parentDL, _ := parent.Deadline()
	if dl.After(parentDL) {
		t.Fatalf("child deadline %v exceeds the parent's %v", dl, parentDL)
	}
}
