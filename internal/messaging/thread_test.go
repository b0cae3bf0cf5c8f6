package messaging

import (
	"testing"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.ThreadStatus
		want     bool
	}{
		{models.ThreadOpen, models.ThreadInProgress, true},
		{models.ThreadOpen, models.ThreadClosed, true},
		{models.ThreadInProgress, models.ThreadClosed, true},

		{models.ThreadInProgress, models.ThreadOpen, false},
		{models.ThreadClosed, models.ThreadOpen, false},
		{models.ThreadClosed, models.ThreadInProgress, false},
		{models.ThreadOpen, models.ThreadOpen, false},
		{models.ThreadClosed, models.ThreadClosed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
