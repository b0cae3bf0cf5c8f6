package messaging

import "github.com/convivia/school-wellbeing-backend/internal/models"

// CanTransition encodes the monotonic mailbox lifecycle:
// abierto -> en_proceso -> cerrado, with a direct abierto -> cerrado shortcut.
// cerrado is terminal; nothing reopens.
func CanTransition(from, to models.ThreadStatus) bool {
	switch from {
	case models.ThreadOpen:
		return to == models.ThreadInProgress || to == models.ThreadClosed
	case models.ThreadInProgress:
		return to == models.ThreadClosed
	default:
		return false
	}
}
