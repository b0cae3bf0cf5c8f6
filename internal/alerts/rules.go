package alerts

import "github.com/convivia/school-wellbeing-backend/internal/models"

// streakWindow is the number of consecutive daily logs the negative-streak
// rule inspects, the newly written one included.
const streakWindow = 3

// repeatedIncidentThreshold is how many open DEC cases inside
// repeatedIncidentDays trigger a dec_repetido alert.
const (
	repeatedIncidentThreshold = 3
	repeatedIncidentDays      = 30
)

// NegativeStreak decides the registros_negativos rule: exactly streakWindow
// daily logs exist in the window and every one of them is negative. Fewer
// logs never trigger, and the rule is evaluated again on every later bad day,
// so a 4th consecutive bad log produces a second alert. That repetition is
// kept on purpose; see DESIGN.md.
func NegativeStreak(recent []models.EmotionalLog) bool {
	if len(recent) < streakWindow {
		return false
	}
	for _, l := range recent[:streakWindow] {
		if l.Type != models.LogTypeDaily || !l.Emotion.IsNegative() {
			return false
		}
	}
	return true
}

// Discrepancy decides the discrepancia_docente rule: a teacher scores the
// student's well-being at 2 or below while the student's own most recent
// daily log reads positive. Only the latest record is compared; there is no
// trend window.
func Discrepancy(wellbeingScore int, latest *models.EmotionalLog) bool {
	if wellbeingScore > 2 {
		return false
	}
	if latest == nil {
		return false
	}
	return latest.Emotion.IsPositive()
}

// RepeatedIncidents decides the dec_repetido rule from a pre-computed count
// of the student's unresolved incidents in the trailing window.
func RepeatedIncidents(openIncidents int) bool {
	return openIncidents >= repeatedIncidentThreshold
}
