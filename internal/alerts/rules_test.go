package alerts

import (
	"testing"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func dailyLog(e models.Emotion) models.EmotionalLog {
	return models.EmotionalLog{Emotion: e, Type: models.LogTypeDaily}
}

func TestNegativeStreak(t *testing.T) {
	t.Run("one_bad_day_is_not_a_streak", func(t *testing.T) {
		if NegativeStreak([]models.EmotionalLog{dailyLog(models.EmotionMal)}) {
			t.Fatal("single negative log must not trigger")
		}
	})

	t.Run("two_bad_days_are_not_a_streak", func(t *testing.T) {
		recent := []models.EmotionalLog{dailyLog(models.EmotionMal), dailyLog(models.EmotionMuyMal)}
		if NegativeStreak(recent) {
			t.Fatal("two negative logs must not trigger")
		}
	})

	t.Run("three_bad_days_trigger", func(t *testing.T) {
		recent := []models.EmotionalLog{
			dailyLog(models.EmotionMal),
			dailyLog(models.EmotionMuyMal),
			dailyLog(models.EmotionMal),
		}
		if !NegativeStreak(recent) {
			t.Fatal("three consecutive negative logs must trigger")
		}
	})

	t.Run("neutral_breaks_the_streak", func(t *testing.T) {
		recent := []models.EmotionalLog{
			dailyLog(models.EmotionMal),
			dailyLog(models.EmotionNeutral),
			dailyLog(models.EmotionMal),
		}
		if NegativeStreak(recent) {
			t.Fatal("neutral inside the window must not trigger")
		}
	})

	t.Run("only_the_window_counts", func(t *testing.T) {
		// newest three are negative, the older positive log is irrelevant
		recent := []models.EmotionalLog{
			dailyLog(models.EmotionMal),
			dailyLog(models.EmotionMal),
			dailyLog(models.EmotionMuyMal),
			dailyLog(models.EmotionMuyBien),
		}
		if !NegativeStreak(recent) {
			t.Fatal("logs outside the window must not break the streak")
		}
	})

	t.Run("weekly_logs_do_not_count", func(t *testing.T) {
		recent := []models.EmotionalLog{
			dailyLog(models.EmotionMal),
			{Emotion: models.EmotionMal, Type: models.LogTypeWeekly},
			dailyLog(models.EmotionMal),
		}
		if NegativeStreak(recent) {
			t.Fatal("weekly log inside the window must not trigger")
		}
	})
}

func TestDiscrepancy(t *testing.T) {
	positive := dailyLog(models.EmotionBien)
	negative := dailyLog(models.EmotionMal)

	t.Run("low_score_vs_positive_self_report", func(t *testing.T) {
		if !Discrepancy(2, &positive) {
			t.Fatal("score 2 against positive self-report must trigger")
		}
	})

	t.Run("high_score_never_triggers", func(t *testing.T) {
		if Discrepancy(3, &positive) {
			t.Fatal("score above 2 must not trigger")
		}
	})

	t.Run("agreeing_reports_do_not_trigger", func(t *testing.T) {
		if Discrepancy(1, &negative) {
			t.Fatal("low score against negative self-report is agreement, not discrepancy")
		}
	})

	t.Run("no_self_report_no_discrepancy", func(t *testing.T) {
		if Discrepancy(1, nil) {
			t.Fatal("a student without logs cannot be discrepant")
		}
	})
}

func TestRepeatedIncidents(t *testing.T) {
	if RepeatedIncidents(2) {
		t.Fatal("two open cases must not trigger")
	}
	if !RepeatedIncidents(3) {
		t.Fatal("three open cases must trigger")
	}
	if !RepeatedIncidents(5) {
		t.Fatal("above the threshold must trigger")
	}
}
