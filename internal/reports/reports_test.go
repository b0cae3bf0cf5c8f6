package reports

import (
	"testing"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func TestNegativePercentage(t *testing.T) {
	t.Run("empty_month", func(t *testing.T) {
		total, pct := NegativePercentage(nil)
		if total != 0 || pct != 0 {
			t.Fatalf("empty counts: got total=%d pct=%f", total, pct)
		}
	})

	t.Run("mixed_month", func(t *testing.T) {
		counts := []models.EmotionCount{
			{Emotion: models.EmotionMuyMal, Count: 1},
			{Emotion: models.EmotionMal, Count: 2},
			{Emotion: models.EmotionNeutral, Count: 3},
			{Emotion: models.EmotionBien, Count: 4},
		}
		total, pct := NegativePercentage(counts)
		if total != 10 {
			t.Fatalf("total = %d, want 10", total)
		}
		if pct != 30 {
			t.Fatalf("pct = %f, want 30", pct)
		}
	})
}

func TestRollupCourses(t *testing.T) {
	courseA := uuid.New()
	courseB := uuid.New()
	rows := []models.CourseEnergyRow{
		{CourseID: courseB, CourseName: "2B", EnergyLevel: models.EnergyRegulada, Count: 3},
		{CourseID: courseA, CourseName: "1A", EnergyLevel: models.EnergyRegulada, Count: 1},
		{CourseID: courseA, CourseName: "1A", EnergyLevel: models.EnergyExplosiva, Count: 3},
		{CourseID: courseB, CourseName: "2B", EnergyLevel: models.EnergyApatica, Count: 1},
	}

	out := RollupCourses(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 courses, got %d", len(out))
	}
	if out[0].CourseName != "1A" || out[1].CourseName != "2B" {
		t.Fatalf("courses must be sorted by name, got %s, %s", out[0].CourseName, out[1].CourseName)
	}
	if out[0].TotalLogs != 4 || out[0].ReguladaShare != 0.25 {
		t.Fatalf("1A rollup wrong: %+v", out[0])
	}
	if out[1].TotalLogs != 4 || out[1].ReguladaShare != 0.75 {
		t.Fatalf("2B rollup wrong: %+v", out[1])
	}
}

func TestFilterRisk(t *testing.T) {
	quiet := models.RiskRow{StudentID: uuid.New(), StudentName: "sin señales"}
	alerted := models.RiskRow{StudentID: uuid.New(), StudentName: "con alertas", OpenAlerts: 2}
	logged := models.RiskRow{StudentID: uuid.New(), StudentName: "con registros", NegativeLogs30d: 5}
	both := models.RiskRow{StudentID: uuid.New(), StudentName: "ambos", OpenAlerts: 2, NegativeLogs30d: 9}

	out := FilterRisk([]models.RiskRow{quiet, logged, alerted, both})
	if len(out) != 3 {
		t.Fatalf("student without signals must be dropped, got %d entries", len(out))
	}
	// ordered by open alerts, then negative logs
	if out[0].StudentName != "ambos" || out[1].StudentName != "con alertas" || out[2].StudentName != "con registros" {
		t.Fatalf("wrong order: %s, %s, %s", out[0].StudentName, out[1].StudentName, out[2].StudentName)
	}
}
