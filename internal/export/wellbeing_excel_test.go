package export

import (
	"testing"

	"github.com/convivia/school-wellbeing-backend/internal/reports"
)

func TestColName(t *testing.T) {
	cases := map[int]string{1: "A", 2: "B", 26: "Z", 27: "AA", 28: "AB", 52: "AZ", 53: "BA"}
	for n, want := range cases {
		if got := colName(n); got != want {
			t.Errorf("colName(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestBuildWorkbook(t *testing.T) {
	monthly := &reports.MonthlySummary{Year: 2026, Month: 8, TotalLogs: 10, NegativePercentage: 30}
	courses := []reports.CourseClimate{{CourseName: "1A", TotalLogs: 4, ReguladaShare: 0.25}}
	risk := []reports.RiskEntry{{StudentName: "Ana", OpenAlerts: 2, NegativeLogs30d: 5, OpenIncidents: 1}}

	f, err := BuildWorkbook(WellbeingSheets(monthly, courses, risk))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, sheet := range []string{"Clima mensual", "Clima por curso", "Lista de riesgo"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("missing sheet %q", sheet)
		}
	}

	got, err := f.GetCellValue("Lista de riesgo", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ana" {
		t.Fatalf("risk sheet A2 = %q, want Ana", got)
	}

	header, err := f.GetCellValue("Clima mensual", "A1")
	if err != nil {
		t.Fatal(err)
	}
	if header != "Mes" {
		t.Fatalf("monthly header = %q, want Mes", header)
	}
}
