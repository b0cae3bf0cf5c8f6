package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/convivia/school-wellbeing-backend/internal/reports"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// BuildWorkbook renders sheets into a single xlsx with bold headers,
// row-1 auto-filter and heuristic column widths.
func BuildWorkbook(sheets []SheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// heuristic width: header length and the first rows
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if c-1 < len(s.Rows[r]) {
					if l := len(s.Rows[r][c-1]); l > maxim {
						maxim = l
					}
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f, nil
}

// WellbeingSheets lays out the institution report: monthly climate, per-course
// energy and the risk list.
func WellbeingSheets(monthly *reports.MonthlySummary, courses []reports.CourseClimate, risk []reports.RiskEntry) []SheetSpec {
	monthlyRows := [][]string{{
		fmt.Sprintf("%04d-%02d", monthly.Year, monthly.Month),
		strconv.Itoa(monthly.TotalLogs),
		fmt.Sprintf("%.1f%%", monthly.NegativePercentage),
	}}

	courseRows := make([][]string, 0, len(courses))
	for _, c := range courses {
		courseRows = append(courseRows, []string{
			c.CourseName,
			strconv.Itoa(c.TotalLogs),
			fmt.Sprintf("%.0f%%", c.ReguladaShare*100),
		})
	}

	riskRows := make([][]string, 0, len(risk))
	for _, r := range risk {
		riskRows = append(riskRows, []string{
			r.StudentName,
			strconv.Itoa(r.OpenAlerts),
			strconv.Itoa(r.NegativeLogs30d),
			strconv.Itoa(r.OpenIncidents),
		})
	}

	return []SheetSpec{
		{
			Title:  "Clima mensual",
			Header: []string{"Mes", "Registros", "% negativo"},
			Rows:   monthlyRows,
		},
		{
			Title:  "Clima por curso",
			Header: []string{"Curso", "Registros", "% regulada"},
			Rows:   courseRows,
		},
		{
			Title:  "Lista de riesgo",
			Header: []string{"Estudiante", "Alertas abiertas", "Registros negativos 30d", "DEC abiertos"},
			Rows:   riskRows,
		},
	}
}

// helpers

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
