package reports

import (
	"context"
	"database/sql"
	"sort"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// MonthlySummary is the dashboard's per-month emotional climate rollup.
type MonthlySummary struct {
	Year               int
	Month              int
	TotalLogs          int
	NegativePercentage float64
	ByEmotion          map[models.Emotion]int
}

// CourseClimate is the rolled-up classroom energy picture for one course.
type CourseClimate struct {
	CourseID   string
	CourseName string
	TotalLogs  int
	// share of logs marked regulada; the closest thing to a "good climate" score
	ReguladaShare float64
	ByEnergy      map[models.EnergyLevel]int
}

// RiskEntry flags a student for the risk list.
type RiskEntry struct {
	StudentID       string
	StudentName     string
	OpenAlerts      int
	NegativeLogs30d int
	OpenIncidents   int
}

// NegativePercentage computes the share of negative emotions in a month's
// counts. Pure; fed by rows the dashboard re-fetches on every load.
func NegativePercentage(counts []models.EmotionCount) (total int, pct float64) {
	neg := 0
	for _, c := range counts {
		total += c.Count
		if c.Emotion.IsNegative() {
			neg += c.Count
		}
	}
	if total == 0 {
		return 0, 0
	}
	return total, float64(neg) * 100 / float64(total)
}

// RollupCourses groups raw energy counts into per-course climate summaries.
func RollupCourses(rows []models.CourseEnergyRow) []CourseClimate {
	byCourse := make(map[string]*CourseClimate)
	for _, r := range rows {
		key := r.CourseID.String()
		c, ok := byCourse[key]
		if !ok {
			c = &CourseClimate{
				CourseID:   key,
				CourseName: r.CourseName,
				ByEnergy:   make(map[models.EnergyLevel]int),
			}
			byCourse[key] = c
		}
		c.ByEnergy[r.EnergyLevel] += r.Count
		c.TotalLogs += r.Count
	}

	out := make([]CourseClimate, 0, len(byCourse))
	for _, c := range byCourse {
		if c.TotalLogs > 0 {
			c.ReguladaShare = float64(c.ByEnergy[models.EnergyRegulada]) / float64(c.TotalLogs)
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseName < out[j].CourseName })
	return out
}

// FilterRisk keeps only students with at least one risk signal, ordered by
// open alerts then negative logs.
func FilterRisk(rows []models.RiskRow) []RiskEntry {
	var out []RiskEntry
	for _, r := range rows {
		if r.OpenAlerts == 0 && r.NegativeLogs30d == 0 && r.OpenIncidents == 0 {
			continue
		}
		out = append(out, RiskEntry{
			StudentID:       r.StudentID.String(),
			StudentName:     r.StudentName,
			OpenAlerts:      r.OpenAlerts,
			NegativeLogs30d: r.NegativeLogs30d,
			OpenIncidents:   r.OpenIncidents,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenAlerts != out[j].OpenAlerts {
			return out[i].OpenAlerts > out[j].OpenAlerts
		}
		return out[i].NegativeLogs30d > out[j].NegativeLogs30d
	})
	return out
}

// Service fetches raw rows and aggregates them. No caching: every dashboard
// view re-queries and re-aggregates from scratch.
type Service struct {
	dbh *sql.DB
}

func NewService(dbh *sql.DB) *Service { return &Service{dbh: dbh} }

func (s *Service) Monthly(ctx context.Context, ident ctxutil.Identity, year, month int) (*MonthlySummary, error) {
	counts, err := db.EmotionCountsForMonth(ctx, s.dbh, ident.InstitutionID, year, month)
	if err != nil {
		return nil, err
	}
	total, pct := NegativePercentage(counts)
	byEmotion := make(map[models.Emotion]int, len(counts))
	for _, c := range counts {
		byEmotion[c.Emotion] = c.Count
	}
	return &MonthlySummary{
		Year:               year,
		Month:              month,
		TotalLogs:          total,
		NegativePercentage: pct,
		ByEmotion:          byEmotion,
	}, nil
}

func (s *Service) CourseClimates(ctx context.Context, ident ctxutil.Identity, days int) ([]CourseClimate, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := db.EnergyCountsByCourse(ctx, s.dbh, ident.InstitutionID, days)
	if err != nil {
		return nil, err
	}
	return RollupCourses(rows), nil
}

func (s *Service) RiskList(ctx context.Context, ident ctxutil.Identity) ([]RiskEntry, error) {
	rows, err := db.RiskRows(ctx, s.dbh, ident.InstitutionID)
	if err != nil {
		return nil, err
	}
	return FilterRisk(rows), nil
}
