package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/export"
)

func (s *server) monthlyReport(c echo.Context) error {
	year, month := yearMonth(c)
	out, err := s.opts.Reports.Monthly(c.Request().Context(), ident(c), year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) courseClimates(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	out, err := s.opts.Reports.CourseClimates(c.Request().Context(), ident(c), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) riskList(c echo.Context) error {
	out, err := s.opts.Reports.RiskList(c.Request().Context(), ident(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// exportReport streams the monthly workbook (climate, per-course energy, risk
// list) as an xlsx download.
func (s *server) exportReport(c echo.Context) error {
	id := ident(c)
	ctx := c.Request().Context()
	year, month := yearMonth(c)

	monthly, err := s.opts.Reports.Monthly(ctx, id, year, month)
	if err != nil {
		return err
	}
	courses, err := s.opts.Reports.CourseClimates(ctx, id, 30)
	if err != nil {
		return err
	}
	risk, err := s.opts.Reports.RiskList(ctx, id)
	if err != nil {
		return err
	}

	f, err := export.BuildWorkbook(export.WellbeingSheets(monthly, courses, risk))
	if err != nil {
		return err
	}

	name := fmt.Sprintf("reporte_convivencia_%04d-%02d.xlsx", year, month)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}

func yearMonth(c echo.Context) (int, int) {
	now := time.Now()
	year, _ := strconv.Atoi(c.QueryParam("year"))
	month, _ := strconv.Atoi(c.QueryParam("month"))
	if year < 2000 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	return year, month
}
