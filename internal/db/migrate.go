package db

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/convivia/school-wellbeing-backend/internal/db/migrations"
)

func Migrate(dbh *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(dbh, ".")
}
