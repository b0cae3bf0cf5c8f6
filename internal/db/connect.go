package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dbh, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	dbh.SetMaxOpenConns(20)
	dbh.SetMaxIdleConns(5)
	dbh.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbh.PingContext(pingCtx); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	return dbh, nil
}
