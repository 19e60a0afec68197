package postgres

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func getDBConnString(opts *PostgresConfig) string {
	if opts.DBName == "" {
		return GetDefaultConnString()
	}
	return GetConnString(opts)
}

func NewDBConn(opts *PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", getDBConnString(opts))
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	return db, nil
}
