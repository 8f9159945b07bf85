package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/formsend/formsend/config"
	"github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
)

func Open(cfg config.Config) (db *sql.DB, err error) {
	db, err = sql.Open("sqlite3", cfg.DBUrl)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open database")
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "enable foreign keys")
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db)
	if err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "migrate database")
	}

	return
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure, so
// callers can surface duplicates as a conflict instead of a server error.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
