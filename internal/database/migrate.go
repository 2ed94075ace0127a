package database

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Migrate applies pending goose migrations from dir against db. Called
// once at startup before the server begins serving.
func Migrate(db *sql.DB, dir string) error {
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}
