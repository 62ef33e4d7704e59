package review

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lewtec/polypmark/internal/repository"
)

// OpenDatabase opens the local annotation database and brings its schema
// up to date.
func OpenDatabase(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("while opening database '%s': %w", filename, err)
	}
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("while migrating database '%s': %w", filename, err)
	}
	return db, nil
}
