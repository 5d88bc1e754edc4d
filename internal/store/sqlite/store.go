// internal/store/sqlite/store.go
package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/shrimpsizemoose/coursereg/internal/store"
	"github.com/shrimpsizemoose/coursereg/migrations"
)

type SQLiteStore struct {
	store.BaseStore
}

var dialect = store.Dialect{
	Name:            "sqlite",
	Translate:       translateToSQLite,
	IsTransient:     isTransient,
	UniqueViolation: uniqueViolation,
}

// SQLite reports the columns of a failed unique key, not its name.
var uniqueColumns = map[string]string{
	store.KeyOfferingCourseFaculty:     "offerings.course_id, offerings.faculty_id",
	store.KeyEnrollmentStudentOffering: "enrollments.student_id, enrollments.offering_id",
}

func NewSQLiteStore(config *store.DBConfig) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", withPragmas(config.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	// One writer at a time; transactions begin IMMEDIATE so the write lock
	// is held from the first read.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.NewBaseStore(db, dialect, config)}

	if err := s.ApplyMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

// withPragmas adds the driver options the store relies on unless the DSN
// already sets them.
func withPragmas(dsn string) string {
	params := []string{"_foreign_keys=on", "_busy_timeout=5000", "_txlock=immediate"}

	var missing []string
	for _, p := range params {
		key := p[:strings.Index(p, "=")+1]
		if !strings.Contains(dsn, key) {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(missing, "&")
}

// translateToSQLite converts Postgres SQL to SQLite dialect
func translateToSQLite(sql string) string {
	replacements := map[string]string{
		"TIMESTAMPTZ": "DATETIME",
		"BIGINT":      "INTEGER",
		"now()":       "CURRENT_TIMESTAMP",
	}
	result := sql
	for from, to := range replacements {
		result = strings.ReplaceAll(result, from, to)
	}
	return result
}

func isTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func uniqueViolation(err error, key string) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	columns, ok := uniqueColumns[key]
	return ok && strings.Contains(sqliteErr.Error(), columns)
}
