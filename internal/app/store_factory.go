package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/coursereg/internal/store"
	"github.com/shrimpsizemoose/coursereg/internal/store/postgres"
	"github.com/shrimpsizemoose/coursereg/internal/store/sqlite"
)

// NewStore picks the backend from the DSN: postgres:// and postgresql://
// go to Postgres, anything else is a SQLite file.
func NewStore(config *store.DBConfig) (store.Store, error) {
	config.Type = store.DBTypeSQLite
	if strings.HasPrefix(config.DSN, "postgres") {
		config.Type = store.DBTypePostgres
	}

	switch config.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(config)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", config.DSN)
	}
}
